package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mechci/internal/security"
	"mechci/pkg/hashutil"
)

func createTempLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "step.log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp log: %v", err)
	}
	return path
}

func TestNewRecordAndHash(t *testing.T) {
	logPath := createTempLog(t, "collecting ... 42 passed")
	logHash, err := hashutil.HashFile(logPath)
	if err != nil {
		t.Fatalf("failed to hash log: %v", err)
	}

	rec, err := NewRecord(0, "run-1", "all-tests", "test-ratefit", "Test ratefit", logPath, logHash, "", "local-runner")
	if err != nil {
		t.Fatalf("failed to create record: %v", err)
	}

	h, err := rec.ComputeHash()
	if err != nil {
		t.Fatalf("failed to recompute hash: %v", err)
	}
	if h != rec.Hash {
		t.Errorf("hash mismatch: got %s, want %s", rec.Hash, h)
	}
}

func TestLedgerAppendAndVerify(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "ledger.jsonl")
	ledger, err := OpenLedger(tmpFile)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}

	pub, priv, err := security.GenerateKeyPair()
	if err != nil {
		t.Fatalf("failed to generate keypair: %v", err)
	}

	log1 := createTempLog(t, "bash build.sh output")
	h1, _ := hashutil.HashFile(log1)
	r1, _ := NewRecord(0, "run-1", "all-tests", "test-ratefit", "Build dsarrfit", log1, h1, "", "runner-1")
	if err := ledger.Append(r1, priv, pub); err != nil {
		t.Fatalf("failed to append record 1: %v", err)
	}

	log2 := createTempLog(t, "pytest output")
	h2, _ := hashutil.HashFile(log2)
	r2, _ := NewRecord(1, "run-1", "all-tests", "test-ratefit", "Test ratefit", log2, h2, r1.Hash, "runner-1")
	if err := ledger.Append(r2, priv, pub); err != nil {
		t.Fatalf("failed to append record 2: %v", err)
	}

	if err := ledger.VerifyChain(); err != nil {
		t.Errorf("chain verification failed: %v", err)
	}
	if err := ledger.VerifySignatures(); err != nil {
		t.Errorf("signature verification failed: %v", err)
	}
}

func TestAppendRejectsBrokenLink(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "ledger.jsonl")
	ledger, _ := OpenLedger(tmpFile)
	pub, priv, _ := security.GenerateKeyPair()

	log := createTempLog(t, "first")
	h, _ := hashutil.HashFile(log)
	r1, _ := NewRecord(0, "run-1", "all-tests", "test-ratefit", "checkout", log, h, "", "runner-1")
	if err := ledger.Append(r1, priv, pub); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	r2, _ := NewRecord(1, "run-1", "all-tests", "test-ratefit", "Build", log, h, "not-the-tip", "runner-1")
	if err := ledger.Append(r2, priv, pub); err == nil {
		t.Error("expected prevHash mismatch error")
	}
}

func TestTamperingDetection(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "ledger.jsonl")
	ledger, _ := OpenLedger(tmpFile)
	pub, priv, _ := security.GenerateKeyPair()

	log := createTempLog(t, "pylint output")
	h, _ := hashutil.HashFile(log)
	rec, _ := NewRecord(0, "run-1", "all-tests", "test-mechanalyzer", "Lint", log, h, "", "runner-2")
	if err := ledger.Append(rec, priv, pub); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	// Rewrite the ledger file with a doctored log hash, the way an
	// attacker editing ledger.jsonl on disk would.
	tampered := ledger.Records()[0]
	tampered.LogHash = "fakehash"
	data, err := json.Marshal(tampered)
	if err != nil {
		t.Fatalf("marshal tampered record: %v", err)
	}
	if err := os.WriteFile(tmpFile, append(data, '\n'), 0644); err != nil {
		t.Fatalf("rewrite ledger file: %v", err)
	}

	reloaded, err := OpenLedger(tmpFile)
	if err != nil {
		t.Fatalf("failed to reopen ledger: %v", err)
	}
	if err := reloaded.VerifyChain(); err == nil {
		t.Error("expected tampering detection, but chain verified")
	}
}

func TestRecordsReturnsCopies(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "ledger.jsonl")
	ledger, _ := OpenLedger(tmpFile)
	pub, priv, _ := security.GenerateKeyPair()

	log := createTempLog(t, "flake8 output")
	h, _ := hashutil.HashFile(log)
	rec, _ := NewRecord(0, "run-1", "all-tests", "test-ratefit", "Lint", log, h, "", "runner-1")
	if err := ledger.Append(rec, priv, pub); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	ledger.Records()[0].LogHash = "fakehash"

	if err := ledger.VerifyChain(); err != nil {
		t.Errorf("mutating a returned record must not touch the chain: %v", err)
	}
}

func TestLedgerPersistence(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "ledger.jsonl")
	ledger, _ := OpenLedger(tmpFile)
	pub, priv, _ := security.GenerateKeyPair()

	log := createTempLog(t, "persisted log")
	h, _ := hashutil.HashFile(log)
	rec, _ := NewRecord(0, "run-9", "all-tests", "test-ratefit", "Install ratefit", log, h, "", "runner-1")
	if err := ledger.Append(rec, priv, pub); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	reloaded, err := OpenLedger(tmpFile)
	if err != nil {
		t.Fatalf("failed to reopen ledger: %v", err)
	}
	if got := len(reloaded.Records()); got != 1 {
		t.Fatalf("reloaded records: got %d, want 1", got)
	}
	if err := reloaded.VerifyChain(); err != nil {
		t.Errorf("reloaded ledger verification failed: %v", err)
	}
	if err := reloaded.VerifySignatures(); err != nil {
		t.Errorf("reloaded signature verification failed: %v", err)
	}
}
