package audit

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Ledger is an append-only chain of step records backed by a JSONL file
// (one JSON record per line).
type Ledger struct {
	mu      sync.Mutex
	records []*Record
	path    string
}

// OpenLedger loads an existing ledger file or creates an empty one.
func OpenLedger(path string) (*Ledger, error) {
	l := &Ledger{
		records: make([]*Record, 0),
		path:    path,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		_ = f.Close()
		return l, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return l, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode ledger entry: %w", err)
		}
		l.records = append(l.records, &rec)
	}
	return l, nil
}

// Append signs a record with the runner's private key, persists it and
// keeps it in memory. The record's PrevHash must match the current tip.
func (l *Ledger) Append(r *Record, priv ed25519.PrivateKey, pub ed25519.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Recompute so the stored hash always matches the canonical fields.
	h, err := r.ComputeHash()
	if err != nil {
		return fmt.Errorf("recompute record hash: %w", err)
	}
	r.Hash = h

	if len(l.records) > 0 {
		last := l.records[len(l.records)-1]
		if r.PrevHash != last.Hash {
			return fmt.Errorf("prevHash mismatch: expected %s, got %s", last.Hash, r.PrevHash)
		}
	}

	if len(priv) == 0 {
		return fmt.Errorf("private key is empty, cannot sign record")
	}
	sig := ed25519.Sign(priv, []byte(r.Hash))
	r.Signature = hex.EncodeToString(sig)
	r.PubKey = hex.EncodeToString(pub)

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}

	l.records = append(l.records, r)
	return nil
}

// Records returns a copy of the in-memory chain. Callers get their own
// records and cannot alter the ledger's state through them.
func (l *Ledger) Records() []*Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Record, len(l.records))
	for i, rec := range l.records {
		cp := *rec
		out[i] = &cp
	}
	return out
}

// NextIndex returns the index the next record should carry.
func (l *Ledger) NextIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// LastHash returns the hash of the chain tip, or empty for a fresh ledger.
func (l *Ledger) LastHash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return ""
	}
	return l.records[len(l.records)-1].Hash
}
