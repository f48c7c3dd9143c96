package audit

import (
	"fmt"

	"mechci/internal/security"
)

// VerifyChain recomputes each record hash and link to detect tampering.
func (l *Ledger) VerifyChain() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, rec := range l.records {
		h, err := rec.ComputeHash()
		if err != nil {
			return fmt.Errorf("compute hash for index %d: %w", rec.Index, err)
		}
		if h != rec.Hash {
			return fmt.Errorf("hash mismatch at index %d", rec.Index)
		}

		if i > 0 && rec.PrevHash != l.records[i-1].Hash {
			return fmt.Errorf("prev hash mismatch at index %d", rec.Index)
		}
		if rec.Index != i {
			return fmt.Errorf("index mismatch: expected %d, got %d", i, rec.Index)
		}
	}
	return nil
}

// VerifySignatures checks each record's ed25519 signature against the
// public key stored with it. Separate from VerifyChain because a ledger
// may be verified on a machine that never held the signing key.
func (l *Ledger) VerifySignatures() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, rec := range l.records {
		if rec.Signature == "" || rec.PubKey == "" {
			return fmt.Errorf("record %d is unsigned", rec.Index)
		}
		ok, err := security.VerifySignatureFromHex(rec.PubKey, []byte(rec.Hash), rec.Signature)
		if err != nil {
			return fmt.Errorf("verify signature at index %d: %w", rec.Index, err)
		}
		if !ok {
			return fmt.Errorf("signature mismatch at index %d", rec.Index)
		}
	}
	return nil
}
