package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Record is a tamper-evident entry for one completed pipeline step.
// Records chain through PrevHash so a rewritten log is detectable after
// the fact.
type Record struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	RunID     string `json:"runId"`
	Workflow  string `json:"workflow"`
	Job       string `json:"job"`
	Step      string `json:"step"`
	LogPath   string `json:"logPath"`
	LogHash   string `json:"logHash"`
	PrevHash  string `json:"prevHash"`
	Hash      string `json:"hash"`
	RunnerID  string `json:"runnerId"`
	Signature string `json:"signature"`
	PubKey    string `json:"pubKey"`
}

// canonicalData returns the JSON bytes the record hash is computed over.
// Hash, Signature and PubKey are excluded.
func (r *Record) canonicalData() ([]byte, error) {
	view := struct {
		Index     int    `json:"index"`
		Timestamp string `json:"timestamp"`
		RunID     string `json:"runId"`
		Workflow  string `json:"workflow"`
		Job       string `json:"job"`
		Step      string `json:"step"`
		LogPath   string `json:"logPath"`
		LogHash   string `json:"logHash"`
		PrevHash  string `json:"prevHash"`
		RunnerID  string `json:"runnerId"`
	}{
		Index:     r.Index,
		Timestamp: r.Timestamp,
		RunID:     r.RunID,
		Workflow:  r.Workflow,
		Job:       r.Job,
		Step:      r.Step,
		LogPath:   r.LogPath,
		LogHash:   r.LogHash,
		PrevHash:  r.PrevHash,
		RunnerID:  r.RunnerID,
	}
	return json.Marshal(view)
}

// ComputeHash calculates SHA-256 over canonicalData.
func (r *Record) ComputeHash() (string, error) {
	data, err := r.canonicalData()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NewRecord constructs a record and computes its hash. The signature is
// added when the record is appended to a ledger.
func NewRecord(index int, runID, workflow, job, step, logPath, logHash, prevHash, runnerID string) (*Record, error) {
	rec := &Record{
		Index:     index,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RunID:     runID,
		Workflow:  workflow,
		Job:       job,
		Step:      step,
		LogPath:   logPath,
		LogHash:   logHash,
		PrevHash:  prevHash,
		RunnerID:  runnerID,
	}

	h, err := rec.ComputeHash()
	if err != nil {
		return nil, fmt.Errorf("compute record hash: %w", err)
	}
	rec.Hash = h
	return rec, nil
}
