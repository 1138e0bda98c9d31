package model

import (
	"time"

	"github.com/google/uuid"
)

// Result statuses of a single pair or file.
const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// PairResult is the outcome of processing one pair (or one file for resize batches).
type PairResult struct {
	RunID   uuid.UUID `json:"run_id"`
	Kind    string    `json:"kind"` // "overlay" or "resize"
	Base    string    `json:"base"`
	Overlay string    `json:"overlay,omitempty"`
	Output  string    `json:"output,omitempty"`
	Status  string    `json:"status"`
	Error   string    `json:"error,omitempty"`
}

// BatchReport summarizes a whole batch run.
type BatchReport struct {
	RunID      uuid.UUID    `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Results    []PairResult `json:"results"`
}

// Count returns the number of results with the given status.
func (r *BatchReport) Count(status string) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}

	return n
}
