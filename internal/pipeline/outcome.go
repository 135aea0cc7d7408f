// Package pipeline implements the bounded-concurrency download-and-process
// pipeline that turns card metadata into a training image tree.
package pipeline

import "github.com/tcgforge/tcgforge/internal/tcg"

// Outcome classifies what happened to a single card.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSkippedExisting
	OutcomeSkippedPlaceholder
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkippedExisting:
		return "skipped-existing"
	case OutcomeSkippedPlaceholder:
		return "skipped-placeholder"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the per-card outcome of one download task. Err is set only for
// OutcomeFailed.
type Result struct {
	Card    tcg.CardRef
	Outcome Outcome
	Err     error
}

// Stats aggregates the outcomes of one pipeline run.
type Stats struct {
	TotalAvailable     int
	TotalRequested     int
	SkippedExisting    int
	SkippedPlaceholder int
	Failed             int
	Succeeded          int
}
