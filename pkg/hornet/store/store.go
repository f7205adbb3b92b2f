package store

import (
	"context"
	"time"
)

// Archive persists finished runs for later inspection. The engine
// only ever writes to it: proving starts from the caller's facts, not
// from anything archived.
type Archive interface {
	Close() error

	// SaveRun inserts or replaces a run, keyed by ID
	SaveRun(ctx context.Context, r Run) error

	// GetRun returns a run with its full derivation trace
	GetRun(ctx context.Context, id string) (Run, bool, error)

	// ListRuns returns run summaries without steps, newest first.
	// A non-positive limit returns everything.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// PruneBefore deletes runs started before the cutoff and
	// returns how many were removed
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Run is one archived engine run
type Run struct {
	ID        string
	Query     string
	Proven    bool
	Status    string
	Rounds    int
	FactCount int
	StartedAt time.Time
	Elapsed   time.Duration
	Steps     []Step
}

// Step is one archived derivation
type Step struct {
	Index     int
	Round     int
	RuleIndex int
	RuleName  string
	Bindings  map[string]string
	Sources   []string
	Derived   string
}
