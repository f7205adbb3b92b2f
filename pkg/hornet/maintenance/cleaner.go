package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/cognicore/hornet/pkg/hornet/store"
)

// Cleaner enforces a retention window on a run archive.
type Cleaner struct {
	Archive store.Archive

	// Retention is how long finished runs are kept
	Retention time.Duration

	// Keep holds back the newest runs from pruning regardless of age
	Keep int
}

// Result summarizes the cleaning run.
type Result struct {
	Removed int64
	Cutoff  time.Time
}

// Clean removes runs older than the retention window, sparing the
// newest Keep runs.
func (c *Cleaner) Clean(ctx context.Context) (Result, error) {
	if c.Archive == nil {
		return Result{}, errors.New("cleaner: nil archive")
	}
	if c.Retention <= 0 {
		return Result{}, errors.New("cleaner: retention must be positive")
	}

	cutoff := time.Now().Add(-c.Retention)
	if c.Keep > 0 {
		newest, err := c.Archive.ListRuns(ctx, c.Keep)
		if err != nil {
			return Result{}, err
		}
		if len(newest) < c.Keep {
			return Result{}, nil
		}
		oldestKept := newest[len(newest)-1].StartedAt
		if oldestKept.Before(cutoff) {
			cutoff = oldestKept
		}
	}

	removed, err := c.Archive.PruneBefore(ctx, cutoff)
	if err != nil {
		return Result{}, err
	}
	return Result{Removed: removed, Cutoff: cutoff}, nil
}
