package hornet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cognicore/hornet/pkg/hornet/chain"
	"github.com/cognicore/hornet/pkg/hornet/report"
	"github.com/cognicore/hornet/pkg/hornet/rule"
	"github.com/cognicore/hornet/pkg/hornet/store"
	"github.com/cognicore/hornet/pkg/hornet/term"
)

// Hornet is the main inference engine facade
type Hornet struct {
	driver  *chain.Driver
	archive store.Archive
	reports *report.Builder
}

// Options configures a Hornet instance
type Options struct {
	Rules []rule.Rule

	// Archive receives finished runs when set
	Archive store.Archive

	RoundCap        int
	Workers         int
	AllowMixedArity bool
}

// New creates a Hornet instance with the given dependencies
func New(opts Options) *Hornet {
	return &Hornet{
		driver: &chain.Driver{
			Rules:           opts.Rules,
			RoundCap:        opts.RoundCap,
			Workers:         opts.Workers,
			AllowMixedArity: opts.AllowMixedArity,
		},
		archive: opts.Archive,
		reports: report.New(),
	}
}

// Close cleanly shuts down the instance
func (h *Hornet) Close() error {
	if h.archive == nil {
		return nil
	}
	return h.archive.Close()
}

// Outcome bundles a run's result with its report. The report ID
// doubles as the archived run ID.
type Outcome struct {
	Report report.Report
	Result chain.Result
}

// Prove runs forward chaining until the query is derived or the base
// converges. The run is archived when an archive is configured. A
// round-cap overrun still returns the partial outcome alongside
// chain.ErrRoundCapExceeded.
func (h *Hornet) Prove(ctx context.Context, facts []term.Fact, query term.Fact) (Outcome, error) {
	started := time.Now()
	res, runErr := h.driver.Prove(ctx, facts, query)
	if runErr != nil && !errors.Is(runErr, chain.ErrRoundCapExceeded) {
		return Outcome{}, runErr
	}
	return h.finish(ctx, query.String(), res, started, runErr)
}

// Closure derives every fact reachable from the initial facts
func (h *Hornet) Closure(ctx context.Context, facts []term.Fact) (Outcome, error) {
	started := time.Now()
	res, runErr := h.driver.Run(ctx, facts)
	if runErr != nil && !errors.Is(runErr, chain.ErrRoundCapExceeded) {
		return Outcome{}, runErr
	}
	return h.finish(ctx, "", res, started, runErr)
}

func (h *Hornet) finish(ctx context.Context, query string, res chain.Result, started time.Time, runErr error) (Outcome, error) {
	rep := h.reports.Build(query, res)
	out := Outcome{Report: rep, Result: res}

	if h.archive != nil {
		if err := h.archive.SaveRun(ctx, archiveRun(rep, res, started)); err != nil {
			return out, fmt.Errorf("archive run: %w", err)
		}
	}
	return out, runErr
}

// archiveRun flattens a result into archive rows
func archiveRun(rep report.Report, res chain.Result, started time.Time) store.Run {
	run := store.Run{
		ID:        rep.ID,
		Query:     rep.Query,
		Proven:    res.Proven,
		Status:    res.Status.String(),
		Rounds:    res.Rounds,
		FactCount: rep.Facts,
		StartedAt: started,
		Elapsed:   time.Since(started),
		Steps:     make([]store.Step, len(res.Steps)),
	}
	for i, s := range res.Steps {
		sources := make([]string, len(s.Sources))
		for j, f := range s.Sources {
			sources[j] = f.String()
		}
		run.Steps[i] = store.Step{
			Index:     i,
			Round:     s.Round,
			RuleIndex: s.RuleIndex,
			RuleName:  s.RuleName,
			Bindings:  s.Bindings.Bindings(),
			Sources:   sources,
			Derived:   s.Derived.String(),
		}
	}
	return run
}
