package chain

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/hornet/pkg/hornet/internalerr"
	"github.com/cognicore/hornet/pkg/hornet/kb"
	"github.com/cognicore/hornet/pkg/hornet/rule"
	"github.com/cognicore/hornet/pkg/hornet/solve"
	"github.com/cognicore/hornet/pkg/hornet/term"
	"github.com/cognicore/hornet/pkg/hornet/unify"
)

// DefaultRoundCap bounds runaway programs when the caller sets none
const DefaultRoundCap = 1000

// ErrRoundCapExceeded reports that the driver stopped before reaching
// a fixpoint. The returned Result still carries everything derived so
// far.
var ErrRoundCapExceeded = errors.New("round cap exceeded")

// Status describes where a run ended
type Status uint8

const (
	// Running means the run stopped before a fixpoint, after the
	// round cap or a cancelled context
	Running Status = iota
	// Converged means a full round derived nothing new
	Converged
	// QueryProven means the query fact entered the base
	QueryProven
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case QueryProven:
		return "proven"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Step records one derivation: which rule fired, under which bindings,
// from which facts, and what it produced.
type Step struct {
	Round     int
	RuleIndex int
	RuleName  string
	Bindings  unify.Substitution
	Sources   []term.Fact
	Derived   term.Fact
}

// Result is the outcome of a run. Final holds the closure, or the
// partial base when the run stopped early.
type Result struct {
	Proven bool
	Status Status
	Rounds int
	Steps  []Step
	Final  *kb.Base
}

// InvalidQueryError rejects a query the engine cannot decide
type InvalidQueryError struct {
	Query  term.Fact
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query %s: %s", e.Query, e.Reason)
}

// Driver runs forward chaining over a fixed rule set. Each round
// matches every rule against a frozen view of the base and merges the
// new facts only after the whole round finishes, so derivations never
// observe facts from their own round. The zero value of the optional
// fields picks sensible defaults.
type Driver struct {
	Rules []rule.Rule

	// RoundCap bounds the number of rounds; DefaultRoundCap when zero
	RoundCap int

	// Workers bounds concurrent rule matching; NumCPU when zero
	Workers int

	// AllowMixedArity disables the arity consistency check
	AllowMixedArity bool
}

// Run derives the closure of the initial facts under the rules
func (d *Driver) Run(ctx context.Context, facts []term.Fact) (Result, error) {
	return d.run(ctx, facts, nil)
}

// Prove runs forward chaining until the query fact is derived, the
// base converges without it, or the round cap is hit. The query must
// be ground.
func (d *Driver) Prove(ctx context.Context, facts []term.Fact, query term.Fact) (Result, error) {
	if query.Predicate == "" {
		return Result{}, &InvalidQueryError{Query: query, Reason: "missing predicate"}
	}
	if !query.IsGround() {
		return Result{}, &InvalidQueryError{Query: query, Reason: "contains variables"}
	}
	return d.run(ctx, facts, &query)
}

func (d *Driver) run(ctx context.Context, facts []term.Fact, query *term.Fact) (Result, error) {
	for _, r := range d.Rules {
		if err := r.Validate(); err != nil {
			return Result{}, err
		}
	}
	if !d.AllowMixedArity {
		sigs := make(rule.Signatures)
		for _, r := range d.Rules {
			if err := sigs.ObserveRule(r); err != nil {
				return Result{}, err
			}
		}
		for _, f := range facts {
			if err := sigs.Observe(f); err != nil {
				return Result{}, err
			}
		}
		if query != nil {
			if err := sigs.Observe(*query); err != nil {
				return Result{}, err
			}
		}
	}

	base, err := kb.New(facts...)
	if err != nil {
		return Result{}, fmt.Errorf("initial facts: %w", err)
	}

	if query != nil && base.Contains(*query) {
		return Result{Proven: true, Status: QueryProven, Final: base}, nil
	}

	limit := d.RoundCap
	if limit <= 0 {
		limit = DefaultRoundCap
	}

	var steps []Step
	rounds := 0
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Status: Running, Rounds: rounds, Steps: steps, Final: base}, err
		}
		if attempt > limit {
			return Result{Status: Running, Rounds: rounds, Steps: steps, Final: base},
				fmt.Errorf("no fixpoint after %d rounds: %w", limit, ErrRoundCapExceeded)
		}

		candidates, err := d.round(ctx, base)
		if err != nil {
			return Result{Status: Running, Rounds: rounds, Steps: steps, Final: base}, err
		}

		merged := 0
		for _, c := range candidates {
			if base.Contains(c.derived) {
				continue
			}
			if _, err := base.Add(c.derived); err != nil {
				return Result{Status: Running, Rounds: rounds, Steps: steps, Final: base}, err
			}
			steps = append(steps, Step{
				Round:     attempt,
				RuleIndex: c.rule,
				RuleName:  d.Rules[c.rule].Label(),
				Bindings:  c.sub,
				Sources:   c.sources,
				Derived:   c.derived,
			})
			merged++
		}

		if merged == 0 {
			return Result{Status: Converged, Rounds: rounds, Steps: steps, Final: base}, nil
		}
		rounds++

		if query != nil && base.Contains(*query) {
			return Result{Proven: true, Status: QueryProven, Rounds: rounds, Steps: steps, Final: base}, nil
		}
	}
}

// derivation is one candidate fact produced by a rule during a round
type derivation struct {
	rule    int
	sub     unify.Substitution
	sources []term.Fact
	derived term.Fact
}

// round matches every rule against a frozen base. Rules are matched
// concurrently; the combined candidate list is ordered by rule index,
// then by enumeration order within a rule, so merges stay
// deterministic regardless of scheduling.
func (d *Driver) round(ctx context.Context, snapshot *kb.Base) ([]derivation, error) {
	results := make([][]derivation, len(d.Rules))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())
	for i, r := range d.Rules {
		g.Go(func() error {
			var local []derivation
			for sub := range solve.Solutions(r.Premises, snapshot, unify.Substitution{}) {
				if err := ctx.Err(); err != nil {
					return err
				}
				derived := sub.Apply(r.Conclusion)
				if !derived.IsGround() {
					return fmt.Errorf("rule %s derived non-ground fact %s: %w",
						r.Label(), derived, internalerr.ErrInvalidInput)
				}
				if snapshot.Contains(derived) {
					continue
				}
				sources := make([]term.Fact, len(r.Premises))
				for j, p := range r.Premises {
					sources[j] = sub.Apply(p)
				}
				local = append(local, derivation{rule: i, sub: sub, sources: sources, derived: derived})
			}
			results[i] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ordered []derivation
	for _, rs := range results {
		ordered = append(ordered, rs...)
	}
	return ordered, nil
}

func (d *Driver) workers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return runtime.NumCPU()
}
