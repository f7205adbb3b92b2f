package analytics

import (
	"sort"
	"strings"

	"github.com/cognicore/hornet/pkg/hornet/store"
)

// Analyzer aggregates statistics over archived runs.
type Analyzer struct {
	totalRuns   int64
	proven      int64
	converged   int64
	stopped     int64
	totalRounds int64
	totalFacts  int64
	totalSteps  int64
	ruleFires   map[string]int64
	derivedPred map[string]int64
	queries     map[string]int64
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		ruleFires:   make(map[string]int64),
		derivedPred: make(map[string]int64),
		queries:     make(map[string]int64),
	}
}

// Process consumes one archived run.
func (a *Analyzer) Process(r store.Run) {
	a.totalRuns++
	switch r.Status {
	case "proven":
		a.proven++
	case "converged":
		a.converged++
	default:
		a.stopped++
	}
	a.totalRounds += int64(r.Rounds)
	a.totalFacts += int64(r.FactCount)
	if r.Query != "" {
		a.queries[r.Query]++
	}

	for _, st := range r.Steps {
		a.totalSteps++
		if st.RuleName != "" {
			a.ruleFires[st.RuleName]++
		}
		a.derivedPred[predicateOf(st.Derived)]++
	}
}

// predicateOf extracts the predicate from a rendered fact
func predicateOf(fact string) string {
	if i := strings.IndexByte(fact, '('); i >= 0 {
		return fact[:i]
	}
	return fact
}

// Stats exposes the aggregated counts.
type Stats struct {
	TotalRuns   int64
	Proven      int64
	Converged   int64
	Stopped     int64
	ProofRate   float64
	AvgRounds   float64
	AvgFacts    float64
	TotalSteps  int64
	RuleFires   map[string]int64
	DerivedPred map[string]int64
	Queries     map[string]int64
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	s := Stats{
		TotalRuns:   a.totalRuns,
		Proven:      a.proven,
		Converged:   a.converged,
		Stopped:     a.stopped,
		TotalSteps:  a.totalSteps,
		RuleFires:   copyCounts(a.ruleFires),
		DerivedPred: copyCounts(a.derivedPred),
		Queries:     copyCounts(a.queries),
	}
	if a.totalRuns > 0 {
		s.ProofRate = float64(a.proven) / float64(a.totalRuns)
		s.AvgRounds = float64(a.totalRounds) / float64(a.totalRuns)
		s.AvgFacts = float64(a.totalFacts) / float64(a.totalRuns)
	}
	return s
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// NamedCount pairs a name with how often it appeared.
type NamedCount struct {
	Name  string
	Count int64
}

// TopRules returns the most fired rules, busiest first.
func (s Stats) TopRules(limit int) []NamedCount {
	return topCounts(s.RuleFires, limit)
}

// TopDerived returns the most derived predicates, busiest first.
func (s Stats) TopDerived(limit int) []NamedCount {
	return topCounts(s.DerivedPred, limit)
}

func topCounts(counts map[string]int64, limit int) []NamedCount {
	out := make([]NamedCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, NamedCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
