package report

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/hornet/pkg/hornet/chain"
)

// Builder constructs proof reports with unique identifiers
type Builder struct {
	entropy *ulid.MonotonicEntropy
}

// New creates a new report builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Report is a readable account of one run: what was asked, how it
// ended, and every derivation in the order it happened.
type Report struct {
	ID     string
	Query  string // empty when the run had no query
	Proven bool
	Status string
	Rounds int
	Facts  int
	Lines  []Line
}

// Line describes one derivation
type Line struct {
	Round    int
	Rule     string
	Bindings string
	Sources  []string
	Derived  string
}

func (l Line) String() string {
	sources := strings.Join(l.Sources, " & ")
	return fmt.Sprintf("[round %d] %s: %s => %s via %s", l.Round, l.Rule, sources, l.Derived, l.Bindings)
}

// Build creates a report from a finished run. The query is passed in
// its textual form; leave it empty for plain closure runs.
func (b *Builder) Build(query string, res chain.Result) Report {
	rep := Report{
		ID:     ulid.MustNew(ulid.Now(), b.entropy).String(),
		Query:  query,
		Proven: res.Proven,
		Status: res.Status.String(),
		Rounds: res.Rounds,
		Lines:  make([]Line, 0, len(res.Steps)),
	}
	if res.Final != nil {
		rep.Facts = res.Final.Len()
	}

	for _, s := range res.Steps {
		sources := make([]string, len(s.Sources))
		for i, f := range s.Sources {
			sources[i] = f.String()
		}
		rep.Lines = append(rep.Lines, Line{
			Round:    s.Round,
			Rule:     s.RuleName,
			Bindings: s.Bindings.String(),
			Sources:  sources,
			Derived:  s.Derived.String(),
		})
	}
	return rep
}

// String renders the report for terminals and logs
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "report %s\n", r.ID)
	if r.Query != "" {
		fmt.Fprintf(&b, "query: %s\n", r.Query)
	}
	fmt.Fprintf(&b, "outcome: %s after %d rounds, %d facts\n", r.Status, r.Rounds, r.Facts)
	if len(r.Lines) > 0 {
		b.WriteString("derivations:\n")
		for _, l := range r.Lines {
			fmt.Fprintf(&b, "  %s\n", l)
		}
	}
	return b.String()
}
