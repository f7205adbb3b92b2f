package hornet

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/hornet/pkg/hornet/chain"
	"github.com/cognicore/hornet/pkg/hornet/rule"
	"github.com/cognicore/hornet/pkg/hornet/store/memstore"
	"github.com/cognicore/hornet/pkg/hornet/term"
)

func crimeRules(t *testing.T) []rule.Rule {
	t.Helper()
	specs := []struct {
		name string
		when []string
		then string
	}{
		{"weapon", []string{"Missile(x)"}, "Weapon(x)"},
		{"hostile", []string{"Enemy(x, America)"}, "Hostile(x)"},
		{"sells", []string{"Missile(x)", "Owns(A, x)"}, "Sells(Robert, x, A)"},
		{"criminal", []string{"American(p)", "Weapon(q)", "Sells(p, q, r)", "Hostile(r)"}, "Criminal(p)"},
	}
	rules := make([]rule.Rule, 0, len(specs))
	for _, s := range specs {
		r, err := rule.Parse(s.name, s.when, s.then)
		if err != nil {
			t.Fatal(err)
		}
		rules = append(rules, r)
	}
	return rules
}

func crimeFacts() []term.Fact {
	texts := []string{"American(Robert)", "Owns(A, T1)", "Missile(T1)", "Enemy(A, America)"}
	out := make([]term.Fact, len(texts))
	for i, s := range texts {
		out[i] = term.MustParseFact(s)
	}
	return out
}

func TestProveArchivesRun(t *testing.T) {
	ctx := context.Background()
	ar := memstore.New()
	h := New(Options{Rules: crimeRules(t), Archive: ar})
	defer h.Close()

	out, err := h.Prove(ctx, crimeFacts(), term.MustParseFact("Criminal(Robert)"))
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}

	if !out.Result.Proven {
		t.Error("Criminal(Robert) should be proven")
	}
	if out.Report.Query != "Criminal(Robert)" || out.Report.Status != "proven" {
		t.Errorf("Report header wrong: %+v", out.Report)
	}
	if len(out.Report.Lines) != 4 {
		t.Errorf("Expected 4 report lines, got %d", len(out.Report.Lines))
	}

	run, found, err := ar.GetRun(ctx, out.Report.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !found {
		t.Fatal("Run should be archived under the report ID")
	}
	if !run.Proven || run.Rounds != 2 || run.FactCount != 8 {
		t.Errorf("Archived run header wrong: %+v", run)
	}
	if len(run.Steps) != 4 {
		t.Fatalf("Expected 4 archived steps, got %d", len(run.Steps))
	}
	last := run.Steps[3]
	if last.Derived != "Criminal(Robert)" || last.Bindings["p"] != "Robert" {
		t.Errorf("Archived step wrong: %+v", last)
	}
	if last.Index != 3 || last.Round != 2 {
		t.Errorf("Archived step ordering wrong: %+v", last)
	}
}

func TestProveWithoutArchive(t *testing.T) {
	h := New(Options{Rules: crimeRules(t)})
	defer h.Close()

	out, err := h.Prove(context.Background(), crimeFacts(), term.MustParseFact("Criminal(Robert)"))
	if err != nil {
		t.Fatalf("Prove without archive failed: %v", err)
	}
	if !out.Result.Proven {
		t.Error("Proof should not need an archive")
	}
}

func TestClosure(t *testing.T) {
	ctx := context.Background()
	ar := memstore.New()
	h := New(Options{Rules: crimeRules(t), Archive: ar})
	defer h.Close()

	out, err := h.Closure(ctx, crimeFacts())
	if err != nil {
		t.Fatalf("Closure failed: %v", err)
	}

	if out.Result.Status != chain.Converged {
		t.Errorf("Expected converged, got %s", out.Result.Status)
	}
	if out.Report.Query != "" {
		t.Errorf("Closure report should have no query, got %q", out.Report.Query)
	}
	if out.Result.Final.Len() != 8 {
		t.Errorf("Expected 8 facts in the closure, got %d", out.Result.Final.Len())
	}

	run, found, _ := ar.GetRun(ctx, out.Report.ID)
	if !found || run.Status != "converged" || run.Query != "" {
		t.Errorf("Closure run not archived correctly: %+v", run)
	}
}

func TestRoundCapStillArchives(t *testing.T) {
	ctx := context.Background()
	ar := memstore.New()
	h := New(Options{Rules: crimeRules(t), Archive: ar, RoundCap: 1})
	defer h.Close()

	out, err := h.Closure(ctx, crimeFacts())
	if !errors.Is(err, chain.ErrRoundCapExceeded) {
		t.Fatalf("Expected ErrRoundCapExceeded, got %v", err)
	}

	// The partial run is still reported and archived
	if out.Report.Status != "running" {
		t.Errorf("Expected running status, got %q", out.Report.Status)
	}
	run, found, _ := ar.GetRun(ctx, out.Report.ID)
	if !found {
		t.Fatal("Capped run should be archived")
	}
	if run.Status != "running" || len(run.Steps) != 3 {
		t.Errorf("Capped run should keep round 1 work: %+v", run)
	}
}

func TestProveValidationSkipsArchive(t *testing.T) {
	ctx := context.Background()
	ar := memstore.New()
	h := New(Options{Rules: crimeRules(t), Archive: ar})
	defer h.Close()

	_, err := h.Prove(ctx, crimeFacts(), term.MustParseFact("Criminal(who)"))
	var qerr *chain.InvalidQueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("Expected *chain.InvalidQueryError, got %v", err)
	}

	runs, _ := ar.ListRuns(ctx, 0)
	if len(runs) != 0 {
		t.Error("Rejected queries should not be archived")
	}
}

func TestCloseWithoutArchive(t *testing.T) {
	h := New(Options{Rules: crimeRules(t)})
	if err := h.Close(); err != nil {
		t.Errorf("Close without archive should be a no-op, got %v", err)
	}
}
