package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/cognicore/hornet/pkg/hornet/store"
)

func sampleRun(id string, started time.Time) store.Run {
	return store.Run{
		ID:        id,
		Query:     "Weapon(T1)",
		Proven:    true,
		Status:    "proven",
		Rounds:    1,
		FactCount: 2,
		StartedAt: started,
		Steps: []store.Step{
			{
				Index:    0,
				Round:    1,
				RuleName: "weapon",
				Bindings: map[string]string{"x": "T1"},
				Sources:  []string{"Missile(T1)"},
				Derived:  "Weapon(T1)",
			},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	s := New()

	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := s.SaveRun(ctx, sampleRun("run-1", started)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, found, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !found {
		t.Fatal("Run should be found")
	}
	if got.Query != "Weapon(T1)" || len(got.Steps) != 1 {
		t.Errorf("Unexpected run: %+v", got)
	}

	if _, found, _ := s.GetRun(ctx, "nope"); found {
		t.Error("Missing run should report found=false")
	}
}

func TestGetRunReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := s.SaveRun(ctx, sampleRun("run-1", started)); err != nil {
		t.Fatal(err)
	}

	got, _, _ := s.GetRun(ctx, "run-1")
	got.Steps[0].Bindings["x"] = "tampered"
	got.Steps[0].Sources[0] = "tampered"

	again, _, _ := s.GetRun(ctx, "run-1")
	if again.Steps[0].Bindings["x"] != "T1" {
		t.Error("Stored bindings should be isolated from callers")
	}
	if again.Steps[0].Sources[0] != "Missile(T1)" {
		t.Error("Stored sources should be isolated from callers")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.SaveRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 || runs[0].ID != "c" || runs[2].ID != "a" {
		t.Errorf("Runs not newest first: %+v", runs)
	}
	if runs[0].Steps != nil {
		t.Error("Summaries should not carry steps")
	}

	limited, _ := s.ListRuns(ctx, 1)
	if len(limited) != 1 || limited[0].ID != "c" {
		t.Errorf("Limit 1 should keep the newest, got %+v", limited)
	}
}

func TestPruneBefore(t *testing.T) {
	ctx := context.Background()
	s := New()

	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s.SaveRun(ctx, sampleRun("old", old))
	s.SaveRun(ctx, sampleRun("recent", recent))

	removed, err := s.PruneBefore(ctx, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removal, got %d", removed)
	}
	if _, found, _ := s.GetRun(ctx, "old"); found {
		t.Error("Old run should be pruned")
	}
	if _, found, _ := s.GetRun(ctx, "recent"); !found {
		t.Error("Recent run should survive")
	}
}

func TestSaveRunIgnoresEmptyID(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SaveRun(ctx, store.Run{}); err != nil {
		t.Fatalf("SaveRun with empty ID should be a no-op, got %v", err)
	}
	runs, _ := s.ListRuns(ctx, 0)
	if len(runs) != 0 {
		t.Errorf("Expected no runs, got %d", len(runs))
	}
}
