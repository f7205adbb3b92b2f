package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/cognicore/hornet/pkg/hornet/analytics"
	"github.com/cognicore/hornet/pkg/hornet/maintenance"
	"github.com/cognicore/hornet/pkg/hornet/store/sqlite"
)

type report struct {
	TotalRuns  int64         `json:"total_runs"`
	Proven     int64         `json:"proven"`
	Converged  int64         `json:"converged"`
	Stopped    int64         `json:"stopped"`
	ProofRate  float64       `json:"proof_rate"`
	AvgRounds  float64       `json:"avg_rounds"`
	AvgFacts   float64       `json:"avg_facts"`
	TotalSteps int64         `json:"total_steps"`
	TopRules   []rankedCount `json:"top_rules"`
	TopDerived []rankedCount `json:"top_derived"`
	Pruned     int64         `json:"pruned,omitempty"`
}

type rankedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func main() {
	var (
		dbPath    = flag.String("db", "", "Run archive path")
		limit     = flag.Int("limit", 0, "Analyze only the most recent N runs, 0 for all")
		top       = flag.Int("top", 10, "How many rules and predicates to rank")
		retention = flag.Duration("prune", 0, "Remove runs older than this before analyzing, 0 to keep all")
		keep      = flag.Int("keep", 0, "Never prune below this many runs")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}

	ctx := context.Background()
	start := time.Now()

	archive, err := sqlite.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.Fatalf("open archive: %v", err)
	}
	defer archive.Close()

	var pruned int64
	if *retention > 0 {
		cleaner := maintenance.Cleaner{
			Archive:   archive,
			Retention: *retention,
			Keep:      *keep,
		}
		res, err := cleaner.Clean(ctx)
		if err != nil {
			log.Fatalf("prune archive: %v", err)
		}
		pruned = res.Removed
	}

	runs, err := archive.ListRuns(ctx, *limit)
	if err != nil {
		log.Fatalf("list runs: %v", err)
	}

	analyzer := analytics.NewAnalyzer()
	for _, summary := range runs {
		run, ok, err := archive.GetRun(ctx, summary.ID)
		if err != nil {
			log.Fatalf("load run %s: %v", summary.ID, err)
		}
		if !ok {
			continue
		}
		analyzer.Process(run)
	}

	stats := analyzer.Snapshot()
	out, err := json.MarshalIndent(report{
		TotalRuns:  stats.TotalRuns,
		Proven:     stats.Proven,
		Converged:  stats.Converged,
		Stopped:    stats.Stopped,
		ProofRate:  stats.ProofRate,
		AvgRounds:  stats.AvgRounds,
		AvgFacts:   stats.AvgFacts,
		TotalSteps: stats.TotalSteps,
		TopRules:   ranked(stats.TopRules(*top)),
		TopDerived: ranked(stats.TopDerived(*top)),
		Pruned:     pruned,
	}, "", "  ")
	if err != nil {
		log.Fatalf("render report: %v", err)
	}
	fmt.Println(string(out))

	log.Printf("analyzed %d runs in %s", stats.TotalRuns, time.Since(start).Round(time.Millisecond))
}

func ranked(counts []analytics.NamedCount) []rankedCount {
	out := make([]rankedCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, rankedCount{Name: c.Name, Count: c.Count})
	}
	return out
}
