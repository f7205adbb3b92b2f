package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cognicore/hornet/internal/htmlkb"
	"github.com/cognicore/hornet/pkg/hornet"
	"github.com/cognicore/hornet/pkg/hornet/chain"
	"github.com/cognicore/hornet/pkg/hornet/config"
	"github.com/cognicore/hornet/pkg/hornet/store"
	"github.com/cognicore/hornet/pkg/hornet/store/sqlite"
)

func main() {
	var (
		kbPath     = flag.String("kb", "", "YAML knowledge file")
		htmlPath   = flag.String("html", "", "HTML knowledge file (tables of facts and rules)")
		queryText  = flag.String("query", "", "Query fact, overrides the file query")
		dbPath     = flag.String("db", "", "Optional run archive path")
		exportPath = flag.String("export", "", "Optional path to write the knowledge back as YAML")
		roundCap   = flag.Int("round-cap", 0, "Maximum rounds, overrides the file setting")
		workers    = flag.Int("workers", 0, "Concurrent rule matchers, overrides the file setting")
	)
	flag.Parse()

	if (*kbPath == "") == (*htmlPath == "") {
		log.Fatal("exactly one of --kb or --html required")
	}

	ctx := context.Background()

	// Load knowledge
	var (
		k   *config.Knowledge
		err error
	)
	if *kbPath != "" {
		k, err = config.LoadKnowledge(*kbPath)
	} else {
		k, err = htmlkb.ParseFile(*htmlPath)
	}
	if err != nil {
		log.Fatalf("load knowledge: %v", err)
	}

	if *queryText != "" {
		k.Query = *queryText
	}
	if *roundCap > 0 {
		k.RoundCap = *roundCap
	}
	if *workers > 0 {
		k.Workers = *workers
	}

	prog, err := k.Compile()
	if err != nil {
		log.Fatalf("compile knowledge: %v", err)
	}

	// Open the archive when requested
	var archive store.Archive
	if *dbPath != "" {
		archive, err = sqlite.OpenSQLite(ctx, *dbPath)
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
	}

	h := hornet.New(hornet.Options{
		Rules:           prog.Rules,
		Archive:         archive,
		RoundCap:        k.RoundCap,
		Workers:         k.Workers,
		AllowMixedArity: k.AllowMixedArity,
	})

	var out hornet.Outcome
	if prog.HasQuery {
		out, err = h.Prove(ctx, prog.Facts, prog.Query)
	} else {
		out, err = h.Closure(ctx, prog.Facts)
	}
	if err != nil && !errors.Is(err, chain.ErrRoundCapExceeded) {
		log.Fatalf("run: %v", err)
	}

	fmt.Print(out.Report.String())

	if *exportPath != "" {
		if err := exportKnowledge(*exportPath, k); err != nil {
			log.Fatalf("export knowledge: %v", err)
		}
	}

	if cerr := h.Close(); cerr != nil {
		log.Fatalf("close archive: %v", cerr)
	}

	if errors.Is(err, chain.ErrRoundCapExceeded) {
		log.Fatalf("run: %v", err)
	}
	if prog.HasQuery && !out.Result.Proven {
		os.Exit(1)
	}
}

func exportKnowledge(path string, k *config.Knowledge) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := config.Write(f, k); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
