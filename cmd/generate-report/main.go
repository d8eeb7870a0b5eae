// generate-report runs the full pipeline against one assessment JSON file and
// writes the rendered HTML report, without the HTTP server in the way. Handy
// for iterating on section content and for one-off reports.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/catalog"
	"github.com/gabiworks/leadintel/internal/fallback"
	"github.com/gabiworks/leadintel/internal/pipeline"
	"github.com/gabiworks/leadintel/internal/reportstore"
	"github.com/gabiworks/leadintel/internal/research"
	"github.com/gabiworks/leadintel/internal/retrieval"
	"github.com/gabiworks/leadintel/internal/synthesis"
)

func main() {
	inputPath := flag.String("input", "", "Path to assessment JSON file")
	outputPath := flag.String("output", "", "Path to write the HTML report (defaults to stdout)")
	dbPath := flag.String("db", "", "Optional SQLite path to persist the run")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	blob, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	var in assessment.Input
	if err := json.Unmarshal(blob, &in); err != nil {
		log.Fatalf("decode assessment JSON: %v", err)
	}
	if in.ID == "" {
		fresh := assessment.New(in.CreatedAt)
		in.ID = fresh.ID
	}

	catalogStore, err := catalog.Load()
	if err != nil {
		log.Fatalf("load intelligence catalog: %v", err)
	}
	curated := fallback.NewProvider(catalogStore)
	searcher, err := retrieval.NewSearcher(catalogStore, nil, curated)
	if err != nil {
		log.Fatalf("configure searcher: %v", err)
	}

	var search research.SearchProvider
	if client, err := research.NewSearchClient(research.SearchConfig{APIKey: os.Getenv("SEARCH_API_KEY")}); err != nil {
		log.Printf("live research disabled: %v", err)
	} else {
		search = client
	}
	var sim research.LLMCaller
	if caller, err := research.NewAnthropicCallerFromEnv(); err != nil {
		log.Printf("simulated research disabled: %v", err)
	} else {
		sim = caller
	}
	var narrative synthesis.NarrativeCaller
	if caller, err := synthesis.NewAnthropicCallerFromEnv(); err != nil {
		log.Printf("narrative synthesis disabled, deterministic sections only: %v", err)
	} else {
		narrative = caller
	}

	var store *reportstore.Store
	if *dbPath != "" {
		store, err = reportstore.New(*dbPath)
		if err != nil {
			log.Fatalf("open report store: %v", err)
		}
		defer store.Close()
	}

	orchestrator := research.NewOrchestrator(searcher, curated, search, sim)
	p := pipeline.New(orchestrator, synthesis.NewSynthesizer(narrative), store)

	res, err := p.RunWithProgress(context.Background(), &in, func(stage, message string) {
		log.Printf("generate-report stage=%s message=%q", stage, message)
	})
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	if res.Metadata.ResearchError != "" {
		log.Printf("research degraded: %s", res.Metadata.ResearchError)
	}

	if *outputPath == "" {
		fmt.Print(res.HTML)
		return
	}
	if err := os.WriteFile(*outputPath, []byte(res.HTML), 0o644); err != nil {
		log.Fatalf("write report: %v", err)
	}
	log.Printf("report written to %s (report_id=%s)", *outputPath, res.Report.ID)
}
