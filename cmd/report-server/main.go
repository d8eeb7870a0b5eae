package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gabiworks/leadintel/internal/catalog"
	"github.com/gabiworks/leadintel/internal/fallback"
	"github.com/gabiworks/leadintel/internal/htmlreport"
	"github.com/gabiworks/leadintel/internal/httpapi"
	"github.com/gabiworks/leadintel/internal/pipeline"
	"github.com/gabiworks/leadintel/internal/reportstore"
	"github.com/gabiworks/leadintel/internal/research"
	"github.com/gabiworks/leadintel/internal/retrieval"
	"github.com/gabiworks/leadintel/internal/synthesis"
)

func main() {
	dbFlag := flag.String("db", "", "path to SQLite database file (overrides DB_PATH env var)")
	flag.Parse()

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}
	if dbPath == "" {
		dbPath = "./data/leadintel.db"
	}
	store, err := reportstore.New(dbPath)
	if err != nil {
		log.Fatalf("failed to initialize report store (%s): %v", dbPath, err)
	}
	log.Printf("using sqlite store at %s", dbPath)

	catalogStore, err := catalog.Load()
	if err != nil {
		log.Fatalf("load intelligence catalog: %v", err)
	}
	curated := fallback.NewProvider(catalogStore)

	// The vector tier is optional; without an embedding key the keyword tier
	// serves every search.
	var vector *retrieval.VectorIndex
	if key := strings.TrimSpace(os.Getenv("EMBEDDING_API_KEY")); key != "" {
		embedder, err := retrieval.NewOpenAIEmbedder(retrieval.EmbedderConfig{
			APIKey:  key,
			Model:   os.Getenv("EMBEDDING_MODEL"),
			BaseURL: os.Getenv("EMBEDDING_BASE_URL"),
		})
		if err != nil {
			log.Fatalf("configure embedder: %v", err)
		}
		vector, err = retrieval.NewVectorIndex(catalogStore, embedder)
		if err != nil {
			log.Fatalf("create vector index: %v", err)
		}
		if err := vector.Seed(context.Background()); err != nil {
			log.Printf("vector seed failed, continuing with keyword search: %v", err)
			vector = nil
		}
	} else {
		log.Printf("EMBEDDING_API_KEY not set, vector search disabled")
	}

	searcher, err := retrieval.NewSearcher(catalogStore, vector, curated)
	if err != nil {
		log.Fatalf("configure searcher: %v", err)
	}

	var search research.SearchProvider
	if client, err := research.NewSearchClient(research.SearchConfig{
		APIKey:  os.Getenv("SEARCH_API_KEY"),
		BaseURL: os.Getenv("SEARCH_BASE_URL"),
		Model:   os.Getenv("SEARCH_MODEL"),
	}); err != nil {
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

	orchestrator := research.NewOrchestrator(searcher, curated, search, sim)
	p := pipeline.New(orchestrator, synthesis.NewSynthesizer(narrative), store)

	h := httpapi.NewServer(store, p, htmlreport.NewChromiumPDFRenderer())
	log.Printf("report-server listening on %s", addr)
	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal(err)
	}
}
