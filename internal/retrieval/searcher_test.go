package retrieval

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"github.com/gabiworks/leadintel/internal/catalog"
	"github.com/gabiworks/leadintel/internal/fallback"
	"github.com/gabiworks/leadintel/internal/intel"
)

func testStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return store
}

func TestNewSearcherRequiresAStrategy(t *testing.T) {
	_, err := NewSearcher(nil, nil, nil)
	if !errors.Is(err, ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestSearchToolsKeywordTierWithoutVectorBackend(t *testing.T) {
	store := testStore(t)
	s, err := NewSearcher(store, nil, fallback.NewProvider(store))
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}

	res, err := s.SearchTools(context.Background(), "workflow automation", SearchOptions{Segment: "itsm"})
	if err != nil {
		t.Fatalf("SearchTools: %v", err)
	}
	if res.Strategy != intel.SourceLocalKeyword {
		t.Fatalf("strategy = %s, want %s", res.Strategy, intel.SourceLocalKeyword)
	}
	if len(res.Matches) == 0 {
		t.Fatal("expected matches")
	}
	if res.Matches[0].Tool.Name != "n8n" {
		t.Fatalf("top match = %s, want n8n", res.Matches[0].Tool.Name)
	}
	var n8nScore, noTagScore float64
	for _, m := range res.Matches {
		if m.Tool.Name == "n8n" {
			n8nScore = m.Score
		}
		if m.Tool.Name == "Pinecone" {
			noTagScore = m.Score
		}
	}
	if noTagScore >= n8nScore {
		t.Fatalf("tool without the use-case tag outranked n8n: %v >= %v", noTagScore, n8nScore)
	}
}

func TestSearchToolsFallsBackToCuratedTier(t *testing.T) {
	store := testStore(t)
	s, err := NewSearcher(store, nil, fallback.NewProvider(store))
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}

	// A query with no catalog keyword hits exhausts the keyword tier.
	res, err := s.SearchTools(context.Background(), "zzqx", SearchOptions{Segment: "agency", Challenge: "lead-qualification"})
	if err != nil {
		t.Fatalf("SearchTools: %v", err)
	}
	if res.Strategy != intel.SourceFallback {
		t.Fatalf("strategy = %s, want %s", res.Strategy, intel.SourceFallback)
	}
	if len(res.Matches) == 0 {
		t.Fatal("curated tier must not be empty")
	}
	for _, m := range res.Matches {
		if m.Layer == "" {
			t.Fatalf("match %s missing capability layer", m.Tool.Name)
		}
	}
}

func TestSearchToolsBudgetFilterOnKeywordTier(t *testing.T) {
	store := testStore(t)
	s, err := NewSearcher(store, nil, nil)
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}

	res, err := s.SearchTools(context.Background(), "workflow automation", SearchOptions{Segment: "itsm", Budget: catalog.BudgetFree})
	if err != nil {
		t.Fatalf("SearchTools: %v", err)
	}
	for _, m := range res.Matches {
		found := false
		for _, b := range m.Tool.BudgetBands {
			if b == catalog.BudgetFree {
				found = true
			}
		}
		if !found {
			t.Fatalf("tool %s not in the free band", m.Tool.Name)
		}
	}
}

func TestUnseededVectorIndexFallsThrough(t *testing.T) {
	store := testStore(t)
	embedder := staticEmbedder{}
	idx, err := NewVectorIndex(store, embedder)
	if err != nil {
		t.Fatalf("NewVectorIndex: %v", err)
	}
	s, err := NewSearcher(store, idx, fallback.NewProvider(store))
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}

	res, err := s.SearchTools(context.Background(), "workflow automation", SearchOptions{Segment: "itsm"})
	if err != nil {
		t.Fatalf("SearchTools: %v", err)
	}
	if res.Strategy != intel.SourceLocalKeyword {
		t.Fatalf("strategy = %s, want local keyword tier", res.Strategy)
	}
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func TestOpenAIEmbedderCachesByText(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(EmbedderConfig{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}
	for i := 0; i < 3; i++ {
		vec, err := e.Embed(context.Background(), "workflow automation for itsm")
		if err != nil {
			t.Fatalf("Embed: %v", err)
		}
		if len(vec) != 3 {
			t.Fatalf("vector length = %d", len(vec))
		}
	}
	if calls != 1 {
		t.Fatalf("upstream calls = %d, want 1 (cached)", calls)
	}
}

func TestOpenAIEmbedderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder(EmbedderConfig{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestSeededVectorSearchFiltersByBudget(t *testing.T) {
	store := testStore(t)
	idx, err := NewVectorIndex(store, staticEmbedder{})
	if err != nil {
		t.Fatalf("NewVectorIndex: %v", err)
	}
	if err := idx.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	matches, err := idx.Search(context.Background(), "enterprise knowledge search", SearchOptions{
		Budget:         catalog.BudgetHigh,
		MatchCount:     3,
		MatchThreshold: 0.5,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected high-budget matches")
	}
	for _, m := range matches {
		inBand := false
		for _, band := range m.Tool.BudgetBands {
			if band == catalog.BudgetHigh {
				inBand = true
			}
		}
		if !inBand {
			t.Fatalf("tool %s outside requested budget band", m.Tool.Name)
		}
	}
}

func TestOpenAIEmbedderThrottlesUpstream(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	// One-token budget with no refill: the second uncached call must wait.
	e, err := NewOpenAIEmbedder(EmbedderConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Limiter: rate.NewLimiter(0, 1),
	})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder: %v", err)
	}

	if _, err := e.Embed(context.Background(), "crm enrichment"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Embed(ctx, "helpdesk deflection"); err == nil {
		t.Fatal("expected error once the rate budget is spent")
	}
	if calls != 1 {
		t.Fatalf("upstream calls = %d, want 1 (second call held at the limiter)", calls)
	}
}
