package research

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/catalog"
	"github.com/gabiworks/leadintel/internal/fallback"
	"github.com/gabiworks/leadintel/internal/intel"
	"github.com/gabiworks/leadintel/internal/retrieval"
)

var testNow = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func testInput() *assessment.Input {
	return &assessment.Input{
		ID:              "a-1",
		Company:         "Brightpath Services",
		IndustrySegment: "itsm",
		InvestmentTier:  assessment.Tier5To15K,
		TeamSize:        12,
		Challenges:      []string{"lead-qualification", "slow-response"},
		TechStack:       []string{"HubSpot", "Slack"},
	}
}

func TestBuildPlanCategories(t *testing.T) {
	p := BuildPlan(testInput(), testNow)

	counts := map[QueryCategory]int{}
	for _, q := range p.Queries {
		counts[q.Category]++
	}
	if counts[QueryCompanySpecific] != 2 {
		t.Fatalf("company-specific queries = %d, want 2", counts[QueryCompanySpecific])
	}
	if counts[QueryToolDiscovery] != 2 {
		t.Fatalf("tool-discovery queries = %d, want 2", counts[QueryToolDiscovery])
	}
	for _, q := range p.Queries {
		if q.Category == QueryToolDiscovery && !strings.Contains(q.Text, "2026") {
			t.Fatalf("discovery query missing year: %q", q.Text)
		}
	}
}

func TestBuildPlanCapsDiscoveryQueries(t *testing.T) {
	in := testInput()
	in.Challenges = []string{"a", "b", "c", "d", "e"}
	p := BuildPlan(in, testNow)
	discovery := 0
	for _, q := range p.Queries {
		if q.Category == QueryToolDiscovery {
			discovery++
		}
	}
	if discovery != maxDiscoveryQueries {
		t.Fatalf("discovery queries = %d, want %d", discovery, maxDiscoveryQueries)
	}
}

func TestIdentifyGapsEmptyPackage(t *testing.T) {
	gaps := IdentifyGaps(intel.Package{}, testInput(), testNow)

	kinds := map[string]bool{}
	for _, g := range gaps {
		kinds[g.Kind] = true
	}
	for _, want := range []string{GapFewTools, GapNoStackOverlap, GapNoCaseStudies, GapThinBenchmarks, GapCompanyResearch} {
		if !kinds[want] {
			t.Fatalf("missing gap %s (got %v)", want, kinds)
		}
	}
}

func TestIdentifyGapsCompanyResearchIsUnconditional(t *testing.T) {
	pkg := intel.Package{
		Tools: []intel.ToolMatch{
			{Tool: catalog.Tool{Name: "A", Integrations: []string{"HubSpot"}}},
			{Tool: catalog.Tool{Name: "B"}},
			{Tool: catalog.Tool{Name: "C"}},
		},
		Benchmarks:  intel.BenchmarkMap{"itsm": {"m1": 1, "m2": 2}},
		CaseStudies: []string{"https://example.com/case"},
	}
	gaps := IdentifyGaps(pkg, testInput(), testNow)
	if len(gaps) != 1 {
		t.Fatalf("gaps = %d, want only the company-specific gap: %+v", len(gaps), gaps)
	}
	if gaps[0].Kind != GapCompanyResearch {
		t.Fatalf("gap kind = %s, want %s", gaps[0].Kind, GapCompanyResearch)
	}
}

const sampleBriefing = "## Recommendations\n\n" +
	"**Zapier** — no-code workflow automation that integrates with HubSpot, Slack, and Salesforce. Starts at $29/mo.\n" +
	"**Clay** — lead enrichment and research agent workspace. Plans from $149/mo.\n" +
	"1. Momentum AI - conversation intelligence for revenue teams\n"

func TestRegexToolExtractor(t *testing.T) {
	tools := (RegexToolExtractor{}).ExtractTools(sampleBriefing)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	joined := strings.Join(names, "|")
	for _, want := range []string{"Zapier", "Clay", "Momentum AI"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing tool %q in %v", want, names)
		}
	}
	for _, n := range names {
		if strings.EqualFold(n, "Recommendations") {
			t.Fatal("heading extracted as tool")
		}
	}
}

func TestRegexPricingExtractor(t *testing.T) {
	prices := (RegexPricingExtractor{}).ExtractPricing(sampleBriefing)
	if got := prices["zapier"]; !strings.Contains(got, "$29") {
		t.Fatalf("zapier price = %q", got)
	}
	if got := prices["clay"]; !strings.Contains(got, "$149") {
		t.Fatalf("clay price = %q", got)
	}
}

func TestRegexIntegrationExtractor(t *testing.T) {
	integrations := (RegexIntegrationExtractor{}).ExtractIntegrations(sampleBriefing)
	got := integrations["zapier"]
	if len(got) < 3 {
		t.Fatalf("zapier integrations = %v", got)
	}
	joined := strings.ToLower(strings.Join(got, "|"))
	for _, want := range []string{"hubspot", "slack", "salesforce"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing integration %q in %v", want, got)
		}
	}
}

func TestSearchClientWeakEvidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"citations":["https://a","https://b"],"choices":[{"message":{"content":"thin answer"}}]}`))
	}))
	defer srv.Close()

	c, err := NewSearchClient(SearchConfig{APIKey: "k", BaseURL: srv.URL, RateLimitPerMinute: 600})
	if err != nil {
		t.Fatalf("NewSearchClient: %v", err)
	}
	_, err = c.Search(context.Background(), "query")
	if !errors.Is(err, ErrWeakEvidence) {
		t.Fatalf("expected ErrWeakEvidence, got %v", err)
	}
}

func TestSearchClientParsesCitations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"citations":["https://a","https://b","https://c"],"choices":[{"message":{"content":"**Zapier** — automation"}}]}`))
	}))
	defer srv.Close()

	c, err := NewSearchClient(SearchConfig{APIKey: "k", BaseURL: srv.URL, RateLimitPerMinute: 600})
	if err != nil {
		t.Fatalf("NewSearchClient: %v", err)
	}
	res, err := c.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Citations) != 3 || !strings.Contains(res.Content, "Zapier") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

type fakeSearch struct {
	res SearchResult
	err error
}

func (f fakeSearch) Search(context.Context, string) (SearchResult, error) { return f.res, f.err }

type fakeLLM struct {
	out string
	err error
}

func (f fakeLLM) Generate(context.Context, string) (string, error) { return f.out, f.err }

func newTestOrchestrator(t *testing.T, search SearchProvider, sim LLMCaller) *Orchestrator {
	t.Helper()
	store, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	curated := fallback.NewProvider(store)
	searcher, err := retrieval.NewSearcher(store, nil, curated)
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}
	o := NewOrchestrator(searcher, curated, search, sim)
	o.now = func() time.Time { return testNow }
	return o
}

func TestExecuteMergesExternalFindings(t *testing.T) {
	// The briefing re-mentions a catalog tool (Clay) plus a new one; the
	// catalog entry must win and the new tool must be appended.
	search := fakeSearch{res: SearchResult{
		Content:   "**Clay** — cheaper clone description that must not displace the catalog entry.\n**Wavelength** — AI triage for service desks, integrates with HubSpot. $59/mo.",
		Citations: []string{"https://a", "https://b", "https://c"},
	}}
	o := newTestOrchestrator(t, search, nil)

	findings, err := o.Execute(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if findings.Package.Source != intel.SourceExternal {
		t.Fatalf("source = %s, want %s", findings.Package.Source, intel.SourceExternal)
	}
	if findings.UsedSimulated {
		t.Fatal("live search marked as simulated")
	}
	if len(findings.Package.CaseStudies) != 3 {
		t.Fatalf("case studies = %d, want 3 citations", len(findings.Package.CaseStudies))
	}

	clayCount := 0
	foundNew := false
	for _, m := range findings.Package.Tools {
		if strings.EqualFold(m.Tool.Name, "Clay") {
			clayCount++
			if strings.Contains(m.Tool.Description, "clone") {
				t.Fatal("extracted tool displaced the curated entry")
			}
		}
		if m.Tool.Name == "Wavelength" {
			foundNew = true
			if m.Reason != "surfaced by external research" {
				t.Fatalf("new tool reason = %q", m.Reason)
			}
		}
	}
	if clayCount != 1 {
		t.Fatalf("Clay appears %d times, want 1", clayCount)
	}
	if !foundNew {
		t.Fatal("extracted tool missing from merged package")
	}
}

func TestExecuteFallsBackToSimulatedResearch(t *testing.T) {
	search := fakeSearch{err: ErrWeakEvidence}
	sim := fakeLLM{out: "**Wavelength** — AI triage for service desks."}
	o := newTestOrchestrator(t, search, sim)

	findings, err := o.Execute(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !findings.UsedSimulated {
		t.Fatal("expected simulated research path")
	}
	if findings.Package.Freshness >= 0.95 {
		t.Fatalf("simulated freshness = %v, want below live freshness", findings.Package.Freshness)
	}
}

func TestExecuteKeepsDraftWhenAllProvidersFail(t *testing.T) {
	search := fakeSearch{err: errors.New("boom")}
	sim := fakeLLM{err: errors.New("also boom")}
	o := newTestOrchestrator(t, search, sim)

	findings, err := o.Execute(context.Background(), testInput())
	if err == nil {
		t.Fatal("expected augmentation error")
	}
	if len(findings.Package.Tools) == 0 {
		t.Fatal("draft package lost on augmentation failure")
	}
	if findings.Package.Source == intel.SourceExternal {
		t.Fatal("failed augmentation must not claim external provenance")
	}
}

func TestDraftCoversEveryDiscoveryChallenge(t *testing.T) {
	// "knowledge-base" tools only surface from the second challenge's
	// retrieval query; the draft must merge per-challenge results without
	// duplicates.
	search := fakeSearch{res: SearchResult{
		Content:   "No additional recommendations this cycle.",
		Citations: []string{"https://a", "https://b", "https://c"},
	}}
	o := newTestOrchestrator(t, search, nil)
	in := testInput()
	in.Challenges = []string{"lead-qualification", "knowledge-base"}

	findings, err := o.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	seen := map[string]int{}
	foundKnowledge := false
	for _, m := range findings.Package.Tools {
		seen[strings.ToLower(m.Tool.Name)]++
		if m.Tool.Name == "Pinecone" {
			foundKnowledge = true
		}
	}
	if !foundKnowledge {
		t.Fatal("second challenge's tools missing from draft")
	}
	for name, n := range seen {
		if n > 1 {
			t.Fatalf("tool %s appears %d times in draft", name, n)
		}
	}
}
