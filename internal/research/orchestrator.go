package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/catalog"
	"github.com/gabiworks/leadintel/internal/fallback"
	"github.com/gabiworks/leadintel/internal/intel"
	"github.com/gabiworks/leadintel/internal/retrieval"
)

// Findings is everything the research pass produced for one assessment: the
// final intelligence package plus the audit trail of how it got there.
type Findings struct {
	Package       intel.Package
	Plan          Plan
	Gaps          []Gap
	UsedSimulated bool
	Augmented     bool
}

// Orchestrator runs retrieval, gap analysis, and the external augmentation
// pass. The search provider and the simulated-research caller are both
// optional; with neither configured the draft package ships as-is.
type Orchestrator struct {
	searcher *retrieval.Searcher
	curated  *fallback.Provider
	search   SearchProvider
	sim      LLMCaller

	tools        ToolExtractor
	pricing      PricingExtractor
	integrations IntegrationExtractor

	now func() time.Time
}

func NewOrchestrator(searcher *retrieval.Searcher, curated *fallback.Provider, search SearchProvider, sim LLMCaller) *Orchestrator {
	return &Orchestrator{
		searcher:     searcher,
		curated:      curated,
		search:       search,
		sim:          sim,
		tools:        RegexToolExtractor{},
		pricing:      RegexPricingExtractor{},
		integrations: RegexIntegrationExtractor{},
		now:          time.Now,
	}
}

// Execute builds the intelligence package for a frozen assessment. A non-nil
// error alongside non-empty Findings means the external augmentation failed;
// the draft package is still usable.
func (o *Orchestrator) Execute(ctx context.Context, in *assessment.Input) (Findings, error) {
	now := o.now()
	findings := Findings{Plan: BuildPlan(in, now)}

	draft, err := o.draftPackage(ctx, in, now)
	if err != nil {
		return findings, err
	}
	findings.Package = draft

	findings.Gaps = IdentifyGaps(draft, in, now)
	findings.Plan.AddGapQueries(findings.Gaps)
	log.Printf("research gaps_identified assessment=%s gaps=%d queries=%d", in.ID, len(findings.Gaps), len(findings.Plan.Queries))

	answer, usedSim, err := o.augment(ctx, in, draft, findings.Gaps)
	if err != nil {
		log.Printf("research augmentation_failed assessment=%s err=%v", in.ID, err)
		return findings, err
	}
	findings.UsedSimulated = usedSim
	findings.Augmented = true
	findings.Package = o.merge(draft, answer, usedSim, now)
	return findings, nil
}

// draftPackage runs one Retrieval Layer search per discovery challenge (the
// same set the plan's tool-discovery queries cover) and merges the matches
// first-wins by tool name.
func (o *Orchestrator) draftPackage(ctx context.Context, in *assessment.Input, now time.Time) (intel.Package, error) {
	challenges := in.Challenges
	if len(challenges) > maxDiscoveryQueries {
		challenges = challenges[:maxDiscoveryQueries]
	}
	if len(challenges) == 0 {
		challenges = []string{""}
	}

	var (
		matches []intel.ToolMatch
		seen    = map[string]struct{}{}
		source  intel.Provenance
	)
	for _, challenge := range challenges {
		res, err := o.searcher.SearchTools(ctx, humanize(challenge), retrieval.SearchOptions{
			Segment:   in.IndustrySegment,
			Challenge: challenge,
			Budget:    budgetBandForTier(in.InvestmentTier),
		})
		if err != nil {
			return intel.Package{}, fmt.Errorf("retrieve tools for %q: %w", challenge, err)
		}
		if source == "" {
			source = res.Strategy
		}
		for _, m := range res.Matches {
			key := strings.ToLower(m.Tool.Name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			matches = append(matches, m)
		}
	}

	pkg := intel.Package{
		Tools:       matches,
		Patterns:    []catalog.Pattern{o.curated.PatternFor(complexityForTier(in.InvestmentTier))},
		Benchmarks:  o.curated.BenchmarksFor(in.IndustrySegment),
		Source:      source,
		Freshness:   freshnessForSource(source),
		RetrievedAt: now,
	}
	pkg.Quality = fallback.AssessQualityAt(pkg, now).Score
	log.Printf("research draft_built assessment=%s strategy=%s challenges=%d tools=%d quality=%.2f", in.ID, source, len(challenges), len(pkg.Tools), pkg.Quality)
	return pkg, nil
}

// augment makes exactly one live search call, and on failure exactly one
// simulated-research call. No retries on either path.
func (o *Orchestrator) augment(ctx context.Context, in *assessment.Input, draft intel.Package, gaps []Gap) (SearchResult, bool, error) {
	prompt := buildResearchPrompt(in, draft, gaps)

	if o.search != nil {
		res, err := o.search.Search(ctx, prompt)
		if err == nil {
			return res, false, nil
		}
		log.Printf("research search_failed assessment=%s err=%v", in.ID, err)
	}

	if o.sim != nil {
		content, err := o.sim.Generate(ctx, prompt)
		if err != nil {
			return SearchResult{}, false, fmt.Errorf("simulated research: %w", err)
		}
		return SearchResult{Content: content}, true, nil
	}

	return SearchResult{}, false, fmt.Errorf("no research provider configured")
}

func buildResearchPrompt(in *assessment.Input, draft intel.Package, gaps []Gap) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research briefing request for %s, a %s company (team size %d).\n\n", in.Company, in.IndustrySegment, in.TeamSize)
	fmt.Fprintf(&b, "Declared challenges: %s.\n", strings.Join(in.Challenges, ", "))
	if len(in.TechStack) > 0 {
		fmt.Fprintf(&b, "Current stack: %s.\n", strings.Join(in.TechStack, ", "))
	}
	fmt.Fprintf(&b, "\nTools already shortlisted: %s.\n", strings.Join(draft.ToolNames(), ", "))
	b.WriteString("\nFill these gaps:\n")
	for _, g := range gaps {
		fmt.Fprintf(&b, "- %s: %s\n", g.Detail, g.Query)
	}
	b.WriteString("\nName each tool in bold with a one-line description, pricing, and integrations. Include segment benchmarks and one case study if available.")
	return b.String()
}

// merge folds research findings into the draft. Curated entries always win
// on conflict: an extracted tool whose name matches an existing entry is
// dropped, not merged field-by-field.
func (o *Orchestrator) merge(draft intel.Package, answer SearchResult, simulated bool, now time.Time) intel.Package {
	out := draft

	existing := map[string]struct{}{}
	for _, m := range draft.Tools {
		existing[strings.ToLower(m.Tool.Name)] = struct{}{}
	}

	pricing := o.pricing.ExtractPricing(answer.Content)
	integrations := o.integrations.ExtractIntegrations(answer.Content)

	for _, ext := range o.tools.ExtractTools(answer.Content) {
		key := strings.ToLower(ext.Name)
		if _, dup := existing[key]; dup {
			continue
		}
		existing[key] = struct{}{}
		tool := catalog.Tool{
			Name:         ext.Name,
			Category:     "external",
			Description:  ext.Description,
			Integrations: integrations[key],
		}
		if price, ok := pricing[key]; ok {
			tool.Pricing = catalog.Pricing{Model: price}
		}
		out.Tools = append(out.Tools, intel.ToolMatch{
			Tool:   tool,
			Score:  0.5,
			Reason: "surfaced by external research",
			Layer:  intel.ClassifyLayer(tool),
		})
	}

	for _, c := range answer.Citations {
		out.CaseStudies = append(out.CaseStudies, c)
	}

	out.Source = intel.SourceExternal
	out.Freshness = 0.95
	if simulated {
		// Simulated briefings are current-model knowledge, not live web data.
		out.Freshness = 0.7
	}
	out.RetrievedAt = now
	out.Quality = fallback.AssessQualityAt(out, now).Score
	return out
}

func freshnessForSource(p intel.Provenance) float64 {
	switch p {
	case intel.SourceVectorSearch:
		return 0.85
	case intel.SourceLocalKeyword:
		return 0.75
	default:
		return 0.5
	}
}

func budgetBandForTier(t assessment.InvestmentTier) catalog.BudgetBand {
	switch t {
	case assessment.TierUnder5K:
		return catalog.BudgetLow
	case assessment.Tier5To15K, assessment.Tier15To50K:
		return catalog.BudgetMedium
	case assessment.TierOver50K:
		return catalog.BudgetHigh
	default:
		return ""
	}
}

func complexityForTier(t assessment.InvestmentTier) catalog.ComplexityTier {
	switch t {
	case assessment.TierUnder5K:
		return catalog.ComplexitySimple
	case assessment.TierOver50K:
		return catalog.ComplexityComplex
	default:
		return catalog.ComplexityModerate
	}
}
