// Package fallback is the curated, hand-authored intelligence tier: the data
// source of last resort when live retrieval is unavailable or too thin. Every
// lookup returns a non-empty result, defaulting to the moderate/agency
// profile when a requested key is absent.
package fallback

import (
	"strings"
	"time"

	"github.com/gabiworks/leadintel/internal/catalog"
	"github.com/gabiworks/leadintel/internal/intel"
)

type Provider struct {
	store *catalog.Store
}

func NewProvider(store *catalog.Store) *Provider {
	return &Provider{store: store}
}

// curatedUseCases maps a use-case category to the catalog use-case tags its
// curated shortlist is drawn from, in preference order.
var curatedUseCases = map[string][]string{
	"lead-qualification":  {"lead-qualification", "lead-enrichment", "lead-routing"},
	"workflow-automation": {"workflow-automation", "data-sync"},
	"knowledge-base":      {"knowledge-base", "semantic-search", "rag"},
	"customer-support":    {"conversational-support", "knowledge-base"},
	"outbound":            {"outbound", "email-sequences", "lead-enrichment"},
	"reporting":           {"reporting", "internal-tools"},
	"default":             {"workflow-automation", "lead-qualification"},
}

// ToolsFor returns the curated shortlist for a use-case category, ordered by
// segment fit when a segment is supplied.
func (p *Provider) ToolsFor(useCaseCategory, segment string) []catalog.Tool {
	key := strings.ToLower(strings.TrimSpace(useCaseCategory))
	tags, ok := curatedUseCases[key]
	if !ok {
		tags = curatedUseCases["default"]
	}
	seen := map[string]struct{}{}
	out := []catalog.Tool{}
	for _, tag := range tags {
		for _, t := range p.store.LookupByUseCase(tag, 0) {
			lower := strings.ToLower(t.Name)
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			out = append(out, t)
		}
	}
	if segment != "" {
		sortBySegmentFit(out, strings.ToLower(segment))
	}
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// PatternFor returns the curated implementation pattern for a complexity
// tier, defaulting to the moderate tier.
func (p *Provider) PatternFor(tier catalog.ComplexityTier) catalog.Pattern {
	patterns := p.store.Patterns()
	if len(patterns) == 0 {
		return catalog.Pattern{}
	}
	for _, pat := range patterns {
		if pat.Complexity == tier {
			return pat
		}
	}
	for _, pat := range patterns {
		if pat.Complexity == catalog.ComplexityModerate {
			return pat
		}
	}
	return patterns[0]
}

// curatedBenchmarks carries hand-authored per-segment funnel benchmarks.
// Values are industry medians, not aspirational targets.
var curatedBenchmarks = intel.BenchmarkMap{
	"itsm": {
		"lead_to_opportunity_pct": 8,
		"first_response_minutes":  240,
		"automation_adoption_pct": 45,
		"avg_deal_size_usd":       42000,
	},
	"agency": {
		"lead_to_opportunity_pct": 12,
		"first_response_minutes":  120,
		"automation_adoption_pct": 35,
		"avg_deal_size_usd":       18000,
	},
	"saas": {
		"lead_to_opportunity_pct": 15,
		"first_response_minutes":  60,
		"automation_adoption_pct": 60,
		"avg_deal_size_usd":       24000,
	},
	"ecommerce": {
		"lead_to_opportunity_pct": 20,
		"first_response_minutes":  30,
		"automation_adoption_pct": 55,
		"avg_deal_size_usd":       5000,
	},
	"consulting": {
		"lead_to_opportunity_pct": 10,
		"first_response_minutes":  300,
		"automation_adoption_pct": 25,
		"avg_deal_size_usd":       55000,
	},
}

const defaultBenchmarkSegment = "agency"

// BenchmarksFor returns the curated benchmark metrics for a segment,
// defaulting to the agency profile for unknown segments.
func (p *Provider) BenchmarksFor(segment string) intel.BenchmarkMap {
	key := strings.ToLower(strings.TrimSpace(segment))
	metrics, ok := curatedBenchmarks[key]
	if !ok {
		key = defaultBenchmarkSegment
		metrics = curatedBenchmarks[key]
	}
	copied := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		copied[k] = v
	}
	return intel.BenchmarkMap{key: copied}
}

// Package assembles a full curated intelligence package for a segment and
// use-case category. This is the terminal tier of the retrieval chain.
func (p *Provider) Package(useCaseCategory, segment string) intel.Package {
	tools := p.ToolsFor(useCaseCategory, segment)
	matches := make([]intel.ToolMatch, 0, len(tools))
	for _, t := range tools {
		matches = append(matches, intel.ToolMatch{
			Tool:   t,
			Score:  t.SegmentFit[strings.ToLower(segment)],
			Reason: "curated shortlist for " + displayOr(useCaseCategory, "general automation") + " workloads",
			Layer:  intel.ClassifyLayer(t),
		})
	}
	pkg := intel.Package{
		Tools:       matches,
		Patterns:    []catalog.Pattern{p.PatternFor(catalog.ComplexityModerate)},
		Benchmarks:  p.BenchmarksFor(segment),
		Trends:      p.trends(),
		Source:      intel.SourceFallback,
		Freshness:   0.5,
		RetrievedAt: time.Now(),
	}
	pkg.Quality = AssessQuality(pkg).Score
	return pkg
}

func (p *Provider) trends() intel.TrendSummary {
	tr := intel.TrendSummary{}
	for _, t := range p.store.Tools() {
		switch t.Momentum {
		case catalog.MomentumRising:
			tr.Rising = append(tr.Rising, t.Name)
		case catalog.MomentumDeclining:
			tr.Declining = append(tr.Declining, t.Name)
		}
	}
	return tr
}

func sortBySegmentFit(tools []catalog.Tool, segment string) {
	for i := 1; i < len(tools); i++ {
		for j := i; j > 0 && fitOf(tools[j], segment) > fitOf(tools[j-1], segment); j-- {
			tools[j], tools[j-1] = tools[j-1], tools[j]
		}
	}
}

func fitOf(t catalog.Tool, segment string) float64 { return t.SegmentFit[segment] }

func displayOr(s, fallbackText string) string {
	if strings.TrimSpace(s) == "" {
		return fallbackText
	}
	return s
}
