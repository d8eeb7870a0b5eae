package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/catalog"
	"github.com/gabiworks/leadintel/internal/inference"
	"github.com/gabiworks/leadintel/internal/intel"
)

// sectionInput bundles everything the deterministic generators interpolate.
type sectionInput struct {
	in      *assessment.Input
	pkg     intel.Package
	inf     inference.ContextInference
	metrics Metrics
}

type sectionGenerator func(sectionInput) (Section, error)

var generators = map[string]sectionGenerator{
	"Executive Summary":     generateSummary,
	"Current State":         generateCurrentState,
	"Industry Benchmarks":   generateBenchmarks,
	"Recommended Solutions": generateSolutions,
	"Future State":          generateFutureState,
	"ROI Analysis":          generateROI,
	"Market Context":        generateMarketContext,
}

func generateSummary(si sectionInput) (Section, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is a %s-stage %s company under %s competitive pressure. ",
		si.in.Company, si.inf.Maturity, displaySegmentName(si.in.IndustrySegment), si.inf.Pressure)
	fmt.Fprintf(&b, "The assessment surfaced %s as the primary challenge", humanizeTag(si.in.PrimaryChallenge()))
	if len(si.in.Challenges) > 1 {
		fmt.Fprintf(&b, " alongside %d further challenges", len(si.in.Challenges)-1)
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Closing the gap between the current %.1f%% lead conversion and the modeled %.1f%% target is worth an estimated **$%s in additional annual revenue**, with a payback period of %.1f months on the planned investment.\n",
		si.metrics.CurrentConversion, si.metrics.TargetConversion, formatUSD(si.metrics.RevenueGain), si.metrics.PaybackMonths)
	return Section{Title: "Executive Summary", Body: b.String()}, nil
}

func generateCurrentState(si sectionInput) (Section, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "With roughly %.0f leads per month converting at %.1f%%, %s closes about %.0f deals monthly for **$%s in monthly revenue**.\n\n",
		si.metrics.MonthlyLeads, si.metrics.CurrentConversion, si.in.Company, si.metrics.ActualDeals, formatUSD(si.metrics.CurrentMonthlyRevenue))

	if len(si.in.TechStack) > 0 {
		fmt.Fprintf(&b, "Current stack: %s.\n\n", strings.Join(si.in.TechStack, ", "))
	}
	if len(si.inf.HiddenMultipliers) > 0 {
		b.WriteString("Hidden costs the team is likely absorbing today:\n\n")
		for _, m := range si.inf.HiddenMultipliers {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	return Section{Title: "Current State", Body: b.String()}, nil
}

func generateBenchmarks(si sectionInput) (Section, error) {
	segment := strings.ToLower(si.in.IndustrySegment)
	metrics := si.pkg.Benchmarks[segment]
	if len(metrics) == 0 {
		return Section{}, fmt.Errorf("no benchmarks for segment %q", segment)
	}

	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "How %s companies perform on the metrics this report models:\n\n", displaySegmentName(segment))
	b.WriteString("| Metric | Industry Benchmark |\n|--------|--------------------|\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "| %s | %s |\n", humanizeTag(k), formatBenchmark(k, metrics[k]))
	}
	fmt.Fprintf(&b, "\nYour current %.1f%% conversion sits against these reference points; the target model assumes movement toward, not beyond, segment leaders.\n", si.metrics.CurrentConversion)
	return Section{Title: "Industry Benchmarks", Body: b.String()}, nil
}

func generateSolutions(si sectionInput) (Section, error) {
	if len(si.pkg.Tools) == 0 {
		return Section{}, fmt.Errorf("no tools retrieved")
	}

	byLayer := map[intel.CapabilityLayer][]intel.ToolMatch{}
	for _, m := range si.pkg.Tools {
		layer := m.Layer
		if layer == "" {
			// Matches from sources that skip classification still render.
			layer = intel.LayerExecution
		}
		byLayer[layer] = append(byLayer[layer], m)
	}

	var b strings.Builder
	b.WriteString("Recommended capabilities, grouped by the layer each tool serves:\n\n")
	for _, layer := range []intel.CapabilityLayer{intel.LayerOrchestration, intel.LayerKnowledge, intel.LayerExecution, intel.LayerConversational} {
		matches := byLayer[layer]
		if len(matches) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", humanizeTag(string(layer)))
		for i, m := range matches {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "- **%s** — %s", m.Tool.Name, firstSentence(m.Tool.Description))
			if price := describePricing(m.Tool); price != "" {
				fmt.Fprintf(&b, " (%s)", price)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(si.pkg.Patterns) > 0 {
		p := si.pkg.Patterns[0]
		fmt.Fprintf(&b, "### Implementation pattern: %s\n\n", p.Name)
		fmt.Fprintf(&b, "%s Typical timeline %s at %s.\n", p.Architecture, p.Timeline, p.CostRange)
		if len(p.CommonPitfalls) > 0 {
			fmt.Fprintf(&b, "\nWatch for: %s.\n", strings.Join(p.CommonPitfalls, "; "))
		}
	}
	return Section{Title: "Recommended Solutions", Body: b.String()}, nil
}

func generateFutureState(si sectionInput) (Section, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "At the modeled %.1f%% conversion, the same %.0f monthly leads produce roughly %.0f closed deals per month — ",
		si.metrics.TargetConversion, si.metrics.MonthlyLeads,
		si.metrics.TargetConversion*si.metrics.MonthlyLeads*si.metrics.CloseRate/10000)
	fmt.Fprintf(&b, "**$%s of additional revenue annually** before the %s hours a week of recovered operator time is counted.\n\n",
		formatUSD(si.metrics.RevenueGain), trimFloat(si.metrics.CostSavings/(DefaultBlendedHourlyRate*52)))

	switch si.inf.Maturity {
	case inference.MaturityEarly:
		b.WriteString("At this stage the priority is removing manual lead handling entirely rather than optimizing it: a single automation backbone beats point solutions.\n")
	case inference.MaturityScaling:
		b.WriteString("The scaling stage rewards connecting the systems that already work: routing, enrichment, and follow-up should fire without a human in the loop.\n")
	default:
		b.WriteString("At the established stage the gains come from consolidation: fewer, deeper integrations and measurable SLAs on every handoff.\n")
	}
	return Section{Title: "Future State", Body: b.String()}, nil
}

func generateROI(si sectionInput) (Section, error) {
	m := si.metrics
	var b strings.Builder
	b.WriteString("| Line item | Value |\n|-----------|-------|\n")
	fmt.Fprintf(&b, "| Annual revenue gain | $%s |\n", formatUSD(m.RevenueGain))
	fmt.Fprintf(&b, "| Annual cost savings | $%s |\n", formatUSD(m.CostSavings))
	fmt.Fprintf(&b, "| Total investment | $%s |\n", formatUSD(m.TotalInvestment))
	fmt.Fprintf(&b, "| Annual tooling cost | $%s |\n", formatUSD(m.AnnualRecurringUSD))
	fmt.Fprintf(&b, "| Payback period | %.1f months |\n", m.PaybackMonths)
	fmt.Fprintf(&b, "| First-year ROI | %.0f%% |\n", m.AnnualROIPercent)
	fmt.Fprintf(&b, "\nThe model caps target conversion at %.0f%% regardless of the tripling heuristic, and holds close rate and deal size constant. All figures are planning estimates, not forecasts.\n", TargetConversionCap)
	return Section{Title: "ROI Analysis", Body: b.String()}, nil
}

func generateMarketContext(si sectionInput) (Section, error) {
	var b strings.Builder
	if len(si.pkg.Trends.Rising) > 0 {
		fmt.Fprintf(&b, "Gaining adoption in this space: %s.\n\n", strings.Join(si.pkg.Trends.Rising, ", "))
	}
	if len(si.pkg.Trends.Declining) > 0 {
		fmt.Fprintf(&b, "Losing ground: %s.\n\n", strings.Join(si.pkg.Trends.Declining, ", "))
	}
	switch si.inf.Pressure {
	case inference.PressureHigh:
		fmt.Fprintf(&b, "Competitive pressure in %s is high: competitors adopting automation first convert the leads you respond to second.\n", displaySegmentName(si.in.IndustrySegment))
	case inference.PressureMedium:
		fmt.Fprintf(&b, "Competitive pressure in %s is moderate; the window to build an automation advantage is open but narrowing.\n", displaySegmentName(si.in.IndustrySegment))
	default:
		fmt.Fprintf(&b, "Competitive pressure in %s is currently low, which makes this the cheapest moment to build the capability.\n", displaySegmentName(si.in.IndustrySegment))
	}
	if len(si.pkg.CaseStudies) > 0 {
		b.WriteString("\nSources and case studies:\n\n")
		for i, c := range si.pkg.CaseStudies {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return Section{Title: "Market Context", Body: b.String()}, nil
}

func displaySegmentName(segment string) string {
	switch strings.ToLower(segment) {
	case "itsm":
		return "IT service management"
	case "saas":
		return "SaaS"
	case "ecommerce":
		return "e-commerce"
	case "":
		return "services"
	default:
		return strings.ToLower(segment)
	}
}

func humanizeTag(tag string) string {
	out := strings.ReplaceAll(strings.TrimSpace(tag), "-", " ")
	return strings.ReplaceAll(out, "_", " ")
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, ". "); idx > 0 {
		return s[:idx+1]
	}
	return s
}

func describePricing(t catalog.Tool) string {
	p := t.Pricing
	switch {
	case p.MinUSDMo > 0 && p.MaxUSDMo > p.MinUSDMo:
		return fmt.Sprintf("$%d–$%d/mo", p.MinUSDMo, p.MaxUSDMo)
	case p.MinUSDMo > 0:
		return fmt.Sprintf("from $%d/mo", p.MinUSDMo)
	case p.HasFreeTier:
		return "free tier available"
	case p.Model != "":
		return p.Model
	default:
		return ""
	}
}

func formatBenchmark(key string, v float64) string {
	switch {
	case strings.HasSuffix(key, "_pct"):
		return fmt.Sprintf("%.1f%%", v)
	case strings.HasSuffix(key, "_usd"):
		return "$" + formatUSD(v)
	case strings.HasSuffix(key, "_minutes"):
		return fmt.Sprintf("%.0f minutes", v)
	default:
		return trimFloat(v)
	}
}

func formatUSD(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		return "-" + out
	}
	return out
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}
