package synthesis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/fallback"
	"github.com/gabiworks/leadintel/internal/inference"
	"github.com/gabiworks/leadintel/internal/intel"
	"github.com/gabiworks/leadintel/internal/research"
)

// Synthesizer builds reports. The narrative caller is optional; without it
// the tiers are deterministic → static.
type Synthesizer struct {
	narrative NarrativeCaller
	now       func() time.Time
}

func NewSynthesizer(narrative NarrativeCaller) *Synthesizer {
	return &Synthesizer{narrative: narrative, now: time.Now}
}

// Synthesize always returns a usable report; the tiers degrade internally
// and the chosen path is recorded on the report.
func (s *Synthesizer) Synthesize(ctx context.Context, in *assessment.Input, findings research.Findings, inf inference.ContextInference) Report {
	now := s.now()
	si := sectionInput{
		in:      in,
		pkg:     findings.Package,
		inf:     inf,
		metrics: Compute(ExtractFunnelInputs(in, findings.Package)),
	}

	report := Report{
		ID:           uuid.NewString(),
		AssessmentID: in.ID,
		Company:      in.Company,
		Metrics:      si.metrics.Map(),
		Source:       findings.Package.Source,
		GeneratedAt:  now,
	}

	sections, err := deterministicSections(si)
	if err == nil {
		report.Sections = sections
		report.Path = PathDeterministic
	} else {
		log.Printf("synthesis deterministic_failed assessment=%s err=%v", in.ID, err)
		sections, llmErr := s.llmSections(ctx, si)
		if llmErr == nil {
			report.Sections = sections
			report.Path = PathLLM
		} else {
			log.Printf("synthesis llm_failed assessment=%s err=%v", in.ID, llmErr)
			report.Sections = staticSections(si)
			report.Path = PathStatic
		}
	}

	if usedFallbackData(findings) || report.Path == PathStatic {
		report.FallbackNote = fallbackDisclosure
	}
	log.Printf("synthesis report_built assessment=%s path=%s sections=%d source=%s", in.ID, report.Path, len(report.Sections), report.Source)
	return report
}

func deterministicSections(si sectionInput) ([]Section, error) {
	out := make([]Section, 0, len(sectionOrder))
	for _, title := range sectionOrder {
		gen := generators[title]
		section, err := gen(si)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", title, err)
		}
		out = append(out, section)
	}
	return out, nil
}

func (s *Synthesizer) llmSections(ctx context.Context, si sectionInput) ([]Section, error) {
	if s.narrative == nil {
		return nil, fmt.Errorf("no narrative caller configured")
	}
	raw, err := s.narrative.Generate(ctx, buildNarrativePrompt(si))
	if err != nil {
		return nil, err
	}
	sections := parseSections(raw)
	if len(sections) != len(sectionOrder) {
		return nil, fmt.Errorf("narrative returned %d sections, want %d", len(sections), len(sectionOrder))
	}
	for i, title := range sectionOrder {
		if !strings.EqualFold(sections[i].Title, title) {
			return nil, fmt.Errorf("narrative section %d titled %q, want %q", i, sections[i].Title, title)
		}
		sections[i].Title = title
	}
	return sections, nil
}

func buildNarrativePrompt(si sectionInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write an AI readiness report for %s (%s segment, maturity %s, competitive pressure %s).\n\n",
		si.in.Company, si.in.IndustrySegment, si.inf.Maturity, si.inf.Pressure)
	fmt.Fprintf(&b, "Challenges: %s.\n", strings.Join(si.in.Challenges, ", "))
	fmt.Fprintf(&b, "Recommended tools: %s.\n", strings.Join(si.pkg.ToolNames(), ", "))
	b.WriteString("\nFigures (use these exactly):\n")
	for k, v := range si.metrics.Map() {
		fmt.Fprintf(&b, "- %s: %.2f\n", k, v)
	}
	b.WriteString("\nSection headings, in order:\n")
	for _, title := range sectionOrder {
		fmt.Fprintf(&b, "## %s\n", title)
	}
	return b.String()
}

// parseSections splits markdown on H2 headings. Text before the first
// heading is dropped.
func parseSections(raw string) []Section {
	var out []Section
	var current *Section
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "## ") {
			if current != nil {
				current.Body = strings.TrimSpace(current.Body) + "\n"
				out = append(out, *current)
			}
			current = &Section{Title: strings.TrimSpace(strings.TrimPrefix(line, "## "))}
			continue
		}
		if current != nil {
			current.Body += line + "\n"
		}
	}
	if current != nil {
		current.Body = strings.TrimSpace(current.Body) + "\n"
		out = append(out, *current)
	}
	return out
}

func usedFallbackData(findings research.Findings) bool {
	if findings.Package.Source == intel.SourceFallback {
		return true
	}
	return fallback.AssessQuality(findings.Package).UseFallback
}
