package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/catalog"
	"github.com/gabiworks/leadintel/internal/fallback"
	"github.com/gabiworks/leadintel/internal/inference"
	"github.com/gabiworks/leadintel/internal/intel"
	"github.com/gabiworks/leadintel/internal/research"
)

func synthTestInput() *assessment.Input {
	return &assessment.Input{
		ID:              "a-synth",
		Company:         "Brightpath Services",
		IndustrySegment: "itsm",
		InvestmentTier:  assessment.Tier5To15K,
		TeamSize:        12,
		Challenges:      []string{"lead-qualification"},
		CurrentProcess:  "Leads come in by email and get triaged by hand.",
	}
}

func curatedFindings(t *testing.T) research.Findings {
	t.Helper()
	store, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	pkg := fallback.NewProvider(store).Package("lead-qualification", "itsm")
	return research.Findings{Package: pkg}
}

func TestSynthesizeDeterministicPath(t *testing.T) {
	in := synthTestInput()
	s := NewSynthesizer(nil)
	report := s.Synthesize(context.Background(), in, curatedFindings(t), inference.Infer(in))

	if report.Path != PathDeterministic {
		t.Fatalf("path = %s, want deterministic", report.Path)
	}
	titles := report.SectionTitles()
	if len(titles) != len(sectionOrder) {
		t.Fatalf("sections = %d, want %d", len(titles), len(sectionOrder))
	}
	for i, want := range sectionOrder {
		if titles[i] != want {
			t.Fatalf("section %d = %q, want %q", i, titles[i], want)
		}
	}
	if report.AssessmentID != in.ID {
		t.Fatalf("assessment id = %q", report.AssessmentID)
	}
	if report.Metrics["monthly_leads"] != DefaultMonthlyLeads {
		t.Fatalf("metrics missing defaults: %v", report.Metrics)
	}
}

func TestSynthesizeSurfacesFallbackProvenance(t *testing.T) {
	in := synthTestInput()
	s := NewSynthesizer(nil)
	report := s.Synthesize(context.Background(), in, curatedFindings(t), inference.Infer(in))

	if report.Source != intel.SourceFallback {
		t.Fatalf("source = %s, want fallback", report.Source)
	}
	if !strings.Contains(report.FallbackNote, "curated industry analysis") {
		t.Fatalf("fallback note = %q", report.FallbackNote)
	}
}

func TestSynthesizeSolutionsMentionRetrievedTools(t *testing.T) {
	in := synthTestInput()
	findings := curatedFindings(t)
	s := NewSynthesizer(nil)
	report := s.Synthesize(context.Background(), in, findings, inference.Infer(in))

	var solutions string
	for _, sec := range report.Sections {
		if sec.Title == "Recommended Solutions" {
			solutions = sec.Body
		}
	}
	found := false
	for _, name := range findings.Package.ToolNames() {
		if strings.Contains(solutions, name) {
			found = true
		}
	}
	if !found {
		t.Fatalf("no retrieved tool named in solutions section:\n%s", solutions)
	}
}

type fakeNarrative struct {
	out string
	err error
}

func (f fakeNarrative) Generate(context.Context, string) (string, error) { return f.out, f.err }

func narrativeFor(titles []string) string {
	var b strings.Builder
	b.WriteString("Preamble that should be dropped.\n")
	for _, title := range titles {
		fmt.Fprintf(&b, "## %s\n\nGenerated prose for %s.\n\n", title, title)
	}
	return b.String()
}

func TestSynthesizeLLMTierWhenDeterministicFails(t *testing.T) {
	in := synthTestInput()
	// No tools and no benchmarks sinks the deterministic generators.
	findings := research.Findings{Package: intel.Package{Source: intel.SourceFallback}}
	s := NewSynthesizer(fakeNarrative{out: narrativeFor(sectionOrder)})
	report := s.Synthesize(context.Background(), in, findings, inference.Infer(in))

	if report.Path != PathLLM {
		t.Fatalf("path = %s, want llm", report.Path)
	}
	titles := report.SectionTitles()
	for i, want := range sectionOrder {
		if titles[i] != want {
			t.Fatalf("section %d = %q, want %q", i, titles[i], want)
		}
	}
}

func TestSynthesizeStaticTierAlwaysSucceeds(t *testing.T) {
	in := synthTestInput()
	findings := research.Findings{Package: intel.Package{Source: intel.SourceFallback}}
	s := NewSynthesizer(fakeNarrative{err: errors.New("provider down")})
	report := s.Synthesize(context.Background(), in, findings, inference.Infer(in))

	if report.Path != PathStatic {
		t.Fatalf("path = %s, want static", report.Path)
	}
	if len(report.Sections) != len(sectionOrder) {
		t.Fatalf("sections = %d, want %d", len(report.Sections), len(sectionOrder))
	}
	if report.FallbackNote == "" {
		t.Fatal("static report must carry the fallback disclosure")
	}
	for _, sec := range report.Sections {
		if strings.TrimSpace(sec.Body) == "" {
			t.Fatalf("empty static section %q", sec.Title)
		}
	}
}

func TestSynthesizeRejectsMisorderedNarrative(t *testing.T) {
	in := synthTestInput()
	findings := research.Findings{Package: intel.Package{Source: intel.SourceFallback}}
	shuffled := append([]string{}, sectionOrder...)
	shuffled[0], shuffled[1] = shuffled[1], shuffled[0]
	s := NewSynthesizer(fakeNarrative{out: narrativeFor(shuffled)})
	report := s.Synthesize(context.Background(), in, findings, inference.Infer(in))

	if report.Path != PathStatic {
		t.Fatalf("path = %s, want static after misordered narrative", report.Path)
	}
}

func TestParseSectionsRoundTrip(t *testing.T) {
	raw := narrativeFor(sectionOrder)
	sections := parseSections(raw)
	if len(sections) != len(sectionOrder) {
		t.Fatalf("parsed %d sections, want %d", len(sections), len(sectionOrder))
	}
	for i, want := range sectionOrder {
		if sections[i].Title != want {
			t.Fatalf("section %d = %q, want %q", i, sections[i].Title, want)
		}
		if !strings.Contains(sections[i].Body, "Generated prose") {
			t.Fatalf("section %d body lost: %q", i, sections[i].Body)
		}
	}
}

func TestSolutionsRenderUnclassifiedMatches(t *testing.T) {
	si := sectionInput{
		in: synthTestInput(),
		pkg: intel.Package{Tools: []intel.ToolMatch{{
			Tool: catalog.Tool{Name: "Ledgerline", Description: "Books follow-ups automatically."},
		}}},
	}
	sec, err := generateSolutions(si)
	if err != nil {
		t.Fatalf("generateSolutions: %v", err)
	}
	if !strings.Contains(sec.Body, "Ledgerline") {
		t.Fatalf("unclassified tool not rendered: %s", sec.Body)
	}
}
