// Package synthesis turns an assessment, its research findings, and the
// inferred context into the final multi-section report. Three tiers try in
// order: deterministic template sections, a one-shot LLM narrative, and a
// static generic report that cannot fail.
package synthesis

import (
	"time"

	"github.com/gabiworks/leadintel/internal/intel"
)

// Section is one named block of report prose (markdown).
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SynthesisPath records which tier produced the narrative.
type SynthesisPath string

const (
	PathDeterministic SynthesisPath = "deterministic"
	PathLLM           SynthesisPath = "llm"
	PathStatic        SynthesisPath = "static"
)

// The canonical section order. The HTML round trip and all tiers preserve it.
var sectionOrder = []string{
	"Executive Summary",
	"Current State",
	"Industry Benchmarks",
	"Recommended Solutions",
	"Future State",
	"ROI Analysis",
	"Market Context",
}

// Report is the synthesized document handed to the HTML formatter and the
// store.
type Report struct {
	ID           string             `json:"id"`
	AssessmentID string             `json:"assessment_id"`
	Company      string             `json:"company"`
	Sections     []Section          `json:"sections"`
	Metrics      map[string]float64 `json:"metrics"`
	Source       intel.Provenance   `json:"source"`
	Path         SynthesisPath      `json:"path"`
	FallbackNote string             `json:"fallback_note,omitempty"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// SectionTitles returns the ordered section names, the round-trip anchor for
// the HTML formatter.
func (r Report) SectionTitles() []string {
	out := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		out = append(out, s.Title)
	}
	return out
}

// fallbackDisclosure is surfaced whenever curated rather than live data
// backs the report.
const fallbackDisclosure = "This report is based on curated industry analysis; live market research was unavailable at generation time."
