package htmlreport

import (
	"strings"
	"testing"
	"time"

	"github.com/gabiworks/leadintel/internal/synthesis"
)

func sampleReport() synthesis.Report {
	return synthesis.Report{
		ID:      "r-1",
		Company: "Brightpath Services",
		Sections: []synthesis.Section{
			{Title: "Executive Summary", Body: "Opening prose with **bold** text.\n"},
			{Title: "Industry Benchmarks", Body: "| Metric | Value |\n|--------|-------|\n| conversion | 3.2% |\n"},
			{Title: "ROI Analysis", Body: "Payback in 4.2 months.\n"},
		},
		FallbackNote: "This report is based on curated industry analysis; live market research was unavailable at generation time.",
		GeneratedAt:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFormatHeadingRoundTrip(t *testing.T) {
	report := sampleReport()
	doc := Format(report)

	got := ExtractSectionTitles(doc)
	want := report.SectionTitles()
	if len(got) != len(want) {
		t.Fatalf("extracted %d headings, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("heading %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFormatIsSelfContained(t *testing.T) {
	doc := Format(sampleReport())
	if !strings.HasPrefix(doc, "<!doctype html>") {
		t.Fatal("missing doctype")
	}
	for _, forbidden := range []string{"<link", "src=\"http", "href=\"http"} {
		if strings.Contains(doc, forbidden) {
			t.Fatalf("document references an external asset: %s", forbidden)
		}
	}
	if !strings.Contains(doc, "<style>") {
		t.Fatal("missing inline styles")
	}
}

func TestFormatRendersTablesAndEmphasis(t *testing.T) {
	doc := Format(sampleReport())
	if !strings.Contains(doc, "<table>") || !strings.Contains(doc, "<td>3.2%</td>") {
		t.Fatal("pipe table not converted")
	}
	if !strings.Contains(doc, "<strong>bold</strong>") {
		t.Fatal("bold span not converted")
	}
}

func TestFormatSurfacesFallbackNote(t *testing.T) {
	doc := Format(sampleReport())
	if !strings.Contains(doc, "curated industry analysis") {
		t.Fatal("fallback note missing from document")
	}
}

func TestFormatMarksROIPageBreak(t *testing.T) {
	doc := Format(sampleReport())
	if !strings.Contains(doc, `<h2 data-page-break-before="true">ROI Analysis</h2>`) {
		t.Fatal("ROI section not flagged for page break")
	}
}

func TestFormatEmptyReportStillRenders(t *testing.T) {
	doc := Format(synthesis.Report{Company: "X", GeneratedAt: time.Now()})
	if !strings.Contains(doc, "report-section") {
		t.Fatal("empty report lost its section container")
	}
	if ExtractSectionTitles(doc) != nil {
		t.Fatal("empty report should have no headings")
	}
}
