// Package htmlreport renders a synthesized report as a self-contained HTML
// document (inline styles, no external assets) and optionally as a PDF via
// headless Chromium.
package htmlreport

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/gabiworks/leadintel/internal/synthesis"
)

var (
	h2Re      = regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`)
	tagRe     = regexp.MustCompile(`(?s)<[^>]+>`)
	sectionRe = regexp.MustCompile(`(?i)<h2>`)
)

// Format converts the report into a standalone HTML document. It cannot
// fail: markdown that will not convert is escaped and wrapped as one raw
// section.
func Format(report synthesis.Report) string {
	body, err := renderBody(report)
	if err != nil {
		body = "<section class='report-section'><pre>" + html.EscapeString(rawMarkdown(report)) + "</pre></section>"
	}
	return documentShell(report, body)
}

func renderBody(report synthesis.Report) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var content strings.Builder
	if err := md.Convert([]byte(rawMarkdown(report)), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	// The passes are order-dependent: section wrapping assumes goldmark has
	// already produced the h2 tags it splits on.
	out := wrapSections(content.String())
	out = markPageBreaks(out)
	return out, nil
}

func rawMarkdown(report synthesis.Report) string {
	var b strings.Builder
	for _, s := range report.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Title, s.Body)
	}
	return b.String()
}

// wrapSections turns each h2-delimited run into its own section container so
// print styling can break between them.
func wrapSections(content string) string {
	parts := sectionRe.Split(content, -1)
	if len(parts) < 2 {
		return "<section class='report-section'>" + content + "</section>"
	}
	var b strings.Builder
	if strings.TrimSpace(parts[0]) != "" {
		b.WriteString("<section class='report-section'>" + parts[0] + "</section>")
	}
	for _, part := range parts[1:] {
		b.WriteString("<section class='report-section'><h2>" + part + "</section>")
	}
	return b.String()
}

// markPageBreaks flags the ROI section so the PDF starts it on a fresh page.
func markPageBreaks(content string) string {
	re := regexp.MustCompile(`(?i)<h2>\s*ROI Analysis\s*</h2>`)
	return re.ReplaceAllString(content, `<h2 data-page-break-before="true">ROI Analysis</h2>`)
}

// ExtractSectionTitles recovers the ordered h2 headings from a formatted
// document. Formatting then extracting reproduces Report.SectionTitles.
func ExtractSectionTitles(doc string) []string {
	var out []string
	for _, m := range h2Re.FindAllStringSubmatch(doc, -1) {
		title := strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(m[1], "")))
		if title != "" {
			out = append(out, title)
		}
	}
	return out
}

func documentShell(report synthesis.Report, body string) string {
	var b strings.Builder
	b.WriteString("<!doctype html><html><head><meta charset='utf-8'><title>")
	b.WriteString(html.EscapeString(report.Company + " — AI Readiness Report"))
	b.WriteString("</title><style>")
	b.WriteString(reportCSS)
	b.WriteString("</style></head><body><div class='report-wrap'>")

	b.WriteString("<header class='report-header'><h1>" + html.EscapeString(report.Company) + "</h1>")
	b.WriteString("<div class='report-meta'>AI Readiness &amp; Revenue Report · " + report.GeneratedAt.Format("January 2, 2006") + "</div>")
	if report.FallbackNote != "" {
		b.WriteString("<div class='report-note'>" + html.EscapeString(report.FallbackNote) + "</div>")
	}
	b.WriteString("</header>")

	b.WriteString("<main class='report-html'>" + body + "</main>")
	b.WriteString("</div></body></html>")
	return b.String()
}

const reportCSS = `
body{font-family:Georgia,'Times New Roman',serif;color:#1c1917;background:#f9f7f3;margin:0;padding:1rem;-webkit-print-color-adjust:exact;print-color-adjust:exact;}
.report-wrap{max-width:880px;margin:0 auto;background:#fff;padding:2.5rem 3rem;box-shadow:0 1px 4px rgba(0,0,0,0.12);}
.report-header h1{margin:0 0 0.25rem;font-size:1.9rem;}
.report-meta{color:#57534e;font-size:0.85rem;margin-bottom:0.5rem;}
.report-note{background:#fef3c7;color:#78350f;border:1px solid #fcd34d;border-radius:4px;padding:0.5rem 0.75rem;font-size:0.82rem;margin:0.75rem 0;}
.report-section{margin:1.4rem 0;}
.report-html h2{font-size:1.25rem;border-bottom:2px solid #e7e5e4;padding-bottom:0.3rem;}
.report-html h3{font-size:1.02rem;}
.report-html table{width:100%;border-collapse:collapse;font-size:0.85rem;margin:0.75rem 0;}
.report-html th,.report-html td{border:1px solid #a8a29e;padding:0.4rem 0.5rem;text-align:left;vertical-align:top;}
.report-html thead th{background:#f1f5f9;font-weight:700;}
.report-html li{margin:0.2rem 0;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
@media print{body{background:#fff;padding:0;}.report-wrap{box-shadow:none;max-width:none;padding:0;}}
`
