package research

import (
	"regexp"
	"strings"
)

// ExtractedTool is a tool mention pulled out of research prose. Only the
// name is guaranteed; the rest is best-effort.
type ExtractedTool struct {
	Name        string
	Description string
}

// The extractors are split per field so each regex family can be swapped or
// tested in isolation.

type ToolExtractor interface {
	ExtractTools(text string) []ExtractedTool
}

type PricingExtractor interface {
	ExtractPricing(text string) map[string]string
}

type IntegrationExtractor interface {
	ExtractIntegrations(text string) map[string][]string
}

var (
	// **Zapier** — workflow automation..., **Clay**: enrichment...
	boldToolRe = regexp.MustCompile(`\*\*([A-Z][A-Za-z0-9 .&+-]{1,40})\*\*\s*(?:[—:–-]\s*)?([^\n*]{0,200})`)
	// 1. Zapier: workflow automation  /  2) Clay - enrichment
	listToolRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+([A-Z][A-Za-z0-9 .&+-]{1,40}?)\s*[—:–-]\s+([^\n]{0,200})`)

	// $49/mo, $1,200 per month, $20 per user/month
	pricingRe = regexp.MustCompile(`\$[0-9][0-9,]*(?:\.[0-9]+)?\s*(?:/|per\s+)\s*(?:user\s*/?\s*)?(?:mo(?:nth)?|seat|user|year|yr)`)

	// "integrates with HubSpot, Slack, and Salesforce"
	integrationRe = regexp.MustCompile(`(?i)integrat\w*\s+(?:with|into)\s+([A-Za-z0-9 ,&.+-]{3,120})`)
)

type RegexToolExtractor struct{}

func (RegexToolExtractor) ExtractTools(text string) []ExtractedTool {
	seen := map[string]struct{}{}
	var out []ExtractedTool
	for _, re := range []*regexp.Regexp{boldToolRe, listToolRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" || looksLikeHeading(name) {
				continue
			}
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, ExtractedTool{Name: name, Description: strings.TrimSpace(m[2])})
		}
	}
	return out
}

// Section headings and generic phrases match the bold pattern too; filter
// the obvious ones.
var headingWords = []string{"summary", "overview", "conclusion", "recommendation", "pricing", "benchmark", "key ", "next steps", "sources"}

func looksLikeHeading(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range headingWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

type RegexPricingExtractor struct{}

// ExtractPricing maps tool name -> first price phrase found in the line
// mentioning it.
func (RegexPricingExtractor) ExtractPricing(text string) map[string]string {
	out := map[string]string{}
	for _, tool := range (RegexToolExtractor{}).ExtractTools(text) {
		line := lineContaining(text, tool.Name)
		if line == "" {
			continue
		}
		if price := pricingRe.FindString(line); price != "" {
			out[strings.ToLower(tool.Name)] = strings.Join(strings.Fields(price), " ")
		}
	}
	return out
}

type RegexIntegrationExtractor struct{}

func (RegexIntegrationExtractor) ExtractIntegrations(text string) map[string][]string {
	out := map[string][]string{}
	for _, tool := range (RegexToolExtractor{}).ExtractTools(text) {
		line := lineContaining(text, tool.Name)
		if line == "" {
			continue
		}
		m := integrationRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		names := splitNameList(m[1])
		if len(names) > 0 {
			out[strings.ToLower(tool.Name)] = names
		}
	}
	return out
}

// lineContaining returns the full line (or bullet) that mentions the needle.
// Briefings put a tool's description, pricing, and integrations on one line,
// often across several sentences, so the window must not stop at a period.
func lineContaining(text, needle string) string {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(needle))
	if idx < 0 {
		return ""
	}
	start := strings.LastIndexByte(text[:idx], '\n') + 1
	end := strings.IndexByte(text[idx:], '\n')
	if end < 0 {
		end = len(text) - idx
	}
	return text[start : idx+end]
}

func splitNameList(s string) []string {
	s = strings.ReplaceAll(s, " and ", ",")
	s = strings.ReplaceAll(s, "&", ",")
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.Trim(part, "."))
		if part == "" || len(part) > 40 {
			continue
		}
		out = append(out, part)
	}
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}
