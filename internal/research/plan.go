// Package research plans and executes the augmentation pass that runs after
// local retrieval: it inspects the draft intelligence package for gaps, asks
// an external search provider to fill them, and merges what comes back
// without ever displacing curated data.
package research

import (
	"fmt"
	"strings"
	"time"

	"github.com/gabiworks/leadintel/internal/assessment"
)

type QueryCategory string

const (
	QueryCompanySpecific QueryCategory = "company-specific"
	QueryToolDiscovery   QueryCategory = "tool-discovery"
	QueryGapFilling      QueryCategory = "gap-filling"
)

type Query struct {
	Category QueryCategory
	Text     string
}

type Plan struct {
	Queries []Query
}

const maxDiscoveryQueries = 3

// BuildPlan derives the research queries from the frozen assessment. The
// company-specific pair is always present; discovery queries cover up to
// three challenges. Gap-filling queries are appended later, once the draft
// package has been inspected.
func BuildPlan(in *assessment.Input, now time.Time) Plan {
	year := now.Year()
	p := Plan{}

	company := strings.TrimSpace(in.Company)
	if company != "" {
		p.Queries = append(p.Queries,
			Query{QueryCompanySpecific, fmt.Sprintf("%s %s company AI adoption, automation maturity, and recent news", company, in.IndustrySegment)},
			Query{QueryCompanySpecific, fmt.Sprintf("%s technology stack, integrations, and go-to-market motion", company)},
		)
	}

	for i, challenge := range in.Challenges {
		if i >= maxDiscoveryQueries {
			break
		}
		p.Queries = append(p.Queries, Query{
			QueryToolDiscovery,
			fmt.Sprintf("best AI tools for %s in %s companies %d, with pricing and integrations", humanize(challenge), in.IndustrySegment, year),
		})
	}
	return p
}

// AddGapQueries appends one gap-filling query per identified gap.
func (p *Plan) AddGapQueries(gaps []Gap) {
	for _, g := range gaps {
		if strings.TrimSpace(g.Query) == "" {
			continue
		}
		p.Queries = append(p.Queries, Query{QueryGapFilling, g.Query})
	}
}

func humanize(tag string) string {
	return strings.ReplaceAll(strings.TrimSpace(tag), "-", " ")
}
