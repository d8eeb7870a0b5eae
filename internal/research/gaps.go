package research

import (
	"fmt"
	"strings"
	"time"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/intel"
)

// Gap names one deficiency in a draft intelligence package together with the
// query that would fill it.
type Gap struct {
	Kind   string
	Detail string
	Query  string
}

const (
	GapFewTools        = "few-tools"
	GapNoStackOverlap  = "no-stack-overlap"
	GapNoCaseStudies   = "no-case-studies"
	GapThinBenchmarks  = "thin-benchmarks"
	GapCompanyResearch = "company-research"
)

// IdentifyGaps runs the fixed checklist against a draft package. The
// company-specific gap is unconditional: local retrieval can never know
// anything about the prospect itself.
func IdentifyGaps(pkg intel.Package, in *assessment.Input, now time.Time) []Gap {
	var gaps []Gap

	if len(pkg.Tools) < 3 {
		gaps = append(gaps, Gap{
			Kind:   GapFewTools,
			Detail: fmt.Sprintf("fewer than 3 tools retrieved (%d)", len(pkg.Tools)),
			Query:  fmt.Sprintf("top AI tools for %s in %s companies %d", humanize(in.PrimaryChallenge()), in.IndustrySegment, now.Year()),
		})
	}

	if len(in.TechStack) > 0 && !anyStackOverlap(pkg, in.TechStack) {
		gaps = append(gaps, Gap{
			Kind:   GapNoStackOverlap,
			Detail: "no retrieved tool integrates with the declared tech stack",
			Query:  fmt.Sprintf("AI tools that integrate with %s", strings.Join(in.TechStack, ", ")),
		})
	}

	if len(pkg.CaseStudies) == 0 {
		gaps = append(gaps, Gap{
			Kind:   GapNoCaseStudies,
			Detail: "no case studies in package",
			Query:  fmt.Sprintf("%s AI automation case studies with measured results", in.IndustrySegment),
		})
	}

	if benchmarkKeyCount(pkg, in.IndustrySegment) < 2 {
		gaps = append(gaps, Gap{
			Kind:   GapThinBenchmarks,
			Detail: "insufficient benchmarks for segment",
			Query:  fmt.Sprintf("%s industry benchmarks: lead conversion rate, response time, automation adoption", in.IndustrySegment),
		})
	}

	gaps = append(gaps, Gap{
		Kind:   GapCompanyResearch,
		Detail: "company-specific context is never available locally",
		Query:  fmt.Sprintf("%s company profile, team size, technology choices", in.Company),
	})
	return gaps
}

func anyStackOverlap(pkg intel.Package, stack []string) bool {
	for _, m := range pkg.Tools {
		for _, integration := range m.Tool.Integrations {
			for _, owned := range stack {
				if strings.EqualFold(strings.TrimSpace(integration), strings.TrimSpace(owned)) {
					return true
				}
			}
		}
	}
	return false
}

func benchmarkKeyCount(pkg intel.Package, segment string) int {
	return len(pkg.Benchmarks[strings.ToLower(segment)])
}
