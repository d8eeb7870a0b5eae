package fallback

import (
	"time"

	"github.com/gabiworks/leadintel/internal/intel"
)

// UseFallbackThreshold is the single quality bar for "is live data good
// enough". Every call site routes through AssessQuality rather than
// re-implementing this comparison.
const UseFallbackThreshold = 0.5

type QualityAssessment struct {
	Score       float64  `json:"score"`
	Issues      []string `json:"issues"`
	UseFallback bool     `json:"use_fallback"`
}

// AssessQuality scores an intelligence package from its own field population.
// The score is a sum of fixed credits and is recomputable deterministically:
//
//	+0.30  at least one tool (+0.10 bonus at five or more)
//	+0.20  at least one pattern
//	+0.20  data younger than 7 days, +0.10 younger than 14, else 0
//	+0.15  benchmark data present
//	+0.15  pricing data on at least one tool
func AssessQuality(pkg intel.Package) QualityAssessment {
	return AssessQualityAt(pkg, time.Now())
}

func AssessQualityAt(pkg intel.Package, now time.Time) QualityAssessment {
	q := QualityAssessment{Issues: []string{}}

	if len(pkg.Tools) >= 1 {
		q.Score += 0.30
		if len(pkg.Tools) >= 5 {
			q.Score += 0.10
		}
	} else {
		q.Issues = append(q.Issues, "no tool recommendations retrieved")
	}

	if len(pkg.Patterns) >= 1 {
		q.Score += 0.20
	} else {
		q.Issues = append(q.Issues, "no implementation patterns retrieved")
	}

	switch age := dataAge(pkg, now); {
	case age < 7*24*time.Hour:
		q.Score += 0.20
	case age < 14*24*time.Hour:
		q.Score += 0.10
	default:
		q.Issues = append(q.Issues, "intelligence data older than 14 days")
	}

	if pkg.HasBenchmarks() {
		q.Score += 0.15
	} else {
		q.Issues = append(q.Issues, "no benchmark data for segment")
	}

	if pkg.HasPricing() {
		q.Score += 0.15
	} else {
		q.Issues = append(q.Issues, "no pricing data on retrieved tools")
	}

	q.UseFallback = q.Score < UseFallbackThreshold
	return q
}

// dataAge treats a zero RetrievedAt as maximally stale.
func dataAge(pkg intel.Package, now time.Time) time.Duration {
	if pkg.RetrievedAt.IsZero() {
		return 365 * 24 * time.Hour
	}
	return now.Sub(pkg.RetrievedAt)
}
