// Package inference maps raw assessment answers to three categorical
// judgments: business maturity stage, hidden-cost multipliers, and
// competitive-pressure level. It is a deterministic decision table; identical
// input text always produces identical output.
package inference

import (
	"strings"

	"github.com/gabiworks/leadintel/internal/assessment"
)

type MaturityStage string

const (
	MaturityEarly       MaturityStage = "early"
	MaturityScaling     MaturityStage = "scaling"
	MaturityEstablished MaturityStage = "established"
)

type PressureLevel string

const (
	PressureLow    PressureLevel = "low"
	PressureMedium PressureLevel = "medium"
	PressureHigh   PressureLevel = "high"
)

const maxMultipliers = 4

type ContextInference struct {
	Maturity          MaturityStage `json:"maturity"`
	HiddenMultipliers []string      `json:"hidden_multipliers"`
	Pressure          PressureLevel `json:"pressure"`
}

// Infer derives the context judgment for one assessment. Pure function.
func Infer(in *assessment.Input) ContextInference {
	text := strings.ToLower(in.FreeText())
	return ContextInference{
		Maturity:          maturityStage(in, text),
		HiddenMultipliers: hiddenMultipliers(in, text),
		Pressure:          pressureLevel(in, text),
	}
}

// maturityStage averages four independent sub-scores, each in {1,2,3}:
// team-size bracket, budget bracket, free-text keyword tier, and tech-stack
// count bracket. Average <=1.5 is early, <=2.5 scaling, else established.
func maturityStage(in *assessment.Input, text string) MaturityStage {
	sum := teamSizeScore(in.TeamSize) +
		budgetScore(in.InvestmentTier) +
		keywordTierScore(text) +
		stackScore(len(in.TechStack))
	avg := float64(sum) / 4.0
	switch {
	case avg <= 1.5:
		return MaturityEarly
	case avg <= 2.5:
		return MaturityScaling
	default:
		return MaturityEstablished
	}
}

func teamSizeScore(n int) int {
	switch {
	case n <= 5:
		return 1
	case n <= 20:
		return 2
	default:
		return 3
	}
}

func budgetScore(tier assessment.InvestmentTier) int {
	switch tier {
	case assessment.Tier15To50K, assessment.TierOver50K:
		return 3
	case assessment.Tier5To15K:
		return 2
	default:
		return 1
	}
}

// keywordTierScore picks the keyword list with the most hits; chaos language
// scores 1, scaling language 2, enterprise language 3. Ties resolve toward
// the lower tier; no hits at all is treated as neutral (2).
func keywordTierScore(text string) int {
	chaos := countHits(text, chaosKeywords)
	scaling := countHits(text, scalingKeywords)
	enterprise := countHits(text, enterpriseKeywords)
	if chaos == 0 && scaling == 0 && enterprise == 0 {
		return 2
	}
	best, score := chaos, 1
	if scaling > best {
		best, score = scaling, 2
	}
	if enterprise > best {
		score = 3
	}
	return score
}

func stackScore(n int) int {
	switch {
	case n <= 2:
		return 1
	case n <= 6:
		return 2
	default:
		return 3
	}
}

// hiddenMultipliers collects canned hidden-cost findings for the declared
// challenges, then appends situational multipliers: crisis language in the
// free text, a bottom-band budget, and a team that is small relative to the
// number of declared challenges. De-duplicated, capped at four entries.
func hiddenMultipliers(in *assessment.Input, text string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, challenge := range in.Challenges {
		costs, ok := hiddenCosts[challenge]
		if !ok {
			costs = genericHiddenCosts
		}
		for _, c := range costs {
			add(c)
		}
	}
	if len(in.Challenges) == 0 {
		for _, c := range genericHiddenCosts {
			add(c)
		}
	}

	if countHits(text, crisisKeywords) > 0 {
		add("Crisis-mode language suggests compounding costs beyond the stated challenges")
	}
	if in.InvestmentTier == assessment.TierUnder5K {
		add("Budget constraints likely forcing partial fixes that re-create the problem later")
	}
	if in.TeamSize > 0 && in.TeamSize < 2*len(in.Challenges) {
		add("Small team carrying multiple structural challenges at once, multiplying context-switching cost")
	}

	if len(out) > maxMultipliers {
		out = out[:maxMultipliers]
	}
	return out
}

// pressureLevel averages three signals in {1,2,3}: urgency keywords,
// pain-severity keywords, and the per-segment pressure table, using the same
// thresholds as maturity.
func pressureLevel(in *assessment.Input, text string) PressureLevel {
	sum := bucketHits(countHits(text, urgencyKeywords)) +
		bucketHits(countHits(text, painKeywords)) +
		segmentPressureScore(in.IndustrySegment)
	avg := float64(sum) / 3.0
	switch {
	case avg <= 1.5:
		return PressureLow
	case avg <= 2.5:
		return PressureMedium
	default:
		return PressureHigh
	}
}

func bucketHits(n int) int {
	switch {
	case n == 0:
		return 1
	case n == 1:
		return 2
	default:
		return 3
	}
}

func segmentPressureScore(segment string) int {
	if score, ok := segmentPressure[strings.ToLower(segment)]; ok {
		return score
	}
	return 2
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}
