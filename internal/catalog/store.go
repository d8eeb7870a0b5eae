// Package catalog holds the curated tool and pattern dataset that every
// retrieval tier ultimately reads from. The dataset is loaded once from the
// embedded seed file and is read-only afterwards, so a single Store is safe
// to share across concurrent report runs.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

//go:embed data/intelligence.json
var seedJSON []byte

// Scoring weights for SmartSearch term hits, per match surface.
const (
	weightName        = 10
	weightCategory    = 8
	weightDescription = 6
	weightUseCase     = 7
	weightIntegration = 4
	weightTechStack   = 3
)

type Store struct {
	tools    []Tool
	patterns []Pattern
	meta     SeedMetadata
}

// Match pairs a tool with the score SmartSearch assigned it.
type Match struct {
	Tool  Tool
	Score float64
}

// Load builds a Store from the embedded seed dataset.
func Load() (*Store, error) {
	return LoadFrom(seedJSON)
}

func LoadFrom(blob []byte) (*Store, error) {
	var seed seedFile
	if err := json.Unmarshal(blob, &seed); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	if len(seed.Tools) == 0 {
		return nil, fmt.Errorf("seed data contains no tools")
	}
	if len(seed.Patterns) == 0 {
		return nil, fmt.Errorf("seed data contains no patterns")
	}
	for i := range seed.Tools {
		if err := validateTool(seed.Tools[i]); err != nil {
			return nil, fmt.Errorf("tool %q: %w", seed.Tools[i].Name, err)
		}
	}
	for i := range seed.Patterns {
		if err := validatePattern(seed.Patterns[i]); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", seed.Patterns[i].Name, err)
		}
	}
	return &Store{tools: seed.Tools, patterns: seed.Patterns, meta: seed.Metadata}, nil
}

func validateTool(t Tool) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name required")
	}
	for seg, fit := range t.SegmentFit {
		if fit < 0 || fit > 1 {
			return fmt.Errorf("segment_fit[%s]=%v outside [0,1]", seg, fit)
		}
	}
	for ch, fit := range t.ChallengeFit {
		if fit < 0 || fit > 1 {
			return fmt.Errorf("challenge_fit[%s]=%v outside [0,1]", ch, fit)
		}
	}
	if t.Health < 0 || t.Health > 1 {
		return fmt.Errorf("health=%v outside [0,1]", t.Health)
	}
	for _, b := range t.BudgetBands {
		switch b {
		case BudgetFree, BudgetLow, BudgetMedium, BudgetHigh:
		default:
			return fmt.Errorf("invalid budget band %q", b)
		}
	}
	switch t.Momentum {
	case MomentumRising, MomentumStable, MomentumDeclining:
	default:
		return fmt.Errorf("invalid momentum %q", t.Momentum)
	}
	return nil
}

func validatePattern(p Pattern) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name required")
	}
	switch p.Complexity {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
	default:
		return fmt.Errorf("invalid complexity %q", p.Complexity)
	}
	for seg, fit := range p.SegmentFit {
		if fit < 0 || fit > 1 {
			return fmt.Errorf("segment_fit[%s]=%v outside [0,1]", seg, fit)
		}
	}
	return nil
}

func (s *Store) Tools() []Tool {
	out := make([]Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

func (s *Store) Patterns() []Pattern {
	out := make([]Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

func (s *Store) Metadata() SeedMetadata { return s.meta }

// RefreshValidated stamps every tool's last_validated field. This is the only
// runtime mutation the store supports.
func (s *Store) RefreshValidated(now time.Time) {
	for i := range s.tools {
		s.tools[i].LastValidated = now
	}
}

func (s *Store) LookupByUseCase(tag string, limit int) []Tool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return nil
	}
	out := []Tool{}
	for _, t := range s.tools {
		for _, uc := range t.UseCases {
			if strings.ToLower(uc) == tag {
				out = append(out, t)
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (s *Store) LookupByCategory(category string, limit int) []Tool {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return nil
	}
	out := []Tool{}
	for _, t := range s.tools {
		if strings.ToLower(t.Category) == category || strings.ToLower(t.Subcategory) == category {
			out = append(out, t)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (s *Store) LookupBySegmentFit(segment string, minScore float64, limit int) []Tool {
	segment = strings.ToLower(strings.TrimSpace(segment))
	if segment == "" {
		return nil
	}
	matches := []Match{}
	for _, t := range s.tools {
		if fit, ok := t.SegmentFit[segment]; ok && fit >= minScore {
			matches = append(matches, Match{Tool: t, Score: fit})
		}
	}
	sortMatches(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Tool, len(matches))
	for i, m := range matches {
		out[i] = m.Tool
	}
	return out
}

// SmartSearch ranks every tool against a free-text query by summing weighted
// partial-match hits across the tool's text surfaces, plus a segment-fit
// bonus and a health/momentum adjustment. Deterministic and side-effect free;
// a blank or unmatchable query yields an empty result, never an error.
func (s *Store) SmartSearch(query, segment string, limit int) []Match {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}
	segment = strings.ToLower(strings.TrimSpace(segment))

	matches := []Match{}
	for _, t := range s.tools {
		score := scoreTool(t, terms, segment)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{Tool: t, Score: score})
	}
	sortMatches(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func scoreTool(t Tool, terms []string, segment string) float64 {
	score := 0.0
	name := strings.ToLower(t.Name)
	category := strings.ToLower(t.Category + " " + t.Subcategory)
	desc := strings.ToLower(t.Description)
	useCases := strings.ToLower(strings.Join(t.UseCases, " "))
	integrations := strings.ToLower(strings.Join(t.Integrations, " "))

	hit := false
	for _, term := range terms {
		if strings.Contains(name, term) {
			score += weightName
			hit = true
		}
		if strings.Contains(category, term) {
			score += weightCategory
			hit = true
		}
		if strings.Contains(desc, term) {
			score += weightDescription
			hit = true
		}
		if strings.Contains(useCases, term) {
			score += weightUseCase
			hit = true
		}
		if strings.Contains(integrations, term) {
			score += weightIntegration
			hit = true
		}
	}
	if !hit {
		return 0
	}
	if segment != "" {
		if fit, ok := t.SegmentFit[segment]; ok {
			score += fit * 5
		}
	}
	score += t.Health * 2
	switch t.Momentum {
	case MomentumRising:
		score += 2
	case MomentumDeclining:
		score -= 2
	}
	return score
}

// ScoreTechStack adds the tech-stack surface to a base SmartSearch score:
// each stack item present in the tool's integration list contributes the
// tech-stack weight. Kept separate because stack context comes from the
// assessment, not the query text.
func ScoreTechStack(t Tool, stack []string) float64 {
	score := 0.0
	integrations := strings.ToLower(strings.Join(t.Integrations, " "))
	for _, item := range stack {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		if strings.Contains(integrations, item) {
			score += weightTechStack
		}
	}
	return score
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Tool.Name < matches[j].Tool.Name
	})
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	seen := map[string]struct{}{}
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len(f) < 2 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
