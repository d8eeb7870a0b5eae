// Package assessment models the multi-step intake record a report run is
// generated from. An Input is mutated step by step while the form is open and
// frozen once generation starts.
package assessment

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxFreeTextChars = 20000
	MaxChallenges    = 8
)

// InvestmentTier is the budget selection from the intake form, ordered from
// lowest to highest.
type InvestmentTier string

const (
	TierUnder5K   InvestmentTier = "under-5k"
	Tier5To15K    InvestmentTier = "5k-15k"
	Tier15To50K   InvestmentTier = "15k-50k"
	TierOver50K   InvestmentTier = "over-50k"
	TierUndecided InvestmentTier = "undecided"
)

// KnownSegments are the industry segment codes carried by the catalog's fit
// maps. Unknown segments are accepted but score as zero fit everywhere.
var KnownSegments = []string{"itsm", "agency", "saas", "ecommerce", "consulting"}

type Input struct {
	ID                string         `json:"id"`
	Company           string         `json:"company"`
	ContactName       string         `json:"contact_name"`
	ContactEmail      string         `json:"contact_email"`
	IndustrySegment   string         `json:"industry_segment"`
	InvestmentTier    InvestmentTier `json:"investment_tier"`
	TeamSize          int            `json:"team_size"`
	CurrentProcess    string         `json:"current_process"`
	AdditionalContext string         `json:"additional_context"`
	Challenges        []string       `json:"challenges"`
	TechStack         []string       `json:"tech_stack"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	FrozenAt          *time.Time     `json:"frozen_at,omitempty"`
}

// New creates an empty assessment with a fresh ID.
func New(now time.Time) *Input {
	return &Input{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
}

// StepPatch carries one form step's worth of updates. Nil fields are left
// untouched.
type StepPatch struct {
	Company           *string         `json:"company,omitempty"`
	ContactName       *string         `json:"contact_name,omitempty"`
	ContactEmail      *string         `json:"contact_email,omitempty"`
	IndustrySegment   *string         `json:"industry_segment,omitempty"`
	InvestmentTier    *InvestmentTier `json:"investment_tier,omitempty"`
	TeamSize          *int            `json:"team_size,omitempty"`
	CurrentProcess    *string         `json:"current_process,omitempty"`
	AdditionalContext *string         `json:"additional_context,omitempty"`
	Challenges        []string        `json:"challenges,omitempty"`
	TechStack         []string        `json:"tech_stack,omitempty"`
}

// Apply merges a step patch into the input. Frozen inputs reject all updates.
func (in *Input) Apply(patch StepPatch, now time.Time) error {
	if in.FrozenAt != nil {
		return fmt.Errorf("assessment %s is frozen", in.ID)
	}
	if patch.Company != nil {
		in.Company = strings.TrimSpace(*patch.Company)
	}
	if patch.ContactName != nil {
		in.ContactName = strings.TrimSpace(*patch.ContactName)
	}
	if patch.ContactEmail != nil {
		in.ContactEmail = strings.TrimSpace(*patch.ContactEmail)
	}
	if patch.IndustrySegment != nil {
		in.IndustrySegment = strings.ToLower(strings.TrimSpace(*patch.IndustrySegment))
	}
	if patch.InvestmentTier != nil {
		if !validTier(*patch.InvestmentTier) {
			return fmt.Errorf("invalid investment_tier %q", *patch.InvestmentTier)
		}
		in.InvestmentTier = *patch.InvestmentTier
	}
	if patch.TeamSize != nil {
		if *patch.TeamSize < 0 {
			return fmt.Errorf("team_size must be >= 0")
		}
		in.TeamSize = *patch.TeamSize
	}
	if patch.CurrentProcess != nil {
		in.CurrentProcess = truncate(*patch.CurrentProcess, MaxFreeTextChars)
	}
	if patch.AdditionalContext != nil {
		in.AdditionalContext = truncate(*patch.AdditionalContext, MaxFreeTextChars)
	}
	if patch.Challenges != nil {
		if len(patch.Challenges) > MaxChallenges {
			patch.Challenges = patch.Challenges[:MaxChallenges]
		}
		in.Challenges = normalizeList(patch.Challenges)
	}
	if patch.TechStack != nil {
		in.TechStack = normalizeList(patch.TechStack)
	}
	in.UpdatedAt = now
	return nil
}

// Freeze marks the input immutable. Report generation calls this first; a
// second freeze is a no-op.
func (in *Input) Freeze(now time.Time) {
	if in.FrozenAt == nil {
		t := now
		in.FrozenAt = &t
	}
}

// ValidateForGeneration checks the minimum fields a report run needs.
func (in *Input) ValidateForGeneration() error {
	if strings.TrimSpace(in.Company) == "" {
		return fmt.Errorf("company is required")
	}
	if strings.TrimSpace(in.IndustrySegment) == "" {
		return fmt.Errorf("industry_segment is required")
	}
	if len(in.Challenges) == 0 {
		return fmt.Errorf("at least one challenge is required")
	}
	return nil
}

// PrimaryChallenge returns the first declared challenge, or "".
func (in *Input) PrimaryChallenge() string {
	if len(in.Challenges) == 0 {
		return ""
	}
	return in.Challenges[0]
}

// FreeText joins the free-text surfaces used by keyword scoring.
func (in *Input) FreeText() string {
	return strings.TrimSpace(in.CurrentProcess + "\n" + in.AdditionalContext)
}

func validTier(t InvestmentTier) bool {
	switch t {
	case TierUnder5K, Tier5To15K, Tier15To50K, TierOver50K, TierUndecided:
		return true
	}
	return false
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so the cut never splits a multibyte character.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
