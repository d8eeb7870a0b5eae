package inference

import (
	"reflect"
	"testing"

	"github.com/gabiworks/leadintel/internal/assessment"
)

func baseInput() *assessment.Input {
	return &assessment.Input{
		Company:         "Acme",
		IndustrySegment: "agency",
		InvestmentTier:  assessment.Tier5To15K,
		TeamSize:        8,
		Challenges:      []string{"manual-followup"},
		TechStack:       []string{"hubspot", "slack", "google-sheets"},
		CurrentProcess:  "We track leads in a CRM and have a documented pipeline process.",
	}
}

func TestInferDeterministic(t *testing.T) {
	in := baseInput()
	a := Infer(in)
	b := Infer(in)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical input produced different inference output")
	}
}

func TestMaturityBrackets(t *testing.T) {
	early := &assessment.Input{
		TeamSize:       2,
		InvestmentTier: assessment.TierUnder5K,
		TechStack:      []string{"gmail"},
		CurrentProcess: "Everything is manual, leads live in a spreadsheet and things keep falling through.",
	}
	if got := Infer(early).Maturity; got != MaturityEarly {
		t.Fatalf("expected early, got %s", got)
	}

	established := &assessment.Input{
		TeamSize:       60,
		InvestmentTier: assessment.TierOver50K,
		TechStack:      []string{"salesforce", "jira", "slack", "tableau", "workato", "snowflake", "zendesk"},
		CurrentProcess: "Procurement and security review gate all new tooling; compliance requires SLA reporting across departments.",
	}
	if got := Infer(established).Maturity; got != MaturityEstablished {
		t.Fatalf("expected established, got %s", got)
	}

	if got := Infer(baseInput()).Maturity; got != MaturityScaling {
		t.Fatalf("expected scaling, got %s", got)
	}
}

func TestHiddenMultipliersCapAndDedupe(t *testing.T) {
	in := baseInput()
	in.Challenges = []string{"manual-followup", "slow-response", "data-silos"}
	in.InvestmentTier = assessment.TierUnder5K
	in.TeamSize = 2
	in.AdditionalContext = "We are drowning and losing deals every week."

	got := Infer(in).HiddenMultipliers
	if len(got) == 0 || len(got) > 4 {
		t.Fatalf("multipliers must be 1..4, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, m := range got {
		if seen[m] {
			t.Fatalf("duplicate multiplier %q", m)
		}
		seen[m] = true
	}
}

func TestHiddenMultipliersUnknownChallenge(t *testing.T) {
	in := baseInput()
	in.Challenges = []string{"quantum-alignment"}
	got := Infer(in).HiddenMultipliers
	if len(got) == 0 {
		t.Fatal("unknown challenge should still yield generic multipliers")
	}
}

func TestPressureLevels(t *testing.T) {
	calm := &assessment.Input{
		IndustrySegment: "consulting",
		CurrentProcess:  "Referrals arrive steadily and we respond when time allows.",
	}
	if got := Infer(calm).Pressure; got != PressureLow {
		t.Fatalf("expected low pressure, got %s", got)
	}

	hot := &assessment.Input{
		IndustrySegment:   "saas",
		CurrentProcess:    "We need this fixed asap, competitors respond immediately and we are losing deals.",
		AdditionalContext: "Deadline this quarter; we can't keep up with inbound.",
	}
	if got := Infer(hot).Pressure; got != PressureHigh {
		t.Fatalf("expected high pressure, got %s", got)
	}
}
