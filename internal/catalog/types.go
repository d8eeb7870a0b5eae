package catalog

import "time"

type BudgetBand string

const (
	BudgetFree   BudgetBand = "free"
	BudgetLow    BudgetBand = "low"
	BudgetMedium BudgetBand = "medium"
	BudgetHigh   BudgetBand = "high"
)

type Momentum string

const (
	MomentumRising    Momentum = "rising"
	MomentumStable    Momentum = "stable"
	MomentumDeclining Momentum = "declining"
)

type ComplexityTier string

const (
	ComplexitySimple   ComplexityTier = "simple"
	ComplexityModerate ComplexityTier = "moderate"
	ComplexityComplex  ComplexityTier = "complex"
)

type Pricing struct {
	Model       string `json:"model"`
	MinUSDMo    int    `json:"min_usd_mo"`
	MaxUSDMo    int    `json:"max_usd_mo"`
	HasFreeTier bool   `json:"has_free_tier"`
}

type Tool struct {
	Name          string             `json:"name"`
	Category      string             `json:"category"`
	Subcategory   string             `json:"subcategory,omitempty"`
	Description   string             `json:"description"`
	Pricing       Pricing            `json:"pricing"`
	Integrations  []string           `json:"integrations"`
	UseCases      []string           `json:"use_cases"`
	SegmentFit    map[string]float64 `json:"segment_fit"`
	ChallengeFit  map[string]float64 `json:"challenge_fit"`
	BudgetBands   []BudgetBand       `json:"budget_bands"`
	Health        float64            `json:"health"`
	Momentum      Momentum           `json:"momentum"`
	LastValidated time.Time          `json:"last_validated"`
}

type Pattern struct {
	Name              string             `json:"name"`
	Architecture      string             `json:"architecture"`
	Complexity        ComplexityTier     `json:"complexity"`
	Timeline          string             `json:"timeline"`
	CostRange         string             `json:"cost_range"`
	SuccessIndicators []string           `json:"success_indicators"`
	CommonPitfalls    []string           `json:"common_pitfalls"`
	SegmentFit        map[string]float64 `json:"segment_fit"`
}

type SeedMetadata struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
}

type seedFile struct {
	Tools    []Tool       `json:"tools"`
	Patterns []Pattern    `json:"patterns"`
	Metadata SeedMetadata `json:"metadata"`
}
