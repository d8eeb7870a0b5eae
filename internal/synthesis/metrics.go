package synthesis

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/intel"
)

// Default funnel constants used whenever the assessment free text carries no
// extractable number.
const (
	DefaultMonthlyLeads      = 200.0
	DefaultCurrentConversion = 3.0
	DefaultCloseRate         = 60.0
	DefaultAvgDealSize       = 25000.0
	DefaultBlendedHourlyRate = 150.0
	DefaultHoursSavedPerWeek = 10.0

	// Tripling conversion is the modeled target, hard-capped at 20%.
	TargetConversionCap = 20.0
)

var (
	conversionRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%?\s*(?:conversion|convert)`)
	leadsRe       = regexp.MustCompile(`(?i)(\d[\d,]*)\s*(?:leads?|inquiries|enquiries)\s*(?:per|a|/|each)\s*month`)
	dealSizeRe    = regexp.MustCompile(`(?i)\$\s*(\d[\d,]*)\s*(?:k\b)?\s*(?:average|avg|typical)?\s*(?:deal|contract|engagement)`)
	closeRateRe   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%?\s*(?:close|win)\s*rate`)
	hoursWeeklyRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*hours?\s*(?:a|per|each|/)\s*week`)
)

// Metrics is the canonical numeric model behind every report. All callers
// compute through here; there is exactly one conversion cap.
type Metrics struct {
	MonthlyLeads      float64
	CurrentConversion float64
	CloseRate         float64
	AvgDealSize       float64

	MonthlyDeals          float64
	ActualDeals           float64
	CurrentMonthlyRevenue float64

	TargetConversion   float64
	RevenueGain        float64
	CostSavings        float64
	TotalInvestment    float64
	AnnualRecurringUSD float64
	PaybackMonths      float64
	AnnualROIPercent   float64
}

// FunnelInputs are the raw numbers metric computation starts from.
type FunnelInputs struct {
	MonthlyLeads      float64
	CurrentConversion float64
	CloseRate         float64
	AvgDealSize       float64
	HoursSavedPerWeek float64
	TotalInvestment   float64
	AnnualRecurring   float64
}

// ExtractFunnelInputs pulls funnel numbers out of the assessment free text,
// falling back to the documented defaults field by field.
func ExtractFunnelInputs(in *assessment.Input, pkg intel.Package) FunnelInputs {
	text := in.FreeText()
	f := FunnelInputs{
		MonthlyLeads:      extractNumber(leadsRe, text, DefaultMonthlyLeads),
		CurrentConversion: extractNumber(conversionRe, text, DefaultCurrentConversion),
		CloseRate:         extractNumber(closeRateRe, text, DefaultCloseRate),
		AvgDealSize:       extractNumber(dealSizeRe, text, DefaultAvgDealSize),
		HoursSavedPerWeek: extractNumber(hoursWeeklyRe, text, DefaultHoursSavedPerWeek),
		TotalInvestment:   investmentForTier(in.InvestmentTier),
		AnnualRecurring:   annualRecurringCost(pkg),
	}
	if f.CurrentConversion <= 0 {
		f.CurrentConversion = DefaultCurrentConversion
	}
	if f.CurrentConversion > 100 {
		f.CurrentConversion = DefaultCurrentConversion
	}
	if f.CloseRate <= 0 || f.CloseRate > 100 {
		f.CloseRate = DefaultCloseRate
	}
	if f.MonthlyLeads <= 0 {
		f.MonthlyLeads = DefaultMonthlyLeads
	}
	if f.AvgDealSize <= 0 {
		f.AvgDealSize = DefaultAvgDealSize
	}
	return f
}

// Compute derives the full metric set. TotalInvestment is clamped to a
// positive floor so payback and ROI are always finite.
func Compute(f FunnelInputs) Metrics {
	if f.TotalInvestment <= 0 {
		f.TotalInvestment = investmentForTier(assessment.TierUndecided)
	}

	m := Metrics{
		MonthlyLeads:       f.MonthlyLeads,
		CurrentConversion:  f.CurrentConversion,
		CloseRate:          f.CloseRate,
		AvgDealSize:        f.AvgDealSize,
		TotalInvestment:    f.TotalInvestment,
		AnnualRecurringUSD: f.AnnualRecurring,
	}

	m.MonthlyDeals = math.Round(f.MonthlyLeads * f.CurrentConversion / 100)
	m.ActualDeals = math.Round(m.MonthlyDeals * f.CloseRate / 100)
	m.CurrentMonthlyRevenue = m.ActualDeals * f.AvgDealSize

	m.TargetConversion = math.Min(f.CurrentConversion*3, TargetConversionCap)
	if m.TargetConversion < f.CurrentConversion {
		m.TargetConversion = f.CurrentConversion
	}
	m.RevenueGain = (m.TargetConversion - f.CurrentConversion) * f.MonthlyLeads * 0.01 * f.AvgDealSize * f.CloseRate * 0.01 * 12
	m.CostSavings = f.HoursSavedPerWeek * DefaultBlendedHourlyRate * 52

	annualized := (m.RevenueGain + m.CostSavings) / 12
	if annualized <= 0 {
		annualized = 1
	}
	m.PaybackMonths = m.TotalInvestment / annualized
	m.AnnualROIPercent = math.Round(((m.RevenueGain + m.CostSavings - m.AnnualRecurringUSD) / m.TotalInvestment) * 100)
	return m
}

// Map flattens the metrics for report metadata and persistence.
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		"monthly_leads":           m.MonthlyLeads,
		"current_conversion_pct":  m.CurrentConversion,
		"close_rate_pct":          m.CloseRate,
		"avg_deal_size_usd":       m.AvgDealSize,
		"monthly_deals":           m.MonthlyDeals,
		"actual_deals":            m.ActualDeals,
		"current_monthly_revenue": m.CurrentMonthlyRevenue,
		"target_conversion_pct":   m.TargetConversion,
		"revenue_gain_usd":        m.RevenueGain,
		"cost_savings_usd":        m.CostSavings,
		"total_investment_usd":    m.TotalInvestment,
		"annual_recurring_usd":    m.AnnualRecurringUSD,
		"payback_months":          m.PaybackMonths,
		"annual_roi_pct":          m.AnnualROIPercent,
	}
}

func extractNumber(re *regexp.Regexp, text string, fallback float64) float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// investmentForTier models each tier at roughly its midpoint. Undecided
// buyers are modeled at the second-lowest tier.
func investmentForTier(t assessment.InvestmentTier) float64 {
	switch t {
	case assessment.TierUnder5K:
		return 5000
	case assessment.Tier5To15K:
		return 10000
	case assessment.Tier15To50K:
		return 30000
	case assessment.TierOver50K:
		return 75000
	default:
		return 10000
	}
}

// annualRecurringCost sums the low-end monthly price of the top recommended
// tools, annualized. Tools without structured pricing contribute a flat
// $100/mo estimate.
func annualRecurringCost(pkg intel.Package) float64 {
	monthly := 0.0
	counted := 0
	for _, match := range pkg.Tools {
		if counted == 3 {
			break
		}
		p := match.Tool.Pricing
		switch {
		case p.MinUSDMo > 0:
			monthly += float64(p.MinUSDMo)
		case p.HasFreeTier:
			// free tier contributes nothing
		default:
			monthly += 100
		}
		counted++
	}
	if counted == 0 {
		monthly = 200
	}
	return monthly * 12
}
