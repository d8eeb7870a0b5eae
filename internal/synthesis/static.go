package synthesis

import (
	"fmt"
	"strings"
)

// staticSections is the hand-authored generic report, the tier that cannot
// fail. Placeholders are limited to company name and segment; every number
// comes from the metrics model, which always has values.
func staticSections(si sectionInput) []Section {
	company := si.in.Company
	if strings.TrimSpace(company) == "" {
		company = "Your company"
	}
	segment := displaySegmentName(si.in.IndustrySegment)
	m := si.metrics

	return []Section{
		{
			Title: "Executive Summary",
			Body: fmt.Sprintf("%s operates in a %s market where response speed and lead qualification increasingly decide which inquiries become revenue. Closing the gap between a %.1f%% and a %.1f%% lead conversion rate is worth an estimated $%s in additional annual revenue.\n",
				company, segment, m.CurrentConversion, m.TargetConversion, formatUSD(m.RevenueGain)),
		},
		{
			Title: "Current State",
			Body: fmt.Sprintf("Most %s teams handle inbound interest manually: leads arrive across channels, qualification depends on whoever is available, and follow-up slips when the team is busy. At roughly %.0f leads per month and a %.1f%% conversion rate, that translates to about $%s in monthly revenue and a meaningful share of winnable deals lost to slow response.\n",
				segment, m.MonthlyLeads, m.CurrentConversion, formatUSD(m.CurrentMonthlyRevenue)),
		},
		{
			Title: "Industry Benchmarks",
			Body:  "Across professional and technology services, top performers convert inbound leads at two to four times the median, respond inside fifteen minutes, and automate the majority of routine follow-up. The mid-market norm remains manual triage with next-business-day response.\n",
		},
		{
			Title: "Recommended Solutions",
			Body:  "A practical starting stack has three parts: a workflow automation backbone to route and enrich every inbound lead, a knowledge layer that grounds responses in your own material, and a conversational front door that qualifies around the clock. Start with the backbone; add layers as volume justifies them.\n",
		},
		{
			Title: "Future State",
			Body: fmt.Sprintf("With qualification and first response automated, the same lead flow converts at the modeled %.1f%% target while the team's time shifts from triage to closing. The change compounds: faster response raises conversion, which justifies further automation.\n",
				m.TargetConversion),
		},
		{
			Title: "ROI Analysis",
			Body: fmt.Sprintf("Modeled on an investment of $%s: $%s in annual revenue gain, $%s in annual cost savings, payback in %.1f months, first-year ROI of %.0f%%. These are planning estimates built on industry-standard assumptions, not forecasts.\n",
				formatUSD(m.TotalInvestment), formatUSD(m.RevenueGain), formatUSD(m.CostSavings), m.PaybackMonths, m.AnnualROIPercent),
		},
		{
			Title: "Market Context",
			Body: fmt.Sprintf("AI-assisted lead handling is moving from early adopter advantage to table stakes in %s. The cost of the capability is falling while the penalty for slow response grows; the practical question is sequencing, not whether.\n",
				segment),
		},
	}
}
