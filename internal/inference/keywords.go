package inference

// Keyword tables driving the rule-based scorer. All matching is
// case-insensitive substring search over the assessment's free text.

var chaosKeywords = []string{
	"spreadsheet", "manual", "copy paste", "copy-paste", "falling through",
	"no process", "ad hoc", "ad-hoc", "sticky notes", "inbox", "chasing",
}

var scalingKeywords = []string{
	"crm", "pipeline", "handoff", "hiring", "onboarding", "growing",
	"process", "template", "sop", "documented",
}

var enterpriseKeywords = []string{
	"compliance", "sla", "governance", "procurement", "integration",
	"data warehouse", "security review", "multi-team", "departments",
}

var crisisKeywords = []string{
	"losing", "bleeding", "churn", "overwhelmed", "drowning", "firefight",
	"missed", "angry", "complaints", "burnout",
}

var urgencyKeywords = []string{
	"asap", "urgent", "immediately", "this quarter", "right now",
	"yesterday", "deadline", "before we lose",
}

var painKeywords = []string{
	"losing deals", "losing leads", "wasting hours", "costing us",
	"can't keep up", "cannot keep up", "falling behind", "no visibility",
}

// segmentPressure maps industry segment -> baseline competitive-pressure
// signal in {1,2,3}. Unlisted segments score 2.
var segmentPressure = map[string]int{
	"itsm":       2,
	"agency":     3,
	"saas":       3,
	"ecommerce":  3,
	"consulting": 2,
}

// hiddenCosts maps each declared primary-challenge code to its canned
// hidden-cost findings. Order matters: earlier entries survive the cap.
var hiddenCosts = map[string][]string{
	"lead-qualification": {
		"Sales hours spent manually researching leads that never qualify",
		"High-intent leads going cold while sitting unscored in the queue",
		"Inconsistent qualification criteria across reps skewing forecasts",
	},
	"manual-followup": {
		"Follow-up gaps after the first touch silently killing conversion",
		"Rep context lost between touches, forcing prospects to repeat themselves",
		"No-show rates inflated by missing reminder sequences",
		"Referral momentum lost because closed deals get no structured follow-through",
	},
	"slow-response": {
		"Inbound leads contacting competitors while waiting for a reply",
		"After-hours enquiries landing in an unmonitored inbox",
		"First-response SLA breaches eroding retainer renewal conversations",
	},
	"data-silos": {
		"Duplicate and conflicting records forcing manual reconciliation",
		"Reporting assembled by hand from exports each week",
		"Campaign decisions made on stale or partial data",
	},
	"reporting-overhead": {
		"Senior staff hours consumed assembling recurring status decks",
		"Metric definitions drifting between teams and tools",
		"Decisions delayed waiting on monthly reporting cycles",
	},
}

var genericHiddenCosts = []string{
	"Operational knowledge concentrated in a few heads rather than systems",
	"Team time spent on repetitive coordination instead of client work",
	"Growth constrained by processes that only work at the current volume",
}
