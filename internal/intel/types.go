// Package intel defines the intelligence bundle passed between the retrieval,
// research, and synthesis layers. A Package is assembled once per report run
// and read-only afterwards.
package intel

import (
	"time"

	"github.com/gabiworks/leadintel/internal/catalog"
)

// Provenance identifies which retrieval tier produced a package.
type Provenance string

const (
	SourceVectorSearch Provenance = "vector-search"
	SourceLocalKeyword Provenance = "local-keyword"
	SourceFallback     Provenance = "fallback"
	SourceExternal     Provenance = "external-research"
)

// CapabilityLayer is one of the four fixed buckets recommended tools are
// classified into.
type CapabilityLayer string

const (
	LayerOrchestration  CapabilityLayer = "orchestration"
	LayerKnowledge      CapabilityLayer = "knowledge-retrieval"
	LayerExecution      CapabilityLayer = "execution"
	LayerConversational CapabilityLayer = "conversational-interface"
)

// ToolMatch annotates a catalog tool with its retrieval score and a
// human-readable recommendation reason.
type ToolMatch struct {
	Tool   catalog.Tool    `json:"tool"`
	Score  float64         `json:"score"`
	Reason string          `json:"reason"`
	Layer  CapabilityLayer `json:"layer,omitempty"`
}

// BenchmarkMap maps segment -> metric name -> value.
type BenchmarkMap map[string]map[string]float64

type TrendSummary struct {
	Rising      []string `json:"rising"`
	Declining   []string `json:"declining"`
	NewEntrants []string `json:"new_entrants"`
}

// Package is the retrieval result bundle for one query plan.
type Package struct {
	Tools       []ToolMatch       `json:"tools"`
	Patterns    []catalog.Pattern `json:"patterns"`
	Benchmarks  BenchmarkMap      `json:"benchmarks"`
	Trends      TrendSummary      `json:"trends"`
	CaseStudies []string          `json:"case_studies"`
	Source      Provenance        `json:"source"`
	Freshness   float64           `json:"freshness"`
	Quality     float64           `json:"quality"`
	RetrievedAt time.Time         `json:"retrieved_at"`
}

// HasBenchmarks reports whether any segment carries at least one metric.
func (p Package) HasBenchmarks() bool {
	for _, metrics := range p.Benchmarks {
		if len(metrics) > 0 {
			return true
		}
	}
	return false
}

// HasPricing reports whether at least one tool carries pricing data.
func (p Package) HasPricing() bool {
	for _, m := range p.Tools {
		if m.Tool.Pricing.Model != "" || m.Tool.Pricing.MaxUSDMo > 0 {
			return true
		}
	}
	return false
}

// ToolNames returns the ordered tool names in the package.
func (p Package) ToolNames() []string {
	out := make([]string, 0, len(p.Tools))
	for _, m := range p.Tools {
		out = append(out, m.Tool.Name)
	}
	return out
}
