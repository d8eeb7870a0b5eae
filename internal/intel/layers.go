package intel

import (
	"strings"

	"github.com/gabiworks/leadintel/internal/catalog"
)

var layerKeywords = map[CapabilityLayer][]string{
	LayerOrchestration:  {"workflow", "automation", "orchestrat", "pipeline", "integration platform", "ipaas", "trigger"},
	LayerKnowledge:      {"vector", "search", "knowledge", "retrieval", "embedding", "enrichment", "research", "index"},
	LayerConversational: {"chat", "conversation", "assistant", "agent", "support", "messaging", "bot"},
}

// ClassifyLayer buckets a tool into one of the four capability layers using
// its category, description, and use-case tags. Tools that match nothing
// specific land in the execution layer.
func ClassifyLayer(t catalog.Tool) CapabilityLayer {
	haystack := strings.ToLower(strings.Join(append([]string{t.Category, t.Subcategory, t.Description}, t.UseCases...), " "))

	best := LayerExecution
	bestHits := 0
	for _, layer := range []CapabilityLayer{LayerOrchestration, LayerKnowledge, LayerConversational} {
		hits := 0
		for _, kw := range layerKeywords[layer] {
			if strings.Contains(haystack, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = layer
			bestHits = hits
		}
	}
	return best
}
