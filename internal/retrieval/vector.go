package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/gabiworks/leadintel/internal/catalog"
	"github.com/gabiworks/leadintel/internal/intel"
)

const vectorCollection = "tool-intelligence"

// VectorIndex answers semantic tool queries from an in-process chromem
// collection seeded with the curated catalog. The index owns threshold and
// count enforcement so every caller sees the same cut.
type VectorIndex struct {
	store *catalog.Store
	coll  *chromem.Collection
	docs  int
}

func NewVectorIndex(store *catalog.Store, embedder Embedder) (*VectorIndex, error) {
	db := chromem.NewDB()
	embed := chromem.EmbeddingFunc(func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	})
	coll, err := db.GetOrCreateCollection(vectorCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create vector collection: %w", err)
	}
	idx := &VectorIndex{store: store, coll: coll}
	return idx, nil
}

// Seed embeds every catalog tool into the collection. Call once at startup;
// the embedder cache makes repeated seeding cheap.
func (v *VectorIndex) Seed(ctx context.Context) error {
	tools := v.store.Tools()
	for _, t := range tools {
		doc := chromem.Document{
			ID:      t.Name,
			Content: toolDocument(t),
			Metadata: map[string]string{
				"name":     t.Name,
				"category": t.Category,
			},
		}
		for _, band := range t.BudgetBands {
			doc.Metadata["budget_"+string(band)] = "true"
		}
		if err := v.coll.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("seed tool %q: %w", t.Name, err)
		}
	}
	v.docs = len(tools)
	return nil
}

func toolDocument(t catalog.Tool) string {
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteString(". ")
	b.WriteString(t.Category)
	if t.Subcategory != "" {
		b.WriteString(" / ")
		b.WriteString(t.Subcategory)
	}
	b.WriteString(". ")
	b.WriteString(t.Description)
	if len(t.UseCases) > 0 {
		b.WriteString(" Use cases: ")
		b.WriteString(strings.Join(t.UseCases, ", "))
		b.WriteString(".")
	}
	if len(t.Integrations) > 0 {
		b.WriteString(" Integrates with ")
		b.WriteString(strings.Join(t.Integrations, ", "))
		b.WriteString(".")
	}
	return b.String()
}

func (v *VectorIndex) Search(ctx context.Context, query string, opts SearchOptions) ([]intel.ToolMatch, error) {
	if v.docs == 0 {
		return nil, nil
	}
	text := query
	if opts.Segment != "" {
		text += " for " + opts.Segment
	}
	if opts.Challenge != "" {
		text += " solving " + opts.Challenge
	}

	n := opts.MatchCount
	if n > v.docs {
		n = v.docs
	}
	var where map[string]string
	if opts.Budget != "" {
		where = map[string]string{"budget_" + string(opts.Budget): "true"}
	}
	results, err := v.coll.Query(ctx, text, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	byName := make(map[string]catalog.Tool)
	for _, t := range v.store.Tools() {
		byName[t.Name] = t
	}
	matches := make([]intel.ToolMatch, 0, len(results))
	for _, r := range results {
		if float64(r.Similarity) < opts.MatchThreshold {
			continue
		}
		tool, ok := byName[r.Metadata["name"]]
		if !ok {
			continue
		}
		matches = append(matches, intel.ToolMatch{
			Tool:   tool,
			Score:  float64(r.Similarity),
			Reason: fmt.Sprintf("semantic match (similarity %.2f)", r.Similarity),
			Layer:  intel.ClassifyLayer(tool),
		})
	}
	return matches, nil
}
