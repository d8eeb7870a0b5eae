// Package retrieval resolves tool queries through an ordered chain of
// strategies: semantic vector search, local keyword ranking over the embedded
// catalog, then the curated fallback tables. Each strategy gets exactly one
// attempt; a failure moves on to the next tier rather than retrying, and
// results from different tiers are never merged.
package retrieval

import (
	"context"
	"errors"
	"log"

	"github.com/gabiworks/leadintel/internal/catalog"
	"github.com/gabiworks/leadintel/internal/fallback"
	"github.com/gabiworks/leadintel/internal/intel"
)

// ErrNoProvider indicates the searcher was constructed with no usable
// strategy at all. It is a configuration error, not a runtime one.
var ErrNoProvider = errors.New("retrieval: no search strategy configured")

const (
	DefaultMatchThreshold = 0.6
	DefaultMatchCount     = 10
)

// SearchOptions narrows a tool query. Zero-value fields are ignored.
type SearchOptions struct {
	Segment        string
	Challenge      string
	Budget         catalog.BudgetBand
	MatchThreshold float64
	MatchCount     int
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.MatchThreshold <= 0 {
		o.MatchThreshold = DefaultMatchThreshold
	}
	if o.MatchCount <= 0 {
		o.MatchCount = DefaultMatchCount
	}
	return o
}

// Result carries the matches plus the name of the strategy that produced
// them, so downstream quality scoring can weight provenance.
type Result struct {
	Matches  []intel.ToolMatch
	Strategy intel.Provenance
}

type strategy struct {
	name    intel.Provenance
	attempt func(ctx context.Context, query string, opts SearchOptions) ([]intel.ToolMatch, error)
}

// Searcher runs the strategy chain. The vector index is optional; the local
// catalog and fallback provider tiers are always present when a store is.
type Searcher struct {
	chain []strategy
}

func NewSearcher(store *catalog.Store, vector *VectorIndex, curated *fallback.Provider) (*Searcher, error) {
	s := &Searcher{}
	if vector != nil {
		s.chain = append(s.chain, strategy{name: intel.SourceVectorSearch, attempt: vector.Search})
	}
	if store != nil {
		s.chain = append(s.chain, strategy{name: intel.SourceLocalKeyword, attempt: localKeywordStrategy(store)})
	}
	if curated != nil {
		s.chain = append(s.chain, strategy{name: intel.SourceFallback, attempt: fallbackStrategy(curated)})
	}
	if len(s.chain) == 0 {
		return nil, ErrNoProvider
	}
	return s, nil
}

// SearchTools walks the chain in order and returns the first tier that
// yields matches. Tier errors are logged and swallowed; they only mean
// "try the next tier". The curated tier never fails, so a configured
// searcher always returns something.
func (s *Searcher) SearchTools(ctx context.Context, query string, opts SearchOptions) (Result, error) {
	opts = opts.withDefaults()
	for _, strat := range s.chain {
		matches, err := strat.attempt(ctx, query, opts)
		if err != nil {
			log.Printf("retrieval strategy_failed strategy=%s err=%v", strat.name, err)
			continue
		}
		if len(matches) == 0 {
			log.Printf("retrieval strategy_empty strategy=%s query=%q", strat.name, query)
			continue
		}
		return Result{Matches: matches, Strategy: strat.name}, nil
	}
	return Result{}, ErrNoProvider
}

func localKeywordStrategy(store *catalog.Store) func(context.Context, string, SearchOptions) ([]intel.ToolMatch, error) {
	return func(_ context.Context, query string, opts SearchOptions) ([]intel.ToolMatch, error) {
		hits := store.SmartSearch(query, opts.Segment, opts.MatchCount)
		matches := make([]intel.ToolMatch, 0, len(hits))
		for _, h := range hits {
			if opts.Budget != "" && !hasBand(h.Tool.BudgetBands, opts.Budget) {
				continue
			}
			matches = append(matches, intel.ToolMatch{
				Tool:   h.Tool,
				Score:  h.Score,
				Reason: "keyword match against curated catalog",
				Layer:  intel.ClassifyLayer(h.Tool),
			})
		}
		return matches, nil
	}
}

func fallbackStrategy(curated *fallback.Provider) func(context.Context, string, SearchOptions) ([]intel.ToolMatch, error) {
	return func(_ context.Context, query string, opts SearchOptions) ([]intel.ToolMatch, error) {
		tools := curated.ToolsFor(opts.Challenge, opts.Segment)
		if opts.Budget != "" {
			inBudget := make([]catalog.Tool, 0, len(tools))
			for _, t := range tools {
				if hasBand(t.BudgetBands, opts.Budget) {
					inBudget = append(inBudget, t)
				}
			}
			// The curated tier is the last resort and must answer; keep
			// the full list when the budget filter would empty it.
			if len(inBudget) > 0 {
				tools = inBudget
			}
		}
		matches := make([]intel.ToolMatch, 0, len(tools))
		for _, t := range tools {
			matches = append(matches, intel.ToolMatch{
				Tool:   t,
				Score:  t.SegmentFit[opts.Segment],
				Reason: "curated recommendation for " + displaySegment(opts.Segment),
				Layer:  intel.ClassifyLayer(t),
			})
		}
		return matches, nil
	}
}

func hasBand(bands []catalog.BudgetBand, want catalog.BudgetBand) bool {
	for _, b := range bands {
		if b == want {
			return true
		}
	}
	return false
}

func displaySegment(segment string) string {
	if segment == "" {
		return "your segment"
	}
	return segment
}
