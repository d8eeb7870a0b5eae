package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultSearchBaseURL = "https://api.perplexity.ai"
	defaultSearchModel   = "sonar"
	weakCitationFloor    = 3
)

// ErrWeakEvidence marks a search answer carrying too few citations to trust.
var ErrWeakEvidence = errors.New("search answer carried fewer than 3 citations")

// SearchResult is one grounded answer from the search provider.
type SearchResult struct {
	Content   string
	Citations []string
}

// SearchProvider executes a single grounded web search. Implementations are
// expected to be weak-evidence aware and return ErrWeakEvidence themselves.
type SearchProvider interface {
	Search(ctx context.Context, prompt string) (SearchResult, error)
}

type SearchConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	RecencyFilter      string   // e.g. "month"
	SearchDomains      []string // allow-list, empty = unrestricted
	RateLimitPerMinute int
	HTTPClient         *http.Client
}

// SearchClient targets a Perplexity-compatible chat-completions endpoint
// that returns citations alongside the answer.
type SearchClient struct {
	cfg     SearchConfig
	limiter *rate.Limiter
}

func NewSearchClient(cfg SearchConfig) (*SearchClient, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("SEARCH_API_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSearchBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultSearchModel
	}
	if cfg.RecencyFilter == "" {
		cfg.RecencyFilter = "month"
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 20
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 45 * time.Second}
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimitPerMinute)), 1)
	return &SearchClient{cfg: cfg, limiter: limiter}, nil
}

type searchRequest struct {
	Model               string          `json:"model"`
	Messages            []searchMessage `json:"messages"`
	SearchRecencyFilter string          `json:"search_recency_filter,omitempty"`
	SearchDomainFilter  []string        `json:"search_domain_filter,omitempty"`
	Temperature         float64         `json:"temperature"`
}

type searchMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type searchResponse struct {
	Citations []string `json:"citations"`
	Choices   []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const searchSystemPrompt = "You are a B2B market intelligence researcher. Answer with specific tool names, pricing, integrations, and measured outcomes. Cite sources for every claim."

func (c *SearchClient) Search(ctx context.Context, prompt string) (SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return SearchResult{}, err
	}

	payload, _ := json.Marshal(searchRequest{
		Model: c.cfg.Model,
		Messages: []searchMessage{
			{Role: "system", Content: searchSystemPrompt},
			{Role: "user", Content: prompt},
		},
		SearchRecencyFilter: c.cfg.RecencyFilter,
		SearchDomainFilter:  c.cfg.SearchDomains,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return SearchResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusUnauthorized {
		return SearchResult{}, fmt.Errorf("search API authentication failed (status %d). Check SEARCH_API_KEY", res.StatusCode)
	}
	if res.StatusCode >= 400 {
		return SearchResult{}, fmt.Errorf("status code: %d body=%s", res.StatusCode, truncateBody(b))
	}

	var parsed searchResponse
	if err := json.Unmarshal(b, &parsed); err != nil {
		return SearchResult{}, fmt.Errorf("parse search response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return SearchResult{}, errors.New("empty search answer")
	}
	out := SearchResult{Content: parsed.Choices[0].Message.Content, Citations: parsed.Citations}
	if len(out.Citations) < weakCitationFloor {
		return out, ErrWeakEvidence
	}
	return out, nil
}

func truncateBody(b []byte) string {
	s := string(b)
	if len(s) > 512 {
		return s[:512]
	}
	return s
}
