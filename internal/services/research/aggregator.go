package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ecoguard/ecoguard/internal/config"
)

// CacheStore holds formatted research blocks keyed by company name, so
// repeat analyses skip the search round-trip.
type CacheStore interface {
	GetResearch(ctx context.Context, companyName string) (string, bool)
	SetResearch(ctx context.Context, companyName, block string) error
}

// Aggregator runs the canned research queries for a company and formats the
// kept snippets into one text block for the analysis prompt.
type Aggregator struct {
	providers []Provider
	limiter   *rate.Limiter
	cache     CacheStore
	cfg       config.ResearchConfig
	logger    *zap.Logger
}

// NewAggregator wires the provider chain in priority order. cache may be nil.
func NewAggregator(cfg config.ResearchConfig, providers []Provider, cache CacheStore, logger *zap.Logger) *Aggregator {
	interval := cfg.QueryInterval
	if interval <= 0 {
		interval = 0
	}

	var limiter *rate.Limiter
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	return &Aggregator{
		providers: providers,
		limiter:   limiter,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
	}
}

// Research issues the first MaxQueries canned queries for the company and
// returns the formatted block. Provider failures are logged and swallowed;
// total failure yields the no-data sentinel, never an error.
func (a *Aggregator) Research(ctx context.Context, companyName string) string {
	if !a.cfg.Enabled || companyName == "" {
		return NoDataSentinel
	}

	if a.cache != nil {
		if block, ok := a.cache.GetResearch(ctx, companyName); ok {
			a.logger.Debug("research cache hit", zap.String("company", companyName))
			return block
		}
	}

	queries := a.buildQueries(companyName)

	var collected []QueryResult
	for _, query := range queries {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				break
			}
		}

		results := a.searchAll(ctx, query)
		if len(results) == 0 {
			continue
		}
		if len(results) > resultsPerQuery {
			results = results[:resultsPerQuery]
		}
		collected = append(collected, QueryResult{Query: query, Results: results})
	}

	block := FormatResults(collected)

	if a.cache != nil && block != NoDataSentinel {
		if err := a.cache.SetResearch(ctx, companyName, block); err != nil {
			a.logger.Warn("caching research failed", zap.Error(err))
		}
	}

	return block
}

func (a *Aggregator) buildQueries(companyName string) []string {
	max := a.cfg.MaxQueries
	if max <= 0 || max > len(queryTemplates) {
		max = len(queryTemplates)
	}

	queries := make([]string, 0, max)
	for _, tmpl := range queryTemplates[:max] {
		queries = append(queries, fmt.Sprintf(tmpl, companyName))
	}
	return queries
}

// searchAll tries providers in priority order until one returns non-empty
// results.
func (a *Aggregator) searchAll(ctx context.Context, query string) []SearchResult {
	for _, provider := range a.providers {
		results, err := provider.Search(ctx, query)
		if err != nil {
			a.logger.Debug("search provider failed",
				zap.String("provider", provider.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		if len(results) > 0 {
			return results
		}
	}
	return nil
}

// FormatResults renders the grouped snippets as the prompt text block.
func FormatResults(collected []QueryResult) string {
	if len(collected) == 0 {
		return NoDataSentinel
	}

	var sb strings.Builder
	for _, research := range collected {
		if len(research.Results) == 0 {
			continue
		}
		sb.WriteString("\n--- " + strings.ToUpper(research.Query) + " ---\n")
		for _, result := range research.Results {
			sb.WriteString("• " + result.Title + "\n")
			sb.WriteString("  " + result.Snippet + "\n")
			if result.URL != "" && result.URL != stubURL {
				sb.WriteString("  Source: " + result.URL + "\n")
			}
			sb.WriteString("\n")
		}
	}

	if sb.Len() == 0 {
		return NoFindingsSentinel
	}
	return sb.String()
}
