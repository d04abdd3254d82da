package research

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
)

const (
	// collectInterval is the throughput ceiling for provider calls.  The
	// provider rate-limits aggressively; one ReverseASIN call per 500ms keeps
	// us under it.  A token bucket rather than fixed sleeps lets the first
	// call proceed immediately and respects context cancellation.
	collectInterval = 500 * time.Millisecond

	// defaultPageSize is the ReverseASIN page size.  One page covers the
	// useful keyword set for nearly all products.
	defaultPageSize = 200
)

// Collector fetches and filters raw keyword occurrences per product.
type Collector struct {
	provider keyword.DataProvider
	logger   logging.Logger
	limiter  *rate.Limiter
	pageSize int
}

// NewCollector constructs a Collector with the standard self-throttle.
func NewCollector(provider keyword.DataProvider, logger logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Collector{
		provider: provider,
		logger:   logger.Named("collector"),
		limiter:  rate.NewLimiter(rate.Every(collectInterval), 1),
		pageSize: defaultPageSize,
	}
}

// Collect fetches keyword occurrences for one product, dropping everything
// below the minimum-search-volume floor.  Provider failures are recorded on
// the result, never returned: a failed product must not abort its siblings.
func (c *Collector) Collect(ctx context.Context, asin string, minSearchVolume int) keyword.ProductResult {
	result := keyword.ProductResult{ProductID: asin}

	if err := c.limiter.Wait(ctx); err != nil {
		result.Status = keyword.StatusFailed
		result.ErrorMessage = err.Error()
		return result
	}

	occurrences, err := c.provider.ReverseASIN(ctx, asin, 1, c.pageSize)
	if err != nil {
		c.logger.Warn("reverse ASIN lookup failed",
			logging.String("asin", asin),
			logging.Err(err),
		)
		result.Status = keyword.StatusFailed
		result.ErrorMessage = err.Error()
		return result
	}

	filtered := make([]keyword.Occurrence, 0, len(occurrences))
	seen := make(map[string]struct{}, len(occurrences))
	for _, occ := range occurrences {
		if occ.SearchVolume < minSearchVolume {
			continue
		}
		key := keyword.Normalize(occ.Keyword)
		if key == "" {
			continue
		}
		// Keyword text is the natural key within a product too.
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		filtered = append(filtered, occ)
	}

	if len(filtered) == 0 {
		result.Status = keyword.StatusNoData
		return result
	}

	result.Status = keyword.StatusSuccess
	result.Occurrences = filtered

	c.logger.Debug("collected product keywords",
		logging.String("asin", asin),
		logging.Int("raw", len(occurrences)),
		logging.Int("kept", len(filtered)),
	)

	return result
}
