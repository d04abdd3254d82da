package research

import (
	"sort"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
)

// keywordAccumulator collects per-keyword state across products.  A finalize
// step converts the sums into true means; the accumulator never stores
// intermediate averages, avoiding average-of-averages drift.
type keywordAccumulator struct {
	display      string // original casing of the first occurrence seen
	searchVolume int    // max observed across products
	cpcSum       float64
	cpcCount     int
	rankings     []keyword.RankingEntry
}

// Aggregator merges keyword occurrences across all successfully collected
// products into unified records and scores each one.
type Aggregator struct {
	logger logging.Logger
}

// NewAggregator constructs an Aggregator.
func NewAggregator(logger logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Aggregator{logger: logger.Named("aggregator")}
}

// Aggregate merges the occurrences of the given product results (failed
// products must already be excluded by the caller) and returns the unified
// keyword list sorted by opportunity score descending.
func (a *Aggregator) Aggregate(products []keyword.ProductResult) []keyword.AggregatedKeyword {
	acc := make(map[string]*keywordAccumulator)

	for _, product := range products {
		for _, occ := range product.Occurrences {
			key := keyword.Normalize(occ.Keyword)
			if key == "" {
				continue
			}
			entry, ok := acc[key]
			if !ok {
				entry = &keywordAccumulator{display: occ.Keyword}
				acc[key] = entry
			}
			if occ.SearchVolume > entry.searchVolume {
				entry.searchVolume = occ.SearchVolume
			}
			if occ.CPC > 0 {
				entry.cpcSum += occ.CPC
				entry.cpcCount++
			}
			if occ.Position > 0 {
				entry.rankings = append(entry.rankings, keyword.RankingEntry{
					ProductID:    product.ProductID,
					Position:     occ.Position,
					TrafficShare: occ.TrafficShare,
				})
			}
		}
	}

	productsAnalyzed := len(products)
	out := make([]keyword.AggregatedKeyword, 0, len(acc))
	for _, entry := range acc {
		avgCPC := 0.0
		if entry.cpcCount > 0 {
			avgCPC = entry.cpcSum / float64(entry.cpcCount)
		}
		out = append(out, keyword.AggregatedKeyword{
			Keyword:          entry.display,
			SearchVolume:     entry.searchVolume,
			AvgCPC:           avgCPC,
			Rankings:         entry.rankings,
			OpportunityScore: OpportunityScore(entry.searchVolume, avgCPC, len(entry.rankings), productsAnalyzed),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OpportunityScore != out[j].OpportunityScore {
			return out[i].OpportunityScore > out[j].OpportunityScore
		}
		return out[i].SearchVolume > out[j].SearchVolume
	})

	a.logger.Info("aggregated keyword universe",
		logging.Int("products", productsAnalyzed),
		logging.Int("keywords", len(out)),
	)

	return out
}
