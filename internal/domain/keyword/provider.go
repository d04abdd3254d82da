package keyword

import "context"

// MiningFilters constrains a KeywordMining call.
type MiningFilters struct {
	MinSearchVolume      int
	MaxSupplyDemandRatio float64
	Size                 int
}

// DataProvider is the external keyword-data provider contract.  Both calls
// may fail per-invocation; a failure must never abort sibling calls — the
// pipeline records the failure and continues with the remaining products or
// keywords.
type DataProvider interface {
	// ReverseASIN returns the keyword occurrences observed for one product.
	ReverseASIN(ctx context.Context, asin string, page, pageSize int) ([]Occurrence, error)

	// KeywordMining returns related keywords for a seed keyword.  This is the
	// expensive enrichment endpoint; callers are expected to rate-limit
	// themselves.
	KeywordMining(ctx context.Context, kw string, filters MiningFilters) ([]Occurrence, error)
}
