package research

import (
	"sort"
	"time"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
)

// Reconstructor deterministically rebuilds the aggregated, comparison,
// opportunity, and gap views from normalized storage rows.  Its core contract
// is determinism: for identical inputs a reconstructed session is
// indistinguishable from a freshly computed one, which is why it calls the
// same OpportunityScore used on the live path instead of re-deriving anything.
type Reconstructor struct {
	logger logging.Logger
}

// NewReconstructor constructs a Reconstructor.
func NewReconstructor(logger logging.Logger) *Reconstructor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Reconstructor{logger: logger.Named("reconstructor")}
}

// reconKeyword accumulates one keyword's rows during reconstruction.  All
// best-of enrichment metrics are the maximum observed across the keyword's
// ranking rows.
type reconKeyword struct {
	display      string
	searchVolume int
	cpcSum       float64
	cpcCount     int
	rankings     []keyword.RankingEntry

	products          int
	purchases         int
	purchaseRate      float64
	supplyDemandRatio float64
	adProducts        float64
	bidMin            float64
	bidMax            float64
	monopolyClickRate float64
	titleDensity      float64
}

// Rebuild reconstructs the full session views from normalized rows.
func (r *Reconstructor) Rebuild(rows *keyword.SessionRows) *keyword.ResearchSession {
	opts := rows.Options.Normalized()

	byKeyword := make(map[string]*reconKeyword)
	byProduct := make(map[string][]keyword.Occurrence)

	for _, row := range rows.Rankings {
		key := keyword.Normalize(row.Keyword)
		if key == "" {
			continue
		}
		state, ok := byKeyword[key]
		if !ok {
			state = &reconKeyword{display: row.Keyword}
			byKeyword[key] = state
		}
		if row.SearchVolume > state.searchVolume {
			state.searchVolume = row.SearchVolume
		}
		if row.CPC > 0 {
			state.cpcSum += row.CPC
			state.cpcCount++
		}
		if row.Position > 0 {
			state.rankings = append(state.rankings, keyword.RankingEntry{
				ProductID:    row.ASIN,
				Position:     row.Position,
				TrafficShare: row.TrafficShare,
			})
		}
		if row.Products > state.products {
			state.products = row.Products
		}
		if row.Purchases > state.purchases {
			state.purchases = row.Purchases
		}
		if row.PurchaseRate > state.purchaseRate {
			state.purchaseRate = row.PurchaseRate
		}
		if row.SupplyDemandRatio > state.supplyDemandRatio {
			state.supplyDemandRatio = row.SupplyDemandRatio
		}
		if row.AdProducts > state.adProducts {
			state.adProducts = row.AdProducts
		}
		if row.BidMin > state.bidMin {
			state.bidMin = row.BidMin
		}
		if row.BidMax > state.bidMax {
			state.bidMax = row.BidMax
		}
		if row.MonopolyClickRate > state.monopolyClickRate {
			state.monopolyClickRate = row.MonopolyClickRate
		}
		if row.TitleDensity > state.titleDensity {
			state.titleDensity = row.TitleDensity
		}

		byProduct[row.ASIN] = append(byProduct[row.ASIN], keyword.Occurrence{
			Keyword:           row.Keyword,
			SearchVolume:      row.SearchVolume,
			CPC:               row.CPC,
			Position:          row.Position,
			TrafficShare:      row.TrafficShare,
			Products:          row.Products,
			Purchases:         row.Purchases,
			PurchaseRate:      row.PurchaseRate,
			SupplyDemandRatio: row.SupplyDemandRatio,
			AdProducts:        row.AdProducts,
			BidMin:            row.BidMin,
			BidMax:            row.BidMax,
			MonopolyClickRate: row.MonopolyClickRate,
			TitleDensity:      row.TitleDensity,
		})
	}

	// Per-product results in the original caller order; products with no
	// persisted rows are reconstructed as no-data.
	products := make([]keyword.ProductResult, 0, len(rows.ASINs))
	for _, asin := range rows.ASINs {
		occ := byProduct[asin]
		result := keyword.ProductResult{ProductID: asin, Occurrences: occ}
		if len(occ) > 0 {
			result.Status = keyword.StatusSuccess
		} else {
			result.Status = keyword.StatusNoData
		}
		products = append(products, result)
	}
	productsAnalyzed := 0
	for _, p := range products {
		if p.Succeeded() {
			productsAnalyzed++
		}
	}

	// Aggregated view with the identical live-path score formula.
	aggregated := make([]keyword.AggregatedKeyword, 0, len(byKeyword))
	for _, state := range byKeyword {
		avgCPC := 0.0
		if state.cpcCount > 0 {
			avgCPC = state.cpcSum / float64(state.cpcCount)
		}
		aggregated = append(aggregated, keyword.AggregatedKeyword{
			Keyword:          state.display,
			SearchVolume:     state.searchVolume,
			AvgCPC:           avgCPC,
			Rankings:         state.rankings,
			OpportunityScore: OpportunityScore(state.searchVolume, avgCPC, len(state.rankings), productsAnalyzed),
		})
	}
	sort.Slice(aggregated, func(i, j int) bool {
		if aggregated[i].OpportunityScore != aggregated[j].OpportunityScore {
			return aggregated[i].OpportunityScore > aggregated[j].OpportunityScore
		}
		return aggregated[i].SearchVolume > aggregated[j].SearchVolume
	})

	session := &keyword.ResearchSession{
		ID:          rows.SessionID,
		Name:        rows.Name,
		ProductIDs:  rows.ASINs,
		Options:     opts,
		Products:    products,
		Aggregated:  aggregated,
		Comparisons: BuildComparisons(products),
		CreatedAt:   time.Unix(rows.CreatedAt, 0).UTC(),
	}

	if len(rows.Opportunities) > 0 {
		session.Opportunities = &keyword.OpportunityReport{Opportunities: rows.Opportunities}
	}
	if len(rows.Gaps) > 0 {
		session.Gaps = &keyword.GapAnalysis{
			Gaps:                rows.Gaps,
			Summary:             summarizeGaps(rows.Gaps, opts),
			CompetitorsAnalyzed: len(rows.ASINs) - 1,
		}
	}

	r.logger.Info("session reconstructed",
		logging.String("session_id", rows.SessionID),
		logging.Int("keywords", len(aggregated)),
		logging.Int("products", len(products)),
	)

	return session
}
