package research

import (
	"context"
	"sort"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
)

const (
	// Universe tracking limits.
	maxTrackedPosition = 100
	rankingCutoff      = 50
	top15Cutoff        = 15

	// Hard filters applied to opportunity candidates regardless of options.
	maxAdProducts        = 20
	maxSupplyDemandRatio = 15.0
	maxProductCount      = 100

	// weakStrengthCutoff tags candidates whose ranking competitors are weak.
	weakStrengthCutoff = 3.0

	// Mining supplements.
	miningSeedCount = 3
	miningSize      = 20

	// Final opportunity list cap for the primary product.
	opportunityListCap = 15
)

// universeEntry accumulates cross-product statistics for one keyword.
// Averages are finalized from sums, volume and product count are max-of,
// bid range is min/max-of.
type universeEntry struct {
	display      string
	searchVolume int
	cpcSum       float64
	cpcCount     int
	rankings     []keyword.RankingEntry

	sdrSum   float64
	sdrCount int
	adSum    float64
	adCount  int
	priceSum float64
	priceCnt int

	products     int
	purchases    int
	purchaseRate float64
	bidMin       float64
	bidMax       float64
	titleDensity float64
	monopoly     float64
}

func (u *universeEntry) observe(productID string, occ keyword.Occurrence) {
	if occ.SearchVolume > u.searchVolume {
		u.searchVolume = occ.SearchVolume
	}
	if occ.CPC > 0 {
		u.cpcSum += occ.CPC
		u.cpcCount++
	}
	if occ.Position > 0 && occ.Position <= maxTrackedPosition {
		u.rankings = append(u.rankings, keyword.RankingEntry{
			ProductID:    productID,
			Position:     occ.Position,
			TrafficShare: occ.TrafficShare,
		})
	}
	if occ.SupplyDemandRatio > 0 {
		u.sdrSum += occ.SupplyDemandRatio
		u.sdrCount++
	}
	if occ.AdProducts > 0 {
		u.adSum += occ.AdProducts
		u.adCount++
	}
	if occ.AvgPrice > 0 {
		u.priceSum += occ.AvgPrice
		u.priceCnt++
	}
	if occ.Products > u.products {
		u.products = occ.Products
	}
	if occ.Purchases > u.purchases {
		u.purchases = occ.Purchases
	}
	if occ.PurchaseRate > u.purchaseRate {
		u.purchaseRate = occ.PurchaseRate
	}
	if occ.BidMin > 0 && (u.bidMin == 0 || occ.BidMin < u.bidMin) {
		u.bidMin = occ.BidMin
	}
	if occ.BidMax > u.bidMax {
		u.bidMax = occ.BidMax
	}
	if occ.TitleDensity > u.titleDensity {
		u.titleDensity = occ.TitleDensity
	}
	if occ.MonopolyClickRate > u.monopoly {
		u.monopoly = occ.MonopolyClickRate
	}
}

func (u *universeEntry) avgCPC() float64 {
	if u.cpcCount == 0 {
		return 0
	}
	return u.cpcSum / float64(u.cpcCount)
}

func (u *universeEntry) avgSDR() float64 {
	if u.sdrCount == 0 {
		return 0
	}
	return u.sdrSum / float64(u.sdrCount)
}

func (u *universeEntry) avgAdProducts() float64 {
	if u.adCount == 0 {
		return 0
	}
	return u.adSum / float64(u.adCount)
}

func (u *universeEntry) avgPrice() float64 {
	if u.priceCnt == 0 {
		return 0
	}
	return u.priceSum / float64(u.priceCnt)
}

// candidate derives the competitor-performance summary and opportunity tag.
func (u *universeEntry) candidate() keyword.OpportunityCandidate {
	inTop15 := 0
	ranking := 0
	rankSum := 0
	for _, r := range u.rankings {
		if r.Position <= top15Cutoff {
			inTop15++
		}
		if r.Position <= rankingCutoff {
			ranking++
		}
		rankSum += r.Position
	}

	avgRank := 0.0
	if len(u.rankings) > 0 {
		avgRank = float64(rankSum) / float64(len(u.rankings))
	}
	strength := competitorStrength(avgRank, ranking)

	typ := keyword.OpportunityLowCompetition
	switch {
	case inTop15 == 0:
		typ = keyword.OpportunityMarketGap
	case strength <= weakStrengthCutoff:
		typ = keyword.OpportunityWeakCompetitors
	}

	return keyword.OpportunityCandidate{
		Keyword:            u.display,
		SearchVolume:       u.searchVolume,
		AvgCPC:             u.avgCPC(),
		AvgCompetitorRank:  avgRank,
		CompetitorsRanking: ranking,
		CompetitorsInTop15: inTop15,
		CompetitorStrength: strength,
		Type:               typ,
		Products:           u.products,
		AdProducts:         u.avgAdProducts(),
		PurchaseRate:       u.purchaseRate,
		BidMin:             u.bidMin,
		BidMax:             u.bidMax,
		SupplyDemandRatio:  u.avgSDR(),
		TitleDensity:       u.titleDensity,
		MonopolyClickRate:  u.monopoly,
		AvgPrice:           u.avgPrice(),
		Purchases:          u.purchases,
	}
}

// OpportunityFinder builds the cross-product keyword universe and filters
// targeted opportunities for the primary product.
type OpportunityFinder struct {
	provider keyword.DataProvider
	logger   logging.Logger
}

// NewOpportunityFinder constructs an OpportunityFinder.  provider may be nil,
// in which case the mining supplement is skipped.
func NewOpportunityFinder(provider keyword.DataProvider, logger logging.Logger) *OpportunityFinder {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &OpportunityFinder{provider: provider, logger: logger.Named("opportunities")}
}

// Find builds the keyword universe from the successful products, filters
// targeted opportunities, supplements them with mined keywords seeded from
// the top aggregated keywords, and re-derives the final list against the
// primary product's own occurrences.  When the primary product carries no
// data the universe statistics are still reported, but the targeted list
// stays empty: competitor occurrences are never a stand-in baseline.
func (f *OpportunityFinder) Find(
	ctx context.Context,
	primary keyword.ProductResult,
	products []keyword.ProductResult,
	aggregated []keyword.AggregatedKeyword,
	opts keyword.Options,
) *keyword.OpportunityReport {
	report := &keyword.OpportunityReport{}
	if len(products) == 0 {
		return report
	}

	universe := make(map[string]*universeEntry)
	for _, product := range products {
		for _, occ := range product.Occurrences {
			key := keyword.Normalize(occ.Keyword)
			if key == "" {
				continue
			}
			entry, ok := universe[key]
			if !ok {
				entry = &universeEntry{display: occ.Keyword}
				universe[key] = entry
			}
			entry.observe(product.ProductID, occ)
		}
	}

	// Full universe with competition statistics, exposed for overview stats
	// even though the filter below excludes most of it.
	all := make([]keyword.OpportunityCandidate, 0, len(universe))
	qualified := make(map[string]keyword.OpportunityCandidate)
	for key, entry := range universe {
		cand := entry.candidate()
		all = append(all, cand)
		if f.qualifies(cand, opts) {
			qualified[key] = cand
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SearchVolume > all[j].SearchVolume })
	report.AllKeywordsWithCompetition = all

	if !primary.Succeeded() {
		f.logger.Warn("primary product has no keyword data, skipping targeted opportunities",
			logging.String("product_id", primary.ProductID))
		return report
	}

	// Best-effort mining supplement seeded from the top aggregated keywords.
	mined := f.mine(ctx, aggregated, universe, opts)

	// Final cut: the primary product's own occurrences carrying universe
	// statistics, plus mined additions, by volume descending.
	final := make([]keyword.OpportunityCandidate, 0, opportunityListCap)
	for _, occ := range primary.Occurrences {
		key := keyword.Normalize(occ.Keyword)
		cand, ok := qualified[key]
		if !ok {
			continue
		}
		cand.Position = occ.Position
		cand.TrafficShare = occ.TrafficShare
		final = append(final, cand)
	}
	final = append(final, mined...)

	sort.Slice(final, func(i, j int) bool { return final[i].SearchVolume > final[j].SearchVolume })
	if len(final) > opportunityListCap {
		final = final[:opportunityListCap]
	}
	report.Opportunities = final

	f.logger.Info("opportunity analysis complete",
		logging.Int("universe", len(all)),
		logging.Int("qualified", len(qualified)),
		logging.Int("mined", len(mined)),
		logging.Int("final", len(final)),
	)

	return report
}

// qualifies applies the opportunity filter thresholds.
func (f *OpportunityFinder) qualifies(c keyword.OpportunityCandidate, opts keyword.Options) bool {
	if c.SearchVolume < opts.MinSearchVolume || c.SearchVolume > opts.MaxSearchVolume {
		return false
	}
	if c.CompetitorsInTop15 > opts.MaxCompetitorsInTop15 {
		return false
	}
	if c.CompetitorsRanking < opts.MinCompetitorsRanking {
		return false
	}
	if c.CompetitorStrength > opts.MaxCompetitorStrength {
		return false
	}
	if c.AdProducts > maxAdProducts {
		return false
	}
	if c.SupplyDemandRatio > maxSupplyDemandRatio {
		return false
	}
	if c.Products > maxProductCount {
		return false
	}
	return true
}

// mine pulls related opportunities for the top aggregated keywords.  Provider
// failures are swallowed and logged: mining is a supplement, never a
// requirement.
func (f *OpportunityFinder) mine(
	ctx context.Context,
	aggregated []keyword.AggregatedKeyword,
	universe map[string]*universeEntry,
	opts keyword.Options,
) []keyword.OpportunityCandidate {
	if f.provider == nil || len(aggregated) == 0 {
		return nil
	}

	seeds := aggregated
	if len(seeds) > miningSeedCount {
		seeds = seeds[:miningSeedCount]
	}

	filters := keyword.MiningFilters{
		MinSearchVolume:      opts.MinSearchVolume,
		MaxSupplyDemandRatio: maxSupplyDemandRatio,
		Size:                 miningSize,
	}

	var mined []keyword.OpportunityCandidate
	seen := make(map[string]struct{})
	for _, seed := range seeds {
		occurrences, err := f.provider.KeywordMining(ctx, seed.Keyword, filters)
		if err != nil {
			f.logger.Warn("keyword mining failed",
				logging.String("seed", seed.Keyword),
				logging.Err(err),
			)
			continue
		}
		for _, occ := range occurrences {
			key := keyword.Normalize(occ.Keyword)
			if key == "" {
				continue
			}
			// Skip keywords the universe already covers and duplicates
			// across seeds.
			if _, exists := universe[key]; exists {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			if occ.SearchVolume < opts.MinSearchVolume {
				continue
			}
			seen[key] = struct{}{}
			mined = append(mined, keyword.OpportunityCandidate{
				Keyword:            occ.Keyword,
				SearchVolume:       occ.SearchVolume,
				AvgCPC:             occ.CPC,
				CompetitorStrength: 1,
				Type:               keyword.OpportunityKeywordMining,
				Products:           occ.Products,
				AdProducts:         occ.AdProducts,
				PurchaseRate:       occ.PurchaseRate,
				BidMin:             occ.BidMin,
				BidMax:             occ.BidMax,
				SupplyDemandRatio:  occ.SupplyDemandRatio,
				TitleDensity:       occ.TitleDensity,
				AvgPrice:           occ.AvgPrice,
				Purchases:          occ.Purchases,
			})
		}
	}
	return mined
}
