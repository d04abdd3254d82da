package research

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
)

func twoProducts() []keyword.ProductResult {
	return []keyword.ProductResult{
		{
			ProductID: "B08N5WRWNW",
			Status:    keyword.StatusSuccess,
			Occurrences: []keyword.Occurrence{
				occ("open keyword", 6000, 1.5, 40),
				occ("contested keyword", 6000, 1.5, 2),
			},
		},
		{
			ProductID: "B07ZPKN6YR",
			Status:    keyword.StatusSuccess,
			Occurrences: []keyword.Occurrence{
				occ("contested keyword", 6000, 1.5, 4),
			},
		},
	}
}

func TestFind_BuildsUniverseWithCompetitionStats(t *testing.T) {
	f := NewOpportunityFinder(&mockProvider{}, nil)
	opts := keyword.DefaultOptions()

	products := twoProducts()
	report := f.Find(context.Background(), products[0], products, nil, opts)

	if len(report.AllKeywordsWithCompetition) != 2 {
		t.Fatalf("universe = %d keywords, want 2", len(report.AllKeywordsWithCompetition))
	}

	byKw := make(map[string]keyword.OpportunityCandidate)
	for _, c := range report.AllKeywordsWithCompetition {
		byKw[keyword.Normalize(c.Keyword)] = c
	}

	contested := byKw["contested keyword"]
	if contested.CompetitorsInTop15 != 2 {
		t.Errorf("contested CompetitorsInTop15 = %d, want 2", contested.CompetitorsInTop15)
	}
	if contested.AvgCompetitorRank != 3 {
		t.Errorf("contested AvgCompetitorRank = %v, want 3", contested.AvgCompetitorRank)
	}
	// avg rank 3 → strength 11 − 0.3 = 10.7 → clamped 10.
	if contested.CompetitorStrength != 10 {
		t.Errorf("contested strength = %v, want 10", contested.CompetitorStrength)
	}
	if contested.Type == keyword.OpportunityMarketGap {
		t.Error("contested keyword tagged market_gap")
	}

	open := byKw["open keyword"]
	// Position 40 is tracked but outside the top 15.
	if open.CompetitorsInTop15 != 0 {
		t.Errorf("open CompetitorsInTop15 = %d, want 0", open.CompetitorsInTop15)
	}
	if open.Type != keyword.OpportunityMarketGap {
		t.Errorf("open type = %s, want market_gap", open.Type)
	}
}

func TestFind_PositionsBeyond100NotTracked(t *testing.T) {
	f := NewOpportunityFinder(&mockProvider{}, nil)
	products := []keyword.ProductResult{
		{
			ProductID:   "B08N5WRWNW",
			Status:      keyword.StatusSuccess,
			Occurrences: []keyword.Occurrence{occ("deep keyword", 6000, 1.5, 150)},
		},
	}
	report := f.Find(context.Background(), products[0], products, nil, keyword.DefaultOptions())
	if got := report.AllKeywordsWithCompetition[0].CompetitorsRanking; got != 0 {
		t.Errorf("position 150 tracked as ranking competitor: %d", got)
	}
}

func TestFind_FiltersRespectOptions(t *testing.T) {
	f := NewOpportunityFinder(&mockProvider{}, nil)
	opts := keyword.DefaultOptions()
	opts.MaxCompetitorsInTop15 = 0

	products := twoProducts()
	report := f.Find(context.Background(), products[0], products, nil, opts)

	for _, c := range report.Opportunities {
		if c.CompetitorsInTop15 > 0 {
			t.Errorf("filter leak: %q has %d top-15 competitors", c.Keyword, c.CompetitorsInTop15)
		}
	}
}

func TestFind_HardFiltersOnMarketMetrics(t *testing.T) {
	f := NewOpportunityFinder(&mockProvider{}, nil)
	opts := keyword.DefaultOptions()
	opts.MinCompetitorsRanking = 0

	products := []keyword.ProductResult{
		{
			ProductID: "B08N5WRWNW",
			Status:    keyword.StatusSuccess,
			Occurrences: []keyword.Occurrence{
				{Keyword: "saturated", SearchVolume: 6000, CPC: 1.5, SupplyDemandRatio: 40},
				{Keyword: "viable", SearchVolume: 6000, CPC: 1.5, SupplyDemandRatio: 5},
			},
		},
	}
	report := f.Find(context.Background(), products[0], products, nil, opts)

	sawViable := false
	for _, c := range report.Opportunities {
		switch keyword.Normalize(c.Keyword) {
		case "saturated":
			t.Error("supply/demand ratio above 15 should be filtered out")
		case "viable":
			sawViable = true
		}
	}
	if !sawViable {
		t.Error("viable keyword missing from opportunities")
	}
}

func TestFind_MiningSupplementsOpportunities(t *testing.T) {
	provider := &mockProvider{
		keywordMiningFn: func(_ context.Context, _ string, _ keyword.MiningFilters) ([]keyword.Occurrence, error) {
			return []keyword.Occurrence{
				occ("mined keyword", 4000, 1.2, 0),
				occ("open keyword", 6000, 1.5, 0), // already in universe, skipped
			}, nil
		},
	}
	f := NewOpportunityFinder(provider, nil)

	aggregated := []keyword.AggregatedKeyword{
		{Keyword: "open keyword", SearchVolume: 6000},
	}
	products := twoProducts()
	report := f.Find(context.Background(), products[0], products, aggregated, keyword.DefaultOptions())

	var mined *keyword.OpportunityCandidate
	for i := range report.Opportunities {
		if report.Opportunities[i].Type == keyword.OpportunityKeywordMining {
			mined = &report.Opportunities[i]
		}
	}
	if mined == nil {
		t.Fatal("mined keyword missing from opportunities")
	}
	if keyword.Normalize(mined.Keyword) != "mined keyword" {
		t.Errorf("mined keyword = %q", mined.Keyword)
	}
	if len(provider.miningCalls) != 1 {
		t.Errorf("mining calls = %d, want 1 (one seed)", len(provider.miningCalls))
	}
}

func TestFind_MiningCapsAtThreeSeeds(t *testing.T) {
	provider := &mockProvider{}
	f := NewOpportunityFinder(provider, nil)

	var aggregated []keyword.AggregatedKeyword
	for i := 0; i < 10; i++ {
		aggregated = append(aggregated, keyword.AggregatedKeyword{Keyword: fmt.Sprintf("kw-%d", i)})
	}
	products := twoProducts()
	f.Find(context.Background(), products[0], products, aggregated, keyword.DefaultOptions())

	if len(provider.miningCalls) != 3 {
		t.Errorf("mining calls = %d, want 3", len(provider.miningCalls))
	}
}

func TestFind_MiningFailureSwallowed(t *testing.T) {
	provider := &mockProvider{
		keywordMiningFn: func(_ context.Context, _ string, _ keyword.MiningFilters) ([]keyword.Occurrence, error) {
			return nil, errors.New("mining quota exceeded")
		},
	}
	f := NewOpportunityFinder(provider, nil)

	aggregated := []keyword.AggregatedKeyword{{Keyword: "seed"}}
	products := twoProducts()
	report := f.Find(context.Background(), products[0], products, aggregated, keyword.DefaultOptions())
	if report == nil {
		t.Fatal("mining failure must not fail the analysis")
	}
}

func TestFind_FinalListDerivedFromPrimaryAndCapped(t *testing.T) {
	// 30 open keywords on the primary product, plus one keyword only the
	// competitor has: the final list must come from the primary's own
	// occurrences and cap at 15 by volume.
	var primaryOcc []keyword.Occurrence
	for i := 0; i < 30; i++ {
		primaryOcc = append(primaryOcc, occ(fmt.Sprintf("primary-kw-%d", i), 2000+i*100, 1.5, 0))
	}
	products := []keyword.ProductResult{
		{ProductID: "B08N5WRWNW", Status: keyword.StatusSuccess, Occurrences: primaryOcc},
		{ProductID: "B07ZPKN6YR", Status: keyword.StatusSuccess,
			Occurrences: []keyword.Occurrence{occ("competitor only", 9000, 1.5, 0)}},
	}

	opts := keyword.DefaultOptions()
	opts.MinCompetitorsRanking = 0

	f := NewOpportunityFinder(&mockProvider{}, nil)
	report := f.Find(context.Background(), products[0], products, nil, opts)

	if len(report.Opportunities) != 15 {
		t.Fatalf("final list = %d, want cap 15", len(report.Opportunities))
	}
	for i, c := range report.Opportunities {
		if keyword.Normalize(c.Keyword) == "competitor only" {
			t.Error("final list contains a keyword the primary product lacks")
		}
		if i > 0 && c.SearchVolume > report.Opportunities[i-1].SearchVolume {
			t.Error("final list not sorted by volume descending")
		}
	}
}

func TestFind_EmptyProducts(t *testing.T) {
	f := NewOpportunityFinder(&mockProvider{}, nil)
	report := f.Find(context.Background(), keyword.ProductResult{}, nil, nil, keyword.DefaultOptions())
	if len(report.Opportunities) != 0 || len(report.AllKeywordsWithCompetition) != 0 {
		t.Error("empty input should yield an empty report, not an error")
	}
}

func TestFind_FailedPrimaryKeepsTargetedListEmpty(t *testing.T) {
	provider := &mockProvider{
		keywordMiningFn: func(_ context.Context, _ string, _ keyword.MiningFilters) ([]keyword.Occurrence, error) {
			return []keyword.Occurrence{occ("mined keyword", 4000, 1.2, 0)}, nil
		},
	}
	f := NewOpportunityFinder(provider, nil)

	primary := keyword.ProductResult{
		ProductID:    "B000000000",
		Status:       keyword.StatusFailed,
		ErrorMessage: "provider down",
	}
	competitors := []keyword.ProductResult{
		{ProductID: "B000000001", Status: keyword.StatusSuccess,
			Occurrences: []keyword.Occurrence{occ("wireless mouse", 6000, 1.0, 3)}},
		{ProductID: "B000000002", Status: keyword.StatusSuccess,
			Occurrences: []keyword.Occurrence{occ("wireless mouse", 5800, 2.0, 9)}},
	}
	aggregated := []keyword.AggregatedKeyword{{Keyword: "wireless mouse", SearchVolume: 6000}}

	report := f.Find(context.Background(), primary, competitors, aggregated, keyword.DefaultOptions())

	if len(report.Opportunities) != 0 {
		t.Errorf("targeted list = %d entries, want none without the primary product's own data", len(report.Opportunities))
	}
	if len(report.AllKeywordsWithCompetition) != 1 {
		t.Errorf("universe = %d keywords, want competitor statistics kept", len(report.AllKeywordsWithCompetition))
	}
	if len(provider.miningCalls) != 0 {
		t.Errorf("mining ran %d times, want 0 with no baseline to supplement", len(provider.miningCalls))
	}
}
