package client

import "time"

// CollectionStatus marks the outcome of per-product keyword collection.
type CollectionStatus string

const (
	StatusSuccess CollectionStatus = "success"
	StatusFailed  CollectionStatus = "failed"
	StatusNoData  CollectionStatus = "no_data"
)

// Occurrence is one (product, keyword) observation.
type Occurrence struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int     `json:"search_volume"`
	CPC          float64 `json:"cpc"`
	Position     int     `json:"position,omitempty"`
	TrafficShare float64 `json:"traffic_share,omitempty"`

	Products          int     `json:"products,omitempty"`
	AdProducts        float64 `json:"ad_products,omitempty"`
	Purchases         int     `json:"purchases,omitempty"`
	PurchaseRate      float64 `json:"purchase_rate,omitempty"`
	BidMin            float64 `json:"bid_min,omitempty"`
	BidMax            float64 `json:"bid_max,omitempty"`
	SupplyDemandRatio float64 `json:"supply_demand_ratio,omitempty"`
	TitleDensity      float64 `json:"title_density,omitempty"`
	Relevancy         float64 `json:"relevancy,omitempty"`
	MonopolyClickRate float64 `json:"monopoly_click_rate,omitempty"`
	AvgPrice          float64 `json:"avg_price,omitempty"`
	AvgRating         float64 `json:"avg_rating,omitempty"`
	AvgReviews        int     `json:"avg_reviews,omitempty"`
	SPR               int     `json:"spr,omitempty"`
	VolumeTrend       float64 `json:"volume_trend,omitempty"`
	WordCount         int     `json:"word_count,omitempty"`
	AmazonChoice      bool    `json:"amazon_choice,omitempty"`
	ConversionShare   float64 `json:"conversion_share,omitempty"`
}

// RankingEntry records one product's rank for a keyword.
type RankingEntry struct {
	ProductID    string  `json:"product_id"`
	Position     int     `json:"position"`
	TrafficShare float64 `json:"traffic_share,omitempty"`
}

// AggregatedKeyword is one keyword merged across all processed products.
type AggregatedKeyword struct {
	Keyword          string         `json:"keyword"`
	SearchVolume     int            `json:"search_volume"`
	AvgCPC           float64        `json:"avg_cpc"`
	Rankings         []RankingEntry `json:"rankings"`
	OpportunityScore float64        `json:"opportunity_score"`
}

// OpportunityCandidate is a keyword scored against the competitive universe.
type OpportunityCandidate struct {
	Keyword            string  `json:"keyword"`
	SearchVolume       int     `json:"search_volume"`
	AvgCPC             float64 `json:"avg_cpc"`
	AvgCompetitorRank  float64 `json:"avg_competitor_rank"`
	CompetitorsRanking int     `json:"competitors_ranking"`
	CompetitorsInTop15 int     `json:"competitors_in_top15"`
	CompetitorStrength float64 `json:"competitor_strength"`
	Type               string  `json:"opportunity_type"`

	Position     int     `json:"position,omitempty"`
	TrafficShare float64 `json:"traffic_share,omitempty"`

	Products          int     `json:"products,omitempty"`
	AdProducts        float64 `json:"ad_products,omitempty"`
	PurchaseRate      float64 `json:"purchase_rate,omitempty"`
	BidMin            float64 `json:"bid_min,omitempty"`
	BidMax            float64 `json:"bid_max,omitempty"`
	SupplyDemandRatio float64 `json:"supply_demand_ratio,omitempty"`
	TitleDensity      float64 `json:"title_density,omitempty"`
	MonopolyClickRate float64 `json:"monopoly_click_rate,omitempty"`
	AvgPrice          float64 `json:"avg_price,omitempty"`
	Purchases         int     `json:"purchases,omitempty"`
}

// GapRecord is one keyword classified into a competitive gap scenario.
type GapRecord struct {
	Keyword            string         `json:"keyword"`
	SearchVolume       int            `json:"search_volume"`
	AvgCPC             float64        `json:"avg_cpc"`
	GapType            string         `json:"gap_type"`
	GapScore           int            `json:"gap_score"`
	UserRanking        *RankingEntry  `json:"user_ranking,omitempty"`
	CompetitorRankings []RankingEntry `json:"competitor_rankings"`
	Recommendation     string         `json:"recommendation"`
	PotentialImpact    string         `json:"potential_impact"`

	Products          int     `json:"products,omitempty"`
	AdProducts        float64 `json:"ad_products,omitempty"`
	PurchaseRate      float64 `json:"purchase_rate,omitempty"`
	BidMin            float64 `json:"bid_min,omitempty"`
	BidMax            float64 `json:"bid_max,omitempty"`
	SupplyDemandRatio float64 `json:"supply_demand_ratio,omitempty"`
	TitleDensity      float64 `json:"title_density,omitempty"`
}

// GapSummary aggregates statistics over a gap analysis result.
type GapSummary struct {
	TotalGaps         int     `json:"total_gaps"`
	HighVolumeGaps    int     `json:"high_volume_gaps"`
	MediumVolumeGaps  int     `json:"medium_volume_gaps"`
	AvgGapVolume      float64 `json:"avg_gap_volume"`
	TotalGapPotential int     `json:"total_gap_potential"`
}

// GapAnalysis is the full gap result for one run.
type GapAnalysis struct {
	Gaps                []GapRecord `json:"gaps"`
	Summary             GapSummary  `json:"summary"`
	CompetitorsAnalyzed int         `json:"competitors_analyzed"`
}

// OpportunityReport carries the filtered opportunity list and the unfiltered
// universe used for overview statistics.
type OpportunityReport struct {
	Opportunities              []OpportunityCandidate `json:"opportunities"`
	AllKeywordsWithCompetition []OpportunityCandidate `json:"all_keywords_with_competition"`
}

// ProductComparison is the per-product strong/weak keyword breakdown.
type ProductComparison struct {
	ProductID       string           `json:"product_id"`
	Status          CollectionStatus `json:"status"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	TotalKeywords   int              `json:"total_keywords"`
	AvgSearchVolume float64          `json:"avg_search_volume"`
	TopKeywords     []Occurrence     `json:"top_keywords"`
	StrongKeywords  []Occurrence     `json:"strong_keywords"`
	WeakKeywords    []Occurrence     `json:"weak_keywords"`
}

// ProductResult holds the raw collection outcome for one product.
type ProductResult struct {
	ProductID    string           `json:"product_id"`
	Status       CollectionStatus `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Occurrences  []Occurrence     `json:"occurrences"`
}

// Options tunes a research run.  Zero values fall back to server defaults.
type Options struct {
	MinSearchVolume       int     `json:"min_search_volume,omitempty"`
	MaxSearchVolume       int     `json:"max_search_volume,omitempty"`
	MaxCompetitorsInTop15 int     `json:"max_competitors_in_top15,omitempty"`
	MinCompetitorsRanking int     `json:"min_competitors_ranking,omitempty"`
	MaxCompetitorStrength float64 `json:"max_competitor_strength,omitempty"`
	MinGapVolume          int     `json:"min_gap_volume,omitempty"`
	MaxGapPosition        int     `json:"max_gap_position,omitempty"`
	FocusVolumeThreshold  int     `json:"focus_volume_threshold,omitempty"`
	EnhanceResults        bool    `json:"enhance_results"`
}

// ResearchRequest describes one research run submitted to the API.
// ProductIDs[0] is the primary (user) product.
type ResearchRequest struct {
	ProductIDs []string `json:"product_ids"`
	Name       string   `json:"name,omitempty"`
	Options    *Options `json:"options,omitempty"`
}

// Session is the frozen result of one research run.
type Session struct {
	ID            string              `json:"id"`
	Name          string              `json:"name,omitempty"`
	ProductIDs    []string            `json:"product_ids"`
	Options       Options             `json:"options"`
	Products      []ProductResult     `json:"products"`
	Aggregated    []AggregatedKeyword `json:"aggregated"`
	Comparisons   []ProductComparison `json:"comparisons"`
	Opportunities *OpportunityReport  `json:"opportunities,omitempty"`
	Gaps          *GapAnalysis        `json:"gaps,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// SessionSummary is the list-view projection of a stored session.
type SessionSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	ProductIDs   []string  `json:"product_ids"`
	KeywordCount int       `json:"keyword_count"`
	CreatedAt    time.Time `json:"created_at"`
}
