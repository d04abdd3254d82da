// Package keyword defines the domain entities and collaborator contracts for
// Amazon keyword research: per-product keyword occurrences, the aggregated
// cross-product keyword universe, opportunity and gap records, and the
// research session that freezes one complete run.
package keyword

import (
	"regexp"
	"strings"
	"time"
)

// asinPattern matches the 10-character alphanumeric ASIN format.
var asinPattern = regexp.MustCompile(`^[A-Za-z0-9]{10}$`)

// Normalize folds a keyword for identity comparison: whitespace-trimmed,
// lowercased.  All keyword maps across the pipeline are keyed by the
// normalized form; display fields keep the original casing.
func Normalize(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

// ValidateASIN reports whether id is a well-formed product identifier.
func ValidateASIN(id string) bool {
	return asinPattern.MatchString(id)
}

// CollectionStatus marks the outcome of per-product keyword collection.
type CollectionStatus string

const (
	StatusSuccess CollectionStatus = "success"
	StatusFailed  CollectionStatus = "failed"
	StatusNoData  CollectionStatus = "no_data"
)

// OpportunityType tags how a keyword qualified as an opportunity.
type OpportunityType string

const (
	OpportunityMarketGap       OpportunityType = "market_gap"
	OpportunityWeakCompetitors OpportunityType = "weak_competitors"
	OpportunityLowCompetition  OpportunityType = "low_competition"
	OpportunityKeywordMining   OpportunityType = "keyword_mining"
)

// GapType classifies a competitive gap scenario.
type GapType string

const (
	GapMarketGap          GapType = "market_gap"
	GapUserAdvantage      GapType = "user_advantage"
	GapCompetitorWeakness GapType = "competitor_weakness"
)

// ImpactTier buckets the commercial impact of closing a gap.
type ImpactTier string

const (
	ImpactLow    ImpactTier = "low"
	ImpactMedium ImpactTier = "medium"
	ImpactHigh   ImpactTier = "high"
)

// Occurrence is one (product, keyword) observation returned by the data
// provider.  Position 0 means the product does not rank for the keyword.
// Enrichment attributes are optional; a zero value means the provider did
// not supply them.
type Occurrence struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int     `json:"search_volume"`
	CPC          float64 `json:"cpc"`
	Position     int     `json:"position,omitempty"`
	TrafficShare float64 `json:"traffic_share,omitempty"`

	// Enrichment attributes, populated by ReverseASIN when available and by
	// the KeywordMiner enhancement pass.
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
// SearchVolume is the maximum observed (volume is provider-consistent per
// keyword); AvgCPC is the mean across occurrences.  Immutable once computed
// for a run.
type AggregatedKeyword struct {
	Keyword          string         `json:"keyword"`
	SearchVolume     int            `json:"search_volume"`
	AvgCPC           float64        `json:"avg_cpc"`
	Rankings         []RankingEntry `json:"rankings"`
	OpportunityScore float64        `json:"opportunity_score"`
}

// OpportunityCandidate is a keyword scored against the competitive universe.
type OpportunityCandidate struct {
	Keyword            string          `json:"keyword"`
	SearchVolume       int             `json:"search_volume"`
	AvgCPC             float64         `json:"avg_cpc"`
	AvgCompetitorRank  float64         `json:"avg_competitor_rank"`
	CompetitorsRanking int             `json:"competitors_ranking"`
	CompetitorsInTop15 int             `json:"competitors_in_top15"`
	CompetitorStrength float64         `json:"competitor_strength"`
	Type               OpportunityType `json:"opportunity_type"`

	// Primary-product context, set on the final re-derived list.
	Position     int     `json:"position,omitempty"`
	TrafficShare float64 `json:"traffic_share,omitempty"`

	// Enrichment attributes carried from the universe or the enhancement pass.
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

// GapRecord is one keyword classified into a competitive gap scenario for the
// primary product.
type GapRecord struct {
	Keyword            string         `json:"keyword"`
	SearchVolume       int            `json:"search_volume"`
	AvgCPC             float64        `json:"avg_cpc"`
	GapType            GapType        `json:"gap_type"`
	GapScore           int            `json:"gap_score"`
	UserRanking        *RankingEntry  `json:"user_ranking,omitempty"`
	CompetitorRankings []RankingEntry `json:"competitor_rankings"`
	Recommendation     string         `json:"recommendation"`
	PotentialImpact    ImpactTier     `json:"potential_impact"`

	// Enrichment attributes from the enhancement pass.
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

// GapAnalysis is the full gap result for one run.  It is absent (nil) when
// fewer than two products were successfully collected.
type GapAnalysis struct {
	Gaps                []GapRecord `json:"gaps"`
	Summary             GapSummary  `json:"summary"`
	CompetitorsAnalyzed int         `json:"competitors_analyzed"`
}

// OpportunityReport carries both the filtered, primary-product opportunity
// list and the unfiltered universe used for overview statistics.
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

// Succeeded reports whether the product yielded usable keyword data.
func (r ProductResult) Succeeded() bool {
	return r.Status == StatusSuccess && len(r.Occurrences) > 0
}

// Options tunes a research run.  Zero values are replaced by defaults via
// Normalize on entry to the pipeline.
type Options struct {
	MinSearchVolume       int     `json:"min_search_volume"`
	MaxSearchVolume       int     `json:"max_search_volume"`
	MaxCompetitorsInTop15 int     `json:"max_competitors_in_top15"`
	MinCompetitorsRanking int     `json:"min_competitors_ranking"`
	MaxCompetitorStrength float64 `json:"max_competitor_strength"`
	MinGapVolume          int     `json:"min_gap_volume"`
	MaxGapPosition        int     `json:"max_gap_position"`
	FocusVolumeThreshold  int     `json:"focus_volume_threshold"`
	EnhanceResults        bool    `json:"enhance_results"`
}

// DefaultOptions returns the standard research tunables.
func DefaultOptions() Options {
	return Options{
		MinSearchVolume:       500,
		MaxSearchVolume:       50000,
		MaxCompetitorsInTop15: 2,
		MinCompetitorsRanking: 1,
		MaxCompetitorStrength: 5,
		MinGapVolume:          1000,
		MaxGapPosition:        50,
		FocusVolumeThreshold:  10000,
		EnhanceResults:        true,
	}
}

// Normalized returns a copy of o with zero fields replaced by defaults.
func (o Options) Normalized() Options {
	def := DefaultOptions()
	if o.MinSearchVolume <= 0 {
		o.MinSearchVolume = def.MinSearchVolume
	}
	if o.MaxSearchVolume <= 0 {
		o.MaxSearchVolume = def.MaxSearchVolume
	}
	if o.MaxCompetitorsInTop15 <= 0 {
		o.MaxCompetitorsInTop15 = def.MaxCompetitorsInTop15
	}
	if o.MinCompetitorsRanking <= 0 {
		o.MinCompetitorsRanking = def.MinCompetitorsRanking
	}
	if o.MaxCompetitorStrength <= 0 {
		o.MaxCompetitorStrength = def.MaxCompetitorStrength
	}
	if o.MinGapVolume <= 0 {
		o.MinGapVolume = def.MinGapVolume
	}
	if o.MaxGapPosition <= 0 {
		o.MaxGapPosition = def.MaxGapPosition
	}
	if o.FocusVolumeThreshold <= 0 {
		o.FocusVolumeThreshold = def.FocusVolumeThreshold
	}
	return o
}

// ResearchSession is the frozen result of one research run or one
// reconstruction.  ProductIDs[0] is the primary (user) product; the rest are
// competitors.  Never mutated after assembly — re-research replaces it
// wholesale.
type ResearchSession struct {
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

// SuccessfulProducts returns the results that yielded usable keyword data,
// preserving caller order (primary first).
func (s *ResearchSession) SuccessfulProducts() []ProductResult {
	out := make([]ProductResult, 0, len(s.Products))
	for _, p := range s.Products {
		if p.Succeeded() {
			out = append(out, p)
		}
	}
	return out
}

// SessionSummary is the list-view projection of a stored session.
type SessionSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	ProductIDs   []string  `json:"product_ids"`
	KeywordCount int       `json:"keyword_count"`
	CreatedAt    time.Time `json:"created_at"`
}
