package research

import (
	"fmt"
	"math"
	"sort"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
)

const (
	// wellRankedCutoff separates competitors "ranking well" (position ≤20)
	// from those ranking poorly (worse or unranked).
	wellRankedCutoff = 20

	// gapListCap bounds the returned gap set.
	gapListCap = 50

	// lowCPCBonusThreshold: average CPC under this signals low commercial
	// competition and earns every scenario a +1.
	lowCPCBonusThreshold = 0.50

	mediumImpactVolume = 2000
)

// gapKeywordState is the per-keyword ranking picture used for classification.
type gapKeywordState struct {
	display      string
	searchVolume int
	cpcSum       float64
	cpcCount     int
	positions    map[string]keyword.RankingEntry // productID → entry
}

// GapAnalyzer classifies keywords into gap scenarios for the primary product
// relative to its competitors.
type GapAnalyzer struct {
	logger logging.Logger
}

// NewGapAnalyzer constructs a GapAnalyzer.
func NewGapAnalyzer(logger logging.Logger) *GapAnalyzer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GapAnalyzer{logger: logger.Named("gaps")}
}

// dynamicThreshold scales a base ratio by the competitor count.  Small
// competitor sets get an absolute floor so a single weak competitor can still
// trigger a scenario; large sets use the plain proportional threshold.
func dynamicThreshold(competitors int, base float64) int {
	n := float64(competitors)
	switch {
	case competitors <= 2:
		return int(math.Max(1, math.Floor(n*0.5)))
	case competitors <= 5:
		return int(math.Max(2, math.Floor(n*base*0.9)))
	default:
		return int(math.Floor(n * base))
	}
}

// Analyze classifies each qualifying keyword into a gap scenario.  It
// requires at least two successfully collected products; with fewer it
// returns nil — gap analysis is absent, not an error.  products[0] is the
// user product, the rest are competitors.
func (g *GapAnalyzer) Analyze(products []keyword.ProductResult, opts keyword.Options) *keyword.GapAnalysis {
	if len(products) < 2 {
		return nil
	}

	userID := products[0].ProductID
	competitorCount := len(products) - 1

	states := make(map[string]*gapKeywordState)
	for _, product := range products {
		for _, occ := range product.Occurrences {
			if occ.SearchVolume < opts.MinGapVolume {
				continue
			}
			key := keyword.Normalize(occ.Keyword)
			if key == "" {
				continue
			}
			state, ok := states[key]
			if !ok {
				state = &gapKeywordState{
					display:   occ.Keyword,
					positions: make(map[string]keyword.RankingEntry),
				}
				states[key] = state
			}
			if occ.SearchVolume > state.searchVolume {
				state.searchVolume = occ.SearchVolume
			}
			if occ.CPC > 0 {
				state.cpcSum += occ.CPC
				state.cpcCount++
			}
			if occ.Position > 0 {
				state.positions[product.ProductID] = keyword.RankingEntry{
					ProductID:    product.ProductID,
					Position:     occ.Position,
					TrafficShare: occ.TrafficShare,
				}
			}
		}
	}

	gaps := make([]keyword.GapRecord, 0, len(states))
	for _, state := range states {
		if record, ok := g.classify(state, userID, competitorCount, opts); ok {
			gaps = append(gaps, record)
		}
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].GapScore != gaps[j].GapScore {
			return gaps[i].GapScore > gaps[j].GapScore
		}
		return gaps[i].SearchVolume > gaps[j].SearchVolume
	})
	if len(gaps) > gapListCap {
		gaps = gaps[:gapListCap]
	}

	analysis := &keyword.GapAnalysis{
		Gaps:                gaps,
		Summary:             summarizeGaps(gaps, opts),
		CompetitorsAnalyzed: competitorCount,
	}

	g.logger.Info("gap analysis complete",
		logging.Int("keywords_considered", len(states)),
		logging.Int("gaps", len(gaps)),
		logging.Int("competitors", competitorCount),
	)

	return analysis
}

// classify applies the three-way scenario decision for one keyword.
// Scenarios are checked in order: market_gap, user_advantage,
// competitor_weakness.  Keywords matching none are excluded.
func (g *GapAnalyzer) classify(
	state *gapKeywordState,
	userID string,
	competitorCount int,
	opts keyword.Options,
) (keyword.GapRecord, bool) {
	userEntry, userRanks := state.positions[userID]

	var competitorRankings []keyword.RankingEntry
	rankingWell := 0
	rankingPoorly := 0
	for id, entry := range state.positions {
		if id == userID {
			continue
		}
		competitorRankings = append(competitorRankings, entry)
		if entry.Position <= wellRankedCutoff {
			rankingWell++
		} else {
			rankingPoorly++
		}
	}
	// Competitors with no ranking at all count as ranking poorly.
	rankingPoorly += competitorCount - len(competitorRankings)

	sort.Slice(competitorRankings, func(i, j int) bool {
		return competitorRankings[i].Position < competitorRankings[j].Position
	})

	avgCPC := 0.0
	if state.cpcCount > 0 {
		avgCPC = state.cpcSum / float64(state.cpcCount)
	}

	record := keyword.GapRecord{
		Keyword:            state.display,
		SearchVolume:       state.searchVolume,
		AvgCPC:             avgCPC,
		CompetitorRankings: competitorRankings,
	}
	if userRanks {
		entry := userEntry
		record.UserRanking = &entry
	}

	userPoor := !userRanks || userEntry.Position > wellRankedCutoff
	userBeyondGapCutoff := !userRanks || userEntry.Position > opts.MaxGapPosition

	var score float64
	switch {
	case userPoor && rankingWell == 0:
		record.GapType = keyword.GapMarketGap
		score = marketGapScore(state.searchVolume, competitorCount)
		record.Recommendation = fmt.Sprintf(
			"Nobody ranks well for %q yet — target it before a competitor does.", state.display)
		record.PotentialImpact = impactTier(state.searchVolume, opts)

	case userRanks && userEntry.Position <= wellRankedCutoff &&
		rankingPoorly >= dynamicThreshold(competitorCount, 0.7):
		record.GapType = keyword.GapUserAdvantage
		score = userAdvantageScore(userEntry.Position, rankingPoorly)
		record.Recommendation = fmt.Sprintf(
			"You rank #%d for %q while most competitors don't — defend and expand this position.",
			userEntry.Position, state.display)
		// An advantage worth defending is never low impact.
		record.PotentialImpact = impactTier(state.searchVolume, opts)
		if record.PotentialImpact == keyword.ImpactLow {
			record.PotentialImpact = keyword.ImpactMedium
		}

	case userBeyondGapCutoff && rankingPoorly >= dynamicThreshold(competitorCount, 0.6):
		record.GapType = keyword.GapCompetitorWeakness
		score = competitorWeaknessScore(state.searchVolume, rankingPoorly, competitorCount)
		record.Recommendation = fmt.Sprintf(
			"Competitors rank poorly for %q — a focused push can overtake them.", state.display)
		record.PotentialImpact = impactTier(state.searchVolume, opts)

	default:
		return keyword.GapRecord{}, false
	}

	if avgCPC > 0 && avgCPC < lowCPCBonusThreshold {
		score++
	}
	record.GapScore = clampGapScore(score)

	return record, true
}

// marketGapScore: volume-tiered base 3–10, reduced when fewer than five
// competitors were analyzed since the gap evidence is thinner.
func marketGapScore(volume, competitorCount int) float64 {
	var base float64
	switch {
	case volume >= 20000:
		base = 10
	case volume >= 10000:
		base = 9
	case volume >= 5000:
		base = 8
	case volume >= 3000:
		base = 6
	case volume >= 1500:
		base = 5
	default:
		base = 3
	}
	if competitorCount < 5 {
		base--
	}
	return base
}

// userAdvantageScore: rank-tiered base 5–10 plus a bonus for the number of
// competitors beaten.
func userAdvantageScore(userPosition, competitorsBeaten int) float64 {
	var base float64
	switch {
	case userPosition <= 3:
		base = 10
	case userPosition <= 5:
		base = 9
	case userPosition <= 10:
		base = 7
	case userPosition <= 15:
		base = 6
	default:
		base = 5
	}
	bonus := float64(competitorsBeaten / 2)
	if bonus > 2 {
		bonus = 2
	}
	return base + bonus
}

// competitorWeaknessScore: volume-tiered base 5–7 plus weakness-ratio and
// weak-competitor-count bonuses.
func competitorWeaknessScore(volume, rankingPoorly, competitorCount int) float64 {
	var base float64
	switch {
	case volume >= 10000:
		base = 7
	case volume >= 3000:
		base = 6
	default:
		base = 5
	}
	if competitorCount > 0 {
		ratio := float64(rankingPoorly) / float64(competitorCount)
		switch {
		case ratio >= 0.75:
			base += 2
		case ratio >= 0.5:
			base++
		}
	}
	if rankingPoorly >= 3 {
		base++
	}
	return base
}

// clampGapScore coerces a raw gap score to an integer in [1, 10];
// non-finite values collapse to 1.
func clampGapScore(score float64) int {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 1
	}
	s := int(math.Round(score))
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}

func impactTier(volume int, opts keyword.Options) keyword.ImpactTier {
	switch {
	case volume >= opts.FocusVolumeThreshold:
		return keyword.ImpactHigh
	case volume >= mediumImpactVolume:
		return keyword.ImpactMedium
	default:
		return keyword.ImpactLow
	}
}

func summarizeGaps(gaps []keyword.GapRecord, opts keyword.Options) keyword.GapSummary {
	summary := keyword.GapSummary{TotalGaps: len(gaps)}
	if len(gaps) == 0 {
		return summary
	}
	var volumeSum int
	for _, gp := range gaps {
		volumeSum += gp.SearchVolume
		if gp.SearchVolume >= opts.FocusVolumeThreshold {
			summary.HighVolumeGaps++
		} else if gp.SearchVolume >= mediumImpactVolume {
			summary.MediumVolumeGaps++
		}
		summary.TotalGapPotential += gp.SearchVolume
	}
	summary.AvgGapVolume = float64(volumeSum) / float64(len(gaps))
	return summary
}
