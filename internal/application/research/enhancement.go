package research

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
)

const (
	maxOpportunityEnhancements = 20
	maxGapEnhancements         = 5

	// Self-imposed rate limit for the expensive enrichment endpoint: batches
	// of 3 with 1s between items and 2s between batches.  No provider-side
	// signal is consulted; this ceiling is the dominant latency contributor
	// of the whole pipeline.
	enhanceBatchSize = 3
	enhanceItemDelay = 1 * time.Second
	enhanceBatchGap  = 2 * time.Second

	// enhancementScore weights.
	enhanceWeightVolume       = 0.3
	enhanceWeightQuality      = 0.4
	enhanceWeightCPC          = 0.2
	enhanceWeightFundamentals = 0.1

	enhanceTargetCPC        = 1.50
	enhanceVolumeNormCap    = 10000
	fundamentalsMinVolume   = 1000
	fundamentalsMaxStrength = 7.0
)

// Sleeper abstracts the inter-call delays so tests run instantly.  Sleep
// returns early with the context's error when it is cancelled, which stops
// the enhancement loop between items.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Enhancer selects the highest-priority keywords from the opportunity and gap
// sets, enriches them via the provider under the self-imposed rate limit, and
// merges the results back without losing scenario-specific fields.
type Enhancer struct {
	provider keyword.DataProvider
	logger   logging.Logger
	sleeper  Sleeper
}

// NewEnhancer constructs an Enhancer.
func NewEnhancer(provider keyword.DataProvider, logger logging.Logger) *Enhancer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Enhancer{provider: provider, logger: logger.Named("enhancer"), sleeper: realSleeper{}}
}

// enhancementScore ranks a keyword's priority for the expensive enrichment
// call: volume, result quality (gap score or inverse competition), CPC
// closeness to the commercial sweet spot, and a fundamentals bonus.
func enhancementScore(volume int, cpc, quality float64, fundamentals bool) float64 {
	volNorm := math.Min(1, float64(volume)/enhanceVolumeNormCap)
	cpcCloseness := math.Max(0, 1-math.Abs(cpc-enhanceTargetCPC)/enhanceTargetCPC)
	fb := 0.0
	if fundamentals {
		fb = 1.0
	}
	return enhanceWeightVolume*volNorm +
		enhanceWeightQuality*quality +
		enhanceWeightCPC*cpcCloseness +
		enhanceWeightFundamentals*fb
}

func opportunityEnhancementScore(c keyword.OpportunityCandidate) float64 {
	quality := (10 - c.CompetitorStrength) / 10
	fundamentals := c.SearchVolume > fundamentalsMinVolume && c.CompetitorStrength < fundamentalsMaxStrength
	return enhancementScore(c.SearchVolume, c.AvgCPC, quality, fundamentals)
}

func gapEnhancementScore(g keyword.GapRecord) float64 {
	quality := float64(g.GapScore) / 10
	fundamentals := g.SearchVolume > fundamentalsMinVolume
	return enhancementScore(g.SearchVolume, g.AvgCPC, quality, fundamentals)
}

// Enhance enriches the selected keywords in place on copies of the report and
// analysis.  Every failure mode degrades to unenhanced data: per-keyword
// provider errors pass that keyword through, and cancellation stops the loop
// between items, leaving the remainder untouched.  A keyword appearing in
// both sets is sent to the provider exactly once; the single result is merged
// into both records.
func (e *Enhancer) Enhance(
	ctx context.Context,
	report *keyword.OpportunityReport,
	gaps *keyword.GapAnalysis,
) (*keyword.OpportunityReport, *keyword.GapAnalysis) {
	if e.provider == nil {
		return report, gaps
	}

	selection := e.selectKeywords(report, gaps)
	if len(selection) == 0 {
		return report, gaps
	}

	enriched := e.fetch(ctx, selection)
	if len(enriched) == 0 {
		return report, gaps
	}

	outReport := report
	if report != nil {
		merged := make([]keyword.OpportunityCandidate, len(report.Opportunities))
		for i, cand := range report.Opportunities {
			if occ, ok := enriched[keyword.Normalize(cand.Keyword)]; ok {
				merged[i] = mergeOpportunity(cand, occ)
			} else {
				merged[i] = cand
			}
		}
		clone := *report
		clone.Opportunities = merged
		outReport = &clone
	}

	outGaps := gaps
	if gaps != nil {
		merged := make([]keyword.GapRecord, len(gaps.Gaps))
		for i, gp := range gaps.Gaps {
			if occ, ok := enriched[keyword.Normalize(gp.Keyword)]; ok {
				merged[i] = mergeGap(gp, occ)
			} else {
				merged[i] = gp
			}
		}
		clone := *gaps
		clone.Gaps = merged
		outGaps = &clone
	}

	e.logger.Info("enhancement complete",
		logging.Int("selected", len(selection)),
		logging.Int("enriched", len(enriched)),
	)

	return outReport, outGaps
}

// enhanceTarget is one deduplicated keyword queued for enrichment.
type enhanceTarget struct {
	display string
	folded  string
	volume  int
}

// selectKeywords picks up to 20 opportunities and 5 gaps by enhancement
// score, deduplicated by folded keyword text across both sets.
func (e *Enhancer) selectKeywords(report *keyword.OpportunityReport, gaps *keyword.GapAnalysis) []enhanceTarget {
	var targets []enhanceTarget
	seen := make(map[string]struct{})

	add := func(display string, volume int) {
		folded := keyword.Normalize(display)
		if folded == "" {
			return
		}
		if _, dup := seen[folded]; dup {
			return
		}
		seen[folded] = struct{}{}
		targets = append(targets, enhanceTarget{display: display, folded: folded, volume: volume})
	}

	if report != nil {
		opps := make([]keyword.OpportunityCandidate, len(report.Opportunities))
		copy(opps, report.Opportunities)
		sort.Slice(opps, func(i, j int) bool {
			return opportunityEnhancementScore(opps[i]) > opportunityEnhancementScore(opps[j])
		})
		if len(opps) > maxOpportunityEnhancements {
			opps = opps[:maxOpportunityEnhancements]
		}
		for _, c := range opps {
			add(c.Keyword, c.SearchVolume)
		}
	}

	if gaps != nil {
		records := make([]keyword.GapRecord, len(gaps.Gaps))
		copy(records, gaps.Gaps)
		sort.Slice(records, func(i, j int) bool {
			return gapEnhancementScore(records[i]) > gapEnhancementScore(records[j])
		})
		count := 0
		for _, gp := range records {
			if count >= maxGapEnhancements {
				break
			}
			before := len(targets)
			add(gp.Keyword, gp.SearchVolume)
			if len(targets) > before {
				count++
			}
		}
	}

	return targets
}

// fetch calls the provider for each target under the batch/delay schedule and
// returns the enrichment results keyed by folded keyword.
func (e *Enhancer) fetch(ctx context.Context, targets []enhanceTarget) map[string]keyword.Occurrence {
	results := make(map[string]keyword.Occurrence)

	for batchStart := 0; batchStart < len(targets); batchStart += enhanceBatchSize {
		if batchStart > 0 {
			if err := e.sleeper.Sleep(ctx, enhanceBatchGap); err != nil {
				e.logger.Warn("enhancement cancelled between batches", logging.Err(err))
				return results
			}
		}

		end := batchStart + enhanceBatchSize
		if end > len(targets) {
			end = len(targets)
		}

		for i := batchStart; i < end; i++ {
			if i > batchStart {
				if err := e.sleeper.Sleep(ctx, enhanceItemDelay); err != nil {
					e.logger.Warn("enhancement cancelled between items", logging.Err(err))
					return results
				}
			}

			target := targets[i]
			occ, err := e.lookup(ctx, target)
			if err != nil {
				// Pass the keyword through unenhanced.
				e.logger.Warn("enrichment lookup failed",
					logging.String("keyword", target.display),
					logging.Err(err),
				)
				continue
			}
			if occ != nil {
				results[target.folded] = *occ
			}
		}
	}

	return results
}

// lookup queries the mining endpoint for one keyword and searches the
// response for a case-insensitive exact match; no match means no enrichment
// and the original record is kept verbatim.
func (e *Enhancer) lookup(ctx context.Context, target enhanceTarget) (*keyword.Occurrence, error) {
	occurrences, err := e.provider.KeywordMining(ctx, target.display, keyword.MiningFilters{
		MinSearchVolume: 1,
		Size:            10,
	})
	if err != nil {
		return nil, err
	}
	for i := range occurrences {
		if keyword.Normalize(occurrences[i].Keyword) == target.folded {
			return &occurrences[i], nil
		}
	}
	return nil, nil
}

// mergeOpportunity overlays only the enrichment fields the provider actually
// supplied onto a copy of the original candidate.
func mergeOpportunity(orig keyword.OpportunityCandidate, occ keyword.Occurrence) keyword.OpportunityCandidate {
	out := orig
	if occ.Products > 0 {
		out.Products = occ.Products
	}
	if occ.AdProducts > 0 {
		out.AdProducts = occ.AdProducts
	}
	if occ.PurchaseRate > 0 {
		out.PurchaseRate = occ.PurchaseRate
	}
	if occ.Purchases > 0 {
		out.Purchases = occ.Purchases
	}
	if occ.BidMin > 0 {
		out.BidMin = occ.BidMin
	}
	if occ.BidMax > 0 {
		out.BidMax = occ.BidMax
	}
	if occ.SupplyDemandRatio > 0 {
		out.SupplyDemandRatio = occ.SupplyDemandRatio
	}
	if occ.TitleDensity > 0 {
		out.TitleDensity = occ.TitleDensity
	}
	if occ.MonopolyClickRate > 0 {
		out.MonopolyClickRate = occ.MonopolyClickRate
	}
	if occ.AvgPrice > 0 {
		out.AvgPrice = occ.AvgPrice
	}
	return out
}

// mergeGap overlays enrichment fields onto a copy of the original record.
// Scenario fields (GapType, GapScore, rankings, recommendation) are never
// touched: an enhanced record must always be able to re-render its scenario.
func mergeGap(orig keyword.GapRecord, occ keyword.Occurrence) keyword.GapRecord {
	out := orig
	if occ.Products > 0 {
		out.Products = occ.Products
	}
	if occ.AdProducts > 0 {
		out.AdProducts = occ.AdProducts
	}
	if occ.PurchaseRate > 0 {
		out.PurchaseRate = occ.PurchaseRate
	}
	if occ.BidMin > 0 {
		out.BidMin = occ.BidMin
	}
	if occ.BidMax > 0 {
		out.BidMax = occ.BidMax
	}
	if occ.SupplyDemandRatio > 0 {
		out.SupplyDemandRatio = occ.SupplyDemandRatio
	}
	if occ.TitleDensity > 0 {
		out.TitleDensity = occ.TitleDensity
	}
	return out
}
