// Package research implements the keyword-research pipeline: per-product
// collection, cross-product aggregation and scoring, opportunity and gap
// analysis, targeted enrichment, and deterministic session reconstruction
// from normalized storage rows.
package research

import "math"

// Opportunity-score constants.  The reconstructor invokes the identical
// functions below, so a reconstructed session scores bit-for-bit the same as
// a live run.  Do not re-derive these inline anywhere else.
const (
	weightVolume      = 0.25
	weightCompetition = 0.60
	weightCPC         = 0.15

	// Compression curve: pushes most raw scores into a 3–6 band so the top
	// of the 1–10 scale stays meaningful.
	compressHighCut  = 8.0
	compressHighMul  = 0.65
	compressHighAdd  = 2.8
	compressMidCut   = 6.5
	compressMidMul   = 0.75
	compressMidAdd   = 2.0
	compressLowCut   = 5.0
	compressLowMul   = 0.85
	compressLowAdd   = 0.975
	compressCapStart = 7.0
	compressCapMul   = 0.5
)

// clampScore bounds v to [lo, hi], coercing NaN and infinities to lo.
func clampScore(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// volumeScore buckets monthly search volume.  5k–10k is the sweet spot:
// enough demand to matter, not yet saturated.
func volumeScore(volume int) float64 {
	v := float64(volume)
	switch {
	case v >= 5000 && v <= 10000:
		return 10
	case v >= 2000 && v < 5000:
		return 8
	case v >= 1000 && v < 2000:
		return 6
	case v > 10000 && v <= 25000:
		return 7
	case v >= 500 && v < 1000:
		return 4
	case v > 25000:
		return 3
	default:
		return 2
	}
}

// expectedCompetitors estimates how many products would normally rank for a
// keyword at a given volume.
func expectedCompetitors(volume int) float64 {
	v := float64(volume)
	switch {
	case v >= 10000:
		return math.Min(50, v/200)
	case v >= 5000:
		return math.Min(30, v/300)
	case v >= 1000:
		return math.Min(20, v/400)
	default:
		return math.Min(10, v/500)
	}
}

// competitionScore compares the actual ranking-entry count against the
// volume-derived expectation, scaled by a confidence factor that grows with
// the number of products analyzed (full confidence at 5+).
func competitionScore(volume, actualCompetitors, productsAnalyzed int) float64 {
	if actualCompetitors == 0 {
		return 10
	}

	confidence := math.Min(1.2, float64(productsAnalyzed)/5.0)
	adjusted := expectedCompetitors(volume) * confidence
	if adjusted <= 0 {
		return 1
	}

	ratio := float64(actualCompetitors) / adjusted
	switch {
	case ratio <= 0.2:
		return 8
	case ratio <= 0.4:
		return 6
	case ratio <= 0.6:
		return 5
	case ratio <= 0.8:
		return 4
	case ratio <= 1.0:
		return 3
	case ratio <= 1.2:
		return 2
	default:
		return 1
	}
}

// cpcScore bands cost-per-click around the $1.20–1.80 commercial sweet spot.
func cpcScore(cpc float64) float64 {
	switch {
	case cpc >= 1.20 && cpc <= 1.80:
		return 10
	case cpc >= 0.90 && cpc < 1.20:
		return 9
	case cpc > 1.80 && cpc <= 2.00:
		return 8
	case cpc >= 0.70 && cpc < 0.90:
		return 7
	case cpc >= 0.50 && cpc < 0.70:
		return 6
	case cpc > 2.00 && cpc <= 10.00:
		return clampScore(12-cpc*1.25, 2, 10)
	case cpc >= 0.30 && cpc < 0.50:
		return 4
	case cpc > 10.00:
		return 2
	default:
		return 2
	}
}

// compress applies the banded compression curve, then halves everything above
// the 7.0 cap so only exceptional keywords reach the top of the scale.
func compress(raw float64) float64 {
	r := raw
	switch {
	case raw >= compressHighCut:
		r = raw*compressHighMul + compressHighAdd
	case raw >= compressMidCut:
		r = raw*compressMidMul + compressMidAdd
	case raw >= compressLowCut:
		r = raw*compressLowMul + compressLowAdd
	}
	if r > compressCapStart {
		r = compressCapStart + (r-compressCapStart)*compressCapMul
	}
	return r
}

// OpportunityScore computes the 1–10 opportunity score for one aggregated
// keyword.  Pure: same inputs always yield the same score.
func OpportunityScore(volume int, avgCPC float64, rankingCount, productsAnalyzed int) float64 {
	raw := volumeScore(volume)*weightVolume +
		competitionScore(volume, rankingCount, productsAnalyzed)*weightCompetition +
		cpcScore(avgCPC)*weightCPC

	return round2(clampScore(compress(raw), 1, 10))
}

// competitorStrength maps an average competitor rank to a 1–10 strength.
// No ranking competitors is the best case and scores 1.
func competitorStrength(avgCompetitorRank float64, ranking int) float64 {
	if ranking == 0 {
		return 1
	}
	return clampScore(11-avgCompetitorRank/10, 1, 10)
}
