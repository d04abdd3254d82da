package research

import (
	"sort"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
)

const (
	comparisonTopKeywords = 20
	comparisonBucketSize  = 15
	strongRankCutoff      = 15
)

// BuildComparison produces the per-product strong/weak keyword breakdown.
// It is a pure transform, independent of other products, and never errors:
// failed or empty products yield a zero-value record carrying the failure
// status and message.
func BuildComparison(result keyword.ProductResult) keyword.ProductComparison {
	cmp := keyword.ProductComparison{
		ProductID:    result.ProductID,
		Status:       result.Status,
		ErrorMessage: result.ErrorMessage,
	}
	if !result.Succeeded() {
		if cmp.Status == keyword.StatusSuccess {
			cmp.Status = keyword.StatusNoData
		}
		return cmp
	}

	occ := make([]keyword.Occurrence, len(result.Occurrences))
	copy(occ, result.Occurrences)
	sort.Slice(occ, func(i, j int) bool { return occ[i].SearchVolume > occ[j].SearchVolume })

	top := occ
	if len(top) > comparisonTopKeywords {
		top = top[:comparisonTopKeywords]
	}
	cmp.TopKeywords = top
	cmp.TotalKeywords = len(result.Occurrences)

	var volumeSum int
	for _, o := range result.Occurrences {
		volumeSum += o.SearchVolume
	}
	cmp.AvgSearchVolume = float64(volumeSum) / float64(len(result.Occurrences))

	var strong, weak []keyword.Occurrence
	for _, o := range result.Occurrences {
		switch {
		case o.Position > 0 && o.Position <= strongRankCutoff:
			strong = append(strong, o)
		case o.Position > strongRankCutoff:
			weak = append(weak, o)
		}
	}

	sort.Slice(strong, func(i, j int) bool { return strong[i].Position < strong[j].Position })
	if len(strong) > comparisonBucketSize {
		strong = strong[:comparisonBucketSize]
	}
	cmp.StrongKeywords = strong

	sort.Slice(weak, func(i, j int) bool { return weak[i].SearchVolume > weak[j].SearchVolume })
	if len(weak) > comparisonBucketSize {
		weak = weak[:comparisonBucketSize]
	}
	cmp.WeakKeywords = weak

	return cmp
}

// BuildComparisons maps BuildComparison over all product results, preserving
// caller order.
func BuildComparisons(results []keyword.ProductResult) []keyword.ProductComparison {
	out := make([]keyword.ProductComparison, len(results))
	for i, r := range results {
		out[i] = BuildComparison(r)
	}
	return out
}
