package aggregator

import (
	"fmt"
	"math"
	"sort"

	"github.com/dharmasatrya/skysearch/internal/filter"
	"github.com/dharmasatrya/skysearch/internal/models"
)

const (
	BucketCount = 10

	// MinBucketWidth keeps buckets from collapsing when every offer shares a price.
	MinBucketWidth = 1.0
)

// Aggregate partitions offer prices into BucketCount equal-width ranges over
// [min, max] and returns the non-empty ones in ascending order. Offers with
// an unparsable price are skipped.
func Aggregate(offers []models.Offer) []models.PriceBucket {
	prices := make([]float64, 0, len(offers))
	for _, o := range offers {
		if p, ok := filter.Price(o); ok {
			prices = append(prices, p)
		}
	}

	if len(prices) == 0 {
		return []models.PriceBucket{}
	}

	minPrice, maxPrice := prices[0], prices[0]
	for _, p := range prices[1:] {
		minPrice = math.Min(minPrice, p)
		maxPrice = math.Max(maxPrice, p)
	}

	width := math.Max((maxPrice-minPrice)/BucketCount, MinBucketWidth)

	counts := make(map[int]int)
	for _, p := range prices {
		counts[bucketIndex(p, minPrice, width)]++
	}

	buckets := make([]models.PriceBucket, 0, len(counts))
	for idx, count := range counts {
		lower := minPrice + float64(idx)*width
		upper := lower + width
		buckets = append(buckets, models.PriceBucket{
			RangeLabel: Label(lower, upper),
			LowerBound: lower,
			Count:      count,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].LowerBound < buckets[j].LowerBound
	})

	return buckets
}

// The maximum price lands in the last bucket rather than opening an eleventh.
func bucketIndex(price, minPrice, width float64) int {
	idx := int(math.Floor((price - minPrice) / width))
	if idx >= BucketCount {
		idx = BucketCount - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func Label(lower, upper float64) string {
	return fmt.Sprintf("$%.0f-$%.0f", math.Round(lower), math.Round(upper))
}
