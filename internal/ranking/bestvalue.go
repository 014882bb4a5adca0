package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/dharmasatrya/skysearch/internal/models"
)

const (
	PriceWeight    = 0.5
	DurationWeight = 0.3
	StopsWeight    = 0.2
)

const (
	SortNone      = ""
	SortPrice     = "price"
	SortDuration  = "duration"
	SortStops     = "stops"
	SortBestValue = "best_value"
)

func ValidSort(sortBy string) bool {
	switch strings.ToLower(sortBy) {
	case SortNone, SortPrice, SortDuration, SortStops, SortBestValue:
		return true
	}
	return false
}

func CalculateScores(offers []models.OfferSummary) []models.OfferSummary {
	if len(offers) == 0 {
		return offers
	}

	maxPrice := findMaxPrice(offers)
	maxDuration := findMaxDuration(offers)

	result := make([]models.OfferSummary, len(offers))
	for i, o := range offers {
		result[i] = o
		result[i].BestValueScore = CalculateBestValue(o, maxPrice, maxDuration)
	}

	return result
}

// Lower score = better value
func CalculateBestValue(offer models.OfferSummary, maxPrice, maxDuration float64) float64 {
	priceScore := 0.0
	if maxPrice > 0 {
		priceScore = (offer.Price / maxPrice) * 100
	}

	durationScore := 0.0
	if maxDuration > 0 {
		durationScore = (float64(offer.DurationMinutes) / maxDuration) * 100
	}

	stopsScore := float64(offer.Stops) * 15
	score := (priceScore * PriceWeight) + (durationScore * DurationWeight) + (stopsScore * StopsWeight)

	return math.Round(score*100) / 100
}

// Sort orders offers ascending by the given key. Ties and an empty key keep
// the upstream order.
func Sort(offers []models.OfferSummary, sortBy string) []models.OfferSummary {
	var less func(a, b models.OfferSummary) bool

	switch strings.ToLower(sortBy) {
	case SortPrice:
		less = func(a, b models.OfferSummary) bool { return a.Price < b.Price }
	case SortDuration:
		less = func(a, b models.OfferSummary) bool { return a.DurationMinutes < b.DurationMinutes }
	case SortStops:
		less = func(a, b models.OfferSummary) bool { return a.Stops < b.Stops }
	case SortBestValue:
		less = func(a, b models.OfferSummary) bool { return a.BestValueScore < b.BestValueScore }
	default:
		return offers
	}

	sort.SliceStable(offers, func(i, j int) bool {
		return less(offers[i], offers[j])
	})
	return offers
}

func findMaxPrice(offers []models.OfferSummary) float64 {
	maxPrice := 0.0
	for _, o := range offers {
		if o.Price > maxPrice {
			maxPrice = o.Price
		}
	}
	return maxPrice
}

func findMaxDuration(offers []models.OfferSummary) float64 {
	maxDuration := 0.0
	for _, o := range offers {
		dur := float64(o.DurationMinutes)
		if dur > maxDuration {
			maxDuration = dur
		}
	}
	return maxDuration
}
