package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/dharmasatrya/skysearch/internal/models"
	"github.com/dharmasatrya/skysearch/internal/timefmt"
)

// Apply returns the offers satisfying every active predicate of spec, in
// their original order. Offers whose price or departure time cannot be
// parsed are dropped instead of failing the pass.
func Apply(offers []models.Offer, spec models.FilterSpec) []models.Offer {
	result := make([]models.Offer, 0, len(offers))

	for _, o := range offers {
		if matches(o, spec) {
			result = append(result, o)
		}
	}

	return result
}

func matches(o models.Offer, spec models.FilterSpec) bool {
	price, ok := Price(o)
	if !ok || price > spec.MaxPrice {
		return false
	}

	if len(spec.AllowedCarriers) > 0 {
		carrier := o.PrimaryCarrier()
		found := false
		for _, allowed := range spec.AllowedCarriers {
			if carrier == allowed {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(spec.StopClasses) > 0 && !matchesStops(Stops(o), spec.StopClasses) {
		return false
	}

	if spec.DepartureTimeBand != "" && spec.DepartureTimeBand != models.TimeBandAll {
		band, ok := DepartureBand(o)
		if !ok || band != spec.DepartureTimeBand {
			return false
		}
	}

	return true
}

func matchesStops(stops int, classes []int) bool {
	for _, class := range classes {
		if class >= models.StopClassMulti {
			if stops >= models.StopClassMulti {
				return true
			}
			continue
		}
		if stops == class {
			return true
		}
	}
	return false
}

// Price parses the offer total. NaN and infinities count as unparsable.
func Price(o models.Offer) (float64, bool) {
	p, err := strconv.ParseFloat(strings.TrimSpace(o.Price.Total), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}

// Stops is the largest stop count across the offer's itineraries.
func Stops(o models.Offer) int {
	stops := 0
	for _, it := range o.Itineraries {
		if s := it.Stops(); s > stops {
			stops = s
		}
	}
	return stops
}

// Classify maps an hour of day to its departure band.
func Classify(hour int) models.TimeBand {
	switch {
	case hour >= 5 && hour < 12:
		return models.TimeBandMorning
	case hour >= 12 && hour < 17:
		return models.TimeBandAfternoon
	case hour >= 17 && hour < 21:
		return models.TimeBandEvening
	default:
		return models.TimeBandNight
	}
}

// DepartureBand classifies the local departure hour of the first segment of
// the first itinerary.
func DepartureBand(o models.Offer) (models.TimeBand, bool) {
	seg, ok := o.FirstSegment()
	if !ok {
		return "", false
	}
	hour, err := timefmt.LocalHour(seg.Departure.At)
	if err != nil {
		return "", false
	}
	return Classify(hour), true
}

// MaxPrice is the highest parsable price in offers, zero when there is none.
func MaxPrice(offers []models.Offer) float64 {
	highest := 0.0
	for _, o := range offers {
		if p, ok := Price(o); ok && p > highest {
			highest = p
		}
	}
	return highest
}

// InitialSpec is the filter a fresh search starts with: every predicate is
// open and the price ceiling sits at the most expensive offer.
func InitialSpec(offers []models.Offer) models.FilterSpec {
	return models.FilterSpec{
		MaxPrice:          MaxPrice(offers),
		AllowedCarriers:   []string{},
		StopClasses:       []int{},
		DepartureTimeBand: models.TimeBandAll,
	}
}
