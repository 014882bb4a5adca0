package filter

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dharmasatrya/skysearch/internal/models"
)

func seg(carrier, at string) models.Segment {
	return models.Segment{
		CarrierCode: carrier,
		Departure:   models.Endpoint{IATACode: "AAA", At: at},
		Arrival:     models.Endpoint{IATACode: "BBB", At: at},
	}
}

// offer builds an offer validated by carrier with one itinerary per entry of
// legs, each holding that many segments.
func offer(id, price, carrier, departAt string, legs ...int) models.Offer {
	o := models.Offer{
		ID:                     id,
		Price:                  models.OfferPrice{Total: price, Currency: "USD"},
		ValidatingAirlineCodes: []string{carrier},
	}
	if len(legs) == 0 {
		legs = []int{1}
	}
	for _, n := range legs {
		it := models.Itinerary{Duration: "PT5H"}
		for i := 0; i < n; i++ {
			it.Segments = append(it.Segments, seg(carrier, departAt))
		}
		o.Itineraries = append(o.Itineraries, it)
	}
	return o
}

func sample() []models.Offer {
	return []models.Offer{
		offer("1", "120.00", "AA", "2025-05-01T06:30:00", 1),
		offer("2", "340.50", "BA", "2025-05-01T13:10:00", 2),
		offer("3", "99.99", "AA", "2025-05-01T18:45:00", 3),
		offer("4", "560.00", "LH", "2025-05-01T22:00:00", 1, 4),
		offer("5", "250.00", "AA", "2025-05-01T03:15:00", 2, 1),
	}
}

func openSpec() models.FilterSpec {
	return models.FilterSpec{
		MaxPrice:          math.Inf(1),
		DepartureTimeBand: models.TimeBandAll,
	}
}

func ids(offers []models.Offer) []string {
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = o.ID
	}
	return out
}

func TestApply_OpenSpecIsIdentity(t *testing.T) {
	offers := sample()

	assert.Equal(t, offers, Apply(offers, openSpec()))
}

func TestApply_EmptyInput(t *testing.T) {
	got := Apply(nil, openSpec())

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestApply_MaxPriceIsInclusive(t *testing.T) {
	spec := openSpec()
	spec.MaxPrice = 250

	assert.Equal(t, []string{"1", "3", "5"}, ids(Apply(sample(), spec)))
}

func TestApply_CarrierAllowList(t *testing.T) {
	spec := openSpec()
	spec.AllowedCarriers = []string{"AA"}

	got := Apply(sample(), spec)

	assert.Equal(t, []string{"1", "3", "5"}, ids(got))
	for _, o := range got {
		assert.Equal(t, "AA", o.PrimaryCarrier())
	}
}

func TestApply_CarrierMembershipIsExact(t *testing.T) {
	spec := openSpec()
	spec.AllowedCarriers = []string{"aa"}

	assert.Empty(t, Apply(sample(), spec))
}

func TestApply_CarrierFallsBackToFirstSegment(t *testing.T) {
	o := offer("x", "10", "KL", "2025-05-01T08:00:00")
	o.ValidatingAirlineCodes = nil
	spec := openSpec()
	spec.AllowedCarriers = []string{"KL"}

	assert.Len(t, Apply([]models.Offer{o}, spec), 1)
}

func TestApply_StopClasses(t *testing.T) {
	tests := []struct {
		classes []int
		want    []string
	}{
		{[]int{0}, []string{"1"}},
		{[]int{1}, []string{"2", "5"}},
		{[]int{2}, []string{"3", "4"}},
		{[]int{0, 2}, []string{"1", "3", "4"}},
		{[]int{0, 1, 2}, []string{"1", "2", "3", "4", "5"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.classes), func(t *testing.T) {
			spec := openSpec()
			spec.StopClasses = tt.classes
			assert.Equal(t, tt.want, ids(Apply(sample(), spec)))
		})
	}
}

func TestApply_DepartureBand(t *testing.T) {
	tests := []struct {
		band models.TimeBand
		want []string
	}{
		{models.TimeBandMorning, []string{"1"}},
		{models.TimeBandAfternoon, []string{"2"}},
		{models.TimeBandEvening, []string{"3"}},
		{models.TimeBandNight, []string{"4", "5"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.band), func(t *testing.T) {
			spec := openSpec()
			spec.DepartureTimeBand = tt.band
			assert.Equal(t, tt.want, ids(Apply(sample(), spec)))
		})
	}
}

func TestApply_Idempotent(t *testing.T) {
	specs := []models.FilterSpec{
		{MaxPrice: 300, AllowedCarriers: []string{"AA", "BA"}, DepartureTimeBand: models.TimeBandAll},
		{MaxPrice: 600, StopClasses: []int{1, 2}, DepartureTimeBand: models.TimeBandNight},
		{MaxPrice: 100, DepartureTimeBand: models.TimeBandEvening},
	}

	for _, spec := range specs {
		once := Apply(sample(), spec)
		assert.Equal(t, once, Apply(once, spec))
	}
}

func TestApply_MalformedRecordsExcluded(t *testing.T) {
	badPrice := offer("bad-price", "abc", "AA", "2025-05-01T08:00:00")
	badTime := offer("bad-time", "50", "AA", "not-a-time")
	noItinerary := models.Offer{ID: "empty", Price: models.OfferPrice{Total: "10"}}
	good := offer("good", "50", "AA", "2025-05-01T08:00:00")
	offers := []models.Offer{badPrice, badTime, noItinerary, good}

	assert.Equal(t, []string{"bad-time", "empty", "good"}, ids(Apply(offers, openSpec())))

	spec := openSpec()
	spec.DepartureTimeBand = models.TimeBandMorning
	assert.Equal(t, []string{"good"}, ids(Apply(offers, spec)))
}

func TestClassify(t *testing.T) {
	tests := map[int]models.TimeBand{
		0:  models.TimeBandNight,
		4:  models.TimeBandNight,
		5:  models.TimeBandMorning,
		11: models.TimeBandMorning,
		12: models.TimeBandAfternoon,
		16: models.TimeBandAfternoon,
		17: models.TimeBandEvening,
		20: models.TimeBandEvening,
		21: models.TimeBandNight,
		23: models.TimeBandNight,
	}

	for hour, want := range tests {
		assert.Equal(t, want, Classify(hour), "hour %d", hour)
	}
}

func TestStops(t *testing.T) {
	assert.Equal(t, 0, Stops(offer("a", "1", "AA", "", 1)))
	assert.Equal(t, 3, Stops(offer("b", "1", "AA", "", 1, 4)))
	assert.Equal(t, 0, Stops(models.Offer{}))
}

func TestInitialSpec(t *testing.T) {
	spec := InitialSpec(sample())

	assert.Equal(t, 560.0, spec.MaxPrice)
	assert.Empty(t, spec.AllowedCarriers)
	assert.Empty(t, spec.StopClasses)
	assert.Equal(t, models.TimeBandAll, spec.DepartureTimeBand)
	assert.Len(t, Apply(sample(), spec), len(sample()))
}
