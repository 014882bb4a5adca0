package models

type OfferPrice struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type Endpoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

type Aircraft struct {
	Code string `json:"code"`
}

type Segment struct {
	Departure   Endpoint `json:"departure"`
	Arrival     Endpoint `json:"arrival"`
	CarrierCode string   `json:"carrierCode"`
	Number      string   `json:"number"`
	Aircraft    Aircraft `json:"aircraft"`
	Duration    string   `json:"duration,omitempty"`
}

// Itinerary is one directional journey. Duration is ISO-8601, e.g. PT10H30M.
type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Stops is the number of intermediate landings on the itinerary.
func (i Itinerary) Stops() int {
	if len(i.Segments) == 0 {
		return 0
	}
	return len(i.Segments) - 1
}

type Offer struct {
	ID                     string      `json:"id"`
	Price                  OfferPrice  `json:"price"`
	Itineraries            []Itinerary `json:"itineraries"`
	ValidatingAirlineCodes []string    `json:"validatingAirlineCodes"`
}

// PrimaryCarrier returns the first validating carrier, falling back to the
// carrier of the first segment. Empty when the offer carries neither.
func (o Offer) PrimaryCarrier() string {
	if len(o.ValidatingAirlineCodes) > 0 && o.ValidatingAirlineCodes[0] != "" {
		return o.ValidatingAirlineCodes[0]
	}
	if seg, ok := o.FirstSegment(); ok {
		return seg.CarrierCode
	}
	return ""
}

func (o Offer) FirstSegment() (Segment, bool) {
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return Segment{}, false
	}
	return o.Itineraries[0].Segments[0], true
}

func (o Offer) LastSegment() (Segment, bool) {
	if len(o.Itineraries) == 0 {
		return Segment{}, false
	}
	segs := o.Itineraries[0].Segments
	if len(segs) == 0 {
		return Segment{}, false
	}
	return segs[len(segs)-1], true
}

type Airport struct {
	IATACode    string `json:"iataCode"`
	Name        string `json:"name"`
	CityName    string `json:"cityName"`
	CountryName string `json:"countryName"`
}

type Carrier struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
