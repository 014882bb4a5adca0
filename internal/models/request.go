package models

import "strings"

const DefaultMaxOffers = 50

type TravelClass string

const (
	TravelClassEconomy        TravelClass = "ECONOMY"
	TravelClassPremiumEconomy TravelClass = "PREMIUM_ECONOMY"
	TravelClassBusiness       TravelClass = "BUSINESS"
	TravelClassFirst          TravelClass = "FIRST"
)

func (c TravelClass) Valid() bool {
	switch c {
	case "", TravelClassEconomy, TravelClassPremiumEconomy, TravelClassBusiness, TravelClassFirst:
		return true
	}
	return false
}

type SearchParams struct {
	OriginLocationCode      string      `json:"origin_location_code"`
	DestinationLocationCode string      `json:"destination_location_code"`
	DepartureDate           string      `json:"departure_date"`
	ReturnDate              string      `json:"return_date,omitempty"`
	Adults                  int         `json:"adults"`
	Children                int         `json:"children,omitempty"`
	Infants                 int         `json:"infants,omitempty"`
	Max                     int         `json:"max"`
	TravelClass             TravelClass `json:"travel_class,omitempty"`
	NonStop                 bool        `json:"non_stop,omitempty"`
	CurrencyCode            string      `json:"currency_code,omitempty"`
}

func (p *SearchParams) Validate() error {
	p.OriginLocationCode = strings.ToUpper(strings.TrimSpace(p.OriginLocationCode))
	p.DestinationLocationCode = strings.ToUpper(strings.TrimSpace(p.DestinationLocationCode))

	if p.OriginLocationCode == "" {
		return ErrMissingOrigin
	}
	if p.DestinationLocationCode == "" {
		return ErrMissingDestination
	}
	if p.DepartureDate == "" {
		return ErrMissingDepartureDate
	}
	if !p.TravelClass.Valid() {
		return ErrInvalidTravelClass
	}
	if p.Adults <= 0 {
		p.Adults = 1
	}
	if p.Max <= 0 {
		p.Max = DefaultMaxOffers
	}
	return nil
}

type TimeBand string

const (
	TimeBandAll       TimeBand = "all"
	TimeBandMorning   TimeBand = "morning"
	TimeBandAfternoon TimeBand = "afternoon"
	TimeBandEvening   TimeBand = "evening"
	TimeBandNight     TimeBand = "night"
)

func (b TimeBand) Valid() bool {
	switch b {
	case TimeBandAll, TimeBandMorning, TimeBandAfternoon, TimeBandEvening, TimeBandNight:
		return true
	}
	return false
}

// StopClassMulti selects offers with two or more stops.
const StopClassMulti = 2

// FilterSpec is replaced as a whole on every change, never patched.
type FilterSpec struct {
	MaxPrice          float64  `json:"max_price"`
	AllowedCarriers   []string `json:"airlines"`
	StopClasses       []int    `json:"stops"`
	DepartureTimeBand TimeBand `json:"departure_time"`
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin        ValidationError = "origin is required"
	ErrMissingDestination   ValidationError = "destination is required"
	ErrMissingDepartureDate ValidationError = "departure date is required"
	ErrInvalidTravelClass   ValidationError = "travel class must be one of ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST"
	ErrMissingOffers        ValidationError = "offers are required"
)
