package urlstate

import (
	"net/url"
	"strings"

	"github.com/dharmasatrya/skysearch/internal/models"
)

// Query keys shared with the browser address bar.
const (
	KeyOrigin      = "origin"
	KeyDestination = "dest"
	KeyDepartDate  = "depDate"
	KeyReturnDate  = "retDate"
	KeyAdults      = "adults"
	KeyChildren    = "children"
	KeyInfants     = "infants"
	KeyTripType    = "type"
	KeyClass       = "class"
	KeyNonStop     = "nonstop"
	KeyCurrency    = "currency"
	KeyMaxPrice    = "maxPrice"
	KeyAirlines    = "airlines"
	KeyStops       = "stops"
	KeyTime        = "time"
	KeySort        = "sort"
)

const (
	TripRoundTrip = "roundtrip"
	TripOneWay    = "oneway"
)

// PageState is the typed search and filter state of the page. A zero
// Filter.MaxPrice means no ceiling was chosen yet.
type PageState struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	Children      int
	Infants       int
	TripType      string
	TravelClass   models.TravelClass
	NonStop       bool
	Currency      string
	Sort          string
	Filter        models.FilterSpec
}

func Defaults() State {
	return State{
		KeyOrigin:      "",
		KeyDestination: "",
		KeyDepartDate:  "",
		KeyReturnDate:  "",
		KeyAdults:      1,
		KeyChildren:    0,
		KeyInfants:     0,
		KeyTripType:    TripRoundTrip,
		KeyClass:       "",
		KeyNonStop:     false,
		KeyCurrency:    "",
		KeyMaxPrice:    0.0,
		KeyAirlines:    []any{},
		KeyStops:       []any{},
		KeyTime:        string(models.TimeBandAll),
		KeySort:        "",
	}
}

func DecodePage(query string) PageState {
	s := Decode(query, Defaults())

	p := PageState{
		Origin:        strings.ToUpper(s[KeyOrigin].(string)),
		Destination:   strings.ToUpper(s[KeyDestination].(string)),
		DepartureDate: s[KeyDepartDate].(string),
		ReturnDate:    s[KeyReturnDate].(string),
		Adults:        s[KeyAdults].(int),
		Children:      s[KeyChildren].(int),
		Infants:       s[KeyInfants].(int),
		TripType:      s[KeyTripType].(string),
		TravelClass:   models.TravelClass(strings.ToUpper(s[KeyClass].(string))),
		NonStop:       s[KeyNonStop].(bool),
		Currency:      strings.ToUpper(s[KeyCurrency].(string)),
		Sort:          s[KeySort].(string),
	}

	if p.TripType != TripOneWay {
		p.TripType = TripRoundTrip
	}

	band := models.TimeBand(s[KeyTime].(string))
	if !band.Valid() {
		band = models.TimeBandAll
	}

	maxPrice := s[KeyMaxPrice].(float64)
	if maxPrice < 0 {
		maxPrice = 0
	}

	p.Filter = models.FilterSpec{
		MaxPrice:          maxPrice,
		AllowedCarriers:   stringList(s[KeyAirlines]),
		StopClasses:       stopList(s[KeyStops]),
		DepartureTimeBand: band,
	}
	return p
}

// State converts p back into codec form. Empty optional fields become nil so
// they drop out of the query string.
func (p PageState) State() State {
	return State{
		KeyOrigin:      optionalString(p.Origin),
		KeyDestination: optionalString(p.Destination),
		KeyDepartDate:  optionalString(p.DepartureDate),
		KeyReturnDate:  optionalString(p.ReturnDate),
		KeyAdults:      p.Adults,
		KeyChildren:    optionalInt(p.Children),
		KeyInfants:     optionalInt(p.Infants),
		KeyTripType:    optionalString(p.TripType),
		KeyClass:       optionalString(string(p.TravelClass)),
		KeyNonStop:     optionalBool(p.NonStop),
		KeyCurrency:    optionalString(p.Currency),
		KeyMaxPrice:    optionalFloat(p.Filter.MaxPrice),
		KeyAirlines:    p.Filter.AllowedCarriers,
		KeyStops:       p.Filter.StopClasses,
		KeyTime:        optionalString(string(p.Filter.DepartureTimeBand)),
		KeySort:        optionalString(p.Sort),
	}
}

func EncodePage(current url.Values, p PageState) string {
	return Encode(current, p.State())
}

// SearchParams builds the upstream query. The return date only applies to
// round trips.
func (p PageState) SearchParams() models.SearchParams {
	params := models.SearchParams{
		OriginLocationCode:      p.Origin,
		DestinationLocationCode: p.Destination,
		DepartureDate:           p.DepartureDate,
		Adults:                  p.Adults,
		Children:                p.Children,
		Infants:                 p.Infants,
		Max:                     models.DefaultMaxOffers,
		TravelClass:             p.TravelClass,
		NonStop:                 p.NonStop,
		CurrencyCode:            p.Currency,
	}
	if p.TripType == TripRoundTrip && p.ReturnDate != "" {
		params.ReturnDate = p.ReturnDate
	}
	return params
}

func stringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		s := strings.ToUpper(strings.TrimSpace(formatScalar(item)))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stopList(v any) []int {
	list, _ := v.([]any)
	out := make([]int, 0, len(list))
	for _, item := range list {
		n, ok := item.(float64)
		if !ok || n < 0 || n != float64(int(n)) {
			continue
		}
		out = append(out, int(n))
	}
	return out
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optionalInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func optionalFloat(n float64) any {
	if n == 0 {
		return nil
	}
	return n
}

func optionalBool(b bool) any {
	if !b {
		return nil
	}
	return b
}
