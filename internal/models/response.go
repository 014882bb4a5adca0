package models

// PriceBucket is one bar of the price histogram.
type PriceBucket struct {
	RangeLabel string  `json:"range"`
	LowerBound float64 `json:"price"`
	Count      int     `json:"count"`
}

// OfferSummary pairs an upstream offer with display-ready fields.
type OfferSummary struct {
	Offer           Offer   `json:"offer"`
	Carrier         Carrier `json:"carrier"`
	Price           float64 `json:"price"`
	PriceFormatted  string  `json:"price_formatted"`
	Stops           int     `json:"stops"`
	Duration        string  `json:"duration"`
	DurationMinutes int     `json:"duration_minutes"`
	DepartureTime   string  `json:"departure_time"`
	ArrivalTime     string  `json:"arrival_time"`
	DepartureDate   string  `json:"departure_date"`
	BestValueScore  float64 `json:"best_value_score,omitempty"`
}

type SearchMetadata struct {
	TotalResults    int     `json:"total_results"`
	FilteredResults int     `json:"filtered_results"`
	MaxObserved     float64 `json:"max_observed_price"`
	SearchTimeMs    int64   `json:"search_time_ms"`
	CacheHit        bool    `json:"cache_hit"`
}

type SearchResponse struct {
	SearchCriteria *SearchParams  `json:"search_criteria,omitempty"`
	Filters        FilterSpec     `json:"filters"`
	Metadata       SearchMetadata `json:"metadata"`
	Offers         []OfferSummary `json:"offers"`
	PriceBuckets   []PriceBucket  `json:"price_buckets"`
	Carriers       []Carrier      `json:"carriers"`
	ShareQuery     string         `json:"share_query"`
}

type AirportResponse struct {
	Data       []Airport `json:"data"`
	Superseded bool      `json:"superseded,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
