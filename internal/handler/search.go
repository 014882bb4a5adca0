package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dharmasatrya/skysearch/internal/aggregator"
	"github.com/dharmasatrya/skysearch/internal/cache"
	"github.com/dharmasatrya/skysearch/internal/carriers"
	"github.com/dharmasatrya/skysearch/internal/filter"
	"github.com/dharmasatrya/skysearch/internal/models"
	"github.com/dharmasatrya/skysearch/internal/ranking"
	"github.com/dharmasatrya/skysearch/internal/timefmt"
	"github.com/dharmasatrya/skysearch/internal/urlstate"
	"github.com/dharmasatrya/skysearch/pkg/currency"
)

type OfferSearcher interface {
	SearchFlightOffers(ctx context.Context, params models.SearchParams) ([]models.Offer, error)
}

type SearchHandler struct {
	searcher OfferSearcher
	cache    cache.Cache
	logger   zerolog.Logger
}

func NewSearchHandler(searcher OfferSearcher, c cache.Cache, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		cache:    c,
		logger:   logger,
	}
}

// Search runs the search described by the page query string and returns
// the filtered offers, the price histogram and the query to share.
func (h *SearchHandler) Search(c echo.Context) error {
	startTime := time.Now()
	ctx := c.Request().Context()

	page := urlstate.DecodePage(c.QueryString())
	params := page.SearchParams()
	if err := params.Validate(); err != nil {
		return validationError(c, err)
	}
	if !ranking.ValidSort(page.Sort) {
		return validationError(c, ErrInvalidSort)
	}

	cacheHit := false
	offers, found := h.cache.Get(ctx, params)
	if found {
		cacheHit = true
	} else {
		var err error
		offers, err = h.searcher.SearchFlightOffers(ctx, params)
		if err != nil {
			h.logger.Error().Err(err).
				Str("origin", params.OriginLocationCode).
				Str("destination", params.DestinationLocationCode).
				Msg("flight search failed")
			return c.JSON(http.StatusBadGateway, models.ErrorResponse{
				Error:   "search_error",
				Message: "Failed to search flights: " + err.Error(),
				Code:    http.StatusBadGateway,
			})
		}
		if err := h.cache.Set(ctx, params, offers); err != nil {
			h.logger.Warn().Err(err).Msg("failed to cache offers")
		}
	}

	// A new result set always starts unfiltered on price; a ceiling left in
	// the URL belongs to the previous results.
	page.Filter = resolveSpec(page.Filter, offers)
	page.Filter.MaxPrice = filter.MaxPrice(offers)
	resp := buildResponse(offers, page)
	resp.SearchCriteria = &params
	resp.ShareQuery = urlstate.EncodePage(c.QueryParams(), page)
	resp.Metadata.SearchTimeMs = time.Since(startTime).Milliseconds()
	resp.Metadata.CacheHit = cacheHit

	return c.JSON(http.StatusOK, resp)
}

type FilterRequest struct {
	Offers  []models.Offer    `json:"offers"`
	Filters models.FilterSpec `json:"filters"`
	Sort    string            `json:"sort,omitempty"`
	Query   string            `json:"query,omitempty"`
}

// Filter re-applies a complete filter spec to offers the client already
// holds, without another upstream call.
func (h *SearchHandler) Filter(c echo.Context) error {
	startTime := time.Now()

	var req FilterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if req.Offers == nil {
		return validationError(c, models.ErrMissingOffers)
	}
	if req.Filters.DepartureTimeBand == "" {
		req.Filters.DepartureTimeBand = models.TimeBandAll
	}
	if !req.Filters.DepartureTimeBand.Valid() {
		return validationError(c, ErrInvalidTimeBand)
	}
	if !ranking.ValidSort(req.Sort) {
		return validationError(c, ErrInvalidSort)
	}

	current, _ := url.ParseQuery(req.Query)
	page := urlstate.DecodePage(req.Query)
	page.Filter = resolveSpec(req.Filters, req.Offers)
	page.Sort = req.Sort

	resp := buildResponse(req.Offers, page)
	resp.ShareQuery = urlstate.EncodePage(current, page)
	resp.Metadata.SearchTimeMs = time.Since(startTime).Milliseconds()

	return c.JSON(http.StatusOK, resp)
}

// resolveSpec returns a complete spec: an unset price ceiling starts at the
// most expensive offer, nil sets become empty and carrier codes are
// upper-cased.
func resolveSpec(spec models.FilterSpec, offers []models.Offer) models.FilterSpec {
	resolved := filter.InitialSpec(offers)
	if spec.MaxPrice > 0 {
		resolved.MaxPrice = spec.MaxPrice
	}
	if spec.AllowedCarriers != nil {
		resolved.AllowedCarriers = make([]string, 0, len(spec.AllowedCarriers))
		for _, code := range spec.AllowedCarriers {
			if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
				resolved.AllowedCarriers = append(resolved.AllowedCarriers, code)
			}
		}
	}
	if spec.StopClasses != nil {
		resolved.StopClasses = spec.StopClasses
	}
	if spec.DepartureTimeBand != "" {
		resolved.DepartureTimeBand = spec.DepartureTimeBand
	}
	return resolved
}

func buildResponse(offers []models.Offer, page urlstate.PageState) models.SearchResponse {
	filtered := filter.Apply(offers, page.Filter)

	summaries := make([]models.OfferSummary, len(filtered))
	for i, o := range filtered {
		summaries[i] = summarize(o)
	}
	summaries = ranking.Sort(ranking.CalculateScores(summaries), page.Sort)

	return models.SearchResponse{
		Filters: page.Filter,
		Metadata: models.SearchMetadata{
			TotalResults:    len(offers),
			FilteredResults: len(filtered),
			MaxObserved:     filter.MaxPrice(offers),
		},
		Offers:       summaries,
		PriceBuckets: aggregator.Aggregate(filtered),
		Carriers:     carriers.InOffers(offers),
	}
}

func summarize(o models.Offer) models.OfferSummary {
	price, _ := filter.Price(o)

	summary := models.OfferSummary{
		Offer:          o,
		Carrier:        carriers.Lookup(o.PrimaryCarrier()),
		Price:          price,
		PriceFormatted: currency.Format(price, o.Price.Currency),
		Stops:          filter.Stops(o),
	}

	var total time.Duration
	for _, it := range o.Itineraries {
		if d, err := timefmt.ParseDuration(it.Duration); err == nil {
			total += d
		}
	}
	summary.DurationMinutes = int(total / time.Minute)

	if len(o.Itineraries) > 0 {
		summary.Duration = timefmt.FormatDuration(o.Itineraries[0].Duration)
	}
	if seg, ok := o.FirstSegment(); ok {
		summary.DepartureTime = timefmt.FormatClock(seg.Departure.At)
		summary.DepartureDate = timefmt.FormatDay(seg.Departure.At)
	}
	if seg, ok := o.LastSegment(); ok {
		summary.ArrivalTime = timefmt.FormatClock(seg.Arrival.At)
	}

	return summary
}

func validationError(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}

const (
	ErrInvalidSort     models.ValidationError = "sort must be one of price, duration, stops, best_value"
	ErrInvalidTimeBand models.ValidationError = "departure_time must be one of all, morning, afternoon, evening, night"
)

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
