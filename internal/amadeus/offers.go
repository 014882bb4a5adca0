package amadeus

import (
	"context"
	"net/url"
	"strconv"

	"github.com/dharmasatrya/skysearch/internal/models"
)

const (
	FlightOffersPath     = "/v2/shopping/flight-offers"
	FlightOffersEndpoint = "flight-offers"
)

type flightOffersResponse struct {
	Data []models.Offer `json:"data"`
}

// SearchFlightOffers fetches priced offers. Unlike airport lookups the search
// is user initiated, so every failure is returned to the caller.
func (c *Client) SearchFlightOffers(ctx context.Context, params models.SearchParams) ([]models.Offer, error) {
	var resp flightOffersResponse
	if err := c.get(ctx, FlightOffersEndpoint, FlightOffersPath, offerQuery(params), &resp); err != nil {
		c.logger.Error().Err(err).
			Str("origin", params.OriginLocationCode).
			Str("destination", params.DestinationLocationCode).
			Msg("flight offer search failed")
		return nil, err
	}

	if resp.Data == nil {
		return []models.Offer{}, nil
	}
	return resp.Data, nil
}

func offerQuery(params models.SearchParams) url.Values {
	limit := params.Max
	if limit <= 0 {
		limit = models.DefaultMaxOffers
	}

	query := url.Values{
		"originLocationCode":      {params.OriginLocationCode},
		"destinationLocationCode": {params.DestinationLocationCode},
		"departureDate":           {params.DepartureDate},
		"adults":                  {strconv.Itoa(params.Adults)},
		"max":                     {strconv.Itoa(limit)},
	}

	if params.ReturnDate != "" {
		query.Set("returnDate", params.ReturnDate)
	}
	if params.Children > 0 {
		query.Set("children", strconv.Itoa(params.Children))
	}
	if params.Infants > 0 {
		query.Set("infants", strconv.Itoa(params.Infants))
	}
	if params.TravelClass != "" {
		query.Set("travelClass", string(params.TravelClass))
	}
	if params.NonStop {
		query.Set("nonStop", "true")
	}
	if params.CurrencyCode != "" {
		query.Set("currencyCode", params.CurrencyCode)
	}

	return query
}
