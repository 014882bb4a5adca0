package amadeus

import (
	"context"
	"net/url"
	"unicode/utf8"

	"github.com/dharmasatrya/skysearch/internal/models"
)

const (
	LocationsPath     = "/v1/reference-data/locations"
	LocationsEndpoint = "locations"

	minKeywordLength = 2
	locationsLimit   = "20"
)

type locationsResponse struct {
	Data []location `json:"data"`
}

type location struct {
	IATACode string           `json:"iataCode"`
	Name     string           `json:"name"`
	Address  *locationAddress `json:"address,omitempty"`
}

type locationAddress struct {
	CityName    string `json:"cityName"`
	CountryName string `json:"countryName"`
}

// SearchAirports looks up airports and cities matching keyword. It is called
// on every keystroke, so failures are logged and degrade to no suggestions.
func (c *Client) SearchAirports(ctx context.Context, keyword string) []models.Airport {
	if utf8.RuneCountInString(keyword) < minKeywordLength {
		return []models.Airport{}
	}

	query := url.Values{
		"keyword":     {keyword},
		"subType":     {"AIRPORT,CITY"},
		"page[limit]": {locationsLimit},
	}

	var resp locationsResponse
	if err := c.get(ctx, LocationsEndpoint, LocationsPath, query, &resp); err != nil {
		c.logger.Warn().Err(err).Str("keyword", keyword).Msg("airport lookup failed")
		return []models.Airport{}
	}

	airports := make([]models.Airport, 0, len(resp.Data))
	for _, loc := range resp.Data {
		airport := models.Airport{
			IATACode: loc.IATACode,
			Name:     loc.Name,
		}
		if loc.Address != nil {
			airport.CityName = loc.Address.CityName
			airport.CountryName = loc.Address.CountryName
		}
		airports = append(airports, airport)
	}
	return airports
}
