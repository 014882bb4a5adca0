package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/skysearch/internal/debounce"
	"github.com/dharmasatrya/skysearch/internal/models"
)

const SessionHeader = "X-Session-ID"

type AirportSearcher interface {
	SearchAirports(ctx context.Context, keyword string) []models.Airport
}

type AirportHandler struct {
	searcher   AirportSearcher
	debouncers *debounce.Registry
}

func NewAirportHandler(searcher AirportSearcher, debouncers *debounce.Registry) *AirportHandler {
	return &AirportHandler{
		searcher:   searcher,
		debouncers: debouncers,
	}
}

// Search serves search-as-you-type suggestions. Lookups are debounced per
// session; a request overtaken by a newer keystroke answers with no data and
// superseded set. Upstream failures never reach the client.
func (h *AirportHandler) Search(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))

	session := c.Request().Header.Get(SessionHeader)
	if session == "" {
		session = c.RealIP()
	}

	airports, ok, err := debounce.Run(c.Request().Context(), h.debouncers.Get(session),
		func(ctx context.Context) ([]models.Airport, error) {
			return h.searcher.SearchAirports(ctx, keyword), nil
		})
	if err != nil || !ok {
		return c.JSON(http.StatusOK, models.AirportResponse{
			Data:       []models.Airport{},
			Superseded: true,
		})
	}

	return c.JSON(http.StatusOK, models.AirportResponse{Data: airports})
}
