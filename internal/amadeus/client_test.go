package amadeus_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/skysearch/internal/amadeus"
	"github.com/dharmasatrya/skysearch/internal/credential"
	"github.com/dharmasatrya/skysearch/internal/models"
	"github.com/dharmasatrya/skysearch/internal/ratelimit"
)

type upstream struct {
	server     *httptest.Server
	tokenCalls int32
	dataCalls  int32
	data       http.HandlerFunc
}

func newUpstream(t *testing.T, data http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{data: data}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == credential.TokenPath {
			n := atomic.AddInt32(&u.tokenCalls, 1)
			fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":1799}`, n)
			return
		}
		atomic.AddInt32(&u.dataCalls, 1)
		u.data(w, r)
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) client() *amadeus.Client {
	creds := credential.NewCache(credential.Config{
		BaseURL:      u.server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Logger:       zerolog.Nop(),
	})
	return amadeus.NewClient(amadeus.Config{
		BaseURL:     u.server.URL,
		Credentials: creds,
		RateLimiter: ratelimit.NewEndpointLimiter(ratelimit.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 100}),
		Logger:      zerolog.Nop(),
	})
}

func TestSearchFlightOffers_RetriesOnceAfterUnauthorized(t *testing.T) {
	var seen []string
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		seen = append(seen, auth)
		if auth == "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[{"id":"1","price":{"total":"120.50","currency":"EUR"}}]}`))
	})

	offers, err := u.client().SearchFlightOffers(context.Background(), models.SearchParams{
		OriginLocationCode:      "MAD",
		DestinationLocationCode: "JFK",
		DepartureDate:           "2025-09-01",
		Adults:                  1,
	})

	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "120.50", offers[0].Price.Total)
	assert.Equal(t, int32(2), atomic.LoadInt32(&u.tokenCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&u.dataCalls))
	assert.Equal(t, []string{"Bearer token-1", "Bearer token-2"}, seen)
}

type recordingSource struct {
	*credential.Cache
	mu          sync.Mutex
	invalidated []string
}

func (r *recordingSource) InvalidateIf(token string) {
	r.mu.Lock()
	r.invalidated = append(r.invalidated, token)
	r.mu.Unlock()
	r.Cache.InvalidateIf(token)
}

func TestSearchFlightOffers_InvalidatesOnlyRejectedToken(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	})
	source := &recordingSource{Cache: credential.NewCache(credential.Config{
		BaseURL:      u.server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		Logger:       zerolog.Nop(),
	})}
	client := amadeus.NewClient(amadeus.Config{
		BaseURL:     u.server.URL,
		Credentials: source,
		Logger:      zerolog.Nop(),
	})

	_, err := client.SearchFlightOffers(context.Background(), models.SearchParams{
		OriginLocationCode:      "MAD",
		DestinationLocationCode: "JFK",
		DepartureDate:           "2025-09-01",
		Adults:                  1,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"token-1"}, source.invalidated)

	// The renewed credential survives a second, late report against token-1.
	source.InvalidateIf("token-1")
	cred, err := source.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", cred.Token)
	assert.Equal(t, int32(2), atomic.LoadInt32(&u.tokenCalls))
}

func TestSearchFlightOffers_SecondUnauthorizedSurfaces(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"code":38191,"title":"Invalid access token"}]}`))
	})

	offers, err := u.client().SearchFlightOffers(context.Background(), models.SearchParams{
		OriginLocationCode:      "MAD",
		DestinationLocationCode: "JFK",
		DepartureDate:           "2025-09-01",
		Adults:                  1,
	})

	require.Error(t, err)
	assert.Nil(t, offers)
	assert.True(t, errors.Is(err, amadeus.ErrRequest))
	var reqErr *amadeus.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&u.dataCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&u.tokenCalls))
}

func TestSearchFlightOffers_ServerErrorCarriesBody(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"detail":"departureDate in the past"}]}`))
	})

	_, err := u.client().SearchFlightOffers(context.Background(), models.SearchParams{
		OriginLocationCode:      "MAD",
		DestinationLocationCode: "JFK",
		DepartureDate:           "2020-01-01",
		Adults:                  1,
	})

	var reqErr *amadeus.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Contains(t, string(reqErr.Body), "departureDate in the past")
	assert.Equal(t, int32(1), atomic.LoadInt32(&u.dataCalls))
}

func TestSearchFlightOffers_AuthenticationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := amadeus.NewClient(amadeus.Config{
		BaseURL: server.URL,
		Credentials: credential.NewCache(credential.Config{
			BaseURL: server.URL,
			Logger:  zerolog.Nop(),
		}),
		Logger: zerolog.Nop(),
	})

	_, err := client.SearchFlightOffers(context.Background(), models.SearchParams{
		OriginLocationCode:      "MAD",
		DestinationLocationCode: "JFK",
		DepartureDate:           "2025-09-01",
		Adults:                  1,
	})

	assert.ErrorIs(t, err, credential.ErrAuthentication)
}

func TestSearchFlightOffers_QueryOmitsUnsetOptionals(t *testing.T) {
	var query map[string][]string
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, amadeus.FlightOffersPath, r.URL.Path)
		query = r.URL.Query()
		w.Write([]byte(`{"data":[]}`))
	})

	offers, err := u.client().SearchFlightOffers(context.Background(), models.SearchParams{
		OriginLocationCode:      "SYD",
		DestinationLocationCode: "BKK",
		DepartureDate:           "2025-11-02",
		Adults:                  2,
	})

	require.NoError(t, err)
	assert.Empty(t, offers)
	assert.Equal(t, map[string][]string{
		"originLocationCode":      {"SYD"},
		"destinationLocationCode": {"BKK"},
		"departureDate":           {"2025-11-02"},
		"adults":                  {"2"},
		"max":                     {"50"},
	}, query)
}

func TestSearchFlightOffers_QueryIncludesOptionals(t *testing.T) {
	var query map[string][]string
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	offers, err := u.client().SearchFlightOffers(context.Background(), models.SearchParams{
		OriginLocationCode:      "SYD",
		DestinationLocationCode: "BKK",
		DepartureDate:           "2025-11-02",
		ReturnDate:              "2025-11-12",
		Adults:                  1,
		Children:                1,
		Infants:                 1,
		Max:                     10,
		TravelClass:             models.TravelClassBusiness,
		NonStop:                 true,
		CurrencyCode:            "AUD",
	})

	require.NoError(t, err)
	assert.NotNil(t, offers)
	assert.Empty(t, offers)
	assert.Equal(t, "2025-11-12", query["returnDate"][0])
	assert.Equal(t, "1", query["children"][0])
	assert.Equal(t, "1", query["infants"][0])
	assert.Equal(t, "10", query["max"][0])
	assert.Equal(t, "BUSINESS", query["travelClass"][0])
	assert.Equal(t, "true", query["nonStop"][0])
	assert.Equal(t, "AUD", query["currencyCode"][0])
}

func TestSearchAirports_ShortKeywordSkipsNetwork(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected upstream call")
	})

	airports := u.client().SearchAirports(context.Background(), "L")

	assert.NotNil(t, airports)
	assert.Empty(t, airports)
	assert.Equal(t, int32(0), atomic.LoadInt32(&u.tokenCalls))
}

func TestSearchAirports_MapsLocations(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, amadeus.LocationsPath, r.URL.Path)
		assert.Equal(t, "LON", r.URL.Query().Get("keyword"))
		assert.Equal(t, "AIRPORT,CITY", r.URL.Query().Get("subType"))
		assert.Equal(t, "20", r.URL.Query().Get("page[limit]"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":[
			{"iataCode":"LHR","name":"HEATHROW","address":{"cityName":"LONDON","countryName":"UNITED KINGDOM"}},
			{"iataCode":"LON","name":"LONDON"}
		]}`))
	})

	airports := u.client().SearchAirports(context.Background(), "LON")

	assert.Equal(t, []models.Airport{
		{IATACode: "LHR", Name: "HEATHROW", CityName: "LONDON", CountryName: "UNITED KINGDOM"},
		{IATACode: "LON", Name: "LONDON", CityName: "", CountryName: ""},
	}, airports)
}

func TestSearchAirports_FailureYieldsEmpty(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	airports := u.client().SearchAirports(context.Background(), "PAR")

	assert.NotNil(t, airports)
	assert.Empty(t, airports)
}

func TestSearchAirports_MalformedBodyYieldsEmpty(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	airports := u.client().SearchAirports(context.Background(), "PAR")

	assert.Empty(t, airports)
}
