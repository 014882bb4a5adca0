package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/dharmasatrya/skysearch/internal/amadeus"
	"github.com/dharmasatrya/skysearch/internal/cache"
	"github.com/dharmasatrya/skysearch/internal/credential"
	"github.com/dharmasatrya/skysearch/internal/debounce"
	"github.com/dharmasatrya/skysearch/internal/handler"
	"github.com/dharmasatrya/skysearch/internal/ratelimit"
)

type Config struct {
	Port            string
	AmadeusBaseURL  string
	ClientID        string
	ClientSecret    string
	UpstreamTimeout time.Duration
	UpstreamRPS     float64
	UpstreamBurst   int
	CacheEnabled    bool
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisTTL        time.Duration
	AirportDebounce time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
}

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg := loadConfig()
	logger := newLogger(cfg)

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		logger.Fatal().Msg("AMADEUS_CLIENT_ID and AMADEUS_CLIENT_SECRET must be set")
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(handler.RequestLogger(logger))

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	credentials := credential.NewCache(credential.Config{
		BaseURL:      cfg.AmadeusBaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		HTTPClient:   httpClient,
		Logger:       logger.With().Str("component", "credential").Logger(),
	})

	rateLimiter := ratelimit.NewEndpointLimiter(ratelimit.RateLimitConfig{
		RequestsPerSecond: cfg.UpstreamRPS,
		BurstSize:         cfg.UpstreamBurst,
	})
	// Suggestions fire per keystroke; keep them from draining the search quota.
	rateLimiter.SetEndpointLimit(amadeus.LocationsEndpoint, cfg.UpstreamRPS/2, cfg.UpstreamBurst/2+1)

	client := amadeus.NewClient(amadeus.Config{
		BaseURL:     cfg.AmadeusBaseURL,
		Credentials: credentials,
		HTTPClient:  httpClient,
		RateLimiter: rateLimiter,
		Logger:      logger.With().Str("component", "amadeus").Logger(),
	})

	var offerCache cache.Cache
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			TTL:      cfg.RedisTTL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		offerCache = redisCache
		logger.Info().
			Str("addr", cfg.RedisHost+":"+cfg.RedisPort).
			Dur("ttl", cfg.RedisTTL).
			Msg("redis cache enabled")
	} else {
		offerCache = cache.NewNoOpCache()
		logger.Info().Msg("cache disabled")
	}
	defer offerCache.Close()

	searchHandler := handler.NewSearchHandler(client, offerCache, logger.With().Str("component", "search").Logger())
	airportHandler := handler.NewAirportHandler(client, debounce.NewRegistry(cfg.AirportDebounce, 10*time.Minute))

	api := e.Group("/api/v1")
	api.GET("/airports", airportHandler.Search)
	api.GET("/flights/search", searchHandler.Search)
	api.POST("/flights/filter", searchHandler.Filter)
	e.GET("/health", handler.HealthHandler)

	logger.Info().Str("port", cfg.Port).Str("upstream", cfg.AmadeusBaseURL).Msg("starting flight search server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, e, ":"+cfg.Port, cfg.ShutdownTimeout); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		return
	}
	logger.Info().Msg("server stopped")
}

// serve runs e on addr until ctx is done, then drains in-flight requests
// for at most timeout.
func serve(ctx context.Context, e *echo.Echo, addr string, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loadConfig() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		AmadeusBaseURL:  strings.TrimRight(getEnv("AMADEUS_BASE_URL", "https://test.api.amadeus.com"), "/"),
		ClientID:        getEnv("AMADEUS_CLIENT_ID", ""),
		ClientSecret:    getEnv("AMADEUS_CLIENT_SECRET", ""),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamRPS:     getEnvFloat("UPSTREAM_RPS", ratelimit.DefaultConfig().RequestsPerSecond),
		UpstreamBurst:   getEnvInt("UPSTREAM_BURST", ratelimit.DefaultConfig().BurstSize),
		CacheEnabled:    getEnvBool("CACHE_ENABLED", false),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTTL:        getEnvDuration("REDIS_TTL", 5*time.Minute),
		AirportDebounce: getEnvDuration("AIRPORT_DEBOUNCE", debounce.DefaultDelay),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}
}

func newLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "skysearch").Logger()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return defaultValue
	}
	return f
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
