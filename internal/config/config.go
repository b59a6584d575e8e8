// Package config reads the server settings from command-line flags, each of
// which defaults from an environment variable.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"aerosense/internal/log"
)

type Config struct {
	Port     int
	LogLevel string
	LogDir   string

	MapboxToken   string
	MapboxBaseURL string
	MapboxProfile string

	OpenRouterKey     string
	OpenRouterModel   string
	OpenRouterBaseURL string

	TickInterval   time.Duration
	RouteTimeout   time.Duration
	RouteCacheSize int
	RouteCacheTTL  time.Duration

	// Seed for the simulation random source; 0 seeds from the clock.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Port:            4000,
		LogLevel:        "info",
		MapboxProfile:   "driving",
		OpenRouterModel: "anthropic/claude-3-haiku",
		TickInterval:    600 * time.Millisecond,
		RouteTimeout:    10 * time.Second,
		RouteCacheSize:  64,
		RouteCacheTTL:   30 * time.Minute,
	}
}

// Load applies environment overrides to the defaults, then parses args on
// top. getenv is usually os.Getenv.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	if err := cfg.fromEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("aerosense", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "logging level: debug, info, warn, error")
	fs.StringVar(&cfg.LogDir, "logdir", cfg.LogDir, "log file directory (stderr if empty)")
	fs.StringVar(&cfg.MapboxToken, "mapbox-token", cfg.MapboxToken, "Mapbox access token")
	fs.StringVar(&cfg.MapboxBaseURL, "mapbox-url", cfg.MapboxBaseURL, "Mapbox API base URL")
	fs.StringVar(&cfg.MapboxProfile, "mapbox-profile", cfg.MapboxProfile, "Mapbox directions profile")
	fs.StringVar(&cfg.OpenRouterKey, "openrouter-key", cfg.OpenRouterKey, "OpenRouter API key")
	fs.StringVar(&cfg.OpenRouterModel, "openrouter-model", cfg.OpenRouterModel, "OpenRouter model")
	fs.StringVar(&cfg.OpenRouterBaseURL, "openrouter-url", cfg.OpenRouterBaseURL, "OpenRouter API base URL")
	fs.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "mission tick interval")
	fs.DurationVar(&cfg.RouteTimeout, "route-timeout", cfg.RouteTimeout, "route request timeout")
	fs.IntVar(&cfg.RouteCacheSize, "route-cache-size", cfg.RouteCacheSize, "number of cached routes")
	fs.DurationVar(&cfg.RouteCacheTTL, "route-cache-ttl", cfg.RouteCacheTTL, "route cache lifetime")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "simulation random seed (0 = time based)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fromEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_DIR", &c.LogDir)
	str("MAPBOX_ACCESS_TOKEN", &c.MapboxToken)
	str("MAPBOX_BASE_URL", &c.MapboxBaseURL)
	str("MAPBOX_PROFILE", &c.MapboxProfile)
	str("OPENROUTER_API_KEY", &c.OpenRouterKey)
	str("OPENROUTER_MODEL", &c.OpenRouterModel)
	str("OPENROUTER_BASE_URL", &c.OpenRouterBaseURL)

	var errs []error
	intVar := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	durVar := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	intVar("PORT", &c.Port)
	intVar("ROUTE_CACHE_SIZE", &c.RouteCacheSize)
	durVar("TICK_INTERVAL", &c.TickInterval)
	durVar("ROUTE_TIMEOUT", &c.RouteTimeout)
	durVar("ROUTE_CACHE_TTL", &c.RouteCacheTTL)
	if v := getenv("SIM_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SIM_SEED: %w", err))
		} else {
			c.Seed = n
		}
	}
	return errors.Join(errs...)
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval must be positive, got %s", c.TickInterval))
	}
	if c.RouteTimeout < 0 {
		errs = append(errs, fmt.Errorf("route timeout must not be negative, got %s", c.RouteTimeout))
	}
	if c.RouteCacheSize < 0 {
		errs = append(errs, fmt.Errorf("route cache size must not be negative, got %d", c.RouteCacheSize))
	}
	if c.RouteCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("route cache ttl must not be negative, got %s", c.RouteCacheTTL))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
