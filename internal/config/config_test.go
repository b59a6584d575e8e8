package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, ":4000", cfg.Addr())
	assert.Equal(t, 600*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "driving", cfg.MapboxProfile)
	assert.Equal(t, "anthropic/claude-3-haiku", cfg.OpenRouterModel)
}

func TestLoadFromEnv(t *testing.T) {
	cfg, err := Load(nil, envMap(map[string]string{
		"PORT":                "8081",
		"LOG_LEVEL":           "debug",
		"MAPBOX_ACCESS_TOKEN": "pk.test",
		"OPENROUTER_API_KEY":  "sk-or",
		"TICK_INTERVAL":       "100ms",
		"ROUTE_TIMEOUT":       "2s",
		"ROUTE_CACHE_SIZE":    "8",
		"ROUTE_CACHE_TTL":     "1h",
		"SIM_SEED":            "99",
	}))
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "pk.test", cfg.MapboxToken)
	assert.Equal(t, "sk-or", cfg.OpenRouterKey)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 2*time.Second, cfg.RouteTimeout)
	assert.Equal(t, 8, cfg.RouteCacheSize)
	assert.Equal(t, time.Hour, cfg.RouteCacheTTL)
	assert.EqualValues(t, 99, cfg.Seed)
}

func TestFlagsOverrideEnv(t *testing.T) {
	cfg, err := Load([]string{"-port", "9000", "-tick", "50ms"}, envMap(map[string]string{
		"PORT":          "8081",
		"TICK_INTERVAL": "100ms",
	}))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{"bad env int", nil, map[string]string{"PORT": "http"}, "PORT"},
		{"bad env duration", nil, map[string]string{"TICK_INTERVAL": "fast"}, "TICK_INTERVAL"},
		{"bad seed", nil, map[string]string{"SIM_SEED": "x"}, "SIM_SEED"},
		{"port out of range", []string{"-port", "70000"}, nil, "out of range"},
		{"zero tick", []string{"-tick", "0s"}, nil, "tick interval"},
		{"bad log level", []string{"-loglevel", "loud"}, nil, "invalid log level"},
		{"unknown flag", []string{"-verbose"}, nil, "verbose"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, envMap(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
