package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_NAME", "FRONTEND_PORT", "LISTINGS_API_URL", "AUTH_API_URL", "BACKEND_PROXY_URL",
	"ALLOWED_ORIGINS", "HTTP_CLIENT_TIMEOUT", "SESSION_IDLE_TIMEOUT", "FILTER_OPTIONS_CACHE_TTL",
	"HISTORY_MAX_ENTRIES", "SAVED_SEARCHES_PATH", "STDOUT_LOG_LEVEL", "STDOUT_LOG_JSON",
	"FLUENTBIT_ENABLED", "FLUENTBIT_HOST", "FLUENTBIT_PORT", "FLUENTBIT_LOG_LEVEL",
	"RABBITMQ_ENABLED", "RABBITMQ_URL", "SEARCH_EVENTS_EXCHANGE", "SEARCH_EVENTS_ROUTING_KEY",
}

// clearEnv убирает переменные окружающей среды на время теста.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		if prev, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, prev) })
		}
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "listings-frontend", cfg.AppName)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "http://localhost:8080/api", cfg.ListingsAPIURL)
	assert.Equal(t, "http://localhost:8080/api/auth", cfg.AuthAPIURL)
	assert.Equal(t, cfg.ListingsAPIURL, cfg.BackendURL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.FilterOptionsCacheTTL)
	assert.False(t, cfg.FluentBit.Enabled)
	assert.False(t, cfg.RabbitMQ.Enabled)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	clearEnv(t)
	for _, key := range configKeys {
		key := key
		t.Cleanup(func() { os.Unsetenv(key) })
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "FRONTEND_PORT=9000\n" +
		"LISTINGS_API_URL=https://api.example.com\n" +
		"ALLOWED_ORIGINS=https://a.example.com, ,https://b.example.com\n" +
		"SESSION_IDLE_TIMEOUT=90s\n" +
		"HISTORY_MAX_ENTRIES=not-a-number\n" +
		"FLUENTBIT_ENABLED=true\n" +
		"RABBITMQ_ENABLED=true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://api.example.com/auth", cfg.AuthAPIURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.SessionIdleTimeout)
	assert.Equal(t, 50, cfg.HistoryMaxEntries)
	// без FLUENTBIT_HOST Fluent Bit выключается
	assert.False(t, cfg.FluentBit.Enabled)
	assert.True(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, "search_events", cfg.RabbitMQ.Exchange)
	assert.Equal(t, "search.performed", cfg.RabbitMQ.RoutingKey)
}

func TestLoadConfig_InvalidURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTINGS_API_URL", "ftp://example.com")

	_, err := LoadConfig(missingEnvFile(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LISTINGS_API_URL")
}
