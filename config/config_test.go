package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_BACKEND", "SEARCH_BACKEND", "REDIS_ADDR", "JWT_ACCESS_TTL", "EVENTS_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "scan", cfg.SearchBackend)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.False(t, cfg.EventsEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Badger")
	t.Setenv("BADGER_PATH", "/tmp/graph")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("COOKIE_SECURE", "true")
	cfg := Load()

	assert.Equal(t, "badger", cfg.StoreBackend)
	assert.Equal(t, "/tmp/graph", cfg.BadgerPath)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "many")
	t.Setenv("JWT_REFRESH_TTL", "forever")
	t.Setenv("METRICS_ENABLED", "perhaps")
	cfg := Load()

	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTTL)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLists(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins: " http://a.test, ,http://b.test ",
		ElasticsearchAddrs: "http://es1:9200,http://es2:9200",
	}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ESAddrs())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "g", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/g?sslmode=disable", cfg.PostgresDSN())
}
