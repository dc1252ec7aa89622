package config

import (
	"os"
	"testing"
	"time"

	"github.com/clinicshop/storefront/internal/domain"
	"github.com/clinicshop/storefront/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, repository.DriverRedis, cfg.CartStore)
	assert.Equal(t, 0.20, cfg.Pricing.TaxRate)
	assert.Equal(t, 50.0, cfg.Pricing.FreeShippingThreshold)
	assert.Equal(t, 5.99, cfg.Pricing.Rates[domain.ShippingStandard])
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, uint32(5), cfg.BreakerMaxFailures)
	assert.Equal(t, 2*time.Second, cfg.CartIOTimeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CART_STORE", "SQLite")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("TAX_RATE", "0.1")
	t.Setenv("SHIPPING_RATE_EXPRESS", "9.5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("BREAKER_MAX_FAILURES", "8")
	t.Setenv("CART_IO_TIMEOUT", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, repository.DriverSQLite, cfg.CartStore)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 0.1, cfg.Pricing.TaxRate)
	assert.Equal(t, 9.5, cfg.Pricing.Rates[domain.ShippingExpress])
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, uint32(8), cfg.BreakerMaxFailures)
	assert.Equal(t, 500*time.Millisecond, cfg.CartIOTimeout)
	assert.Equal(t, repository.DriverSQLite, cfg.RepositoryOptions().Driver)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BACKEND_TIMEOUT", "soon")
	t.Setenv("TAX_RATE", "-1")
	t.Setenv("REDIS_DB", "x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 0.20, cfg.Pricing.TaxRate)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoad_BreakerFailuresOutOfRangeFallBack(t *testing.T) {
	chdir(t, t.TempDir())

	for _, value := range []string{"4294967296", "-3", "many"} {
		t.Setenv("BREAKER_MAX_FAILURES", value)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, uint32(5), cfg.BreakerMaxFailures, value)
	}
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("CART_STORE", "cassandra")
	_, err := Load()
	assert.ErrorContains(t, err, "CART_STORE")

	t.Setenv("CART_STORE", "memory")
	t.Setenv("BACKEND_URL", "/api")
	_, err = Load()
	assert.ErrorContains(t, err, "BACKEND_URL")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores the original one on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
