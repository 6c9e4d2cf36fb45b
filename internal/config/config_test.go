package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "INR", cfg.PaymentCurrency)
	assert.Equal(t, 10*time.Minute, cfg.ReclaimInterval)
	assert.Equal(t, time.Hour, cfg.ReclaimTimeout)
	assert.Equal(t, 30*time.Second, cfg.SettingsCacheTTL)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "hall", DBPassword: "pw", DBName: "hall_booking", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=hall password=pw dbname=hall_booking port=5432 sslmode=disable", cfg.DSN())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RECLAIM_TIMEOUT", "15m")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("AWS_REGION", "ap-south-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_S3_BUCKET", "reports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.ReclaimTimeout)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.True(t, cfg.S3Enabled())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())
}
