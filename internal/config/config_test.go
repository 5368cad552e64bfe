package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CONFIG_FILE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "development")
	t.Setenv("JUDGE_FALLBACK", "")
	t.Setenv("JUDGE_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SIGNUP_BONUS", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, FallbackRandom, cfg.Judge.Fallback)
	assert.Equal(t, 5*time.Second, cfg.Judge.Timeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "250", cfg.App.SignupBonus.String())
	assert.Equal(t, 7*24*time.Hour, cfg.App.AppealWindow)
	assert.Equal(t, "prophet", cfg.Kafka.TopicPrefix)
}

func TestLoadProductionDefaultsToRejectFallback(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JUDGE_FALLBACK", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, FallbackReject, cfg.Judge.Fallback)
	assert.True(t, cfg.IsProduction())
}

func TestLoadYAMLFileUnderEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prophet.yaml")
	yamlDoc := `
app:
  env: staging
  jwt_secret: from-file
  signup_bonus: 50
database:
  driver: sqlite
  sqlite_path: /tmp/prophet.db
judge:
  timeout: 3s
  fallback: reject
rate_limit:
  requests_per_minute: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JUDGE_FALLBACK", "")
	t.Setenv("JUDGE_TIMEOUT", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, "from-file", cfg.App.JWTSecret)
	assert.Equal(t, "50", cfg.App.SignupBonus.String())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.Judge.Timeout)
	assert.Equal(t, FallbackReject, cfg.Judge.Fallback)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
}

func TestValidateRejectsUnknownFallback(t *testing.T) {
	cfg := Defaults()
	cfg.App.JWTSecret = "secret"
	cfg.Judge.Fallback = "coin"

	assert.Error(t, cfg.Validate())
}
