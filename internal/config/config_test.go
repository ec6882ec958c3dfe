package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_TYPE", "DB_PATH", "SESSION_FILE", "STRICT_PROGRESSION", "TELEMETRY", "REDIS_KEY_PREFIX"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, "./kowaiquest.db", cfg.DatabasePath)
	assert.Equal(t, "kowaiquest", cfg.RedisKeyPrefix)
	assert.Equal(t, "log", cfg.Telemetry)
	assert.False(t, cfg.StrictProgression)
	assert.NotEmpty(t, cfg.SessionFile)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/kowai")
	t.Setenv("SESSION_FILE", "/tmp/sessions.json")
	t.Setenv("STRICT_PROGRESSION", "true")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, "postgres://localhost/kowai", cfg.DatabaseURL)
	assert.Equal(t, "/tmp/sessions.json", cfg.SessionFile)
	assert.True(t, cfg.StrictProgression)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("REDIS_DB", "three")

	_, err := Load()
	assert.Error(t, err)
}
