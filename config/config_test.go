package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "fern-api", cfg.AppName)
	assert.Equal(t, "greedy", cfg.DetectionStrategy)
	assert.Equal(t, "55", cfg.PhoneCountryCode)
	assert.Equal(t, []int{10, 11}, cfg.PhoneNationalLengths)
	assert.Equal(t, 12*time.Hour, cfg.BatchSessionTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.RedisEnabled)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DETECTION_STRATEGY=transitive\nFERN_TEST_ONLY=1\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DETECTION_STRATEGY")
		os.Unsetenv("FERN_TEST_ONLY")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "transitive", cfg.DetectionStrategy)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("BATCH_SESSION_TTL", "30m")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.BatchSessionTTL)
}
