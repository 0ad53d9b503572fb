package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_clients.up.sql",
		"000001_clients.down.sql",
		"000007_client_merges.up.sql",
		"000003_relationships.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	latest, err := getLatestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, latest)
}

func TestGetLatestVersion_Empty(t *testing.T) {
	_, err := getLatestVersion(t.TempDir())
	assert.Error(t, err)
}

func TestResolveMigrationFolder(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	dir := t.TempDir()

	ms := NewMigrationService(logger, &MigrationConfig{MigrationFolderPath: dir})
	assert.Equal(t, dir, ms.resolveMigrationFolder())

	wd, err := os.Getwd()
	require.NoError(t, err)
	ms = NewMigrationService(logger, &MigrationConfig{MigrationFolderPath: "missing/pg"})
	assert.Equal(t, filepath.Join(wd, "missing/pg"), ms.resolveMigrationFolder())
}

func TestConfigDSN(t *testing.T) {
	config := Config{Host: "db", Port: "5432", User: "fern", Password: "secret", Name: "fern", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=fern password=secret dbname=fern sslmode=disable", config.DSN())
}
