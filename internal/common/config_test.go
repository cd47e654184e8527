package common_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsk-labs/label-sorter/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := common.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(64<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 1, cfg.Sorter.Workers)
	assert.Equal(t, "https://apiv2.shiprocket.in/v1/external", cfg.Shiprocket.BaseURL)
	assert.Empty(t, cfg.History.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  addr: ":9090"
sorter:
  workers: 4
  rules_file: /etc/labelsort/rules.json
history:
  dsn: /var/lib/labelsort/runs.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := common.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Sorter.Workers)
	assert.Equal(t, "/etc/labelsort/rules.json", cfg.Sorter.RulesFile)
	assert.Equal(t, "/var/lib/labelsort/runs.db", cfg.History.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := common.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LABELSORT_SORTER_WORKERS", "8")
	t.Setenv("LABELSORT_SERVER_ADDR", ":7070")

	cfg, err := common.Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Sorter.Workers)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	cfg, err := common.Load("")
	require.NoError(t, err)

	cfg.Sorter.Workers = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	cfg.Sorter.Workers = 2
	cfg.Server.Addr = ""
	assert.Error(t, cfg.Validate())
}
