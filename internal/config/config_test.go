package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-modules/internal/umid"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "agent-modules", cfg.Service)
	assert.Equal(t, filepath.Join(dir, ".agent-modules", "modules.db"), cfg.DBPath)
	assert.Equal(t, 30*24*time.Hour, cfg.Lifecycle.ArchiveAfter)
	assert.Equal(t, 90*24*time.Hour, cfg.Lifecycle.RemoveAfter)
	assert.Equal(t, 10, cfg.Summary.TopActive)
	assert.Equal(t, 7*24*time.Hour, cfg.Summary.RecentWindow)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service: notion-sync
db_path: ~/data/m.db
lifecycle:
  archive_after: 240h
  remove_after: 480h
summary:
  top_active: 3
log:
  format: json
`), 0o644))
	t.Setenv("AGENT_MODULES_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "notion-sync", cfg.Service)
	assert.Equal(t, filepath.Join(dir, "data", "m.db"), cfg.DBPath)
	assert.Equal(t, 10*24*time.Hour, cfg.Lifecycle.ArchiveAfter)
	assert.Equal(t, 20*24*time.Hour, cfg.Policy().RemoveAfter)
	assert.Equal(t, 3, cfg.SummaryOptions().TopActive)
	assert.Equal(t, 5, cfg.SummaryOptions().RecentLimit)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadSearchesWorkingDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("service: from-cwd\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-cwd", cfg.Service)
}

func TestShortDBEnv(t *testing.T) {
	isolate(t)
	t.Setenv("AGENT_MODULES_DB", "/tmp/short.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/short.db", cfg.DBPath)
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "explicit path must exist")

	t.Setenv("AGENT_MODULES_SERVICE", "Bad Service")
	_, err = Load("")
	assert.ErrorIs(t, err, umid.ErrInvalidService)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"service", func(c *Config) { c.Service = "x" }},
		{"db", func(c *Config) { c.DBPath = "" }},
		{"archive", func(c *Config) { c.Lifecycle.ArchiveAfter = 0 }},
		{"order", func(c *Config) { c.Lifecycle.RemoveAfter = time.Hour }},
		{"summary", func(c *Config) { c.Summary.TopActive = -1 }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
	}
	require.NoError(t, DefaultConfig().Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
