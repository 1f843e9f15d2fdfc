package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kataras/figma-sync/pkg/syncer"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "figma-sync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// loadFrom loads from an empty directory so a developer's own config file
// never leaks into the test.
func loadFrom(t *testing.T, file string) (*Config, error) {
	t.Helper()
	return (&loader{file: file, paths: []string{t.TempDir()}}).Load()
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, Validate(cfg))
	assert.Equal(t, 1000, cfg.RateLimit.MaxCallsPerHour)
	assert.Equal(t, ".figma-sync", cfg.Cache.Dir)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 30*time.Minute, cfg.Sync.AutoInterval)
	assert.Equal(t, "png", cfg.Previews.Format)
	assert.Equal(t, 2.0, cfg.Previews.Scale)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	assert.ErrorIs(t, ValidateRemote(cfg), ErrMissingToken)
	assert.ErrorIs(t, ValidateRemote(cfg), ErrNoFiles)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("FIGMA_TOKEN", "")

	cfg, err := loadFrom(t, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
figma:
  token: from-file
  files:
    - id: FILEA
      priority: 2
    - url: https://www.figma.com/design/FILEB/Design-System?node-id=1-2
      priority: 1
cache:
  dir: /tmp/cache
  ttl: 15m
sync:
  auto_enabled: true
  auto_interval: 5m
logging:
  level: debug
`)

	t.Setenv("FIGMA_SYNC_FIGMA_TOKEN", "from-env")
	t.Setenv("FIGMA_SYNC_RATE_LIMIT_MAX_CALLS_PER_HOUR", "50")

	cfg, err := loadFrom(t, path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Figma.Token)
	assert.Equal(t, 50, cfg.RateLimit.MaxCallsPerHour)
	assert.Equal(t, "/tmp/cache", cfg.Cache.Dir)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Sync.AutoEnabled)
	assert.Equal(t, 5*time.Minute, cfg.Sync.AutoInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, "console", cfg.Logging.Format)
	require.NoError(t, ValidateRemote(cfg))

	files, err := cfg.SyncFiles()
	require.NoError(t, err)
	assert.Equal(t, []syncer.File{
		{ID: "FILEA", Priority: 2},
		{ID: "FILEB", Priority: 1, NodeIDs: []string{"1:2"}},
	}, files)
}

func TestLoad_FileIDsFromEnv(t *testing.T) {
	t.Setenv("FIGMA_TOKEN", "tok")
	t.Setenv("FIGMA_SYNC_FIGMA_FILE_IDS", "KEY1,KEY2")

	cfg, err := loadFrom(t, "")
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.Figma.Token)

	files, err := cfg.SyncFiles()
	require.NoError(t, err)
	assert.Equal(t, []syncer.File{{ID: "KEY1"}, {ID: "KEY2"}}, files)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := loadFrom(t, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "figma: [unclosed")
	_, err := loadFrom(t, path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero budget", func(c *Config) { c.RateLimit.MaxCallsPerHour = 0 }, "rate_limit.max_calls_per_hour"},
		{"unknown level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level must be one of"},
		{"unknown format", func(c *Config) { c.Previews.Format = "gif" }, "previews.format must be one of"},
		{"empty cache dir", func(c *Config) { c.Cache.Dir = "" }, "cache.dir is required"},
		{"bad base url", func(c *Config) { c.Figma.BaseURL = "not a url" }, "figma.base_url must be a valid URL"},
		{"file without id or url", func(c *Config) { c.Figma.Files = []FileConfig{{Priority: 1}} }, "figma.files[0].id is required"},
		{"auto sync without interval", func(c *Config) {
			c.Sync.AutoEnabled = true
			c.Sync.AutoInterval = 0
		}, "sync.auto_interval is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSyncFiles_Dedup(t *testing.T) {
	cfg := Default()
	cfg.Figma.Files = []FileConfig{{ID: "A", Priority: 1}}
	cfg.Figma.FileIDs = []string{"A", "https://www.figma.com/file/B/x"}

	files, err := cfg.SyncFiles()
	require.NoError(t, err)
	assert.Equal(t, []syncer.File{{ID: "A", Priority: 1}, {ID: "B"}}, files)
}

func TestSyncFiles_InvalidURL(t *testing.T) {
	cfg := Default()
	cfg.Figma.Files = []FileConfig{{URL: "https://example.com/file/X"}}

	_, err := cfg.SyncFiles()
	assert.Error(t, err)
}
