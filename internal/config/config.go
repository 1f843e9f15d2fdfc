// Package config loads the figma-sync configuration from defaults, an
// optional figma-sync.yaml file and FIGMA_SYNC_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/syncer"
)

// Config is the complete figma-sync configuration.
type Config struct {
	Figma     FigmaConfig     `yaml:"figma" mapstructure:"figma"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Sync      SyncConfig      `yaml:"sync" mapstructure:"sync"`
	Previews  PreviewsConfig  `yaml:"previews" mapstructure:"previews"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// FigmaConfig configures access to the Figma REST API.
type FigmaConfig struct {
	Token   string       `yaml:"token" mapstructure:"token"`
	BaseURL string       `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Files   []FileConfig `yaml:"files" mapstructure:"files" validate:"dive"`
	// FileIDs is a shorthand for files without priority or node scope,
	// handy as FIGMA_SYNC_FIGMA_FILE_IDS=key1,key2.
	FileIDs []string `yaml:"file_ids" mapstructure:"file_ids"`
}

// FileConfig is one synced file. Either ID or URL must be set; when URL
// carries node ids and NodeIDs is empty, the URL's node ids are used.
type FileConfig struct {
	ID       string   `yaml:"id" mapstructure:"id" validate:"required_without=URL"`
	URL      string   `yaml:"url" mapstructure:"url" validate:"omitempty,url"`
	Priority int      `yaml:"priority" mapstructure:"priority"` // lower syncs first
	NodeIDs  []string `yaml:"node_ids" mapstructure:"node_ids"`
}

// RateLimitConfig bounds calls to the remote API.
type RateLimitConfig struct {
	MaxCallsPerHour int `yaml:"max_calls_per_hour" mapstructure:"max_calls_per_hour" validate:"gt=0"`
}

// CacheConfig configures the local snapshot.
type CacheConfig struct {
	Dir string        `yaml:"dir" mapstructure:"dir" validate:"required"`
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
}

// SyncConfig configures automatic syncing.
type SyncConfig struct {
	AutoEnabled  bool          `yaml:"auto_enabled" mapstructure:"auto_enabled"`
	AutoInterval time.Duration `yaml:"auto_interval" mapstructure:"auto_interval" validate:"required_if=AutoEnabled true,gte=0"`
}

// PreviewsConfig configures component preview rendering.
type PreviewsConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Format      string  `yaml:"format" mapstructure:"format" validate:"oneof=png jpg svg pdf"`
	Scale       float64 `yaml:"scale" mapstructure:"scale" validate:"gt=0,lte=4"`
	DownloadDir string  `yaml:"download_dir" mapstructure:"download_dir"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr" validate:"required"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// Default returns a configuration with the default values.
func Default() *Config {
	return &Config{
		Figma: FigmaConfig{
			BaseURL: figma.DefaultBaseURL,
		},
		RateLimit: RateLimitConfig{
			MaxCallsPerHour: figma.DefaultMaxCallsPerHour,
		},
		Cache: CacheConfig{
			Dir: ".figma-sync",
			TTL: time.Hour,
		},
		Sync: SyncConfig{
			AutoEnabled:  false,
			AutoInterval: 30 * time.Minute,
		},
		Previews: PreviewsConfig{
			Enabled: false,
			Format:  "png",
			Scale:   2,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// SyncFiles resolves the configured files into sync targets. Entries given
// as URLs are reduced to their file key and node ids. A file listed twice
// keeps its first entry.
func (c *Config) SyncFiles() ([]syncer.File, error) {
	var (
		files = make([]syncer.File, 0, len(c.Figma.Files)+len(c.Figma.FileIDs))
		seen  = make(map[string]struct{})
	)

	add := func(f syncer.File) {
		if _, ok := seen[f.ID]; ok {
			return
		}
		seen[f.ID] = struct{}{}
		files = append(files, f)
	}

	for i, fc := range c.Figma.Files {
		ref := fc.ID
		if ref == "" {
			ref = fc.URL
		}
		key, err := figma.ResolveFileKey(ref)
		if err != nil {
			return nil, fmt.Errorf("figma.files[%d]: %w", i, err)
		}

		nodeIDs := fc.NodeIDs
		if len(nodeIDs) == 0 && fc.URL != "" {
			if nodeIDs, err = figma.ExtractNodeIDs(fc.URL); err != nil {
				return nil, fmt.Errorf("figma.files[%d]: %w", i, err)
			}
		}

		add(syncer.File{ID: key, Priority: fc.Priority, NodeIDs: nodeIDs})
	}

	for i, ref := range c.Figma.FileIDs {
		key, err := figma.ResolveFileKey(ref)
		if err != nil {
			return nil, fmt.Errorf("figma.file_ids[%d]: %w", i, err)
		}
		add(syncer.File{ID: key})
	}

	return files, nil
}
