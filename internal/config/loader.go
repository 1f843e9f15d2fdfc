package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FIGMA_SYNC_CACHE_DIR.
const EnvPrefix = "FIGMA_SYNC"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	file  string
	paths []string
}

// NewLoader creates a loader. When file is not empty it must exist and is
// the only file read; otherwise figma-sync.yaml is searched for in the
// working directory and then in $HOME/.config/figma-sync.
func NewLoader(file string) Loader {
	l := &loader{file: file, paths: []string{"."}}
	if home, err := os.UserHomeDir(); err == nil {
		l.paths = append(l.paths, filepath.Join(home, ".config", "figma-sync"))
	}
	return l
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName("figma-sync")
		v.SetConfigType("yaml")
		for _, p := range l.paths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., FIGMA_SYNC_CACHE_TTL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The token is also read from the conventional FIGMA_TOKEN.
	v.BindEnv("figma.token", EnvPrefix+"_FIGMA_TOKEN", "FIGMA_TOKEN")
	v.BindEnv("figma.base_url")
	v.BindEnv("figma.file_ids")

	v.BindEnv("rate_limit.max_calls_per_hour")

	v.BindEnv("cache.dir")
	v.BindEnv("cache.ttl")

	v.BindEnv("sync.auto_enabled")
	v.BindEnv("sync.auto_interval")

	v.BindEnv("previews.enabled")
	v.BindEnv("previews.format")
	v.BindEnv("previews.scale")
	v.BindEnv("previews.download_dir")

	v.BindEnv("server.addr")

	v.BindEnv("logging.level")
	v.BindEnv("logging.format")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("figma.base_url", defaults.Figma.BaseURL)

	v.SetDefault("rate_limit.max_calls_per_hour", defaults.RateLimit.MaxCallsPerHour)

	v.SetDefault("cache.dir", defaults.Cache.Dir)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)

	v.SetDefault("sync.auto_enabled", defaults.Sync.AutoEnabled)
	v.SetDefault("sync.auto_interval", defaults.Sync.AutoInterval)

	v.SetDefault("previews.enabled", defaults.Previews.Enabled)
	v.SetDefault("previews.format", defaults.Previews.Format)
	v.SetDefault("previews.scale", defaults.Previews.Scale)

	v.SetDefault("server.addr", defaults.Server.Addr)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
}

// LoadConfig is a convenience function that loads configuration from file,
// or from the default search paths when file is empty.
func LoadConfig(file string) (*Config, error) {
	return NewLoader(file).Load()
}
