package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	figmasync "github.com/kataras/figma-sync"
	"github.com/kataras/figma-sync/internal/config"
	"github.com/kataras/figma-sync/pkg/syncer"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = figmasync.Version

var (
	configFile  string
	envFile     string
	cacheDir    string
	accessToken string
	verbose     bool

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "figma-sync",
		Short: "Keep a local mirror of Figma design tokens and components",
		Long: "A tool to sync design tokens and components from Figma files into a local cache, " +
			"query them, and serve them over HTTP",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return loadConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./figma-sync.yaml or ~/.config/figma-sync/figma-sync.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before the configuration")
	rootCmd.PersistentFlags().StringVarP(&cacheDir, "cache-dir", "d", "", "Cache directory (overrides cache.dir)")
	rootCmd.PersistentFlags().StringVarP(&accessToken, "token", "t", "", "Figma Personal Access Token (overrides figma.token)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print progress messages")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("figma-sync version %s\n", version)
		},
	}

	rootCmd.AddCommand(
		newSyncCmd(),
		newStatusCmd(),
		newTokensCmd(),
		newComponentsCmd(),
		newReportCmd(),
		newServeCmd(),
		versionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the dotenv file, then the configuration, then applies
// the command line overrides.
func loadConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(envFile); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) || cmd.Flags().Changed("env-file") {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	loaded, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if cacheDir != "" {
		loaded.Cache.Dir = cacheDir
	}
	if accessToken != "" {
		loaded.Figma.Token = accessToken
	}
	cfg = loaded
	return nil
}

// serviceOptions maps the configuration onto the service options.
func serviceOptions(cfg *config.Config, logger figmasync.Logger) (figmasync.Options, error) {
	if err := config.ValidateRemote(cfg); err != nil {
		return figmasync.Options{}, err
	}
	files, err := cfg.SyncFiles()
	if err != nil {
		return figmasync.Options{}, err
	}

	opts := figmasync.Options{
		AccessToken:     cfg.Figma.Token,
		BaseURL:         cfg.Figma.BaseURL,
		Files:           files,
		MaxCallsPerHour: cfg.RateLimit.MaxCallsPerHour,
		CacheDir:        cfg.Cache.Dir,
		CacheTTL:        cfg.Cache.TTL,
		Previews: syncer.PreviewConfig{
			Enabled:     cfg.Previews.Enabled,
			Format:      cfg.Previews.Format,
			Scale:       cfg.Previews.Scale,
			DownloadDir: cfg.Previews.DownloadDir,
		},
		Logger: logger,
	}
	if cfg.Sync.AutoEnabled {
		opts.AutoSyncInterval = cfg.Sync.AutoInterval
	}
	return opts, nil
}

// cliLogger implements figmasync.Logger with colored terminal output.
// Info messages are printed only in verbose mode.
type cliLogger struct {
	verbose bool
}

func (l *cliLogger) Infof(format string, args ...any) {
	if l.verbose {
		color.New(color.FgYellow).Fprintf(os.Stderr, format+"\n", args...)
	}
}

func (l *cliLogger) Warnf(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

func (l *cliLogger) Errorf(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s (%s ago)", t.Local().Format(time.RFC1123), time.Since(t).Round(time.Second))
}
