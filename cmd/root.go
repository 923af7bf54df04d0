package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bsundsrud/comstar/internal/config"
	"github.com/bsundsrud/comstar/internal/logging"
	"github.com/bsundsrud/comstar/internal/ratelimit"
	"github.com/bsundsrud/comstar/internal/transport"
)

var (
	cfgFile   string
	dir       string
	logLevel  string
	logFormat string
	progJSON  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "comstar",
	Short: "Content-addressed directory synchronization",
	Long: `comstar generates, validates, synchronizes, and pushes content-addressed
manifests of a directory tree against an http(s), file, or object-store
source.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded

		if !cmd.Flags().Changed("log-level") {
			logLevel = cfg.Defaults.LogLevel
		}
		if !cmd.Flags().Changed("log-format") {
			logFormat = cfg.Defaults.LogFormat
		}
		logging.Setup(os.Stderr, logLevel, logFormat)

		if cfg.Defaults.BandwidthLimit > 0 {
			transport.BandwidthLimiter = ratelimit.NewLimiter(cfg.Defaults.BandwidthLimit)
		}

		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolving working directory: %w", err)
			}
			dir = wd
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving --dir: %w", err)
		}
		dir = abs
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ~/.config/comstar/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dir, "dir", "", "directory to operate on (default: current working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&progJSON, "progress-json", false, "emit machine-readable JSON progress instead of a live renderer")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
