package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/agentic-research/sitemap/internal/config"
	"github.com/agentic-research/sitemap/internal/ctxlog"
)

var version = "dev"

var (
	configPath  string
	verbose     bool
	siteMapFile string
	rootDir     string
	noScan      bool
)

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "Path to sitemap.toml")
	f.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	f.StringVar(&siteMapFile, "site-map", "", "Declarative site map file (overrides siteMapFile)")
	f.StringVar(&rootDir, "root", "", "Code root to scan (overrides root)")
	f.BoolVar(&noScan, "no-scan", false, "Do not scan Go packages for //sitemap: directives")
}

var rootCmd = &cobra.Command{
	Use:          "sitemap",
	Short:        "Build navigation site maps from declarative files and annotated Go code",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), ctxlog.New(os.Stderr, level)))
	},
}

// loadConfig reads --config (or the defaults) and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return config.Config{}, err
		}
	}
	if cmd.Flags().Changed("site-map") {
		cfg.SiteMapFile = siteMapFile
	}
	if cmd.Flags().Changed("root") {
		cfg.Root = rootDir
	}
	if noScan {
		cfg.ScanModules = false
	}
	return cfg, cfg.Validate()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
