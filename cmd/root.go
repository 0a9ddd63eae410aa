package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/chefscore-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/chefscore-cli/internal/config"
	"github.com/KaramelBytes/chefscore-cli/internal/dataset"
	"github.com/KaramelBytes/chefscore-cli/internal/logging"
	"github.com/KaramelBytes/chefscore-cli/internal/ranking"
	"github.com/KaramelBytes/chefscore-cli/internal/roster"
	"github.com/KaramelBytes/chefscore-cli/internal/transport"
	"github.com/KaramelBytes/chefscore-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	debug    bool
	logLevel string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chefscore",
	Short: "ChefScore CLI: weekly clan analytics from game score exports",
	Long: `ChefScore ingests weekly per-player score exports (CSV or XLSX), ranks players,
and derives clan analytics: totals, category correlations, contribution curves and histograms.
Weeks can be stored in named datasets, fetched over HTTP, or served as a JSON API.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.chefscore/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults via currentConfig
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	applyFlagOverrides(c)
	cfg = c

	l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: logger: %v\n", err)
		return
	}
	logger = l
}

func applyFlagOverrides(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		c.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		c.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		c.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		c.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if f.Changed("log-level") && logLevel != "" {
		c.LogLevel = logLevel
	}
	if debug {
		c.LogLevel = "debug"
	}
}

// currentConfig returns the loaded configuration, loading it on demand when
// the command runs without Execute (as in tests).
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(c)
	return c, nil
}

func appLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// rosterOptions derives normalizer options from config; a non-empty
// delimiter flag wins over the configured one.
func rosterOptions(c *cfgpkg.Global, delimiter string) (roster.Options, error) {
	if delimiter == "" {
		delimiter = c.Delimiter
	}
	d, err := cfgpkg.ParseDelimiter(delimiter)
	if err != nil {
		return roster.Options{}, err
	}
	th, dec := c.Separators()
	return roster.Options{
		Delimiter:          d,
		ThousandsSeparator: th,
		DecimalSeparator:   dec,
		Logger:             appLogger(),
	}, nil
}

func rankingOptions(c *cfgpkg.Global) ranking.Options {
	return ranking.Options{Language: c.LanguageTag()}
}

func snapshotOptions(c *cfgpkg.Global) analysis.SnapshotOptions {
	opt := analysis.DefaultSnapshotOptions()
	if c.HistogramColumn != "" {
		opt.HistogramColumn = c.HistogramColumn
	}
	if c.HistogramBuckets > 0 {
		opt.Buckets = c.HistogramBuckets
	}
	return opt
}

func httpOptions(c *cfgpkg.Global) transport.HTTPOptions {
	return transport.HTTPOptions{
		Timeout:     time.Duration(c.HTTPTimeoutSec) * time.Second,
		MaxAttempts: c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		Logger:      appLogger(),
	}
}

// datasetsRoot resolves datasets_dir, expanding a leading ~.
func datasetsRoot(c *cfgpkg.Global) (string, error) {
	dir := c.DatasetsDir
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = strings.TrimPrefix(dir, "~")
		dir = strings.TrimPrefix(dir, "/")
		dir = filepath.Join(home, dir)
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveDatasetDir(c *cfgpkg.Global, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("--dataset is required")
	}
	root, err := datasetsRoot(c)
	if err != nil {
		return "", err
	}
	return dataset.Dir(root, name)
}

// loadDataset opens the named dataset. Without a name it uses the dataset
// enclosing the working directory.
func loadDataset(c *cfgpkg.Global, name string) (*dataset.Dataset, error) {
	if name == "" {
		dir, err := utils.FindDatasetRoot("")
		if err != nil {
			return nil, fmt.Errorf("--dataset is required outside a dataset directory: %w", err)
		}
		return dataset.Load(dir)
	}
	dir, err := resolveDatasetDir(c, name)
	if err != nil {
		return nil, err
	}
	return dataset.Load(dir)
}
