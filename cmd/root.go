package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
	"github.com/KaramelBytes/sheetviz-cli/internal/client"
	cfgpkg "github.com/KaramelBytes/sheetviz-cli/internal/config"
)

var (
	// Global flags
	cfgFile    string
	debug      bool
	flagAPIURL string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "sheetviz",
	Short: "sheetviz: explore spreadsheets as filtered tables, charts and statistics",
	Long: `sheetviz uploads CSV/XLSX spreadsheets to a small account-based service and
analyzes them in the terminal: pick a header row, filter and page the rows,
aggregate two columns into a chart and summarize the numbers.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sheetviz/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "upload service URL (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func setupLogging() {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig() {
	setupLogging()
	// A .env file in the working directory may carry SHEETVIZ_* variables.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "err", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("api-url") && flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	slog.Debug("config loaded", "api_url", cfg.APIURL, "store_driver", cfg.StoreDriver)
}

func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		return nil, errors.New("configuration is not loaded")
	}
	return cfg, nil
}

// newClient builds an API client from the loaded configuration.
func newClient() (*client.Client, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	cl := client.New(c.APIURL,
		time.Duration(c.HTTPTimeoutSec)*time.Second,
		c.RetryMaxAttempts,
		time.Duration(c.RetryBaseDelayMs)*time.Millisecond,
		time.Duration(c.RetryMaxDelayMs)*time.Millisecond)
	return cl.WithToken(c.Token), nil
}

// authedClient is newClient for commands that need a session.
func authedClient() (*client.Client, error) {
	cl, err := newClient()
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, errors.New("not logged in: run `sheetviz account login <username>` first")
	}
	return cl, nil
}

// analysisOptions maps configuration onto view tuning.
func analysisOptions() analysis.Options {
	opts := analysis.DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.NumericThreshold > 0 && cfg.NumericThreshold <= 1 {
		opts.NumericThreshold = cfg.NumericThreshold
	}
	if cfg.SearchDebounceMs > 0 {
		opts.SearchDebounce = time.Duration(cfg.SearchDebounceMs) * time.Millisecond
	}
	if cfg.FilterDebounceMs > 0 {
		opts.FilterDebounce = time.Duration(cfg.FilterDebounceMs) * time.Millisecond
	}
	return opts
}
