package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/sheetviz-cli/internal/utils"
)

// Global configuration structure.
type Global struct {
	// Client side
	APIURL   string `mapstructure:"api_url" yaml:"api_url"`
	Token    string `mapstructure:"token" yaml:"token"`
	Username string `mapstructure:"username" yaml:"username"`

	// Server side
	ListenAddr     string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	StoreDriver    string   `mapstructure:"store_driver" yaml:"store_driver"`
	StoreDir       string   `mapstructure:"store_dir" yaml:"store_dir"`
	DatabaseURL    string   `mapstructure:"database_url" yaml:"database_url"`
	JWTSecret      string   `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTLMin    int      `mapstructure:"token_ttl_min" yaml:"token_ttl_min"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// Analysis
	NumericThreshold float64 `mapstructure:"numeric_threshold" yaml:"numeric_threshold"`
	SearchDebounceMs int     `mapstructure:"search_debounce_ms" yaml:"search_debounce_ms"`
	FilterDebounceMs int     `mapstructure:"filter_debounce_ms" yaml:"filter_debounce_ms"`
	RowsPerPage      string  `mapstructure:"rows_per_page" yaml:"rows_per_page"`
	ColorTheme       string  `mapstructure:"color_theme" yaml:"color_theme"`
	ChartType        string  `mapstructure:"chart_type" yaml:"chart_type"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// Path returns cfgFile, or ~/.sheetviz/config.yaml when it is empty.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := utils.AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sheetviz/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func newViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("SHEETVIZ")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api_url", "http://127.0.0.1:5000")
	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("store_driver", "file")
	v.SetDefault("token_ttl_min", 60)
	v.SetDefault("max_upload_mb", 5)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("numeric_threshold", 0.9)
	v.SetDefault("search_debounce_ms", 300)
	v.SetDefault("filter_debounce_ms", 150)
	v.SetDefault("rows_per_page", "10")
	v.SetDefault("color_theme", "vibrant")
	v.SetDefault("chart_type", "bar")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := utils.AppDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()
	return v, nil
}

func decode(v *viper.Viper) (*Global, error) {
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve store_dir default: ~/.sheetviz/store
	if c.StoreDir == "" {
		dir, err := utils.AppDir()
		if err != nil {
			return nil, err
		}
		c.StoreDir = filepath.Join(dir, "store")
	}
	dir, err := utils.ExpandHome(c.StoreDir)
	if err != nil {
		return nil, err
	}
	c.StoreDir = dir
	return &c, nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v, err := newViper(cfgFile)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch loads the configuration and calls onChange with the re-read values
// every time the config file changes on disk. The returned Global is the
// initial configuration.
func Watch(cfgFile string, onChange func(*Global)) (*Global, error) {
	v, err := newViper(cfgFile)
	if err != nil {
		return nil, err
	}
	c, err := decode(v)
	if err != nil {
		return nil, err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			slog.Warn("config reload failed", "file", e.Name, "err", err)
			return
		}
		slog.Info("config reloaded", "file", e.Name, "op", e.Op.String())
		onChange(next)
	})
	v.WatchConfig()
	return c, nil
}
