package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/sheetviz-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set sheetviz configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "api_url: %s\n", cfg.APIURL)
		fmt.Fprintf(out, "username: %s\n", cfg.Username)
		fmt.Fprintf(out, "token: %s\n", mask(cfg.Token))
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "store_driver: %s\n", cfg.StoreDriver)
		fmt.Fprintf(out, "store_dir: %s\n", cfg.StoreDir)
		if cfg.DatabaseURL != "" {
			fmt.Fprintf(out, "database_url: %s\n", mask(cfg.DatabaseURL))
		}
		fmt.Fprintf(out, "jwt_secret: %s\n", mask(cfg.JWTSecret))
		fmt.Fprintf(out, "token_ttl_min: %d\n", cfg.TokenTTLMin)
		fmt.Fprintf(out, "max_upload_mb: %d\n", cfg.MaxUploadMB)
		fmt.Fprintf(out, "allowed_origins: %s\n", strings.Join(cfg.AllowedOrigins, ","))
		fmt.Fprintf(out, "numeric_threshold: %.2f\n", cfg.NumericThreshold)
		fmt.Fprintf(out, "search_debounce_ms: %d\n", cfg.SearchDebounceMs)
		fmt.Fprintf(out, "filter_debounce_ms: %d\n", cfg.FilterDebounceMs)
		fmt.Fprintf(out, "rows_per_page: %s\n", cfg.RowsPerPage)
		fmt.Fprintf(out, "chart_type: %s\n", cfg.ChartType)
		fmt.Fprintf(out, "color_theme: %s\n", cfg.ColorTheme)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setConfigValue(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	positive := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return 0, fmt.Errorf("invalid positive int for %s: %v", key, val)
		}
		return i, nil
	}
	switch key {
	case "api_url":
		c.APIURL = strings.TrimRight(val, "/")
	case "listen_addr":
		c.ListenAddr = val
	case "store_driver":
		switch val {
		case "file", "postgres":
			c.StoreDriver = val
		default:
			return fmt.Errorf("invalid store_driver: %s (use file or postgres)", val)
		}
	case "store_dir":
		c.StoreDir = val
	case "database_url":
		c.DatabaseURL = val
	case "jwt_secret":
		c.JWTSecret = val
	case "token_ttl_min":
		i, err := positive()
		if err != nil {
			return err
		}
		c.TokenTTLMin = i
	case "max_upload_mb":
		i, err := positive()
		if err != nil {
			return err
		}
		c.MaxUploadMB = i
	case "allowed_origins":
		c.AllowedOrigins = strings.Split(val, ",")
	case "numeric_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("invalid numeric_threshold: %v (use a number in (0, 1])", val)
		}
		c.NumericThreshold = f
	case "search_debounce_ms":
		i, err := positive()
		if err != nil {
			return err
		}
		c.SearchDebounceMs = i
	case "filter_debounce_ms":
		i, err := positive()
		if err != nil {
			return err
		}
		c.FilterDebounceMs = i
	case "rows_per_page":
		n, err := analysis.ParseRowsPerPage(val)
		if err != nil {
			return err
		}
		c.RowsPerPage = n.String()
	case "chart_type":
		t, err := analysis.ParseChartType(val)
		if err != nil {
			return err
		}
		c.ChartType = string(t)
	case "color_theme":
		t, err := analysis.ParseColorTheme(val)
		if err != nil {
			return err
		}
		c.ColorTheme = string(t)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
