package cmd

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetviz-cli/internal/auth"
	cfgpkg "github.com/KaramelBytes/sheetviz-cli/internal/config"
	"github.com/KaramelBytes/sheetviz-cli/internal/server"
	"github.com/KaramelBytes/sheetviz-cli/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload service (accounts and stored spreadsheets)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if c.JWTSecret == "" {
			return errors.New("jwt_secret is required: set SHEETVIZ_JWT_SECRET or run `sheetviz config set jwt_secret <value>`")
		}
		addr := c.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(ctx, c.StoreDriver, c.StoreDir, c.DatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close()

		iss, err := auth.NewIssuer(c.JWTSecret, time.Duration(c.TokenTTLMin)*time.Minute)
		if err != nil {
			return err
		}
		h, err := server.NewHandler(server.Options{
			Store:          st,
			Issuer:         iss,
			MaxUploadBytes: int64(c.MaxUploadMB) << 20,
			AllowedOrigins: c.AllowedOrigins,
			Logger:         slog.Default(),
		})
		if err != nil {
			return err
		}

		// Upload limits follow edits to the config file without a restart.
		if path, err := cfgpkg.Path(cfgFile); err == nil {
			if _, statErr := os.Stat(path); statErr == nil {
				if _, err := cfgpkg.Watch(cfgFile, func(next *cfgpkg.Global) {
					h.SetMaxUploadBytes(int64(next.MaxUploadMB) << 20)
				}); err != nil {
					slog.Warn("config watch disabled", "err", err)
				}
			}
		}

		slog.Info("serving", "addr", addr, "store", c.StoreDriver)
		cmd.Printf("Listening on %s (store: %s)\n", addr, c.StoreDriver)
		return server.Serve(ctx, addr, h.Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
}
