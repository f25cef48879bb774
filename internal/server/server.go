package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/sheetviz-cli/internal/auth"
	"github.com/KaramelBytes/sheetviz-cli/internal/store"
)

// Options configures the HTTP API.
type Options struct {
	Store          store.Store
	Issuer         *auth.Issuer
	MaxUploadBytes int64
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Handler serves the upload API.
type Handler struct {
	store     store.Store
	issuer    *auth.Issuer
	maxUpload atomic.Int64
	origins   []string
	log       *slog.Logger
}

// NewHandler validates opts and applies defaults.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if opts.Issuer == nil {
		return nil, errors.New("server: token issuer is required")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	h := &Handler{
		store:   opts.Store,
		issuer:  opts.Issuer,
		origins: opts.AllowedOrigins,
		log:     opts.Logger,
	}
	h.maxUpload.Store(opts.MaxUploadBytes)
	return h, nil
}

// SetMaxUploadBytes changes the upload limit for subsequent requests.
// Non-positive values are ignored.
func (h *Handler) SetMaxUploadBytes(n int64) {
	if n <= 0 {
		return
	}
	if old := h.maxUpload.Swap(n); old != n {
		h.log.Info("upload limit changed", "bytes", n)
	}
}

// MaxUploadBytes returns the current upload limit.
func (h *Handler) MaxUploadBytes() int64 { return h.maxUpload.Load() }

// Router builds the chi router with middleware and every route.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("API is running."))
	})

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.issuer.Middleware(writeMessage))
			r.Post("/uploads", h.CreateUpload)
			r.Get("/uploads", h.ListUploads)
			r.Get("/uploads/{id}", h.GetUpload)
			r.Delete("/uploads/{id}", h.DeleteUpload)
			r.Delete("/account", h.DeleteAccount)
		})
	})
}

// Serve runs an http.Server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
