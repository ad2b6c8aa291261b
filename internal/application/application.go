package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/featureflags/internal/api"
	"github.com/eugenenazirov/featureflags/internal/config"
	"github.com/eugenenazirov/featureflags/internal/flags"
	"github.com/eugenenazirov/featureflags/internal/manifest"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	reader  *flags.Reader
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	reader, err := NewReader(cfg, logger)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(reader)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		reader:  reader,
		handler: handler,
		router:  router,
		logger:  logger,
		server:  NewServer(cfg, router),
	}, nil
}

// NewReader loads the configured manifest, or the bundled one when no path is
// set, and returns a flag reader over it.
func NewReader(cfg config.Config, logger *zap.Logger) (*flags.Reader, error) {
	store, err := manifest.Open(cfg.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	source := cfg.ManifestPath
	if source == "" {
		source = "bundled"
	}
	logger.Info("manifest loaded",
		zap.String("source", source),
		zap.Int("entries", store.Len()),
	)

	return flags.New(store, flags.WithLogger(logger)), nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Bool("show_register_button", a.reader.ShowRegisterButton()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Reader returns the flag reader backing the API.
func (a *App) Reader() *flags.Reader {
	return a.reader
}
