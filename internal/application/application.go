package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/fir-settings/internal/api"
	"github.com/eugenenazirov/fir-settings/internal/capability"
	"github.com/eugenenazirov/fir-settings/internal/config"
	"github.com/eugenenazirov/fir-settings/internal/settings"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	registry *capability.MemoryRegistry
	settings *settings.Settings
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// Option configures New and LoadSettings.
type Option func(*options)

type options struct {
	env settings.EnvironmentReader
}

// WithEnvironment replaces the process environment as the source of the
// assembler's switches and AAD credentials.
func WithEnvironment(env settings.EnvironmentReader) Option {
	return func(o *options) {
		o.env = env
	}
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	s, registry, err := LoadSettings(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}

	handler, err := api.NewHandler(s, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build settings handler: %w", err)
	}
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		registry: registry,
		settings: s,
		handler:  handler,
		router:   router,
		logger:   logger,
		server:   NewServer(cfg, router),
	}, nil
}

// LoadSettings builds the capability registry from cfg and runs the settings
// assembler once.
func LoadSettings(cfg config.Config, logger *zap.Logger, opts ...Option) (*settings.Settings, *capability.MemoryRegistry, error) {
	o := options{env: settings.OSEnvironment{}}
	for _, opt := range opts {
		opt(&o)
	}

	registry, err := capability.NewMemoryRegistry(cfg.CapabilityNames()...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register capabilities: %w", err)
	}

	baseDir, err := resolveBaseDir(cfg.BaseDir)
	if err != nil {
		return nil, nil, err
	}

	assembler := settings.New(registry,
		settings.WithBaseDir(baseDir),
		settings.WithFragmentSource(settings.DirFragmentSource{Root: cfg.FragmentsDir}),
		settings.WithLogger(logger),
	)

	s, err := assembler.Load(o.env, cfg.ManifestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to assemble settings: %w", err)
	}
	return s, registry, nil
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
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Settings returns the assembled settings.
func (a *App) Settings() *settings.Settings {
	return a.settings
}

// Handler returns the API router, mostly useful for in-process tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// resolveBaseDir turns dir into an absolute path and checks that it is a directory.
func resolveBaseDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve base dir %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("resolve base dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("resolve base dir %s: not a directory", dir)
	}
	return abs, nil
}
