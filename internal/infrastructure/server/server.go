package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/GriffinCanCode/dogeterm/internal/api/http"
	"github.com/GriffinCanCode/dogeterm/internal/api/middleware"
	"github.com/GriffinCanCode/dogeterm/internal/api/ws"
	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/config"
	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/monitoring"
	terminalProvider "github.com/GriffinCanCode/dogeterm/internal/providers/terminal"
	"github.com/GriffinCanCode/dogeterm/internal/service"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
	"github.com/GriffinCanCode/dogeterm/internal/terminal/plugins"
)

const shutdownTimeout = 5 * time.Second

// Server wires the terminal manager to its HTTP and WebSocket surfaces.
type Server struct {
	config   *config.Config
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	manager  *terminal.Manager
	hub      *ws.Hub
	registry *service.Registry
	aliases  *plugins.AliasTable
	watcher  *plugins.AliasWatcher
	router   *gin.Engine
	cancel   context.CancelFunc
}

// NewServer builds the server around the process-wide terminal manager.
func NewServer(cfg *config.Config) (*Server, error) {
	return build(cfg, newLogger(cfg), nil)
}

// newManager is how build obtains its manager; tests substitute their own.
type newManager func(opts ...terminal.Option) *terminal.Manager

func newLogger(cfg *config.Config) *logging.Logger {
	if cfg.Logging.Development {
		return logging.NewDevelopment()
	}
	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level})
	if err != nil {
		return logging.NewDefault()
	}
	return logger
}

func build(cfg *config.Config, logger *logging.Logger, makeManager newManager) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if makeManager == nil {
		makeManager = terminal.Default
	}

	logger.Info("Initializing dogeterm server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Strings("plugins", cfg.Terminal.Plugins),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		cancel:  cancel,
	}

	s.aliases = plugins.NewAliasTable(nil)
	if path := cfg.Terminal.AliasFile; path != "" {
		watcher, err := plugins.WatchAliases(ctx, path, s.aliases, logger.Logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("load aliases: %w", err)
		}
		s.watcher = watcher
		logger.Info("Watching alias file", zap.String("path", path))
	}

	themes := plugins.DefaultThemes()
	if path := cfg.Terminal.ThemeFile; path != "" {
		loaded, err := plugins.LoadThemes(path)
		if err != nil {
			s.shutdownWatcher()
			return nil, fmt.Errorf("load themes: %w", err)
		}
		themes = loaded
	}

	chain, err := plugins.NewChainFactory(cfg.Terminal.Plugins, plugins.Deps{
		Logger:  logger.Logger,
		Aliases: s.aliases,
		Themes:  themes,
		WorkingDir: func(sessionID string) (string, error) {
			return s.manager.WorkingDir(sessionID)
		},
		Monitor: cfg.Terminal.Monitor,
	})
	if err != nil {
		s.shutdownWatcher()
		return nil, err
	}

	s.manager = makeManager(
		terminal.WithPlugins(chain),
		terminal.WithLogger(logger.Logger),
		terminal.WithMetrics(metrics),
		terminal.WithScrollback(cfg.Terminal.Scrollback),
	)

	defaults := SessionDefaults(cfg.Terminal)
	s.hub = ws.NewHub(s.manager, defaults, logger.Logger, metrics)

	s.registry = service.NewRegistry()
	if err := s.registry.Register(terminalProvider.NewProvider(s.manager, defaults, s.hub)); err != nil {
		s.shutdownWatcher()
		return nil, fmt.Errorf("register terminal provider: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog(logger.Logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(cfg.Server.CORSOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := httpapi.NewHandlers(httpapi.Options{
		Manager:  s.manager,
		Registry: s.registry,
		Sink:     s.hub,
		Defaults: defaults,
		Aliases:  s.aliases,
		Logger:   logger.Logger,
	})
	handlers.Register(router)

	router.GET("/stream", s.hub.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	s.router = router
	logger.Info("Server initialized successfully")
	return s, nil
}

// SessionDefaults returns the base config for new sessions: the process
// environment and shell overlaid with the configured terminal settings.
func SessionDefaults(tc config.TerminalConfig) func() terminal.Config {
	return func() terminal.Config {
		base := terminal.DefaultConfig()
		if tc.Term != "" {
			base.Env["TERM"] = tc.Term
		}
		if tc.ColorTerm != "" {
			base.Env["COLORTERM"] = tc.ColorTerm
		}
		return base.Overlay(terminal.Config{
			Shell:      tc.Shell,
			WorkingDir: tc.WorkingDir,
			Cols:       tc.Cols,
			Rows:       tc.Rows,
		})
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Manager returns the terminal manager the server drives.
func (s *Server) Manager() *terminal.Manager { return s.manager }

// Run serves HTTP until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close terminates every session, disconnects WebSocket clients and stops
// the alias watcher.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.manager.CloseAll()
	s.hub.Close()
	s.shutdownWatcher()

	_ = s.logger.Sync()
	return nil
}

func (s *Server) shutdownWatcher() {
	s.cancel()
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.logger.Warn("Failed to close alias watcher", zap.Error(err))
		}
	}
}
