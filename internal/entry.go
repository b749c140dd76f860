// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/terjecfg/internal/api"
	"github.com/starford/terjecfg/internal/catalog"
	"github.com/starford/terjecfg/internal/fileservice"
	"github.com/starford/terjecfg/internal/history"
	"github.com/starford/terjecfg/internal/ignore"
	"github.com/starford/terjecfg/internal/mcpserver"
	"github.com/starford/terjecfg/internal/sse"
	"github.com/starford/terjecfg/internal/storage"
	"github.com/starford/terjecfg/internal/watcher"
)

// components are the pieces shared by the HTTP and MCP entry points.
type components struct {
	root    string
	matcher *ignore.Matcher
	db      *history.DB
	catalog *catalog.Catalog
	svc     *fileservice.Service
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// setup opens storage, history and the catalog and runs the baseline sync.
// The caller closes db.
func setup(ctx context.Context, cfg *Config, logger *slog.Logger, svcOpts ...fileservice.Option) (*components, error) {
	// Ensure settings directory exists.
	if err := os.MkdirAll(cfg.Settings.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	root, err := filepath.Abs(cfg.Settings.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve settings dir: %w", err)
	}

	matcher, err := ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:  root,
		Patterns: cfg.Settings.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("init ignore rules: %w", err)
	}

	store, err := storage.NewFS(root, storage.WithFilter(matcher))
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var cat *catalog.Catalog
	if cfg.Catalog.Path != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.Path, cfg.Catalog.Locale)
	} else {
		cat, err = catalog.Default(cfg.Catalog.Locale)
	}
	if err != nil {
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	logger.Info("Catalog loaded",
		slog.Int("settings", cat.Len()),
		slog.String("locale", cat.Locale()))

	if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := history.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	opts := append([]fileservice.Option{
		fileservice.WithLogger(logger),
		fileservice.WithHistoryLimit(cfg.History.Limit),
	}, svcOpts...)
	svc := fileservice.New(store, cat, db, opts...)

	// Run initial sync.
	n, err := svc.Baseline(ctx)
	if err != nil {
		logger.Warn("baseline sync incomplete", slog.String("error", err.Error()))
	}
	logger.Info("Baseline sync done", slog.Int("recorded", n))

	return &components{root: root, matcher: matcher, db: db, catalog: cat, svc: svc}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("settings_path", cfg.Settings.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := setup(ctx, cfg, logger, fileservice.WithNotifier(broker))
	if err != nil {
		return err
	}
	defer c.db.Close()

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(api.CORSMiddleware(cfg.CORS.AllowedOrigins))
	}

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := c.db.Paths(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	if cfg.Watch.Enabled {
		g.Go(func() error {
			err := watcher.Watch(gCtx, watcher.Options{
				Root:    c.root,
				Tracker: c.svc,
				Ignore:  c.matcher,
				Logger:  logger,
				OnEvent: func(kind, path string) {
					broker.PublishFileEvent(kind, path, 0, "")
				},
			})
			if err != nil {
				// The editor keeps working without external change tracking.
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)

	c, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.db.Close()

	logger.Info("MCP server starting", slog.String("settings_path", cfg.Settings.Path))
	return mcpserver.New(c.svc, c.catalog, app.version).ServeStdio()
}
