package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/config"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/exports"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/identity"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/indicator"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/observability"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/ratelimit"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/releases"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/server"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore connects to the configured database and applies migrations.
func openStore(cfg *config.Config) (*store.SQLStore, error) {
	db, dialect, err := store.Open(cfg.DatabaseURL, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := store.MigrateUp(db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store.NewSQLStore(db, dialect), nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		var err error
		if cat, err = config.LoadCatalog(cfg.CatalogPath); err != nil {
			return nil, err
		}
	}
	if err := indicator.CheckCatalog(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func loadReleases(cfg *config.Config) (*releases.Book, error) {
	if cfg.ReleasesPath != "" {
		return releases.Load(cfg.ReleasesPath)
	}
	return releases.Default()
}

//nolint:gocognit,gocyclo
func runServer(stdout, stderr io.Writer) int {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, stderr)
	slog.SetDefault(logger)
	fmt.Fprintf(stdout, "%sMedMais API starting...%s\n", ColorBold+ColorBlue, ColorReset)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Database
	if cfg.LiteMode() {
		fmt.Fprintf(stdout, "DATABASE_URL not set. Falling back to %sLite Mode%s (SQLite).\n", ColorBold+ColorCyan, ColorReset)
	}
	st, err := openStore(cfg)
	if err != nil {
		logger.Error("database setup failed", "error", err)
		return 1
	}
	defer func() { _ = st.DB().Close() }()
	logger.Info("database ready", "dialect", st.Dialect())

	// 2. Catalog and release notes
	cat, err := loadCatalog(cfg)
	if err != nil {
		logger.Error("catalog invalid", "error", err)
		return 1
	}
	book, err := loadReleases(cfg)
	if err != nil {
		logger.Error("release notes invalid", "error", err)
		return 1
	}

	// 3. Token keys
	keys, err := identity.NewKeySet(cfg.JWTSecret)
	if err != nil {
		logger.Error("token keys", "error", err)
		return 1
	}
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set; sessions end when the process restarts")
	}

	// 4. Rate limiting
	var limiter ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rs := ratelimit.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using in-memory rate limiter", "addr", cfg.RedisAddr, "error", err)
			_ = rs.Close()
		} else {
			limiter = rs
			defer func() { _ = rs.Close() }()
			logger.Info("redis rate limiter ready", "addr", cfg.RedisAddr)
		}
	}

	// 5. Export archive
	archive, err := exports.NewArchive(ctx, exports.ArchiveConfig{
		Type:     exports.StorageType(cfg.ExportStorageType),
		Dir:      cfg.ExportDir,
		Bucket:   cfg.ExportBucket,
		Region:   cfg.ExportRegion,
		Endpoint: cfg.ExportEndpoint,
		Prefix:   "exports/",
	})
	if err != nil {
		logger.Warn("export archive disabled", "error", err)
		archive = nil
	}

	// 6. Telemetry
	var obs *observability.Provider
	if cfg.OTelEnabled {
		oc := observability.DefaultConfig()
		oc.OTLPEndpoint = cfg.OTelEndpoint
		oc.ServiceVersion = version
		if obs, err = observability.New(ctx, oc); err != nil {
			logger.Warn("telemetry disabled", "error", err)
			obs = nil
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = obs.Shutdown(sctx)
			}()
		}
	}

	srv, err := server.New(server.Options{
		Config:        cfg,
		Store:         st,
		Catalog:       cat,
		Keys:          keys,
		Releases:      book,
		Archive:       archive,
		Limiter:       limiter,
		Observability: obs,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("server setup failed", "error", err)
		return 1
	}
	defer srv.Close()

	apiServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Health Server
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("DB UNAVAILABLE"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	healthServer := &http.Server{
		Addr:              ":" + cfg.HealthPort,
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	for _, s := range []*http.Server{apiServer, healthServer} {
		go func(s *http.Server) {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen %s: %w", s.Addr, err)
			}
		}(s)
	}

	logger.Info("ready", "api", "http://localhost:"+cfg.Port, "health", ":"+cfg.HealthPort, "timezone", cfg.Timezone)
	fmt.Fprintln(stdout, "press ctrl+c to stop")

	code := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server failed", "error", err)
		code = 1
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiServer.Shutdown(shutdownCtx)
	_ = healthServer.Shutdown(shutdownCtx)
	return code
}
