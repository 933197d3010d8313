package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/techsearch/internal/config"
	"github.com/kailas-cloud/techsearch/internal/db/duckdb"
	dbRedis "github.com/kailas-cloud/techsearch/internal/db/redis"
	"github.com/kailas-cloud/techsearch/internal/db/sqldb"
	"github.com/kailas-cloud/techsearch/internal/db/sqlite"
	"github.com/kailas-cloud/techsearch/internal/domain"
	logpkg "github.com/kailas-cloud/techsearch/internal/logger"
	"github.com/kailas-cloud/techsearch/internal/metrics"
	"github.com/kailas-cloud/techsearch/internal/query"
	searchrepo "github.com/kailas-cloud/techsearch/internal/repository/search"
	"github.com/kailas-cloud/techsearch/internal/repository/suggestcache"
	typeaheadrepo "github.com/kailas-cloud/techsearch/internal/repository/typeahead"
	chiTransport "github.com/kailas-cloud/techsearch/internal/transport/chi"
	"github.com/kailas-cloud/techsearch/internal/transport/dto"
	healthuc "github.com/kailas-cloud/techsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/techsearch/internal/usecase/search"
	typeaheaduc "github.com/kailas-cloud/techsearch/internal/usecase/typeahead"
	"github.com/kailas-cloud/techsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting techsearch API server",
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("db_path", cfg.Database.Path),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	store, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Collectors are registered explicitly rather than in init().
	metrics.Register()

	queryTimeout := time.Duration(cfg.Database.QueryTimeoutSec) * time.Second
	searchSvc := searchuc.New(
		searchrepo.New(store, queryTimeout),
		query.NewAssembler(domain.View),
		cfg.Search.ExportMaxLimit,
	)
	typeaheadSvc := typeaheaduc.New(typeaheadrepo.New(store))

	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var (
		suggester   chiTransport.Suggester = typeaheadSvc
		cachePinger healthuc.Pinger
	)
	if cfg.Cache.Enabled {
		cache, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:       cfg.Cache.Addrs,
			Username:    cfg.Cache.Username,
			Password:    cfg.Cache.Password,
			DB:          cfg.Cache.DB,
			DialTimeout: time.Duration(cfg.Cache.DialTimeoutMS) * time.Millisecond,
			LocalTTL:    time.Duration(cfg.Cache.LocalTTLSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to create suggestion cache", zap.Error(err))
		}
		defer cache.Close()

		if err := cache.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Warn("Suggestion cache not ready, continuing", zap.Error(err))
		}
		suggester = suggestcache.New(
			typeaheadSvc, cache, time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.SuggestCacheTotal, logger,
		)
		cachePinger = cache
		logger.Info("Suggestion cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	healthSvc := healthuc.New(store, cachePinger)
	if report := healthSvc.Check(ctx); report.Checks[healthuc.ComponentFullText] != healthuc.CheckOK {
		logger.Warn("Full-text tables missing, typeahead uses substring matching only",
			zap.String("fulltext", string(report.Checks[healthuc.ComponentFullText])))
	}

	server := chiTransport.NewServer(searchSvc, suggester, healthSvc, chiTransport.Options{
		Paging: dto.Paging{
			DefaultLimit: cfg.Search.DefaultPageSize,
			MaxLimit:     cfg.Search.MaxPageSize,
		},
		ExportDefaultLimit: cfg.Search.ExportDefaultLimit,
		MaxBodyBytes:       int64(cfg.HTTP.MaxBodyBytes),
	}, logger)
	r := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore opens the row store for the configured driver.
func openStore(cfg config.DatabaseConfig) (*sqldb.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(sqlite.Config{
			Path:          cfg.Path,
			ReadOnly:      cfg.ReadOnly,
			MaxOpenConns:  cfg.MaxOpenConns,
			BusyTimeoutMS: 5000,
		})
	case config.DriverDuckDB:
		return duckdb.Open(duckdb.Config{
			Path:         cfg.Path,
			ReadOnly:     cfg.ReadOnly,
			MaxOpenConns: cfg.MaxOpenConns,
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
