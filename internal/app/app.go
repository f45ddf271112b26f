// Package app wires configuration, storage, services and HTTP routes together.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/damon-houk/fxconvert/internal/application/service"
	"github.com/damon-houk/fxconvert/internal/domain/repository"
	"github.com/damon-houk/fxconvert/internal/infrastructure/api"
	"github.com/damon-houk/fxconvert/internal/infrastructure/cache"
	"github.com/damon-houk/fxconvert/internal/infrastructure/config"
	"github.com/damon-houk/fxconvert/internal/infrastructure/db"
	"github.com/damon-houk/fxconvert/internal/infrastructure/handler"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/infrastructure/metrics"
	"github.com/damon-houk/fxconvert/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App holds the wired services of one process
type App struct {
	Config     *config.Config
	Logger     logger.Logger
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
	Store      repository.RateStore
	Cache      *cache.SnapshotCache
	Conversion *service.ConversionService
	Import     *service.ImportService
	Currencies *service.CurrencyService

	closer io.Closer
}

// New opens and provisions storage and builds every service from cfg
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	backend, closer, err := db.NewRateStore(cfg.Storage, cfg.PivotCurrency)
	if err != nil {
		return nil, err
	}
	if err := backend.Provision(ctx); err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to provision storage: %w", err)
	}

	snapshotCache := cache.NewSnapshotCache(cfg.Cache.TTL)
	store := db.NewCachedRateStore(backend, snapshotCache, log, m)

	feed := api.NewECBFeedClient(cfg.Feed.URL, &http.Client{Timeout: cfg.Feed.Timeout}, cfg.Feed.MaxRetries, log)

	resolver := service.NewResolver(store, service.ResolverConfig{
		PivotCurrency:   cfg.PivotCurrency,
		MaxLookbackDays: cfg.MaxLookbackDays,
	}, log, m)

	log.Info("Application wired", map[string]interface{}{
		"storage_driver":    cfg.Storage.Driver,
		"pivot":             cfg.PivotCurrency,
		"max_lookback_days": cfg.MaxLookbackDays,
		"cache_ttl":         cfg.Cache.TTL.String(),
	})

	return &App{
		Config:     cfg,
		Logger:     log,
		Metrics:    m,
		Registry:   registry,
		Store:      store,
		Cache:      snapshotCache,
		Conversion: service.NewConversionService(resolver, service.NewConverter(), log, m),
		Import:     service.NewImportService(feed, store, cfg.PivotCurrency, log, m),
		Currencies: service.NewCurrencyService(store, log),
		closer:     closer,
	}, nil
}

// Router builds the HTTP routes with the middleware chain applied
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(a.Logger, a.Metrics),
		middleware.RecoveryMiddleware(a.Logger),
	)

	handler.NewConversionHandler(a.Conversion, a.Logger).RegisterRoutes(router)
	handler.NewCurrencyHandler(a.Currencies, a.Import, a.Config.PivotCurrency, a.Logger).RegisterRoutes(router)
	router.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})).Methods("GET")

	return router
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.closer.Close()
}
