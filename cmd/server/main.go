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

	"github.com/damon-houk/fxconvert/internal/app"
	"github.com/damon-houk/fxconvert/internal/infrastructure/config"
	"github.com/damon-houk/fxconvert/internal/infrastructure/logger"
	"github.com/damon-houk/fxconvert/internal/infrastructure/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log := logger.NewJSONLogger(os.Stdout, cfg.LogLevel)
	logger.SetDefaultLogger(log)

	// Reject bad schedules before storage is opened
	for _, schedule := range []string{cfg.Import.Schedule, cfg.Cache.CleanSchedule} {
		if schedule == "" {
			continue
		}
		if err := scheduler.ValidateSchedule(schedule); err != nil {
			log.Fatal("Invalid schedule", map[string]interface{}{
				"schedule": schedule,
				"error":    err.Error(),
			})
		}
	}

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped with error", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	log.Info("Starting currency conversion service", map[string]interface{}{
		"port":  cfg.Port,
		"pivot": cfg.PivotCurrency,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialise application: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error("Error closing storage", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	jobs := scheduler.New(log)
	importJob := scheduler.NewImportJob(application.Import, 5*time.Minute)
	if cfg.Import.Schedule != "" {
		if err := jobs.AddJob(cfg.Import.Schedule, importJob); err != nil {
			return fmt.Errorf("invalid import schedule %q: %w", cfg.Import.Schedule, err)
		}
	}
	if cfg.Cache.CleanSchedule != "" {
		if err := jobs.AddJob(cfg.Cache.CleanSchedule, scheduler.NewCacheCleanupJob(application.Cache, log)); err != nil {
			return fmt.Errorf("invalid cache clean schedule %q: %w", cfg.Cache.CleanSchedule, err)
		}
	}
	jobs.Start()
	defer jobs.Stop()
	log.Info("Background jobs scheduled", map[string]interface{}{
		"jobs": jobs.Entries(),
	})

	if cfg.Import.OnStart {
		go func() {
			if err := jobs.RunNow(importJob); err != nil {
				log.Error("Startup import failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"addr": server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}

	log.Info("Server exited", nil)
	return nil
}
