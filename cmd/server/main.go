package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/lingua-drome/internal/config"
	"github.com/benvon/lingua-drome/internal/kv"
	"github.com/benvon/lingua-drome/internal/logger"
	"github.com/benvon/lingua-drome/internal/models"
	"github.com/benvon/lingua-drome/internal/project"
	"github.com/benvon/lingua-drome/internal/prompt"
	"github.com/benvon/lingua-drome/internal/telemetry"
	"github.com/benvon/lingua-drome/internal/watch"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	newLogger := logger.NewProductionLogger
	if cfg.LogFormat == config.LogFormatConsole {
		newLogger = logger.NewDevelopmentLogger
	}
	zapLogger, err := newLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("log_format", cfg.LogFormat),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("phase", string(cfg.Phase)),
		zap.Duration("persist_debounce", cfg.PersistDebounce),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracing := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracing = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	kvStore, err := kv.Open(context.Background(), cfg.StoreURL, kv.OpenOptions{
		Attempts: uint(cfg.StoreConnectAttempts),
		Delay:    cfg.StoreConnectDelay,
		Logger:   zapLogger,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_open_store", zap.Error(err))
	}
	defer func() {
		if err := kvStore.Close(); err != nil {
			zapLogger.Warn("failed_to_close_store", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_store")

	storeOpts := []project.Option{
		project.WithLogger(zapLogger),
		project.WithPhase(cfg.Phase),
	}
	if cfg.PersistDebounce > 0 {
		storeOpts = append(storeOpts, project.WithPersister(
			project.NewDebouncedPersister(kvStore, models.ProjectKey, cfg.PersistDebounce, zapLogger),
		))
	}
	store, err := project.Open(context.Background(), kvStore, storeOpts...)
	if err != nil {
		zapLogger.Fatal("failed_to_open_project", zap.Error(err))
	}

	handler, err := newHandler(routerDeps{
		cfg:     cfg,
		kv:      kvStore,
		store:   store,
		console: prompt.NewConsole(),
		logger:  zapLogger,
		tracing: tracing,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_set_up_routes", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	watchDone := make(chan struct{})
	if cfg.WatchDir != "" {
		w, err := watch.New(cfg.WatchDir, store, watch.WithLogger(zapLogger))
		if err != nil {
			zapLogger.Fatal("failed_to_watch_drop_folder", zap.Error(err))
		}
		go func() {
			defer close(watchDone)
			if err := w.Run(watchCtx); err != nil {
				zapLogger.Error("drop_folder_watcher_stopped_with_error", zap.Error(err))
			}
		}()
	} else {
		close(watchDone)
	}

	// No write timeout: media content is streamed
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}
	watchCancel()
	<-watchDone

	if err := store.Flush(ctx); err != nil {
		zapLogger.Error("failed_to_flush_project", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		zapLogger.Error("failed_to_close_project", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
