// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/garyellow/storebot/internal/bot"
	"github.com/garyellow/storebot/internal/buildinfo"
	"github.com/garyellow/storebot/internal/config"
	"github.com/garyellow/storebot/internal/i18n"
	"github.com/garyellow/storebot/internal/logger"
	"github.com/garyellow/storebot/internal/media"
	"github.com/garyellow/storebot/internal/metrics"
	"github.com/garyellow/storebot/internal/modules"
	"github.com/garyellow/storebot/internal/r2client"
	"github.com/garyellow/storebot/internal/ratelimit"
	"github.com/garyellow/storebot/internal/sentry"
	"github.com/garyellow/storebot/internal/simulator"
	"github.com/garyellow/storebot/internal/snapshot"
	"github.com/garyellow/storebot/internal/storage"
	"github.com/garyellow/storebot/internal/webhook"
	"github.com/garyellow/storebot/internal/whatsapp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg         *config.Config
	logger      *logger.Logger
	db          *storage.DB
	metrics     *metrics.Metrics
	registry    *prometheus.Registry
	userLimiter *ratelimit.KeyedLimiter
	whatsapp    *webhook.WhatsAppHandler // nil when the channel is disabled
	line        *webhook.LineHandler     // nil when the channel is disabled
	simulator   *simulator.Handler       // nil when the simulator is disabled
	snapshots   *snapshot.Manager        // nil without R2
	server      *http.Server
	wg          sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken: cfg.BetterStackToken,
	})

	log = log.WithField("service", "storebot")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Set as default logger so storage code logs through ContextHandler.
	slog.SetDefault(log.Logger)

	log.WithField("release", buildinfo.Release()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	var r2 *r2client.Client
	if cfg.R2Enabled() {
		client, err := r2client.New(ctx, r2client.Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("r2: %w", err)
		}
		r2 = client
		log.WithField("bucket", cfg.R2.BucketName).Info("R2 storage enabled")
	}

	var snapshots *snapshot.Manager
	if r2 != nil {
		snapshots = snapshot.New(r2, snapshot.Config{Prefix: cfg.R2.SnapshotPrefix}, m, log)
		if err := restoreIfMissing(ctx, snapshots, cfg.SQLitePath(), log); err != nil {
			log.WithError(err).Warn("Snapshot restore failed; starting with an empty database")
		}
	}

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	router, err := modules.NewRouter(modules.Dependencies{
		Gateway:    db,
		VATPercent: cfg.Bot.VATPercent,
		Metrics:    m,
		Logger:     log,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("routing table: %w", err)
	}

	userLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "identity",
		Burst:         cfg.Bot.UserRateBurst,
		RefillRate:    cfg.Bot.UserRateRefill,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		OnDrop:        m.RecordRateLimiterDrop,
		OnActive:      m.SetRateLimiterActive,
	})

	cat := i18n.New()
	processor := bot.NewProcessor(bot.ProcessorConfig{
		Router:      router,
		Store:       db,
		Catalog:     cat,
		UserLimiter: userLimiter,
		Logger:      log,
		Metrics:     m,
		BotConfig:   &cfg.Bot,
	})

	opts := []webhook.HandlerOption{webhook.WithTimeout(cfg.Bot.WebhookTimeout)}
	if r2 != nil {
		opts = append(opts, webhook.WithArchiver(media.NewArchiver(r2, m)))
	}

	app := &Application{
		cfg:         cfg,
		logger:      log,
		db:          db,
		metrics:     m,
		registry:    registry,
		userLimiter: userLimiter,
		snapshots:   snapshots,
	}

	if cfg.WhatsAppEnabled() {
		app.whatsapp = webhook.NewWhatsAppHandler(webhook.WhatsAppConfig{
			VerifyToken: cfg.WhatsApp.VerifyToken,
			AppSecret:   cfg.WhatsApp.AppSecret,
			Client: whatsapp.NewClient(whatsapp.Config{
				Token:         cfg.WhatsApp.Token,
				PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
				APIBase:       cfg.WhatsApp.APIBase,
			}),
			Directory: db,
			Processor: processor,
			Catalog:   cat,
			Metrics:   m,
			Logger:    log,
		}, opts...)
		log.Info("WhatsApp channel enabled")
	}

	if cfg.LineEnabled() {
		api, blob, err := webhook.NewLineClients(cfg.Line.ChannelToken)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("line: %w", err)
		}
		app.line = webhook.NewLineHandler(webhook.LineConfig{
			ChannelSecret: cfg.Line.ChannelSecret,
			Replier:       api,
			Blob:          blob,
			Directory:     db,
			Processor:     processor,
			Catalog:       cat,
			Metrics:       m,
			Logger:        log,
		}, opts...)
		log.Info("LINE channel enabled")
	}

	if cfg.SimulatorEnabled() {
		app.simulator = simulator.NewHandler(simulator.Config{
			JWTSecret:     cfg.Simulator.JWTSecret,
			Processor:     processor,
			Conversations: db,
			Operators:     db,
			Metrics:       m,
			Logger:        log,
			Timeout:       cfg.Bot.WebhookTimeout,
		})
		log.Info("Simulator enabled")
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.newRouter(),
		ReadHeaderTimeout: config.WebhookHTTPRead,
		ReadTimeout:       config.WebhookHTTPRead,
		WriteTimeout:      config.WebhookHTTPWrite,
		IdleTimeout:       config.WebhookHTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// restoreIfMissing downloads the newest snapshot when no local database exists.
func restoreIfMissing(ctx context.Context, snapshots *snapshot.Manager, path string, log *logger.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat database: %w", err)
	}

	restoreCtx, cancel := context.WithTimeout(ctx, config.SnapshotUpload)
	defer cancel()

	key, err := snapshots.Restore(restoreCtx, path)
	if errors.Is(err, snapshot.ErrNotFound) {
		log.Info("No snapshot to restore; starting with an empty database")
		return nil
	}
	if err != nil {
		return err
	}
	log.WithField("key", key).Info("Database restored from snapshot")
	return nil
}

// Run starts the HTTP server and background jobs, then blocks until
// SIGINT/SIGTERM.
//
// Shutdown order:
//  1. Cancel context to stop background jobs and wait for them
//  2. Stop the HTTP server and drain webhook goroutines
//  3. Take a final snapshot, close the database and flush Sentry
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown performs graceful shutdown of the HTTP server and resources.
// It must run after background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for webhook events to complete...")
	if a.whatsapp != nil {
		if err := a.whatsapp.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("WhatsApp handler shutdown timeout")
		}
	}
	if a.line != nil {
		if err := a.line.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("LINE handler shutdown timeout")
		}
	}

	if a.snapshots != nil {
		if _, err := a.snapshots.Upload(shutdownCtx, a.db); err != nil {
			a.logger.WithError(err).Error("Final snapshot failed")
		}
	}

	a.logger.Info("Closing resources...")
	a.closeResources()

	if sentry.IsEnabled() && !sentry.Flush(2*time.Second) {
		a.logger.Warn("Sentry flush timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}

func (a *Application) closeResources() {
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}
	if a.userLimiter != nil {
		a.userLimiter.Stop()
	}
}
