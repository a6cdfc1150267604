// Package app wires configuration, stores, workers and the HTTP
// server together and owns graceful shutdown.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/stashspark/stashspark/internal/config"
	"github.com/stashspark/stashspark/internal/httpserver"
	"github.com/stashspark/stashspark/internal/httpserver/deps"
	"github.com/stashspark/stashspark/internal/logger"
	"github.com/stashspark/stashspark/internal/metadata"
	"github.com/stashspark/stashspark/internal/revisit"
	"github.com/stashspark/stashspark/internal/session"
	"github.com/stashspark/stashspark/internal/sources/importfile"
	"github.com/stashspark/stashspark/internal/storage"
	"github.com/stashspark/stashspark/internal/summary"
	"github.com/stashspark/stashspark/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	store    storage.Storage
	redis    *goredis.Client
	worker   *summary.Worker
	importer *importfile.Importer
}

func New() *App {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Errorf("Failed to create data directory %s: %v", dir, err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Errorf("Failed to open database: %v", err)
		os.Exit(1)
	}
	log.Info("database ready", logger.String("path", cfg.DatabasePath))

	redisClient, err := session.Connect(session.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDialTimeout,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
	}, log)
	if err != nil {
		log.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	sessions := session.NewStore(redisClient, cfg.SessionTTL)

	policy := revisit.NewPolicy(cfg.DayBoundary)
	fetcher := metadata.New(http.DefaultClient, cfg.MetadataTimeout)

	summarizer := summary.NewClient(summary.ClientOptions{
		APIKey:  cfg.SummaryAPIKey,
		APIURL:  cfg.SummaryAPIURL,
		Model:   cfg.SummaryModel,
		Timeout: cfg.SummaryTimeout,
	})
	if !summarizer.Enabled() {
		log.Info("summary API key not configured, summaries will carry a notice")
	}
	worker := summary.NewWorker(store, summarizer, log, cfg.SummaryQueueSize)

	var importer *importfile.Importer
	if cfg.ImportFile != "" {
		importer = importfile.NewImporter(store, policy, cfg.DefaultReviewIntervalDays, log)
	}

	d := deps.Deps{
		Logger:              log,
		StartTime:           time.Now(),
		Version:             version.Version,
		Commit:              version.Commit,
		BuildDate:           version.BuildDate,
		GoVersion:           version.GoVersion,
		TimeNow:             time.Now,
		Store:               store,
		Sessions:            sessions,
		Metadata:            fetcher,
		Summaries:           worker,
		Policy:              policy,
		DefaultIntervalDays: cfg.DefaultReviewIntervalDays,
		SessionTTL:          cfg.SessionTTL,
		CORSOrigin:          cfg.CORSOrigin,
		LoginRateBurst:      cfg.LoginRateBurst,
		LoginRatePerMin:     cfg.LoginRatePerMin,
	}

	return &App{
		cfg:      cfg,
		logger:   log,
		server:   httpserver.New(cfg, log, d),
		store:    store,
		redis:    redisClient,
		worker:   worker,
		importer: importer,
	}
}

func (a *App) Run() error {
	a.logger.Infof("Starting StashSpark %s (commit=%s, built=%s, go=%s) on %s",
		version.Version, version.Commit, version.BuildDate, version.GoVersion, a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.worker.Start()

	if a.importer != nil {
		stats, err := a.importer.Run(ctx, a.cfg.ImportFile, a.cfg.ImportOwner)
		if err != nil {
			a.logger.Warnf("bookmark import failed: %v", err)
		} else {
			a.logger.Info("bookmark import done",
				logger.Int("imported", stats.Imported),
				logger.Int("skipped", stats.Skipped))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.worker.Stop()

	if err := a.redis.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close database: %v", err)
	}

	a.logger.Info("StashSpark stopped cleanly")
	return nil
}
