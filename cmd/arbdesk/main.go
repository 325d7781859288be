package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"arbdesk/internal/advisory"
	"arbdesk/internal/api"
	"arbdesk/internal/arbitrage"
	"arbdesk/internal/config"
	"arbdesk/internal/database"
	"arbdesk/internal/engine"
	"arbdesk/internal/market"
	"arbdesk/internal/publish"
	"arbdesk/internal/schedule"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/ratelimit"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("arbdesk exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg config.Config) error {
	scheduler := schedule.NewTickerScheduler()
	eng := engine.New(logger, schedule.SystemClock(), scheduler, market.NewRand(cfg.Engine.Seed), newAdvisoryClient(logger, cfg.Advisory), engine.Options{
		Assets:           market.SelectAssets(cfg.Catalog.Assets),
		Exchanges:        market.SelectExchanges(cfg.Catalog.Exchanges),
		Fees:             arbitrage.FeeModel{Rate: cfg.Fees.Rate, FixedFee: cfg.Fees.FixedNetworkFee},
		Settings:         cfg.Bot,
		InitialBalance:   cfg.Engine.InitialBalance,
		TradeLogLimit:    cfg.Engine.TradeLogLimit,
		PnLWindow:        cfg.Engine.PnLWindow,
		Debounce:         cfg.Engine.Debounce,
		SeedJitter:       cfg.Engine.SeedJitter,
		TickJitter:       cfg.Engine.TickJitter,
		TickInterval:     cfg.Engine.TickInterval,
		StatusInterval:   cfg.Engine.StatusInterval,
		AdvisoryInterval: cfg.Advisory.Interval,
		AdvisoryCooldown: cfg.Advisory.Cooldown,
		AdvisoryTimeout:  cfg.Advisory.Timeout,
		TopOpportunities: cfg.Advisory.TopOpportunities,
		TopMarkets:       cfg.Advisory.TopMarkets,
	})

	// Sinks stop after the server and engine, before the pool and client close.
	sinkCtx, stopSinks := context.WithCancel(context.Background())
	defer stopSinks()
	var sinks sync.WaitGroup

	if cfg.Database.Enabled {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := &database.PostgresRepository{Pool: pool}
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		journal := database.NewJournal(logger, repo, cfg.Database.Buffer)
		eng.Subscribe(journal)
		sinks.Add(1)
		go func() {
			defer sinks.Done()
			journal.Run(sinkCtx)
		}()
		logger.Info("Trade journal enabled", "host", cfg.Database.Host, "db", cfg.Database.DBName)
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, events will be retried per publish", "addr", cfg.Redis.Addr(), "error", err)
		}

		publisher := publish.NewRedisPublisher(logger, client, cfg.Redis.Prefix, cfg.Redis.TTL)
		eng.Subscribe(publisher)
		sinks.Add(1)
		go func() {
			defer sinks.Done()
			publisher.Run(sinkCtx)
		}()
		logger.Info("Redis publisher enabled", "addr", cfg.Redis.Addr())
	}

	defer func() {
		stopSinks()
		sinks.Wait()
	}()

	hub := api.NewHub(logger)
	eng.Subscribe(hub)
	go hub.Run(ctx)

	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(logger, api.NewHandler(logger, eng), hub),
		ReadHeaderTimeout: 5 * time.Second,
	}

	eng.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		eng.Stop()
		return err
	}

	eng.Stop()
	scheduler.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	eng.Wait()
	logger.Info("Shutdown complete")
	return nil
}

func newAdvisoryClient(logger *slog.Logger, cfg config.AdvisoryConfig) advisory.Client {
	if cfg.URL == "" {
		logger.Info("No advisory URL configured, using local fallback analysis")
		return advisory.NopClient{}
	}

	var limiter ratelimit.Limiter = ratelimit.NewUnlimited()
	if cfg.RequestsPerMinute > 0 {
		limiter = ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(time.Minute))
	}
	return advisory.NewHTTPClient(logger, advisory.HTTPConfig{
		URL:     cfg.URL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
		Retries: cfg.Retries,
		Backoff: cfg.Backoff,
	}, limiter)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
