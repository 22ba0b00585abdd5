package main

import (
	"context"
	"log"
	logslog "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JulianoL13/tube-summary-engine/internal/bot"
	"github.com/JulianoL13/tube-summary-engine/internal/config"
	"github.com/JulianoL13/tube-summary-engine/internal/logs"
	"github.com/JulianoL13/tube-summary-engine/internal/logs/slog"
	"github.com/JulianoL13/tube-summary-engine/internal/proxy"
	"github.com/JulianoL13/tube-summary-engine/internal/proxy/geonode"
	proxystore "github.com/JulianoL13/tube-summary-engine/internal/proxy/store"
	"github.com/JulianoL13/tube-summary-engine/internal/state"
	"github.com/JulianoL13/tube-summary-engine/internal/status"
	"github.com/JulianoL13/tube-summary-engine/internal/summary"
	"github.com/JulianoL13/tube-summary-engine/internal/telegram"
	"github.com/JulianoL13/tube-summary-engine/internal/transcript"
	"github.com/JulianoL13/tube-summary-engine/internal/watcher"
)

func main() {
	cfg := config.Load()

	logger := slog.New(logslog.LevelInfo)
	logger.Info("starting tube-summary-engine bot")

	if cfg.YouTubeAPIKey == "" || cfg.OpenAIAPIKey == "" || cfg.TelegramBotToken == "" {
		logger.Error("YOUTUBE_API_KEY, OPENAI_API_KEY and TELEGRAM_BOT_TOKEN are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := buildProxyManager(ctx, cfg, logger)

	fetcherOpts := []transcript.FetcherOption{
		transcript.WithMaxAttempts(cfg.MaxProxyAttempts),
	}
	if !cfg.UseProxies {
		logger.Info("proxy rotation disabled, fetching transcripts directly")
		fetcherOpts = append(fetcherOpts, transcript.WithoutProxies())
	}
	fetcher := transcript.NewFetcher(
		manager,
		transcript.NewYouTubeClient(cfg.HTTPTimeout),
		logger,
		fetcherOpts...,
	)

	b := bot.New(
		state.NewFileStore(cfg.MappingsFile, logger),
		watcher.NewClient("", cfg.YouTubeAPIKey, cfg.HTTPTimeout, logger),
		fetcher,
		summary.NewClient("", cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.HTTPTimeout, logger),
		telegram.NewSender(telegram.NewBotClient("", cfg.TelegramBotToken, cfg.HTTPTimeout), logger),
		logger,
		bot.WithCheckInterval(cfg.CheckInterval),
		bot.WithProcessInterval(cfg.ProcessInterval),
	)

	if cfg.StatusAddr != "" {
		startStatusServer(ctx, cfg.StatusAddr, manager, b, logger)
	}

	if err := b.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("bot exited", "error", err)
		os.Exit(1)
	}
	logger.Info("bot stopped")
}

func buildProxyManager(ctx context.Context, cfg config.Config, logger logs.Logger) *proxy.Manager {
	var store proxy.Store
	switch cfg.ProxyStore {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		logger.Info("using redis proxy store", "addr", cfg.RedisAddr)
		store = proxystore.NewRedisStore(client, "")
	default:
		store = proxystore.NewFileStore(cfg.ProxyFallbackFile, logger)
	}

	source := geonode.NewClient(cfg.ProxyListingURL, cfg.ProxyPoolSize, cfg.HTTPTimeout, logger)

	manager := proxy.NewManager(source, store, logger,
		proxy.WithFilterPolicy(proxy.FilterPolicyFromString(cfg.ProxyFilter)),
		proxy.WithRefreshInterval(cfg.ProxyRefresh),
		proxy.WithMaxPoolSize(cfg.ProxyPoolSize),
	)
	manager.Initialize(ctx)
	return manager
}

func startStatusServer(ctx context.Context, addr string, manager *proxy.Manager, b *bot.Bot, logger logs.Logger) {
	handler := status.NewHandler(manager, b, logger)
	server := &http.Server{
		Addr:         addr,
		Handler:      status.NewRouter(handler, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("status API listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("status server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("status server shutdown error", "error", err)
		}
	}()
}
