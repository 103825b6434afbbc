package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/greenleaf-shop/server/internal/advisor"
	"github.com/greenleaf-shop/server/internal/auth"
	"github.com/greenleaf-shop/server/internal/catalog"
	"github.com/greenleaf-shop/server/internal/checkout"
	"github.com/greenleaf-shop/server/internal/config"
	"github.com/greenleaf-shop/server/internal/httpapi"
	"github.com/greenleaf-shop/server/internal/order"
	"github.com/greenleaf-shop/server/internal/telemetry"
	logx "github.com/greenleaf-shop/server/pkg/logger"
)

func main() {
	cfg, warning, err := config.Load(".env")
	logx.Init(logx.LoggerOpts{Environment: cfg.Env(), Level: cfg.LogLevel})
	if warning != nil {
		logx.Warn().Err(warning).Msg("Could not load .env file")
	}
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.EnsureDataDir(); err != nil {
		logx.Warn().Err(err).Str("path", cfg.DataDir).Msg("Could not create data directory")
	}

	// Redis is optional: tokens and advisor history fall back to memory.
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = cfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
		}
		defer rdb.Close()
		logx.Info().Msg("Connected to Redis successfully")
	}

	cat, err := catalog.Default()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to load plant catalog")
	}

	var tokens auth.TokenStore = auth.NewMemoryTokenStore(nil)
	if cfg.Auth.TokenStore == config.TokenStoreRedis {
		tokens = auth.NewRedisTokenStore(rdb, nil)
	}
	authSvc := auth.NewService(auth.NewUserCollection(cfg.UsersPath()), tokens, auth.WithTokenTTL(cfg.Auth.TokenTTL))
	orders := order.NewStore(order.NewCollection(cfg.OrdersPath()), order.WithDeliveryLeadTime(cfg.Order.DeliveryLeadTime))

	adv, err := buildAdvisor(ctx, cfg, cat, rdb)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build plant advisor")
	}

	shutdownTracing, err := telemetry.Setup(telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to set up tracing")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Catalog:        cat,
		Auth:           authSvc,
		Checkout:       checkout.NewService(cat, orders),
		Orders:         orders,
		Advisor:        adv,
		PingMessage:    cfg.PingMessage,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, cfg.Env().GinMode())

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      telemetry.Middleware(router, cfg.Tracing.ServiceName, "/healthz"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logx.Info().
			Str("addr", cfg.HTTP.Addr).
			Str("env", cfg.Env().String()).
			Int("products", cat.Len()).
			Bool("advisor", adv != nil).
			Msg("Storefront server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Tracer shutdown failed")
	}
}

// buildAdvisor returns nil when no Gemini key is configured.
func buildAdvisor(ctx context.Context, cfg config.Config, cat *catalog.Catalog, rdb *redis.Client) (*advisor.Advisor, error) {
	if !cfg.Advisor.Enabled() {
		logx.Info().Msg("GEMINI_API_KEY not set, plant advisor disabled")
		return nil, nil
	}

	tools := advisor.NewCatalogTools(cat)
	infos, err := advisor.ToolInfos(ctx, tools)
	if err != nil {
		return nil, err
	}
	cm, err := advisor.NewGeminiChatModel(ctx, advisor.GeminiConfig{
		APIKey:      cfg.Advisor.APIKey,
		BaseURL:     cfg.Advisor.BaseURL,
		Model:       cfg.Advisor.Model,
		Temperature: cfg.Advisor.Temperature,
		MaxTokens:   cfg.Advisor.MaxTokens,
	}, infos)
	if err != nil {
		return nil, err
	}

	var history advisor.ConversationRepository
	if rdb != nil {
		history = advisor.NewRedisConversationRepository(rdb, cfg.Advisor.HistoryTTL, cfg.Advisor.HistoryTurns)
	} else {
		history = advisor.NewMemoryConversationRepository(cfg.Advisor.HistoryTTL, cfg.Advisor.HistoryTurns)
	}

	return advisor.New(ctx, cm, tools, history, advisor.Config{
		Prompt: advisor.PromptConfig{
			StoreName:  cfg.Advisor.StoreName,
			Categories: cat.Categories(),
		},
		ModelName:    cfg.Advisor.Model,
		MaxToolCalls: cfg.Advisor.MaxToolCalls,
		HistoryTurns: cfg.Advisor.HistoryTurns,
	})
}
