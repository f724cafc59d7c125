package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"stars-shop-backend/internal/common/config"
	"stars-shop-backend/internal/common/logger"
	"stars-shop-backend/internal/common/middleware"
	authhttp "stars-shop-backend/internal/features/auth/delivery/http"
	authredis "stars-shop-backend/internal/features/auth/repository/redis"
	authservice "stars-shop-backend/internal/features/auth/service"
	pricinghttp "stars-shop-backend/internal/features/pricing/delivery/http"
	pricingservice "stars-shop-backend/internal/features/pricing/service"
	purchasehttp "stars-shop-backend/internal/features/purchase/delivery/http"
	purchaseredis "stars-shop-backend/internal/features/purchase/repository/redis"
	purchaseservice "stars-shop-backend/internal/features/purchase/service"
	statshttp "stars-shop-backend/internal/features/stats/delivery/http"
	statsredis "stars-shop-backend/internal/features/stats/repository/redis"
	statsservice "stars-shop-backend/internal/features/stats/service"
	"stars-shop-backend/internal/platform/cryptopay"
	"stars-shop-backend/internal/platform/fragment"
	"stars-shop-backend/internal/platform/rates"
	redisplatform "stars-shop-backend/internal/platform/redis"
	"stars-shop-backend/internal/platform/telegram"
	tonplatform "stars-shop-backend/internal/platform/ton"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger.Init("stars-shop-backend", cfg.Debug)

	redisClient, err := redisplatform.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	notifier, err := telegram.NewNotifier(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Telegram notifier")
	}

	var direct purchaseservice.DirectPayments
	if cfg.TON.ShopWallet != "" {
		tonClient, err := tonplatform.Connect(ctx, cfg.TON.ConfigURL, cfg.TON.ShopWallet)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to TON")
		}
		direct = tonClient
		logger.Info().Msg("Direct TON payments enabled")
	}

	pricingSvc := pricingservice.NewPricingService(
		rates.NewClient(cfg.Pricing.RatesURL), cfg.Pricing.StarPriceRUB)

	statsSvc := statsservice.NewStatsService(statsredis.NewStatsRepository(redisClient))

	authSvc := authservice.NewAuthService(
		authredis.NewTokenRepository(redisClient), cfg.Telegram.BotToken, cfg.Debug)

	purchaseSvc := purchaseservice.NewPurchaseService(purchaseservice.Deps{
		Repo:      purchaseredis.NewPurchaseRepository(redisClient),
		Prices:    pricingSvc,
		Invoices:  cryptopay.NewClient(cfg.CryptoPay.Token, cfg.CryptoPay.BaseURL),
		Direct:    direct,
		Deliverer: fragment.NewClient(cfg.Fragment.BaseURL, cfg.Fragment.Seed, cfg.Fragment.Cookies),
		Notifier:  notifier,
		Stats:     statsSvc,
	})
	defer purchaseSvc.Close()

	if err := purchaseSvc.ResumeWatchers(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to resume payment watchers")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	authhttp.NewAuthHandler(authSvc).RegisterRoutes(api)
	pricinghttp.NewPricingHandler(pricingSvc).RegisterRoutes(api)
	purchasehttp.NewPurchaseHandler(purchaseSvc).RegisterRoutes(api)
	statshttp.NewStatsHandler(statsSvc).RegisterRoutes(api)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "stars-shop-backend",
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(checkCtx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
