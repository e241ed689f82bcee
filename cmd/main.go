package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"superteam-earn/internal/auth"
	"superteam-earn/internal/blockchain"
	"superteam-earn/internal/cache"
	"superteam-earn/internal/config"
	"superteam-earn/internal/database"
	"superteam-earn/internal/handlers"
	"superteam-earn/internal/jobs"
	"superteam-earn/internal/logger"
	"superteam-earn/internal/metrics"
	"superteam-earn/internal/middleware"
	"superteam-earn/internal/repository"
	"superteam-earn/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		zap.L().Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		zap.L().Fatal("failed to run migrations", zap.Error(err))
	}
	db := database.GetDB()

	var store cache.Cache = cache.NewMemoryCache()
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			zap.L().Warn("redis unavailable, using in-memory cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			defer redisCache.Close()
			store = redisCache
		}
	}

	// Initialize Solana client
	solanaClient := blockchain.NewSolanaClient(cfg.Solana.Network, cfg.Solana.RPCURL)

	var sender services.EmailSender
	if cfg.Email.ResendAPIKey != "" {
		sender = services.NewResendSender(cfg.Email.ResendAPIKey)
	} else {
		zap.L().Warn("RESEND_API_KEY not set, emails are logged only")
	}

	// Initialize services
	credits := services.NewCreditService(db, cfg.App.MonthlyCredits)
	authService := services.NewAuthService(db, credits, cfg.App.UsernameAttempts)
	emailService := services.NewEmailService(db, sender, cfg.Email.From, cfg.Email.ReplyTo, cfg.Email.BatchSize, cfg.Email.BatchDelay)
	priceService := services.NewPriceService(store, cfg.Pricing.CoinGeckoURL, cfg.Pricing.CryptoCompareURL, cfg.Pricing.CacheTTL)
	listingService := services.NewListingService(db, repository.NewListingRepository(db), priceService, emailService,
		store, cfg.App.FeaturedSlots, cfg.App.FrontendURL)
	paymentService := services.NewPaymentService(solanaClient, cfg.Solana.TokenMints, cfg.Solana.VerifyPayments)
	kycService := services.NewKYCService(db)

	scheduler := jobs.NewScheduler(listingService, credits, kycService)

	// Initialize handlers
	h := &handlers.Handlers{
		Auth:       handlers.NewAuthHandler(authService, auth.NewNonceStore(store), cfg.App.LoginMessage),
		User:       handlers.NewUserHandler(services.NewUserService(db)),
		Listing:    handlers.NewListingHandler(listingService),
		Submission: handlers.NewSubmissionHandler(services.NewSubmissionService(db, paymentService)),
		Sponsor:    handlers.NewSponsorHandler(services.NewSponsorService(db), paymentService),
		Grant:      handlers.NewGrantHandler(services.NewGrantService(db)),
		Comment:    handlers.NewCommentHandler(services.NewCommentService(db)),
		PoW:        handlers.NewPoWHandler(services.NewPoWService(db)),
		Credit:     handlers.NewCreditHandler(credits),
		Referral:   handlers.NewReferralHandler(services.NewReferralService(db, cfg.App.FrontendURL)),
		Email:      handlers.NewEmailHandler(emailService),
		KYC:        handlers.NewKYCHandler(kycService),
		Cron:       handlers.NewCronHandler(scheduler),
		Admin:      handlers.NewAdminHandler(services.NewAdminService(db, credits, listingService)),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Set up Gin router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), metrics.Middleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst)
	router.Use(limiter.Handler())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", metrics.Handler())

	h.Register(router, handlers.Secrets{
		Cron:   cfg.App.CronSecret,
		Sumsub: cfg.KYC.WebhookSecret,
	})

	if cfg.App.EnableScheduler {
		if err := scheduler.Start(); err != nil {
			zap.L().Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := limiter.Cleanup(30 * time.Minute); removed > 0 {
					zap.L().Debug("rate limiter cleanup", zap.Int("removed", removed))
				}
			case <-cleanupDone:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("shutting down server")

	close(cleanupDone)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if cfg.App.EnableScheduler {
		scheduler.Stop(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("server exited")
}
