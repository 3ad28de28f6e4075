package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/bizledger/backend/internal/application/finance"
	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/cache"
	"github.com/bizledger/backend/internal/infrastructure/config"
	"github.com/bizledger/backend/internal/infrastructure/event"
	"github.com/bizledger/backend/internal/infrastructure/logger"
	"github.com/bizledger/backend/internal/infrastructure/persistence"
	"github.com/bizledger/backend/internal/interfaces/http/handler"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
	"github.com/bizledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//	@title			BizLedger Backend API
//	@version		1.0
//	@description	Installment and cash-ledger consistency engine

//	@contact.name	API Support
//	@contact.url	https://github.com/bizledger/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting BizLedger Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection, SQL logged through zap
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories and the transaction manager
	cashBoxRepo := persistence.NewGormCashBoxRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	planRepo := persistence.NewGormPlanRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	txManager := persistence.NewGormTxManager(db.DB)

	// Initialize event bus with audit logging for every domain event
	eventBus := event.NewBus(log)
	event.RegisterAuditLogging(eventBus, log)

	// Idempotency store: Redis when configured, in-process otherwise
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		idempotencyStore = redisStore
		log.Info("Redis idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("Using in-memory idempotency store")
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Resolve finance behavior settings
	policy := ledger.NegativeBalancePolicy(cfg.Finance.NegativeBalancePolicy)
	roundStep, err := decimal.NewFromString(cfg.Finance.RoundStep)
	if err != nil {
		log.Warn("Invalid finance.round_step, using default",
			zap.String("round_step", cfg.Finance.RoundStep),
			zap.Error(err),
		)
		roundStep = installment.DefaultRoundStep
	}
	log.Info("Finance settings resolved",
		zap.String("negative_balance_policy", string(policy)),
		zap.String("round_step", roundStep.String()),
		zap.Duration("idempotency_ttl", cfg.Finance.IdempotencyTTL),
	)

	// Initialize application services
	balanceService := financeapp.NewBalanceService(cashBoxRepo, transactionRepo, txManager, eventBus, policy, log)
	reversalService := financeapp.NewReversalService(cashBoxRepo, transactionRepo, txManager, eventBus, log)
	planService := financeapp.NewPlanService(planRepo, txManager, eventBus, roundStep, log)
	allocationService := financeapp.NewAllocationService(
		planRepo, paymentRepo, balanceService, txManager, eventBus, idempotencyStore, log,
	)

	// Initialize HTTP handlers
	cashBoxHandler := handler.NewCashBoxHandler(balanceService, reversalService)
	installmentHandler := handler.NewInstallmentHandler(planService, allocationService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	// 9. Tenant - Resolve tenant context
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing())
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Tenant resolution. Not required here; handlers fall back to the
	// development tenant when no tenant context is present.
	tenantConfig := middleware.DefaultTenantConfig()
	tenantConfig.JWTEnabled = false
	tenantConfig.Required = false
	tenantConfig.Logger = log
	engine.Use(middleware.TenantMiddlewareWithConfig(tenantConfig))

	// Health check endpoints (outside API versioning)
	engine.GET("/health", healthHandler(db, log))
	engine.GET("/ready", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Finance domain: cashboxes, ledger transactions, reversals
	financeRoutes := router.NewDomainGroup("finance", "/finance")
	financeRoutes.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "finance service ready"})
	})

	// Cashbox routes
	financeRoutes.POST("/cashboxes", cashBoxHandler.CreateCashBox)
	financeRoutes.GET("/cashboxes", cashBoxHandler.ListCashBoxes)
	financeRoutes.GET("/cashboxes/:id", cashBoxHandler.GetCashBox)

	// Balance operation routes
	financeRoutes.POST("/deposits", cashBoxHandler.Deposit)
	financeRoutes.POST("/withdrawals", cashBoxHandler.Withdraw)
	financeRoutes.POST("/transfers", cashBoxHandler.Transfer)

	// Transaction audit routes
	financeRoutes.GET("/transactions", cashBoxHandler.ListTransactions)
	financeRoutes.POST("/transactions/:id/reverse", cashBoxHandler.ReverseTransaction)

	// Installment plan routes
	financeRoutes.POST("/installment-plans", installmentHandler.CreatePlan)
	financeRoutes.GET("/installment-plans", installmentHandler.ListPlans)
	financeRoutes.GET("/installment-plans/:id", installmentHandler.GetPlan)
	financeRoutes.POST("/installment-plans/:id/cancel", installmentHandler.CancelPlan)
	financeRoutes.POST("/installment-plans/:id/payments", installmentHandler.AllocatePayment)
	financeRoutes.GET("/installment-plans/:id/payments", installmentHandler.ListPayments)

	r.Register(financeRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
