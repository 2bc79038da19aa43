package handler

import (
	"time"

	"asset-ledger/internal/adapter/http/middleware"
	"asset-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	ExchangeSvc    ports.ExchangeService
	PointsSvc      ports.PointsService
	TokenSvc       ports.TokenService
	WebhookParser  ports.CustodyWebhookParser
	ReplayGuard    ports.ReplayGuard // nil = no replay protection
	Queue          ports.JobQueue
	BalanceEvents  ports.BalanceSubscriber
	ReplayTTL      time.Duration
	EventJobOpts   ports.JobOptions
	RateLimitStore middleware.RateLimitStore // nil = rate limiting disabled
	RateLimit      middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	Gatherer       prometheus.Gatherer // nil = no /metrics
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.Gatherer != nil {
		r.GET("/metrics", Metrics(deps.Gatherer))
	}

	rules := middleware.DefaultRateLimitRules(deps.RateLimit)
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	webhookHandler := NewWebhookHandler(deps.WebhookParser, deps.ReplayGuard, deps.Queue, deps.ReplayTTL, deps.EventJobOpts, deps.Logger)
	r.POST("/webhooks/custody", rl("webhooks"), webhookHandler.Custody)

	v1 := r.Group("/api/v1", middleware.JWTAuth(deps.TokenSvc, deps.Logger))

	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.BalanceEvents, deps.Logger)
	wallets := v1.Group("/wallets", rl("wallets"))
	{
		wallets.GET("/events", walletHandler.Events)
		wallets.GET("/:id/balance", walletHandler.GetBalance)
		wallets.GET("/:id/transactions", walletHandler.ListTransactions)
	}

	exchangeHandler := NewExchangeHandler(deps.ExchangeSvc)
	v1.POST("/exchanges", rl("exchanges"), exchangeHandler.Create)

	pointsHandler := NewPointsHandler(deps.PointsSvc)
	points := v1.Group("/points", rl("points"))
	{
		points.GET("/balance", pointsHandler.GetBalance)
		points.POST("/events/:code", pointsHandler.Credit)
	}

	return r
}
