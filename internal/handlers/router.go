package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"prophet-betting/internal/auth"
)

// Handlers groups every HTTP handler the router serves
type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Bet     *BetHandler
	Market  *MarketHandler
	Appeal  *AppealHandler
	Health  *HealthHandler
	Limiter *auth.RateLimiter
}

// NewRouter wires middleware and routes
func NewRouter(h Handlers, allowedOrigins []string, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware(log), h.Auth.RequireUser())
	{
		authProtected.GET("/me", h.Auth.Me)
	}

	// Public reads; a token, when sent, adds the caller's own stakes
	public := router.Group("/api")
	public.Use(auth.OptionalAuth(log), h.Limiter.Middleware())
	{
		public.GET("/bets", h.Bet.ListBets)
		public.GET("/bets/:id", h.Bet.GetBet)
		public.GET("/markets", h.Market.GetMarkets)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware(log), h.Limiter.Middleware(), h.Auth.RequireUser())
	{
		api.POST("/bets", h.Bet.CreateBet)
		api.POST("/bets/:id/stake", h.Bet.PlaceStake)
		api.POST("/bets/:id/resolve", h.Bet.ResolveBet)
		api.POST("/bets/:id/arbitrate", h.Bet.ArbitrateBet)

		api.POST("/markets", h.Market.CreateMarket)

		api.GET("/appeals", h.Appeal.ListAppeals)
		api.POST("/appeals", h.Appeal.CreateAppeal)

		api.GET("/user/balance", h.User.GetBalance)
	}

	return router
}

// RequestLogger logs one line per request
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id, ok := auth.GetUserID(c); ok {
			fields = append(fields, zap.String("user_id", id.String()))
		}
		if c.Writer.Status() >= 500 {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
