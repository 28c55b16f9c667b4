// Package httpapi wires the Gin transport to the economy and moment
// services, middleware and route handlers.
//
// Global middleware, in order:
//  1. OpenTelemetry (otelgin)
//  2. RequestID
//  3. Logger (request-scoped zerolog, redacted)
//  4. Recovery
//  5. Body size limit
//  6. Prometheus metrics
//  7. Per-user/IP rate limit
//  8. CORS and security headers
//
// The versioned API group adds Identity (X-User-ID) and Idempotency, so
// replays are keyed by the authenticated caller.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-companion-backend/internal/config"
	"github.com/tbourn/go-companion-backend/internal/http/handlers"
	"github.com/tbourn/go-companion-backend/internal/http/middleware"
	"github.com/tbourn/go-companion-backend/internal/services"
)

const maxBodyBytes = 64 << 10

var (
	corsMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
		middleware.HeaderUserID, middleware.HeaderIdempotencyKey}
	corsExpose = []string{"X-Request-ID", "ETag", middleware.HeaderIdempotencyReplayed, "Content-Length"}
)

// RegisterRoutes attaches middleware, operational endpoints and the public
// API to r.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, econ *services.Economy, moments *services.Moments, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", health(db))

	h := handlers.New(econ, moments)
	idem := middleware.Idempotency(
		&middleware.GormIdempotencyStore{DB: db, TTL: cfg.IdempotencyTTL},
		middleware.IdempotencyOptions{MaxLen: 200},
	)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Identity(), idem)
	{
		api.POST("/account", h.EnsureAccount)

		// Wallet
		api.GET("/wallet/balance", h.GetBalance)
		api.GET("/wallet/transactions", h.ListTransactions)
		api.GET("/wallet/recharge-options", h.RechargeOptions)
		api.POST("/wallet/recharge", h.Recharge)

		// Characters
		api.GET("/characters", h.ListCharacters)
		api.GET("/characters/:id", h.GetCharacter)
		api.GET("/characters/:id/unlock", h.CheckUnlock)
		api.POST("/characters/:id/unlock", h.UnlockCharacter)
		api.POST("/characters/:id/session", h.OpenSession)

		// Gifts
		api.GET("/gifts", h.ListGifts)
		api.POST("/characters/:id/gifts", h.SendGift)
		api.GET("/characters/:id/gifts", h.GiftHistory)
		api.GET("/characters/:id/gift-ranking", h.GiftRanking)

		// Sessions
		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id/messages", h.ListMessages)
		api.POST("/sessions/:id/messages", h.SendMessage)
		api.POST("/sessions/:id/pin", h.TogglePin)
		api.DELETE("/sessions/:id", h.DeleteSession)

		// Moments
		api.GET("/moments", h.ListMoments)
		api.GET("/moments/:id", h.GetMoment)
		api.POST("/moments/:id/like", h.ToggleMomentLike)
		api.POST("/moments/:id/comments", h.CommentMoment)
	}
}

// health pings the database so a lost connection reports unavailable.
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// corsMiddleware allows every origin when none are configured, and only the
// allowlist otherwise. Credentials are never allowed.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    corsExpose,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

// limitBody caps request bodies; oversized reads fail in the binder.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
