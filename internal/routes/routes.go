package routes

import (
	tb "github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	toll_gin "github.com/didip/tollbooth_gin"
	"github.com/gin-gonic/gin"

	"github.com/maxzillabong/encrypt-chat-ai/config"
	"github.com/maxzillabong/encrypt-chat-ai/internal/middleware"
)

// Handlers is what RegisterRoutes needs from the handler layer.
type Handlers interface {
	Handshake(c *gin.Context)
	SecureMessage(c *gin.Context)
	LegacyMessage(c *gin.Context)
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, h Handlers) {
	r.Use(middleware.RequestTelemetry())

	hsLimiter := tb.NewLimiter(cfg.HSLimiter.RPC, &limiter.ExpirableOptions{DefaultExpirationTTL: cfg.HSLimiter.TTL})
	hsLimiter.SetBurst(cfg.HSLimiter.Burst)

	r.POST("/handshake",
		toll_gin.LimitHandler(hsLimiter),
		middleware.HandshakeAttemptLimiter(),
		h.Handshake,
	)

	msgLimiter := tb.NewLimiter(cfg.MsgLimiter.RPC, &limiter.ExpirableOptions{DefaultExpirationTTL: cfg.MsgLimiter.TTL})
	msgLimiter.SetBurst(cfg.MsgLimiter.Burst)

	secure := r.Group("/secure", toll_gin.LimitHandler(msgLimiter),
		middleware.MaxSizeMiddleware(middleware.MaxMessageSize))
	{
		secure.POST("/message", h.SecureMessage)
		secure.POST("/legacy", h.LegacyMessage)
	}
}
