package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/rhivo/premium-api/internal/transport/http/handler"
	"github.com/rhivo/premium-api/internal/transport/http/middleware"
)

func NewRouter(
	logger *slog.Logger,
	authHandler *handler.AuthHandler,
	checkoutHandler *handler.CheckoutHandler,
	webhookHandler *handler.WebhookHandler,
	statusHandler *handler.StatusHandler,
	sessions middleware.SessionVerifier,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMW := middleware.Auth(sessions)

	auth := r.Group("/auth")
	auth.POST("/request", authHandler.RequestMagicLink)
	auth.POST("/verify", authHandler.Verify)
	auth.GET("/me", authMW, authHandler.Me)

	r.POST("/checkout/create", authMW, checkoutHandler.Create)

	// Stripe authenticates via its signature header, not a session.
	r.POST("/update-status", webhookHandler.UpdateStatus)

	// Legacy endpoint kept for older extension builds.
	r.POST("/check-status", statusHandler.CheckStatus)

	return r
}
