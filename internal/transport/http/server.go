package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/modchat/modchat-server/internal/auth"
	"github.com/modchat/modchat-server/internal/config"
	"github.com/modchat/modchat-server/internal/core"
	"github.com/modchat/modchat-server/internal/store"
)

// NewServer builds the HTTP server: REST API, admin console, and the
// websocket chat endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, messages store.MessageStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	api := NewAPIHandlers(authService, logger)
	router.POST("/api/register", api.Register)
	router.POST("/api/login", api.Login)

	admin := NewAdminHandlers(hub, messages, time.Duration(cfg.DefaultMuteSeconds)*time.Second, logger)
	adminGroup := router.Group("/api/admin", AuthMiddleware(authService, logger), AdminOnly())
	adminGroup.GET("/presence", admin.Presence)
	adminGroup.GET("/messages", admin.Messages)
	adminGroup.POST("/kick", admin.Kick)
	adminGroup.POST("/ban", admin.Ban)
	adminGroup.POST("/mute", admin.Mute)
	adminGroup.POST("/clear", admin.Clear)
	adminGroup.POST("/close", admin.Close)

	ws := NewWSHandler(hub, authService, cfg.MaxMessageBytes, cfg.ChatRateLimit, logger)
	router.GET("/ws", gin.WrapH(ws))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
