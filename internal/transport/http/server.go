package http

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/telecare/session-server/internal/auth"
	"github.com/telecare/session-server/internal/config"
	"github.com/telecare/session-server/internal/gate"
	"github.com/telecare/session-server/internal/session"
	"github.com/telecare/session-server/internal/store"
)

// NewServer builds the HTTP server with all session-layer routes. The
// WebSocket endpoint hangs off a parent mux rather than the REST router:
// the upgrade hijacks the connection, which requires the raw
// ResponseWriter that gin's wrapper refuses to hand over.
func NewServer(authService *auth.Service, g *gate.Gate, reg *session.Registry, rooms *session.Rooms, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	authHandlers := NewAuthHandlers(authService, logger)
	rtcHandlers := NewRTCHandlers(g, reg, logger)

	api := router.Group("/api")
	api.POST("/auth/register", authHandlers.Register)
	api.POST("/auth/login", authHandlers.Login)

	rtc := api.Group("/rtc", AuthMiddleware(authService, logger))
	rtc.GET("/token/:encounterID",
		RequireRole(rolesAllowedToJoin...),
		AuditMiddleware(logger, "RTC_TOKEN_REQUEST", "consultation"),
		rtcHandlers.GetToken)
	rtc.POST("/join/:encounterID",
		RequireRole(rolesAllowedToJoin...),
		AuditMiddleware(logger, "RTC_JOIN", "consultation"),
		rtcHandlers.JoinRoom)
	rtc.POST("/leave/:encounterID",
		RequireRole(rolesAllowedToJoin...),
		AuditMiddleware(logger, "RTC_LEAVE", "consultation"),
		rtcHandlers.LeaveRoom)
	rtc.GET("/online",
		RequireRole(store.RoleAdmin),
		rtcHandlers.Online)

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(authService, reg, rooms, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	fmt.Fprint(c.Writer, "ok")
}
