package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/telecare/session-server/internal/auth"
)

const (
	// ContextKeySubjectID is the context key for the caller's subject ID.
	ContextKeySubjectID = "subject_id"
	// ContextKeyRole is the context key for the caller's role.
	ContextKeyRole = "role"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// The cross-cutting checks run as an explicit, ordered chain: request
// logging, then credential resolution, then role check, then audit. Each
// stage aborts with a classified response instead of panicking.

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}

// AuthMiddleware resolves the bearer credential to (subject, role) and
// stores the explicit caller identity on the request context.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug().Msg("missing authorization header")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.Debug().Msg("invalid authorization header format")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid authorization header format"})
			c.Abort()
			return
		}

		identity, err := authService.ResolveCredential(parts[1])
		if err != nil {
			logger.Debug().Err(err).Msg("invalid credential")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextKeySubjectID, identity.SubjectID)
		c.Set(ContextKeyRole, identity.Role)

		c.Next()
	}
}

// RequireRole allows the request through only when the caller's role is one
// of the listed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextKeyRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "insufficient role"})
		c.Abort()
	}
}

// AuditMiddleware records an audit entry for the request after it ran. The
// durable audit trail is owned by an external subsystem; this emits the
// structured record it consumes.
func AuditMiddleware(logger *zerolog.Logger, action, module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("audit_action", action).
			Str("audit_module", module).
			Int64("subject_id", c.GetInt64(ContextKeySubjectID)).
			Str("role", c.GetString(ContextKeyRole)).
			Int("status", c.Writer.Status()).
			Msg("audit")
	}
}

// subjectFromContext extracts the authenticated caller identity set by
// AuthMiddleware.
func subjectFromContext(c *gin.Context) (int64, string, bool) {
	v, exists := c.Get(ContextKeySubjectID)
	if !exists {
		return 0, "", false
	}
	subjectID, ok := v.(int64)
	if !ok {
		return 0, "", false
	}
	return subjectID, c.GetString(ContextKeyRole), true
}
