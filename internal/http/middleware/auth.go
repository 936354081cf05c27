package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/gate"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
	"github.com/yungbote/coursemarket-client/internal/session"
)

// SessionGate guards shell routes that act on the signed-in principal.
type SessionGate struct {
	log     *logger.Logger
	session *session.Manager
}

func NewSessionGate(log *logger.Logger, sess *session.Manager) *SessionGate {
	if log == nil {
		log = logger.NewNop()
	}
	return &SessionGate{log: log.With("Middleware", "SessionGate"), session: sess}
}

// RequireSession answers 307 to the login route, carrying the requested URI
// as next, when no live session is held.
func (g *SessionGate) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.session.IsAuthenticated() {
			c.Next()
			return
		}
		next := c.Request.URL.RequestURI()
		loc := gate.LoginRedirect(next)
		g.log.Debug("session required", "path", c.Request.URL.Path)
		c.Header("Location", loc)
		c.AbortWithStatusJSON(http.StatusTemporaryRedirect, gin.H{
			"error":    gin.H{"message": "sign in required", "code": "unauthorized"},
			"redirect": loc,
		})
	}
}
