// middleware/session.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedranker/internal/session"
	"feedranker/internal/utils"
)

const sessionCookieName = "sid"

// SessionMiddleware implements §6.2: on each request it refreshes an
// existing fast-store session or starts a new one, keeping the sid cookie
// and the fast store's last-access sorted set in lockstep.
type SessionMiddleware struct {
	manager *session.Manager
}

func NewSessionMiddleware(manager *session.Manager) *SessionMiddleware {
	return &SessionMiddleware{manager: manager}
}

// Attach requires an already-resolved user id (RequireAuth must run first)
// and makes sure a live session exists for it, setting the sid cookie and
// the session id in context either way.
func (sm *SessionMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, utils.ErrUnauthorized, "no identity resolved")
			c.Abort()
			return
		}

		sessionID, err := c.Cookie(sessionCookieName)
		if err == nil && sessionID != "" {
			blob, loadErr := sm.manager.Load(c.Request.Context(), sessionID)
			if loadErr == nil && blob != nil {
				if err := sm.manager.Refresh(c.Request.Context(), sessionID); err != nil {
					utils.ErrorResponse(c, http.StatusInternalServerError, utils.ErrServiceUnavailable, err.Error())
					c.Abort()
					return
				}
				sm.setCookie(c, sessionID)
				c.Set(utils.ContextSessionID, sessionID)
				c.Next()
				return
			}
		}

		newID, _, startErr := sm.manager.Start(c.Request.Context(), userID)
		if startErr != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, utils.ErrServiceUnavailable, startErr.Error())
			c.Abort()
			return
		}
		sm.setCookie(c, newID)
		c.Set(utils.ContextSessionID, newID)
		c.Next()
	}
}

func (sm *SessionMiddleware) setCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, sessionID, session.SessionTTLSeconds, "/", "", false, true)
}

// GetSessionID reads the session id Attach placed in context.
func GetSessionID(c *gin.Context) (string, bool) {
	id, exists := c.Get(utils.ContextSessionID)
	if !exists {
		return "", false
	}
	s, ok := id.(string)
	return s, ok
}
