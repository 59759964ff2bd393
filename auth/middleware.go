package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	stateKey = "authState"
	// CookieName carries the session token for browser clients.
	CookieName = "idToken"
	LoginPath  = "/login"
)

// CredentialFromRequest reads a bearer token from the Authorization header,
// falling back to the session cookie.
func CredentialFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}

// RequireAdmin lets only Authorized callers through. Denied callers are
// sent to the login page; an Error state is reported as an outage and is
// never redirected.
func RequireAdmin(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := sessions.Resolve(c.Request.Context(), CredentialFromRequest(c))
		c.Set(stateKey, st)

		switch st.Status {
		case Authorized:
			c.Next()
		case Denied:
			status, msg := http.StatusUnauthorized, "authentication required"
			if st.IsAuthenticated {
				status, msg = http.StatusForbidden, "admin access required"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg, "redirect": LoginPath})
		case Error:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authorization service unavailable"})
		default:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authorization pending"})
		}
	}
}

// RequireSignedIn lets through any caller holding a valid credential,
// administrator or not.
func RequireSignedIn(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := sessions.Resolve(c.Request.Context(), CredentialFromRequest(c))
		c.Set(stateKey, st)

		switch {
		case st.IsAuthenticated:
			c.Next()
		case st.Status == Error:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authorization service unavailable"})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "redirect": LoginPath})
		}
	}
}

// StateFromContext returns the state RequireAdmin resolved for this
// request, or an Unresolved state.
func StateFromContext(c *gin.Context) State {
	if v, ok := c.Get(stateKey); ok {
		if st, ok := v.(State); ok {
			return st
		}
	}
	return State{}
}
