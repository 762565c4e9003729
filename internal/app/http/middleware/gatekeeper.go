package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"oahelper-api/internal/api/respond"

	"github.com/gin-gonic/gin"
)

const (
	MsgAutomatedAccess = "Forbidden: Automated access denied"
	MsgBadOrigin       = "Forbidden: Unauthorized Origin"
	MsgBadAPIKey       = "Unauthorized: Invalid API key"
)

var blockedAgents = []string{"curl", "python", "wget", "libwww-perl", "http-client"}

// Gatekeeper rejects scripted clients, foreign origins and requests without
// the shared X-API-Key. In development a request with neither Origin nor
// Referer is let through so local tools work.
func Gatekeeper(apiKey string, allowedOrigins []string, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		ua := strings.ToLower(c.Request.UserAgent())
		for _, agent := range blockedAgents {
			if strings.Contains(ua, agent) {
				respond.Abort(c, http.StatusForbidden, MsgAutomatedAccess)
				return
			}
		}

		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")
		if !originAllowed(origin, referer, allowedOrigins) {
			if !(development && origin == "" && referer == "") {
				respond.Abort(c, http.StatusForbidden, MsgBadOrigin)
				return
			}
		}

		key := c.GetHeader("X-API-Key")
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			respond.Abort(c, http.StatusUnauthorized, MsgBadAPIKey)
			return
		}

		c.Next()
	}
}

// Origin must match exactly; the Referer fallback is a prefix match.
func originAllowed(origin, referer string, allowed []string) bool {
	if origin != "" {
		return slices.Contains(allowed, origin)
	}
	if referer != "" {
		for _, a := range allowed {
			if strings.HasPrefix(referer, a) {
				return true
			}
		}
	}
	return false
}
