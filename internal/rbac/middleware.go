package rbac

import (
	"net/http"
	"strings"

	"mapdata-api/internal/apierror"
	"mapdata-api/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequirePolicy admits callers whose token carries the service access role.
// It must run after auth.Authenticate.
func RequirePolicy() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}
		if role != auth.PolicyRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireBusinessUnit rejects requests that omit any of the named headers.
// The first header must also carry a non-empty value. With no arguments it
// checks the businessunit header.
func RequireBusinessUnit(headers ...string) gin.HandlerFunc {
	if len(headers) == 0 {
		headers = []string{apierror.HeaderBusinessUnit}
	}
	return func(c *gin.Context) {
		for _, h := range headers {
			if _, ok := c.Request.Header[http.CanonicalHeaderKey(h)]; !ok {
				apierror.BadRequestProblem(c, apierror.TitleUnavailableBusinessUnit)
				return
			}
		}
		if strings.TrimSpace(c.GetHeader(headers[0])) == "" {
			apierror.BadRequestProblem(c, apierror.TitleUnavailableBusinessUnit)
			return
		}
		c.Next()
	}
}
