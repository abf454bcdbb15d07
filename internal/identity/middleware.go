package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SubmitterHeader names the submitter in open mode (no signing secret).
const SubmitterHeader = "X-Submitter"

const ctxSubmitter = "anchor_submitter"

// RequireSubmitter returns a Gin middleware that establishes the submitter
// identity for write routes.
//
// With a TokenIssuer, a valid "Authorization: Bearer <token>" is required and
// its subject becomes the submitter. With a nil issuer the server runs in
// open mode and the X-Submitter header is trusted as is.
func RequireSubmitter(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			submitter := strings.TrimSpace(c.GetHeader(SubmitterHeader))
			if submitter == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": SubmitterHeader + " header required",
				})
				return
			}
			c.Set(ctxSubmitter, submitter)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer submitter token required",
			})
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid submitter token: " + err.Error(),
			})
			return
		}

		c.Set(ctxSubmitter, claims.Submitter())
		c.Next()
	}
}

// SubmitterFromCtx returns the submitter set by RequireSubmitter, or "".
func SubmitterFromCtx(c *gin.Context) string {
	v, ok := c.Get(ctxSubmitter)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
