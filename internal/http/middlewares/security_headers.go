package middlewares

import "github.com/gin-gonic/gin"

const (
	// APICSP suits JSON-only responses.
	APICSP = "default-src 'none'; frame-ancestors 'none'"
	// PageCSP allows the console's own inline styles and same-origin forms.
	PageCSP = "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:; form-action 'self'; base-uri 'none'; frame-ancestors 'none'"
)

func SecurityHeaders(csp string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")
		c.Header("Content-Security-Policy", csp)
		c.Next()
	}
}
