package middleware

import "github.com/gin-gonic/gin"

// NoStore forbids caching by browsers and proxies. Used on exam papers and
// results.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
