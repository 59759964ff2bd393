package utils

import "github.com/gin-gonic/gin"

func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// RespondWithCode adds a machine readable code to the error body.
func RespondWithCode(c *gin.Context, status int, code, message string, extra gin.H) {
	body := gin.H{"error": message, "code": code}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}
