package controllers

import (
	"net/http"

	"blakwhyte-backend/store"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	Store *store.Store
}

// Health reports whether the database is reachable. The process stays up
// either way so the storefront can show a loading state.
func (hc *HealthController) Health(c *gin.Context) {
	if err := hc.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
