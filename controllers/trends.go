package controllers

import (
	"errors"
	"net/http"

	"blakwhyte-backend/auth"
	"blakwhyte-backend/services"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
)

type TrendsController struct {
	Analyzer *services.TrendAnalyzer
}

// Analyze summarizes booking trends. Analysis failures come back as a
// fallback result, not an error status.
func (tc *TrendsController) Analyze(c *gin.Context) {
	analysis, err := tc.Analyzer.AnalyzeForCaller(c.Request.Context(), auth.StateFromContext(c))
	if errors.Is(err, services.ErrAdminRequired) {
		utils.RespondWithError(c, http.StatusForbidden, "admin access required")
		return
	}
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to analyze trends")
		return
	}
	c.JSON(http.StatusOK, analysis)
}
