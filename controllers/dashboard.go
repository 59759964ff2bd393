package controllers

import (
	"net/http"
	"time"

	"blakwhyte-backend/live"
	"blakwhyte-backend/services"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	Join     *live.BookingJoin
	Currency string
	Location *time.Location
	Now      func() time.Time
}

func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
	res, ok := joinedBookings(c, dc.Join)
	if !ok {
		return
	}

	now := time.Now()
	if dc.Now != nil {
		now = dc.Now()
	}
	if dc.Location != nil {
		now = now.In(dc.Location)
	}
	c.JSON(http.StatusOK, services.BuildOverview(res.Data, dc.Currency, now))
}
