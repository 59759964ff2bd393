// controllers/reminder.go
package controllers

import (
	"net/http"

	"blakwhyte-backend/services"
	"blakwhyte-backend/store"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type ReminderController struct {
	Reminders *services.ReminderService
	Store     *store.Store
	Log       *zap.Logger
}

// RunReminders sends tomorrow's reminders now instead of waiting for the
// scheduler.
func (rc *ReminderController) RunReminders(c *gin.Context) {
	sent, err := rc.Reminders.SendDailyReminders(c.Request.Context())
	if err != nil {
		rc.Log.Error("manual reminder run failed", zap.Error(err))
		storeError(c, err, "No bookings found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

// GetNotifications lists the notification log, newest first.
func (rc *ReminderController) GetNotifications(c *gin.Context) {
	limit := cast.ToInt(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		utils.RespondWithError(c, http.StatusBadRequest, "limit must be between 1 and 500")
		return
	}
	entries, err := rc.Store.ListNotifications(c.Request.Context(), limit)
	if err != nil {
		storeError(c, err, "No notifications found")
		return
	}
	c.JSON(http.StatusOK, entries)
}
