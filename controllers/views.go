package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"blakwhyte-backend/live"
	"blakwhyte-backend/store"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JoinTimeout bounds how long a request waits for the booking view's first
// load.
var JoinTimeout = 5 * time.Second

func respondNotReady(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "data source not ready", "loading": true})
}

// joinedBookings holds the booking view for the duration of the request and
// returns its current result once loaded. On false the response is written.
func joinedBookings(c *gin.Context, join *live.BookingJoin) (live.Result, bool) {
	release := join.Retain()
	defer release()

	ctx, cancel := context.WithTimeout(c.Request.Context(), JoinTimeout)
	defer cancel()
	if err := join.Wait(ctx); err != nil {
		respondNotReady(c)
		return live.Result{}, false
	}

	res := join.Result()
	switch {
	case res.Err != nil && errors.Is(res.Err, store.ErrNotReady):
		respondNotReady(c)
		return res, false
	case res.Err != nil:
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load bookings")
		return res, false
	case res.Loading:
		respondNotReady(c)
		return res, false
	}
	return res, true
}

// storeError maps store failures shared by every controller.
func storeError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotReady):
		respondNotReady(c)
	case errors.Is(err, store.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, notFound)
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
	}
}

func paramUUID(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}
