package controllers

import (
	"net/http"
	"strings"

	"blakwhyte-backend/auth"
	"blakwhyte-backend/store"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UpdateProfileInput struct {
	Name            string `json:"name" binding:"omitempty,min=2"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"omitempty,min=8"`
}

type ProfileController struct {
	Store *store.Store
}

func accountID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(auth.StateFromContext(c).Subject)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return uuid.Nil, false
	}
	return id, true
}

func (pc *ProfileController) GetProfile(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}
	account, err := pc.Store.GetAccount(c.Request.Context(), id)
	if err != nil {
		storeError(c, err, "User not found")
		return
	}

	st := auth.StateFromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"id":        account.ID,
		"email":     account.Email,
		"name":      account.Name,
		"lastLogin": account.LastLogin,
		"isAdmin":   st.IsAdmin,
	})
}

// UpdateProfile changes the display name and, when the current password
// is supplied, the password.
func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	id, ok := accountID(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	account, err := pc.Store.GetAccount(c.Request.Context(), id)
	if err != nil {
		storeError(c, err, "User not found")
		return
	}

	hash := ""
	if input.NewPassword != "" {
		if !utils.CheckPasswordHash(input.CurrentPassword, account.Password) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Current password is incorrect")
			return
		}
		hash, err = utils.HashPassword(input.NewPassword)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update password")
			return
		}
	}

	if err := pc.Store.UpdateAccount(c.Request.Context(), id, strings.TrimSpace(input.Name), hash); err != nil {
		storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}
