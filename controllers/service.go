// controllers/service.go
package controllers

import (
	"net/http"

	"blakwhyte-backend/models"
	"blakwhyte-backend/store"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateServiceInput defines the expected JSON structure for creating a service
type CreateServiceInput struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Duration    int              `json:"duration" binding:"min=0"` // in minutes
	Category    string           `json:"category"`
	ImageID     string           `json:"imageId"`
	IsActive    *bool            `json:"isActive"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service
type UpdateServiceInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Duration    *int             `json:"duration" binding:"omitempty,min=0"`
	Category    *string          `json:"category"`
	ImageID     *string          `json:"imageId"`
	IsActive    *bool            `json:"isActive"`
}

// ServiceController manages the service catalogue.
type ServiceController struct {
	Store *store.Store
}

// CreateService adds a service to the catalogue
func (sc *ServiceController) CreateService(c *gin.Context) {
	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Price.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: price must not be negative")
		return
	}

	service := models.Service{
		Name:        input.Name,
		Description: input.Description,
		Price:       *input.Price,
		Duration:    input.Duration,
		Category:    input.Category,
		ImageID:     input.ImageID,
		IsActive:    true,
	}
	if input.IsActive != nil {
		service.IsActive = *input.IsActive
	}

	if err := sc.Store.SaveService(c.Request.Context(), &service); err != nil {
		storeError(c, err, "Service not found")
		return
	}

	c.JSON(http.StatusCreated, service)
}

// GetServices retrieves all services, including inactive ones
func (sc *ServiceController) GetServices(c *gin.Context) {
	services, err := sc.Store.ListServices(c.Request.Context())
	if err != nil {
		storeError(c, err, "Service not found")
		return
	}
	c.JSON(http.StatusOK, services)
}

// UpdateService updates an existing service. Bookings keep the price they
// were made at.
func (sc *ServiceController) UpdateService(c *gin.Context) {
	serviceID, ok := paramUUID(c, "id", "service")
	if !ok {
		return
	}

	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service, err := sc.Store.GetService(c.Request.Context(), serviceID)
	if err != nil {
		storeError(c, err, "Service not found")
		return
	}

	// Update fields if provided
	if input.Name != nil {
		service.Name = *input.Name
	}
	if input.Description != nil {
		service.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: price must not be negative")
			return
		}
		service.Price = *input.Price
	}
	if input.Duration != nil {
		service.Duration = *input.Duration
	}
	if input.Category != nil {
		service.Category = *input.Category
	}
	if input.ImageID != nil {
		service.ImageID = *input.ImageID
	}
	if input.IsActive != nil {
		service.IsActive = *input.IsActive
	}

	if err := sc.Store.SaveService(c.Request.Context(), service); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update service")
		return
	}

	c.JSON(http.StatusOK, service)
}

// DeleteService soft deletes a service
func (sc *ServiceController) DeleteService(c *gin.Context) {
	serviceID, ok := paramUUID(c, "id", "service")
	if !ok {
		return
	}
	if err := sc.Store.DeleteService(c.Request.Context(), serviceID); err != nil {
		storeError(c, err, "Service not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}
