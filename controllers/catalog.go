package controllers

import (
	"net/http"

	"blakwhyte-backend/models"
	"blakwhyte-backend/store"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
)

// CatalogController serves the public storefront: services, products,
// the gallery and the bookable time slots.
type CatalogController struct {
	Store *store.Store
}

func (cc *CatalogController) GetServices(c *gin.Context) {
	services, err := cc.Store.ActiveServices(c.Request.Context())
	if err != nil {
		storeError(c, err, "Service not found")
		return
	}
	c.JSON(http.StatusOK, services)
}

func (cc *CatalogController) GetService(c *gin.Context) {
	id, ok := paramUUID(c, "id", "service")
	if !ok {
		return
	}
	svc, err := cc.Store.GetService(c.Request.Context(), id)
	if err != nil {
		storeError(c, err, "Service not found")
		return
	}
	if !svc.IsActive {
		utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (cc *CatalogController) GetProducts(c *gin.Context) {
	products, err := cc.Store.ListProducts(c.Request.Context())
	if err != nil {
		storeError(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (cc *CatalogController) GetGallery(c *gin.Context) {
	images, err := cc.Store.ListGallery(c.Request.Context())
	if err != nil {
		storeError(c, err, "Image not found")
		return
	}
	c.JSON(http.StatusOK, images)
}

func (cc *CatalogController) GetSlots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slots": models.TimeSlots})
}
