// controllers/invoice.go
package controllers

import (
	"net/http"
	"time"

	"blakwhyte-backend/config"
	"blakwhyte-backend/live"
	"blakwhyte-backend/services"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
)

// InvoiceController renders invoices from the joined booking view.
type InvoiceController struct {
	Join   *live.BookingJoin
	Studio config.StudioConfig
}

// GetInvoice returns the invoice for a booking. A booking whose client or
// service can no longer be found has no invoice.
func (ic *InvoiceController) GetInvoice(c *gin.Context) {
	id, ok := paramUUID(c, "id", "booking")
	if !ok {
		return
	}
	res, ok := joinedBookings(c, ic.Join)
	if !ok {
		return
	}

	row, found := res.Find(id.String())
	if !found {
		utils.RespondWithError(c, http.StatusNotFound, "Booking not found")
		return
	}

	invoice, err := services.BuildInvoice(row, ic.Studio, time.Now())
	if err != nil {
		utils.RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c.JSON(http.StatusOK, invoice)
}
