// controllers/booking.go
package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"blakwhyte-backend/lifecycle"
	"blakwhyte-backend/live"
	"blakwhyte-backend/models"
	"blakwhyte-backend/services"
	"blakwhyte-backend/store"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

// BookingController serves the public booking form and the admin booking
// table.
type BookingController struct {
	Bookings  *services.BookingService
	Join      *live.BookingJoin
	Currency  string
	Location  *time.Location
	Keepalive time.Duration
	Log       *zap.Logger
}

// BookingRow is one line of the admin booking table.
type BookingRow struct {
	live.CompositeBooking
	ServiceName     string             `json:"serviceName"`
	ClientName      string             `json:"clientName"`
	ServiceResolved bool               `json:"serviceResolved"`
	ClientResolved  bool               `json:"clientResolved"`
	AmountDisplay   string             `json:"amountDisplay"`
	StatusBadge     string             `json:"statusBadge"`
	PaymentBadge    string             `json:"paymentBadge"`
	Actions         []lifecycle.Action `json:"actions"`
	WhatsAppLink    string             `json:"whatsappLink,omitempty"`
}

type bookingCSV struct {
	ID      string `csv:"id"`
	Date    string `csv:"date"`
	Time    string `csv:"time"`
	Client  string `csv:"client"`
	Email   string `csv:"email"`
	Phone   string `csv:"phone"`
	Service string `csv:"service"`
	Status  string `csv:"status"`
	Payment string `csv:"payment"`
	Amount  string `csv:"amount"`
}

func (bc *BookingController) row(b live.CompositeBooking) BookingRow {
	row := BookingRow{
		CompositeBooking: b,
		ServiceName:      b.ServiceName(),
		ClientName:       b.ClientName(),
		ServiceResolved:  b.Service != nil,
		ClientResolved:   b.Client != nil,
		AmountDisplay:    services.FormatMoney(bc.Currency, b.Amount()),
		StatusBadge:      lifecycle.BadgeVariant(b.Status),
		PaymentBadge:     lifecycle.PaymentBadgeVariant(b.PaymentStatus),
		Actions:          lifecycle.Permitted(b.Booking),
	}
	if b.Client != nil {
		row.WhatsAppLink = utils.WhatsAppLink(b.Client.Phone)
	}
	return row
}

func (bc *BookingController) rows(data []live.CompositeBooking, status string) []BookingRow {
	out := make([]BookingRow, 0, len(data))
	for _, b := range data {
		if status != "" && string(b.Status) != status {
			continue
		}
		out = append(out, bc.row(b))
	}
	return out
}

// Create handles the public booking form.
func (bc *BookingController) Create(c *gin.Context) {
	var input services.BookingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	booking, client, err := bc.Bookings.Create(c.Request.Context(), input)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidRequest), errors.Is(err, services.ErrUnknownSlot):
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	case errors.Is(err, services.ErrPastDate):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, "Please choose a date from today onwards")
		return
	case errors.Is(err, services.ErrUnknownService):
		utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		return
	case errors.Is(err, store.ErrNotReady):
		respondNotReady(c)
		return
	default:
		bc.Log.Error("booking request failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create booking")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking request received",
		"booking": booking,
		"client": gin.H{
			"id":    client.ID,
			"name":  client.Name,
			"email": client.Email,
		},
	})
}

// List returns the joined booking table, optionally filtered by status.
func (bc *BookingController) List(c *gin.Context) {
	res, ok := joinedBookings(c, bc.Join)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bc.rows(res.Data, c.Query("status"))})
}

// Stream pushes the booking table over server-sent events whenever
// bookings, services or clients change.
func (bc *BookingController) Stream(c *gin.Context) {
	release := bc.Join.Retain()
	defer release()

	updates := make(chan struct{}, 1)
	cancel := bc.Join.Listen(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer cancel()

	ctx := c.Request.Context()
	if err := bc.Join.Wait(ctx); err != nil {
		respondNotReady(c)
		return
	}

	keepalive := bc.Keepalive
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}
	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	send := func() {
		res := bc.Join.Result()
		if res.Loading || res.Err != nil {
			c.SSEvent("loading", gin.H{"loading": res.Loading, "error": res.Err != nil})
			return
		}
		c.SSEvent("bookings", gin.H{"bookings": bc.rows(res.Data, c.Query("status"))})
	}

	first := true
	c.Stream(func(w io.Writer) bool {
		if first {
			first = false
			send()
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-updates:
			send()
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
		}
		return true
	})
}

// Export downloads the booking table as CSV.
func (bc *BookingController) Export(c *gin.Context) {
	res, ok := joinedBookings(c, bc.Join)
	if !ok {
		return
	}

	loc := bc.Location
	if loc == nil {
		loc = time.UTC
	}
	records := make([]bookingCSV, 0, len(res.Data))
	for _, row := range bc.rows(res.Data, c.Query("status")) {
		rec := bookingCSV{
			ID:      row.ID.String(),
			Date:    row.BookingDate.In(loc).Format("2006-01-02"),
			Time:    row.TimeSlot,
			Client:  row.ClientName,
			Service: row.ServiceName,
			Status:  string(row.Status),
			Payment: string(row.PaymentStatus),
			Amount:  row.Amount().StringFixed(2),
		}
		if row.Client != nil {
			rec.Email = row.Client.Email
			rec.Phone = row.Client.Phone
		}
		records = append(records, rec)
	}

	out, err := gocsv.MarshalBytes(&records)
	if err != nil {
		bc.Log.Error("booking export failed", zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to export bookings")
		return
	}
	filename := fmt.Sprintf("bookings-%s.csv", time.Now().In(loc).Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", out)
}

// Transition applies an admin action such as confirm or mark-paid.
func (bc *BookingController) Transition(c *gin.Context) {
	id, ok := paramUUID(c, "id", "booking")
	if !ok {
		return
	}
	action, err := lifecycle.ParseAction(c.Param("action"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := bc.Bookings.Transition(c.Request.Context(), id, action)
	var illegal *lifecycle.IllegalTransitionError
	switch {
	case err == nil:
	case errors.As(err, &illegal):
		extra := gin.H{}
		if booking != nil {
			extra["status"] = booking.Status
			extra["paymentStatus"] = booking.PaymentStatus
			extra["actions"] = lifecycle.Permitted(*booking)
		}
		utils.RespondWithCode(c, http.StatusConflict, "ILLEGAL_TRANSITION", err.Error(), extra)
		return
	case errors.Is(err, services.ErrConcurrentUpdate):
		utils.RespondWithCode(c, http.StatusConflict, "CONCURRENT_UPDATE", err.Error(), nil)
		return
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrNotReady):
		storeError(c, err, "Booking not found")
		return
	default:
		bc.Log.Error("booking transition failed", zap.String("booking_id", id.String()), zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking":      booking,
		"statusBadge":  lifecycle.BadgeVariant(booking.Status),
		"paymentBadge": lifecycle.PaymentBadgeVariant(booking.PaymentStatus),
		"actions":      lifecycle.Permitted(*booking),
	})
}

// Statuses lists the booking statuses for filter menus.
func (bc *BookingController) Statuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"statuses": []models.BookingStatus{
			models.StatusPending, models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled,
		},
		"actions": lifecycle.Actions,
	})
}
