package controllers

import (
	"net/http"
	"sort"
	"time"

	"blakwhyte-backend/live"
	"blakwhyte-backend/models"
	"blakwhyte-backend/store"
	"blakwhyte-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ClientController lists the studio's clients with their booking history.
type ClientController struct {
	Store *store.Store
	Join  *live.BookingJoin
}

type ClientSummary struct {
	models.User
	Bookings     int             `json:"bookings"`
	Spent        decimal.Decimal `json:"spent"`
	LastBooking  *time.Time      `json:"lastBooking,omitempty"`
	WhatsAppLink string          `json:"whatsappLink,omitempty"`
}

// GetClients returns every client, most recently booked first.
func (cc *ClientController) GetClients(c *gin.Context) {
	users, err := cc.Store.ListUsers(c.Request.Context())
	if err != nil {
		storeError(c, err, "Client not found")
		return
	}
	res, ok := joinedBookings(c, cc.Join)
	if !ok {
		return
	}

	summaries := make(map[string]*ClientSummary, len(users))
	out := make([]*ClientSummary, 0, len(users))
	for _, u := range users {
		s := &ClientSummary{User: u, Spent: decimal.Zero, WhatsAppLink: utils.WhatsAppLink(u.Phone)}
		summaries[u.ID.String()] = s
		out = append(out, s)
	}
	for _, row := range res.Data {
		s, ok := summaries[row.ClientID.String()]
		if !ok {
			continue
		}
		s.Bookings++
		if row.PaymentStatus == models.PaymentPaid {
			s.Spent = s.Spent.Add(row.Amount())
		}
		if s.LastBooking == nil || row.BookingDate.After(*s.LastBooking) {
			when := row.BookingDate
			s.LastBooking = &when
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastBooking, out[j].LastBooking
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	c.JSON(http.StatusOK, out)
}

// GetClient returns one client with their bookings.
func (cc *ClientController) GetClient(c *gin.Context) {
	id, ok := paramUUID(c, "id", "client")
	if !ok {
		return
	}
	user, err := cc.Store.GetUser(c.Request.Context(), id)
	if err != nil {
		storeError(c, err, "Client not found")
		return
	}
	res, ok := joinedBookings(c, cc.Join)
	if !ok {
		return
	}

	bookings := []live.CompositeBooking{}
	for _, row := range res.Data {
		if row.ClientID == user.ID {
			bookings = append(bookings, row)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"client":       user,
		"bookings":     bookings,
		"whatsappLink": utils.WhatsAppLink(user.Phone),
	})
}
