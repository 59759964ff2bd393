package services

import (
	"errors"
	"strings"
	"time"

	"blakwhyte-backend/config"
	"blakwhyte-backend/live"
	"blakwhyte-backend/models"

	"github.com/shopspring/decimal"
)

// ErrIncompleteBooking means the booking's client or service is missing.
var ErrIncompleteBooking = errors.New("booking details could not be loaded")

type InvoiceParty struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type InvoiceLine struct {
	Description     string          `json:"description"`
	DurationMinutes int             `json:"durationMinutes"`
	Amount          decimal.Decimal `json:"amount"`
	AmountDisplay   string          `json:"amountDisplay"`
}

type Invoice struct {
	Number        string               `json:"number"`
	IssuedAt      time.Time            `json:"issuedAt"`
	BookingID     string               `json:"bookingId"`
	BookingDate   time.Time            `json:"bookingDate"`
	TimeSlot      string               `json:"timeSlot"`
	Status        models.BookingStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	From          InvoiceParty         `json:"from"`
	BillTo        InvoiceParty         `json:"billTo"`
	Lines         []InvoiceLine        `json:"lines"`
	Currency      string               `json:"currency"`
	TaxRate       decimal.Decimal      `json:"taxRate"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Tax           decimal.Decimal      `json:"tax"`
	Total         decimal.Decimal      `json:"total"`
	TotalDisplay  string               `json:"totalDisplay"`
}

// BuildInvoice renders the invoice for one joined booking. The amount is
// the price agreed at booking time.
func BuildInvoice(row live.CompositeBooking, studio config.StudioConfig, now time.Time) (*Invoice, error) {
	if row.Client == nil || row.Service == nil {
		return nil, ErrIncompleteBooking
	}

	amount := row.Amount()
	rate := decimal.NewFromFloat(studio.TaxRate)
	tax := amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	total := amount.Add(tax)

	return &Invoice{
		Number:        "INV-" + strings.ToUpper(row.ID.String()[:8]),
		IssuedAt:      now,
		BookingID:     row.ID.String(),
		BookingDate:   row.BookingDate,
		TimeSlot:      row.TimeSlot,
		Status:        row.Status,
		PaymentStatus: row.PaymentStatus,
		From: InvoiceParty{
			Name:    studio.Name,
			Email:   studio.ContactEmail,
			Address: studio.Address,
		},
		BillTo: InvoiceParty{
			Name:  row.Client.Name,
			Email: row.Client.Email,
			Phone: row.Client.Phone,
		},
		Lines: []InvoiceLine{{
			Description:     row.Service.Name,
			DurationMinutes: row.Booking.Duration(row.Service),
			Amount:          amount,
			AmountDisplay:   FormatMoney(studio.Currency, amount),
		}},
		Currency:     studio.Currency,
		TaxRate:      rate,
		Subtotal:     amount,
		Tax:          tax,
		Total:        total,
		TotalDisplay: FormatMoney(studio.Currency, total),
	}, nil
}
