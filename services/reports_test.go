package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"blakwhyte-backend/config"
	"blakwhyte-backend/live"
	"blakwhyte-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testStudio = config.StudioConfig{
	Name:         "Blak Whyte Studio",
	Address:      "12 Long Street, Cape Town",
	ContactEmail: "hello@blakwhyte.example",
	Currency:     "ZAR",
	TaxRate:      15,
}

func compositeRow(status models.BookingStatus, paid bool, price int64, at time.Time, svc *models.Service, client *models.User) live.CompositeBooking {
	b := models.Booking{
		ID:            uuid.New(),
		BookingDate:   at,
		TimeSlot:      "10:00 AM",
		Status:        status,
		PaymentStatus: models.PaymentUnpaid,
		PriceSnapshot: decimal.NewFromInt(price),
	}
	if paid {
		b.PaymentStatus = models.PaymentPaid
	}
	if svc != nil {
		b.ServiceID = svc.ID
	}
	if client != nil {
		b.ClientID = client.ID
	}
	return live.CompositeBooking{Booking: b, Service: svc, Client: client}
}

func TestBuildInvoice(t *testing.T) {
	svc := &models.Service{ID: uuid.New(), Name: "Luxury Manicure", Price: decimal.NewFromInt(65), Duration: 60}
	client := &models.User{ID: uuid.New(), Name: "Alice Johnson", Email: "alice.j@example.com"}
	row := compositeRow(models.StatusConfirmed, false, 50, fixedNow, svc, client)

	inv, err := BuildInvoice(row, testStudio, fixedNow)
	if err != nil {
		t.Fatalf("build invoice: %v", err)
	}
	if !strings.HasPrefix(inv.Number, "INV-") || len(inv.Number) != 12 {
		t.Fatalf("unexpected invoice number %q", inv.Number)
	}
	if !inv.Subtotal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected the snapshot price 50, got %s", inv.Subtotal)
	}
	if !inv.Tax.Equal(decimal.RequireFromString("7.5")) || !inv.Total.Equal(decimal.RequireFromString("57.5")) {
		t.Fatalf("unexpected tax/total %s/%s", inv.Tax, inv.Total)
	}
	if !strings.Contains(inv.TotalDisplay, "57.50") {
		t.Fatalf("unexpected display %q", inv.TotalDisplay)
	}
	if inv.BillTo.Name != "Alice Johnson" || inv.Lines[0].Description != "Luxury Manicure" {
		t.Fatalf("unexpected parties %+v / %+v", inv.BillTo, inv.Lines)
	}
}

func TestBuildInvoice_IncompleteBooking(t *testing.T) {
	svc := &models.Service{ID: uuid.New(), Name: "Pedicure"}
	client := &models.User{ID: uuid.New(), Name: "Bob"}

	for _, row := range []live.CompositeBooking{
		compositeRow(models.StatusPending, false, 30, fixedNow, nil, client),
		compositeRow(models.StatusPending, false, 30, fixedNow, svc, nil),
	} {
		if _, err := BuildInvoice(row, testStudio, fixedNow); !errors.Is(err, ErrIncompleteBooking) {
			t.Fatalf("expected ErrIncompleteBooking, got %v", err)
		}
	}
}

func TestBuildOverview(t *testing.T) {
	manicure := &models.Service{ID: uuid.New(), Name: "Luxury Manicure"}
	facial := &models.Service{ID: uuid.New(), Name: "Signature Facial"}
	client := &models.User{ID: uuid.New(), Name: "Alice Johnson"}

	rows := []live.CompositeBooking{
		compositeRow(models.StatusCompleted, true, 50, fixedNow.AddDate(0, 0, -3), manicure, client),
		compositeRow(models.StatusConfirmed, true, 100, fixedNow.AddDate(0, 0, 1), facial, client),
		compositeRow(models.StatusConfirmed, false, 50, fixedNow.AddDate(0, 0, 2), manicure, nil),
		compositeRow(models.StatusPending, false, 50, fixedNow.AddDate(0, 0, 5), manicure, client),
		compositeRow(models.StatusCancelled, false, 100, fixedNow.AddDate(0, 0, 6), facial, client),
		compositeRow(models.StatusPending, false, 40, fixedNow.AddDate(0, 0, 7), nil, client),
	}

	got := BuildOverview(rows, "ZAR", fixedNow)
	if !got.TotalRevenue.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected paid revenue 150, got %s", got.TotalRevenue)
	}
	if got.TotalBookings != 6 || got.PendingBookings != 2 || got.UpcomingBookings != 2 {
		t.Fatalf("unexpected counts %d/%d/%d", got.TotalBookings, got.PendingBookings, got.UpcomingBookings)
	}
	if got.AverageTicket != 75 || got.MedianTicket != 75 {
		t.Fatalf("unexpected ticket stats %v/%v", got.AverageTicket, got.MedianTicket)
	}

	if len(got.RecentBookings) != 5 {
		t.Fatalf("expected 5 recent bookings, got %d", len(got.RecentBookings))
	}
	if got.RecentBookings[0].ServiceName != "Unknown service" || got.RecentBookings[0].When != "in 7 days" {
		t.Fatalf("unexpected most recent %+v", got.RecentBookings[0])
	}

	if len(got.TopServices) == 0 || got.TopServices[0].Name != "Luxury Manicure" || got.TopServices[0].Bookings != 3 {
		t.Fatalf("unexpected top services %+v", got.TopServices)
	}
	for _, s := range got.TopServices {
		if s.Name == "Signature Facial" && s.Bookings != 1 {
			t.Fatalf("cancelled bookings must not count, got %d", s.Bookings)
		}
	}
}

func TestBuildOverview_Empty(t *testing.T) {
	got := BuildOverview(nil, "ZAR", fixedNow)
	if got.TotalBookings != 0 || !got.TotalRevenue.IsZero() {
		t.Fatalf("unexpected overview %+v", got)
	}
	if got.RecentBookings == nil || got.TopServices == nil {
		t.Fatalf("empty overview must carry empty lists")
	}
}
