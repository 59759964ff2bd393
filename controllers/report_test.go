package controllers

import (
	"testing"
	"time"

	"blakwhyte-backend/live"
	"blakwhyte-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func paidRow(at time.Time, price int64, svc *models.Service, client *models.User) live.CompositeBooking {
	return live.CompositeBooking{
		Booking: models.Booking{
			ID:            uuid.New(),
			BookingDate:   at,
			Status:        models.StatusCompleted,
			PaymentStatus: models.PaymentPaid,
			PriceSnapshot: decimal.NewFromInt(price),
		},
		Service: svc,
		Client:  client,
	}
}

func TestReportSummary(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	rc := &ReportController{Location: time.UTC, Now: func() time.Time { return now }}

	facial := &models.Service{ID: uuid.New(), Name: "Signature Facial"}
	nails := &models.Service{ID: uuid.New(), Name: "Luxury Manicure"}
	alice := &models.User{ID: uuid.New(), Name: "Alice"}
	bob := &models.User{ID: uuid.New(), Name: "Bob"}

	unpaid := paidRow(now, 500, facial, alice)
	unpaid.PaymentStatus = models.PaymentUnpaid

	rows := []live.CompositeBooking{
		paidRow(now.AddDate(0, 0, -2), 100, facial, alice),
		paidRow(now.AddDate(0, 0, -1), 50, nails, bob),
		paidRow(now.AddDate(0, 0, -1), 50, nails, bob),
		paidRow(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC), 80, facial, alice),
		paidRow(time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC), 40, nails, nil),
		unpaid,
	}

	got := rc.summarize(rows)
	if got.CurrentMonthRevenue != 200 {
		t.Fatalf("expected month revenue 200, got %v", got.CurrentMonthRevenue)
	}
	if got.MonthGrowth != 150 {
		t.Fatalf("expected 150%% growth over 80, got %v", got.MonthGrowth)
	}
	if got.CurrentQuarterRevenue != 280 || got.CurrentYearRevenue != 280 {
		t.Fatalf("unexpected quarter/year revenue %v/%v", got.CurrentQuarterRevenue, got.CurrentYearRevenue)
	}
	if got.YearGrowth != 600 {
		t.Fatalf("expected 600%% year growth, got %v", got.YearGrowth)
	}

	if len(got.TopServices) != 2 || got.TopServices[0].Name != "Luxury Manicure" || got.TopServices[0].Revenue != 100 {
		t.Fatalf("unexpected top services %+v", got.TopServices)
	}
	if len(got.TopClients) != 2 || got.TopClients[0].Name != "Alice" || got.TopClients[0].Visits != 1 {
		t.Fatalf("unexpected top clients %+v", got.TopClients)
	}
	if got.QuickStats.TotalBookings != 6 || got.QuickStats.TotalClients != 2 {
		t.Fatalf("unexpected quick stats %+v", got.QuickStats)
	}
	if got.QuickStats.AvgOrderValue != 64 {
		t.Fatalf("expected average order 64, got %v", got.QuickStats.AvgOrderValue)
	}
}

func TestGrowthPercentage(t *testing.T) {
	rc := &ReportController{}
	cases := []struct{ current, previous, want float64 }{
		{0, 0, 0},
		{50, 0, 100},
		{50, 100, -50},
		{110, 100, 10},
	}
	for _, tc := range cases {
		if got := rc.calculateGrowthPercentage(tc.current, tc.previous); got != tc.want {
			t.Fatalf("growth(%v, %v) = %v, want %v", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestQuarterStart(t *testing.T) {
	rc := &ReportController{}
	got := rc.getQuarterStart(time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC))
	if !got.Equal(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected quarter start %s", got)
	}
}
