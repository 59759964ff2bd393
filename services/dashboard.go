package services

import (
	"sort"
	"time"

	"blakwhyte-backend/live"
	"blakwhyte-backend/models"
	"blakwhyte-backend/utils"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

type RecentBooking struct {
	ID          string               `json:"id"`
	ClientName  string               `json:"clientName"`
	ServiceName string               `json:"serviceName"`
	Status      models.BookingStatus `json:"status"`
	BookingDate time.Time            `json:"bookingDate"`
	When        string               `json:"when"` // e.g. "Today", "in 3 days"
}

type ServiceSummary struct {
	Name     string          `json:"name"`
	Bookings int             `json:"bookings"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type DashboardOverview struct {
	TotalRevenue        decimal.Decimal  `json:"totalRevenue"`
	TotalRevenueDisplay string           `json:"totalRevenueDisplay"`
	TotalBookings       int              `json:"totalBookings"`
	PendingBookings     int              `json:"pendingBookings"`
	UpcomingBookings    int              `json:"upcomingBookings"`
	AverageTicket       float64          `json:"averageTicket"`
	MedianTicket        float64          `json:"medianTicket"`
	RecentBookings      []RecentBooking  `json:"recentBookings"`
	TopServices         []ServiceSummary `json:"topServices"`
}

const (
	recentLimit      = 5
	topServicesLimit = 5
)

// BuildOverview summarizes the joined bookings. Revenue counts paid
// bookings only.
func BuildOverview(rows []live.CompositeBooking, currencyCode string, now time.Time) DashboardOverview {
	out := DashboardOverview{
		TotalRevenue:   decimal.Zero,
		TotalBookings:  len(rows),
		RecentBookings: []RecentBooking{},
		TopServices:    []ServiceSummary{},
	}

	var tickets stats.Float64Data
	byService := map[string]*ServiceSummary{}
	for _, row := range rows {
		switch row.Status {
		case models.StatusPending:
			out.PendingBookings++
		case models.StatusConfirmed:
			if row.BookingDate.After(now) {
				out.UpcomingBookings++
			}
		}

		if row.PaymentStatus == models.PaymentPaid {
			amount := row.Amount()
			out.TotalRevenue = out.TotalRevenue.Add(amount)
			f, _ := amount.Float64()
			tickets = append(tickets, f)
		}

		if row.Status == models.StatusCancelled {
			continue
		}
		name := row.ServiceName()
		sum, ok := byService[name]
		if !ok {
			sum = &ServiceSummary{Name: name, Revenue: decimal.Zero}
			byService[name] = sum
		}
		sum.Bookings++
		if row.PaymentStatus == models.PaymentPaid {
			sum.Revenue = sum.Revenue.Add(row.Amount())
		}
	}
	out.TotalRevenueDisplay = FormatMoney(currencyCode, out.TotalRevenue)

	if mean, err := stats.Mean(tickets); err == nil {
		out.AverageTicket, _ = stats.Round(mean, 2)
	}
	if median, err := stats.Median(tickets); err == nil {
		out.MedianTicket, _ = stats.Round(median, 2)
	}

	recent := make([]live.CompositeBooking, len(rows))
	copy(recent, rows)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].BookingDate.After(recent[j].BookingDate)
	})
	for i, row := range recent {
		if i == recentLimit {
			break
		}
		out.RecentBookings = append(out.RecentBookings, RecentBooking{
			ID:          row.ID.String(),
			ClientName:  row.ClientName(),
			ServiceName: row.ServiceName(),
			Status:      row.Status,
			BookingDate: row.BookingDate,
			When:        utils.RelativeDay(row.BookingDate, now),
		})
	}

	for _, sum := range byService {
		out.TopServices = append(out.TopServices, *sum)
	}
	sort.Slice(out.TopServices, func(i, j int) bool {
		a, b := out.TopServices[i], out.TopServices[j]
		if a.Bookings != b.Bookings {
			return a.Bookings > b.Bookings
		}
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Name < b.Name
	})
	if len(out.TopServices) > topServicesLimit {
		out.TopServices = out.TopServices[:topServicesLimit]
	}
	return out
}
