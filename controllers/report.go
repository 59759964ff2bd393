// controllers/report.go
package controllers

import (
	"net/http"
	"sort"
	"time"

	"blakwhyte-backend/live"
	"blakwhyte-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// ReportController handles all reporting functions
type ReportController struct {
	Join     *live.BookingJoin
	Location *time.Location
	Now      func() time.Time
}

// AnalyticsSummary represents the Analytics data
type AnalyticsSummary struct {
	CurrentMonthRevenue   float64          `json:"currentMonthRevenue"`
	MonthGrowth           float64          `json:"monthGrowth"`
	CurrentQuarterRevenue float64          `json:"currentQuarterRevenue"`
	QuarterGrowth         float64          `json:"quarterGrowth"`
	CurrentYearRevenue    float64          `json:"currentYearRevenue"`
	YearGrowth            float64          `json:"yearGrowth"`
	TopServices           []ServiceRevenue `json:"topServices"`
	TopClients            []ClientRevenue  `json:"topClients"`
	QuickStats            QuickStatistics  `json:"quickStats"`
}

type ServiceRevenue struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type ClientRevenue struct {
	Name   string  `json:"name"`
	Visits int     `json:"visits"`
	Spent  float64 `json:"spent"`
}

type QuickStatistics struct {
	TotalClients       int     `json:"totalClients"`
	TotalBookings      int     `json:"totalBookings"`
	AvgMonthlyBookings float64 `json:"avgMonthlyBookings"`
	AvgOrderValue      float64 `json:"avgOrderValue"`
}

const reportTopLimit = 4

// GetReportAnalytics returns revenue for the current month, quarter and
// year with growth against the previous period. Revenue is paid bookings
// by appointment date.
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	res, ok := joinedBookings(c, rc.Join)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rc.summarize(res.Data))
}

func (rc *ReportController) summarize(rows []live.CompositeBooking) AnalyticsSummary {
	now := time.Now()
	if rc.Now != nil {
		now = rc.Now()
	}
	if rc.Location != nil {
		now = now.In(rc.Location)
	}
	currentYear, currentMonth, _ := now.Date()
	loc := now.Location()

	firstOfMonth := time.Date(currentYear, currentMonth, 1, 0, 0, 0, 0, loc)
	nextMonth := firstOfMonth.AddDate(0, 1, 0)
	quarterStart := rc.getQuarterStart(now)
	yearStart := time.Date(currentYear, 1, 1, 0, 0, 0, 0, loc)

	currentMonthRevenue := rc.getRevenue(rows, firstOfMonth, nextMonth)
	lastMonthRevenue := rc.getRevenue(rows, firstOfMonth.AddDate(0, -1, 0), firstOfMonth)
	currentQuarterRevenue := rc.getRevenue(rows, quarterStart, quarterStart.AddDate(0, 3, 0))
	lastQuarterRevenue := rc.getRevenue(rows, quarterStart.AddDate(0, -3, 0), quarterStart)
	currentYearRevenue := rc.getRevenue(rows, yearStart, yearStart.AddDate(1, 0, 0))
	lastYearRevenue := rc.getRevenue(rows, yearStart.AddDate(-1, 0, 0), yearStart)

	return AnalyticsSummary{
		CurrentMonthRevenue:   currentMonthRevenue,
		MonthGrowth:           rc.calculateGrowthPercentage(currentMonthRevenue, lastMonthRevenue),
		CurrentQuarterRevenue: currentQuarterRevenue,
		QuarterGrowth:         rc.calculateGrowthPercentage(currentQuarterRevenue, lastQuarterRevenue),
		CurrentYearRevenue:    currentYearRevenue,
		YearGrowth:            rc.calculateGrowthPercentage(currentYearRevenue, lastYearRevenue),
		TopServices:           rc.getTopServices(rows, firstOfMonth, nextMonth, reportTopLimit),
		TopClients:            rc.getTopClients(rows, firstOfMonth, nextMonth, reportTopLimit),
		QuickStats:            rc.getQuickStatistics(rows, loc),
	}
}

// Helper functions for reports

func paidBetween(row live.CompositeBooking, start, end time.Time) bool {
	return row.PaymentStatus == models.PaymentPaid &&
		!row.BookingDate.Before(start) && row.BookingDate.Before(end)
}

func (rc *ReportController) getRevenue(rows []live.CompositeBooking, start, end time.Time) float64 {
	total := decimal.Zero
	for _, row := range rows {
		if paidBetween(row, start, end) {
			total = total.Add(row.Amount())
		}
	}
	return total.Round(2).InexactFloat64()
}

func (rc *ReportController) getQuarterStart(date time.Time) time.Time {
	quarter := (int(date.Month())-1)/3 + 1
	startMonth := time.Month((quarter-1)*3 + 1)
	return time.Date(date.Year(), startMonth, 1, 0, 0, 0, 0, date.Location())
}

func (rc *ReportController) calculateGrowthPercentage(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	growth, _ := stats.Round(((current-previous)/previous)*100, 2)
	return growth
}

func (rc *ReportController) getTopServices(rows []live.CompositeBooking, start, end time.Time, limit int) []ServiceRevenue {
	byName := map[string]*ServiceRevenue{}
	for _, row := range rows {
		if !paidBetween(row, start, end) {
			continue
		}
		name := row.ServiceName()
		s, ok := byName[name]
		if !ok {
			s = &ServiceRevenue{Name: name}
			byName[name] = s
		}
		s.Count++
		s.Revenue += row.Amount().InexactFloat64()
	}

	out := make([]ServiceRevenue, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (rc *ReportController) getTopClients(rows []live.CompositeBooking, start, end time.Time, limit int) []ClientRevenue {
	byClient := map[string]*ClientRevenue{}
	for _, row := range rows {
		if row.Client == nil || !paidBetween(row, start, end) {
			continue
		}
		key := row.Client.ID.String()
		s, ok := byClient[key]
		if !ok {
			s = &ClientRevenue{Name: row.Client.Name}
			byClient[key] = s
		}
		s.Visits++
		s.Spent += row.Amount().InexactFloat64()
	}

	out := make([]ClientRevenue, 0, len(byClient))
	for _, s := range byClient {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spent != out[j].Spent {
			return out[i].Spent > out[j].Spent
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (rc *ReportController) getQuickStatistics(rows []live.CompositeBooking, loc *time.Location) QuickStatistics {
	var qs QuickStatistics
	qs.TotalBookings = len(rows)

	clients := map[string]bool{}
	perMonth := map[string]float64{}
	var tickets stats.Float64Data
	for _, row := range rows {
		if row.Client != nil {
			clients[row.Client.ID.String()] = true
		}
		perMonth[row.BookingDate.In(loc).Format("2006-01")]++
		if row.PaymentStatus == models.PaymentPaid {
			tickets = append(tickets, row.Amount().InexactFloat64())
		}
	}
	qs.TotalClients = len(clients)

	var monthly stats.Float64Data
	for _, n := range perMonth {
		monthly = append(monthly, n)
	}
	if avg, err := stats.Mean(monthly); err == nil {
		qs.AvgMonthlyBookings, _ = stats.Round(avg, 2)
	}
	if avg, err := stats.Mean(tickets); err == nil {
		qs.AvgOrderValue, _ = stats.Round(avg, 2)
	}
	return qs
}
