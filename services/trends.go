package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blakwhyte-backend/auth"
	"blakwhyte-backend/models"
	"blakwhyte-backend/textgen"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrAdminRequired rejects trend analysis for callers that are not
// authorized administrators.
var ErrAdminRequired = errors.New("admin authorization required")

// TrendSource is where the analyzer reads bookings and services.
type TrendSource interface {
	ListBookings(ctx context.Context) ([]models.Booking, error)
	ListServices(ctx context.Context) ([]models.Service, error)
}

// TrendRecord is the projection of one booking sent for analysis.
// ServiceName and Price are omitted when the service no longer exists.
type TrendRecord struct {
	ServiceName      string           `json:"serviceName,omitempty"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	BookingTimestamp string           `json:"bookingTimestamp"`
}

type Analysis struct {
	Summary            string `json:"summary"`
	PricingSuggestions string `json:"pricingSuggestions"`
	Fallback           bool   `json:"fallback"`
	Bookings           int    `json:"bookings"`
}

const trendsTemplate = `You are a business analyst specializing in pricing optimization for service-based businesses.

You will analyze booking data to identify popular services and revenue trends over time. Based on these trends, you will provide suggestions for pricing adjustments to optimize service offerings and profitability.

Booking Data: {{.bookingData}}

Respond with a summary of the trends and specific, actionable pricing suggestions, in 2 distinct paragraphs, as requested by the output schema.`

var trendsOutput = []textgen.Field{
	{Name: "summary", Description: "A summary of popular services and revenue trends over time."},
	{Name: "pricingSuggestions", Description: "Suggestions for pricing adjustments based on the identified trends."},
}

type TrendAnalyzer struct {
	source TrendSource
	gen    textgen.Generator
	log    *zap.Logger
}

func NewTrendAnalyzer(source TrendSource, gen textgen.Generator, log *zap.Logger) *TrendAnalyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &TrendAnalyzer{source: source, gen: gen, log: log}
}

// ProjectTrends maps bookings to the records sent to the model. The first
// service with a matching id supplies name and price.
func ProjectTrends(bookings []models.Booking, services []models.Service) []TrendRecord {
	records := make([]TrendRecord, 0, len(bookings))
	for _, b := range bookings {
		rec := TrendRecord{BookingTimestamp: b.BookingDate.UTC().Format(time.RFC3339)}
		for i := range services {
			if services[i].ID == b.ServiceID {
				price := b.Price(&services[i])
				rec.ServiceName = services[i].Name
				rec.Price = &price
				break
			}
		}
		records = append(records, rec)
	}
	return records
}

// AnalyzeForCaller runs the analysis for an authorized administrator.
// Nothing is read for any other caller.
func (a *TrendAnalyzer) AnalyzeForCaller(ctx context.Context, caller auth.State) (Analysis, error) {
	if caller.Status != auth.Authorized {
		return Analysis{}, ErrAdminRequired
	}

	var (
		bookings []models.Booking
		services []models.Service
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bookings, err = a.source.ListBookings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		services, err = a.source.ListServices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		a.log.Error("trend data load failed", zap.Error(err))
		return fallbackAnalysis(err), nil
	}
	return a.Summarize(ctx, bookings, services), nil
}

// Summarize never fails: any problem becomes a fallback analysis.
func (a *TrendAnalyzer) Summarize(ctx context.Context, bookings []models.Booking, services []models.Service) (out Analysis) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("trend analysis panicked", zap.Any("panic", r))
			out = fallbackAnalysis(fmt.Errorf("%v", r))
		}
	}()

	if len(bookings) == 0 {
		return Analysis{
			Summary:            "No booking data available to analyze yet.",
			PricingSuggestions: "Pricing suggestions will appear once bookings have been recorded.",
		}
	}

	data, err := json.Marshal(ProjectTrends(bookings, services))
	if err != nil {
		a.log.Error("trend data encoding failed", zap.Error(err))
		return fallbackAnalysis(err)
	}
	if a.gen == nil {
		return fallbackAnalysis(textgen.ErrNotConfigured)
	}

	result, err := a.gen.Generate(ctx, textgen.Prompt{
		Name:     "analyzeBusinessTrends",
		Template: trendsTemplate,
		Vars:     map[string]string{"bookingData": string(data)},
		Output:   trendsOutput,
	})
	if err != nil {
		a.log.Warn("trend analysis failed", zap.Int("bookings", len(bookings)), zap.Error(err))
		out = fallbackAnalysis(err)
		out.Bookings = len(bookings)
		return out
	}
	return Analysis{
		Summary:            result["summary"],
		PricingSuggestions: result["pricingSuggestions"],
		Bookings:           len(bookings),
	}
}

// fallbackAnalysis never carries err's text: provider errors can hold
// whole response bodies. Callers log err themselves.
func fallbackAnalysis(err error) Analysis {
	summary := "An error occurred while analyzing the data. Please check the logs."
	if errors.Is(err, textgen.ErrNotConfigured) {
		summary = "Trend analysis is not configured."
	}
	return Analysis{
		Summary:            summary,
		PricingSuggestions: "Could not generate pricing suggestions due to an error.",
		Fallback:           true,
	}
}
