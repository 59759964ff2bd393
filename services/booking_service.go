package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blakwhyte-backend/lifecycle"
	"blakwhyte-backend/models"
	"blakwhyte-backend/store"
	"blakwhyte-backend/utils"

	"github.com/araddon/dateparse"
	EventBus "github.com/asaskevich/EventBus"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidRequest   = errors.New("invalid booking request")
	ErrUnknownService   = errors.New("service not found")
	ErrUnknownSlot      = errors.New("time slot not offered")
	ErrPastDate         = errors.New("booking date is in the past")
	ErrConcurrentUpdate = errors.New("booking was changed by someone else")
)

// BookingRequest is the public booking form.
type BookingRequest struct {
	ServiceID string `json:"serviceId" binding:"required,uuid"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
	Name      string `json:"name" binding:"required,min=2"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required,min=10"`
	Notes     string `json:"notes" binding:"max=1000"`
}

type BookingService struct {
	store *store.Store
	bus   EventBus.Bus
	loc   *time.Location
	now   func() time.Time
	log   *zap.Logger
}

func NewBookingService(st *store.Store, bus EventBus.Bus, loc *time.Location, log *zap.Logger) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{store: st, bus: bus, loc: loc, now: time.Now, log: log}
}

// Create validates the form and stores a Pending, Unpaid booking with the
// service's current price and duration.
func (s *BookingService) Create(ctx context.Context, req BookingRequest) (*models.Booking, *models.User, error) {
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	when, slot, err := s.appointmentTime(req.Date, req.Time)
	if err != nil {
		return nil, nil, err
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	svc, err := s.store.GetService(ctx, serviceID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !svc.IsActive) {
		return nil, nil, ErrUnknownService
	}
	if err != nil {
		return nil, nil, err
	}

	client := &models.User{
		Name:  strings.TrimSpace(req.Name),
		Email: req.Email,
		Phone: strings.TrimSpace(req.Phone),
	}
	booking := &models.Booking{
		ServiceID:        svc.ID,
		BookingDate:      when,
		TimeSlot:         slot,
		Status:           models.StatusPending,
		PaymentStatus:    models.PaymentUnpaid,
		PriceSnapshot:    svc.Price,
		DurationSnapshot: svc.Duration,
		Notes:            strings.TrimSpace(req.Notes),
	}
	if err := s.store.CreateBooking(ctx, client, booking); err != nil {
		return nil, nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("booking requested",
		zap.String("booking_id", booking.ID.String()),
		zap.String("service", svc.Name),
		zap.Time("date", booking.BookingDate))
	s.publish(TopicBookingCreated, BookingEvent{Booking: *booking, Client: client, Service: svc})
	return booking, client, nil
}

// appointmentTime combines the form's date and slot in the studio timezone.
// Times are stored in UTC.
func (s *BookingService) appointmentTime(date, slot string) (time.Time, string, error) {
	slot = strings.ToUpper(strings.TrimSpace(slot))
	offered := false
	for _, ts := range models.TimeSlots {
		if ts == slot {
			offered = true
			break
		}
	}
	if !offered {
		return time.Time{}, "", ErrUnknownSlot
	}
	clock, err := time.Parse(models.TimeSlotLayout, slot)
	if err != nil {
		return time.Time{}, "", ErrUnknownSlot
	}

	day, err := dateparse.ParseIn(strings.TrimSpace(date), s.loc)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: unreadable date %q", ErrInvalidRequest, date)
	}
	day = day.In(s.loc)
	if utils.BeginningOfDay(day).Before(utils.BeginningOfDay(s.now().In(s.loc))) {
		return time.Time{}, "", ErrPastDate
	}

	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, s.loc).UTC(), slot, nil
}

// Transition applies an administrative action. The write only lands if the
// booking still has the state the action was checked against; one retry
// re-reads and re-checks.
func (s *BookingService) Transition(ctx context.Context, id uuid.UUID, action lifecycle.Action) (*models.Booking, error) {
	for attempt := 0; attempt < 2; attempt++ {
		current, err := s.store.GetBooking(ctx, id)
		if err != nil {
			return nil, err
		}
		next, err := lifecycle.Apply(*current, action)
		if err != nil {
			return current, err
		}
		ok, err := s.store.CompareAndSetBooking(ctx, *current, next)
		if err != nil {
			return nil, fmt.Errorf("update booking: %w", err)
		}
		if !ok {
			continue
		}

		s.log.Info("booking transitioned",
			zap.String("booking_id", id.String()),
			zap.String("action", string(action)),
			zap.String("status", string(next.Status)),
			zap.String("payment_status", string(next.PaymentStatus)))
		s.publish(TopicBookingTransitioned, s.event(ctx, next, action))
		return &next, nil
	}
	return nil, ErrConcurrentUpdate
}

func (s *BookingService) event(ctx context.Context, b models.Booking, action lifecycle.Action) BookingEvent {
	ev := BookingEvent{Booking: b, Action: action}
	if client, err := s.store.GetUser(ctx, b.ClientID); err == nil {
		ev.Client = client
	}
	if svc, err := s.store.GetService(ctx, b.ServiceID); err == nil {
		ev.Service = svc
	}
	return ev
}

func (s *BookingService) publish(topic string, ev BookingEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(topic, ev)
}
