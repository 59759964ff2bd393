// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"blakwhyte-backend/models"
	"blakwhyte-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReminderStore is what the reminder job reads and writes.
type ReminderStore interface {
	BookingsBetween(ctx context.Context, status models.BookingStatus, from, to time.Time) ([]models.Booking, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	HasNotification(ctx context.Context, bookingID uuid.UUID, kind models.NotificationKind) (bool, error)
	LogNotification(ctx context.Context, entry *models.NotificationLog) error
}

// ReminderService messages clients the day before a confirmed booking.
type ReminderService struct {
	store     ReminderStore
	messenger Messenger
	studio    string
	loc       *time.Location
	now       func() time.Time
	log       *zap.Logger
}

func NewReminderService(st ReminderStore, messenger Messenger, studio string, loc *time.Location, log *zap.Logger) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderService{store: st, messenger: messenger, studio: studio, loc: loc, now: time.Now, log: log}
}

// SendDailyReminders reminds every client with a confirmed booking
// tomorrow. Bookings already reminded are skipped, so reruns are safe.
// It returns the number of reminders sent.
func (s *ReminderService) SendDailyReminders(ctx context.Context) (int, error) {
	if s.messenger == nil {
		s.log.Debug("reminders skipped, no messenger configured")
		return 0, nil
	}
	from := utils.BeginningOfDay(s.now().In(s.loc)).AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)

	bookings, err := s.store.BookingsBetween(ctx, models.StatusConfirmed, from, to)
	if err != nil {
		return 0, fmt.Errorf("load bookings: %w", err)
	}

	sent := 0
	for _, b := range bookings {
		done, err := s.store.HasNotification(ctx, b.ID, models.NotificationReminder)
		if err != nil {
			s.log.Warn("reminder lookup failed", zap.String("booking_id", b.ID.String()), zap.Error(err))
			continue
		}
		if done {
			continue
		}
		if s.remind(ctx, b) {
			sent++
		}
	}
	s.log.Info("daily reminders processed", zap.Int("bookings", len(bookings)), zap.Int("sent", sent))
	return sent, nil
}

func (s *ReminderService) remind(ctx context.Context, b models.Booking) bool {
	client, err := s.store.GetUser(ctx, b.ClientID)
	if err != nil {
		s.log.Warn("reminder skipped, client missing", zap.String("booking_id", b.ID.String()), zap.Error(err))
		return false
	}
	serviceName := "appointment"
	if svc, err := s.store.GetService(ctx, b.ServiceID); err == nil {
		serviceName = svc.Name
	}

	message := fmt.Sprintf("Hi %s, a reminder of your %s at %s tomorrow at %s.",
		client.Name, serviceName, s.studio, b.TimeSlot)
	channel, sid, err := s.messenger.SendText(client.Phone, message)

	entry := &models.NotificationLog{
		BookingID:  b.ID,
		ClientID:   client.ID,
		Kind:       models.NotificationReminder,
		Message:    message,
		Status:     "sent",
		Channel:    channel,
		ExternalID: sid,
		SentAt:     s.now(),
	}
	if err != nil {
		s.log.Warn("failed to send reminder", zap.String("booking_id", b.ID.String()), zap.Error(err))
		entry.Status = "failed"
		entry.ErrorMessage = err.Error()
	}
	if err := s.store.LogNotification(ctx, entry); err != nil {
		s.log.Warn("failed to log reminder", zap.String("booking_id", b.ID.String()), zap.Error(err))
	}
	return entry.Status == "sent"
}
