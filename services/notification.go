package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"blakwhyte-backend/lifecycle"
	"blakwhyte-backend/models"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// NotificationLogger records outbound messages. *store.Store satisfies it.
type NotificationLogger interface {
	LogNotification(ctx context.Context, entry *models.NotificationLog) error
}

// Notifier turns booking events into client messages and admin alerts.
// Sending happens on a worker pool so event publishers never block on
// a vendor API.
type Notifier struct {
	logs      NotificationLogger
	messenger Messenger
	mailer    Mailer
	alerter   Alerter
	pool      *ants.Pool
	studio    string
	loc       *time.Location
	log       *zap.Logger
}

type NotifierConfig struct {
	Messenger  Messenger
	Mailer     Mailer
	Alerter    Alerter
	StudioName string
	Location   *time.Location
	PoolSize   int
}

func NewNotifier(logs NotificationLogger, cfg NotifierConfig, log *zap.Logger) (*Notifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 8
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	// a full pool drops the job instead of blocking the publisher
	pool, err := ants.NewPool(cfg.PoolSize,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			log.Error("notification worker panicked", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("notification pool: %w", err)
	}
	return &Notifier{
		logs:      logs,
		messenger: cfg.Messenger,
		mailer:    cfg.Mailer,
		alerter:   cfg.Alerter,
		pool:      pool,
		studio:    cfg.StudioName,
		loc:       cfg.Location,
		log:       log,
	}, nil
}

// Subscribe attaches the notifier to the bus.
func (n *Notifier) Subscribe(bus EventBus.Bus) error {
	if err := bus.Subscribe(TopicBookingCreated, n.onCreated); err != nil {
		return err
	}
	return bus.Subscribe(TopicBookingTransitioned, n.onTransitioned)
}

// Unsubscribe detaches the notifier from the bus.
func (n *Notifier) Unsubscribe(bus EventBus.Bus) {
	bus.Unsubscribe(TopicBookingCreated, n.onCreated)
	bus.Unsubscribe(TopicBookingTransitioned, n.onTransitioned)
}

// Close stops the worker pool. Jobs already running finish.
func (n *Notifier) Close() {
	n.pool.Release()
}

func (n *Notifier) submit(job func()) {
	if err := n.pool.Submit(job); err != nil {
		n.log.Warn("notification dropped", zap.Error(err))
	}
}

func (n *Notifier) onCreated(ev BookingEvent) {
	n.submit(func() {
		ctx := context.Background()
		when := ev.Booking.BookingDate.In(n.loc).Format("Mon 2 Jan 2006")
		serviceName := "your appointment"
		if ev.Service != nil {
			serviceName = ev.Service.Name
		}

		if ev.Client != nil && n.mailer != nil {
			body := fmt.Sprintf("Hi %s,\n\nThank you for booking %s with %s on %s at %s. "+
				"Your booking is pending confirmation; we will be in touch shortly.\n\n%s",
				ev.Client.Name, serviceName, n.studio, when, ev.Booking.TimeSlot, n.studio)
			err := n.mailer.SendMail(ev.Client.Email, "We received your booking request", body)
			n.record(ctx, ev, models.NotificationRequest, "email", body, "", err)
		}

		if n.alerter != nil {
			client := "Unknown client"
			if ev.Client != nil {
				client = ev.Client.Name
			}
			msg := fmt.Sprintf("<b>New booking request</b>\n%s\n%s, %s %s",
				html.EscapeString(client), html.EscapeString(serviceName), when, ev.Booking.TimeSlot)
			err := n.alerter.Alert(msg)
			n.record(ctx, ev, models.NotificationAdminAlert, "telegram", msg, "", err)
		}
	})
}

func (n *Notifier) onTransitioned(ev BookingEvent) {
	var kind models.NotificationKind
	switch ev.Action {
	case lifecycle.Confirm:
		kind = models.NotificationConfirmation
	case lifecycle.Decline:
		kind = models.NotificationCancellation
	default:
		return
	}
	if ev.Client == nil || n.messenger == nil {
		return
	}

	n.submit(func() {
		body := n.transitionMessage(ev, kind)
		channel, sid, err := n.messenger.SendText(ev.Client.Phone, body)
		n.record(context.Background(), ev, kind, channel, body, sid, err)
	})
}

func (n *Notifier) transitionMessage(ev BookingEvent, kind models.NotificationKind) string {
	serviceName := "your appointment"
	if ev.Service != nil {
		serviceName = ev.Service.Name
	}
	when := ev.Booking.BookingDate.In(n.loc).Format("Mon 2 Jan 2006")
	if kind == models.NotificationConfirmation {
		return fmt.Sprintf("Hi %s, your %s at %s on %s at %s is confirmed. See you soon!",
			ev.Client.Name, serviceName, n.studio, when, ev.Booking.TimeSlot)
	}
	return fmt.Sprintf("Hi %s, unfortunately your %s at %s on %s could not be accommodated. Please book another time.",
		ev.Client.Name, serviceName, n.studio, when)
}

func (n *Notifier) record(ctx context.Context, ev BookingEvent, kind models.NotificationKind, channel, body, externalID string, sendErr error) {
	entry := &models.NotificationLog{
		BookingID:  ev.Booking.ID,
		ClientID:   ev.Booking.ClientID,
		Kind:       kind,
		Message:    body,
		Status:     "sent",
		Channel:    channel,
		ExternalID: externalID,
		SentAt:     time.Now(),
	}
	if sendErr != nil {
		entry.Status = "failed"
		entry.ErrorMessage = sendErr.Error()
		n.log.Warn("notification failed",
			zap.String("booking_id", ev.Booking.ID.String()),
			zap.String("kind", string(kind)),
			zap.String("channel", channel),
			zap.Error(sendErr))
	}
	if n.logs == nil {
		return
	}
	if err := n.logs.LogNotification(ctx, entry); err != nil {
		n.log.Warn("failed to log notification", zap.String("booking_id", ev.Booking.ID.String()), zap.Error(err))
	}
}
