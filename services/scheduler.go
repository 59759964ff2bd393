package services

import (
	"context"
	"time"

	"blakwhyte-backend/auth"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartScheduler runs the daily reminder job on reminderSpec and prunes
// the session registry hourly. Stop the returned cron on shutdown.
func StartScheduler(reminders *ReminderService, sessions *auth.Sessions, reminderSpec string, loc *time.Location, log *zap.Logger) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	if reminders != nil {
		_, err := c.AddFunc(reminderSpec, guard(log, "reminders", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if _, err := reminders.SendDailyReminders(ctx); err != nil {
				log.Error("daily reminders failed", zap.Error(err))
			}
		}))
		if err != nil {
			return nil, err
		}
	}

	if sessions != nil {
		_, err := c.AddFunc("@hourly", guard(log, "session-prune", func() {
			if n := sessions.Prune(); n > 0 {
				log.Debug("sessions pruned", zap.Int("removed", n))
			}
		}))
		if err != nil {
			return nil, err
		}
	}

	c.Start()
	log.Info("scheduler started", zap.String("reminders", reminderSpec))
	return c, nil
}

func guard(log *zap.Logger, name string, job func()) func() {
	return func() {
		defer func() {
			if err := recover(); err != nil {
				log.Error("scheduled job panicked", zap.String("job", name), zap.Any("panic", err))
			}
		}()
		job()
	}
}
