package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blakwhyte-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Store) ListBookings(ctx context.Context) ([]models.Booking, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var bookings []models.Booking
	if err := db.Order("booking_date DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var booking models.Booking
	if err := db.First(&booking, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

// CreateBooking stores the booking together with its client. The client is
// matched by email; an existing client gets the latest name and phone.
// On return client and booking carry their stored ids.
func (s *Store) CreateBooking(ctx context.Context, client *models.User, booking *models.Booking) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	client.Email = models.NormalizeEmail(client.Email)

	err = db.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("email = ?", client.Email).First(&existing).Error
		switch {
		case err == nil:
			existing.Name = client.Name
			existing.Phone = client.Phone
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("update client: %w", err)
			}
			*client = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(client).Error; err != nil {
				return fmt.Errorf("create client: %w", err)
			}
		default:
			return err
		}

		booking.ClientID = client.ID
		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(Users, Bookings)
	return nil
}

// CompareAndSetBooking writes next's status and payment status only if the
// stored booking still has current's. It reports whether the write happened.
func (s *Store) CompareAndSetBooking(ctx context.Context, current, next models.Booking) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	res := db.Model(&models.Booking{}).
		Where("id = ? AND status = ? AND payment_status = ?", current.ID, current.Status, current.PaymentStatus).
		Updates(map[string]interface{}{
			"status":         next.Status,
			"payment_status": next.PaymentStatus,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	s.notify(Bookings)
	return true, nil
}

// BookingsBetween returns bookings with the given status whose date falls
// in [from, to).
func (s *Store) BookingsBetween(ctx context.Context, status models.BookingStatus, from, to time.Time) ([]models.Booking, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var bookings []models.Booking
	err = db.Where("status = ? AND booking_date >= ? AND booking_date < ?", status, from.UTC(), to.UTC()).
		Order("booking_date").
		Find(&bookings).Error
	return bookings, err
}
