package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"blakwhyte-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := db.Order("name").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(account).Error; err != nil {
		return err
	}
	s.notify(Accounts)
	return nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var account models.Account
	if err := db.Where("email = ? AND is_active = ?", models.NormalizeEmail(email), true).First(&account).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var account models.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (s *Store) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Model(&models.Account{}).Where("id = ?", id).Update("last_login", at).Error
}

// LogNotification records an outbound message. Logging failures are
// returned but never block the message itself.
func (s *Store) LogNotification(ctx context.Context, entry *models.NotificationLog) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now()
	}
	if err := db.Create(entry).Error; err != nil {
		return err
	}
	s.notify(Notifications)
	return nil
}

// HasNotification reports whether a successful notification of kind was
// already sent for the booking.
func (s *Store) HasNotification(ctx context.Context, bookingID uuid.UUID, kind models.NotificationKind) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	err = db.Model(&models.NotificationLog{}).
		Where("booking_id = ? AND kind = ? AND status = ?", bookingID, kind, "sent").
		Count(&count).Error
	return count > 0, err
}

// ListNotifications returns the newest notification log entries first.
func (s *Store) ListNotifications(ctx context.Context, limit int) ([]models.NotificationLog, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	var entries []models.NotificationLog
	if err := db.Order("sent_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateAccount applies the non-empty name and password hash to the
// account.
func (s *Store) UpdateAccount(ctx context.Context, id uuid.UUID, name, passwordHash string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if passwordHash != "" {
		updates["password"] = passwordHash
	}
	if len(updates) == 0 {
		return nil
	}
	result := db.Model(&models.Account{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(Accounts)
	return nil
}

// ProvisionAccounts creates an active account for every email that has
// none yet, using passwordHash as stored. Existing accounts, including
// soft-deleted ones, are left alone. It returns the number created.
func (s *Store) ProvisionAccounts(ctx context.Context, emails []string, passwordHash string) (int, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	if passwordHash == "" {
		return 0, errors.New("empty password hash")
	}
	created := 0
	for _, email := range emails {
		email = models.NormalizeEmail(email)
		if email == "" {
			continue
		}
		var count int64
		if err := db.Unscoped().Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}
		name := email
		if at := strings.IndexByte(email, '@'); at > 0 {
			name = email[:at]
		}
		account := models.Account{
			ID:       uuid.New(),
			Email:    email,
			Name:     name,
			Password: passwordHash,
			IsActive: true,
		}
		// hooks would hash the hash again
		if err := db.Session(&gorm.Session{SkipHooks: true}).Create(&account).Error; err != nil {
			return created, err
		}
		created++
	}
	if created > 0 {
		s.notify(Accounts)
	}
	return created, nil
}
