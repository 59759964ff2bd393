// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationRequest      NotificationKind = "request"
	NotificationConfirmation NotificationKind = "confirmation"
	NotificationCancellation NotificationKind = "cancellation"
	NotificationReminder     NotificationKind = "reminder"
	NotificationAdminAlert   NotificationKind = "admin-alert"
)

// NotificationLog records every outbound message about a booking.
type NotificationLog struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	BookingID    uuid.UUID        `gorm:"type:uuid;index;not null" json:"bookingId"`
	ClientID     uuid.UUID        `gorm:"type:uuid;index" json:"clientId"`
	Kind         NotificationKind `gorm:"type:varchar(20);index" json:"kind"`
	Message      string           `gorm:"type:text" json:"message"`
	Status       string           `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage string           `gorm:"type:text" json:"errorMessage,omitempty"`
	Channel      string           `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms, email, telegram
	ExternalID   string           `json:"externalId,omitempty"`
	SentAt       time.Time        `json:"sentAt"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func (r *NotificationLog) BeforeCreate(tx *gorm.DB) (err error) {
	r.ID = uuid.New()
	return
}
