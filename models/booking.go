package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCancelled BookingStatus = "Cancelled"
	StatusCompleted BookingStatus = "Completed"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "Unpaid"
	PaymentPaid   PaymentStatus = "Paid"
)

// TimeSlots are the appointment start times offered by the booking form.
var TimeSlots = []string{
	"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"02:00 PM", "03:00 PM", "04:00 PM", "05:00 PM",
}

// TimeSlotLayout parses the entries of TimeSlots.
const TimeSlotLayout = "03:04 PM"

// Booking references its client and service by id only. Either reference
// may dangle; readers must treat a missing document as unknown.
type Booking struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	ClientID      uuid.UUID     `gorm:"type:uuid;index;not null" json:"clientId"`
	ServiceID     uuid.UUID     `gorm:"type:uuid;index;not null" json:"serviceId"`
	BookingDate   time.Time     `gorm:"index;not null" json:"bookingDate"`
	TimeSlot      string        `gorm:"type:varchar(10)" json:"timeSlot"`
	Status        BookingStatus `gorm:"type:varchar(20);index;not null;default:'Pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'Unpaid'" json:"paymentStatus"`

	// Service terms at the time of booking.
	PriceSnapshot    decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	DurationSnapshot int             `json:"duration"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = PaymentUnpaid
	}
	return
}

// Price is the amount charged for the booking: the snapshot when one was
// taken, otherwise the current price of svc.
func (b Booking) Price(svc *Service) decimal.Decimal {
	if !b.PriceSnapshot.IsZero() || svc == nil {
		return b.PriceSnapshot
	}
	return svc.Price
}

func (b Booking) Duration(svc *Service) int {
	if b.DurationSnapshot > 0 || svc == nil {
		return b.DurationSnapshot
	}
	return svc.Duration
}

// Tables lists every persisted model, in migration order.
var Tables = []interface{}{
	&Account{},
	&User{},
	&Service{},
	&Product{},
	&GalleryImage{},
	&Booking{},
	&NotificationLog{},
}
