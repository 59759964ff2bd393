package services

import (
	"blakwhyte-backend/lifecycle"
	"blakwhyte-backend/models"

	EventBus "github.com/asaskevich/EventBus"
)

// Bus topics.
const (
	TopicBookingCreated      = "booking:created"
	TopicBookingTransitioned = "booking:transitioned"
)

// BookingEvent describes a booking change. Client and Service are nil when
// the referenced document no longer exists.
type BookingEvent struct {
	Booking models.Booking
	Client  *models.User
	Service *models.Service
	Action  lifecycle.Action
}

// NewBus returns the process-wide event bus.
func NewBus() EventBus.Bus {
	return EventBus.New()
}
