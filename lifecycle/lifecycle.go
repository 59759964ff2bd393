// Package lifecycle holds the booking state machine: which status and
// payment changes an administrator may make, and how each state is shown.
package lifecycle

import (
	"errors"
	"fmt"

	"blakwhyte-backend/models"
)

// Action is an administrative operation on a booking.
type Action string

const (
	Confirm  Action = "confirm"
	Decline  Action = "decline"
	Complete Action = "complete"
	MarkPaid Action = "mark-paid"
)

// Actions lists every action in display order.
var Actions = []Action{Confirm, Decline, Complete, MarkPaid}

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case Confirm, Decline, Complete, MarkPaid:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown action: %s", s)
	}
}

// ErrIllegalTransition matches every *IllegalTransitionError.
var ErrIllegalTransition = errors.New("illegal transition")

type IllegalTransitionError struct {
	From string
	To   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %s to %s", e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

var allowedTransitions = map[models.BookingStatus]map[models.BookingStatus]bool{
	models.StatusPending:   {models.StatusConfirmed: true, models.StatusCancelled: true},
	models.StatusConfirmed: {models.StatusCancelled: true, models.StatusCompleted: true},
	models.StatusCancelled: {},
	models.StatusCompleted: {},
}

func CanTransition(from, to models.BookingStatus) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// IsTerminal reports whether no status transition leaves s.
func IsTerminal(s models.BookingStatus) bool {
	return len(allowedTransitions[s]) == 0
}

func targetStatus(a Action) (models.BookingStatus, bool) {
	switch a {
	case Confirm:
		return models.StatusConfirmed, true
	case Decline:
		return models.StatusCancelled, true
	case Complete:
		return models.StatusCompleted, true
	}
	return "", false
}

// Apply returns b after action a. An illegal action returns b unchanged
// together with an *IllegalTransitionError.
func Apply(b models.Booking, a Action) (models.Booking, error) {
	if a == MarkPaid {
		if b.PaymentStatus == models.PaymentPaid {
			return b, &IllegalTransitionError{From: string(b.PaymentStatus), To: string(models.PaymentPaid)}
		}
		next := b
		next.PaymentStatus = models.PaymentPaid
		return next, nil
	}

	to, ok := targetStatus(a)
	if !ok {
		return b, fmt.Errorf("unknown action: %s", a)
	}
	if !CanTransition(b.Status, to) {
		return b, &IllegalTransitionError{From: string(b.Status), To: string(to)}
	}
	next := b
	next.Status = to
	return next, nil
}

// Permitted lists the actions Apply would accept for b.
func Permitted(b models.Booking) []Action {
	var out []Action
	for _, a := range Actions {
		if _, err := Apply(b, a); err == nil {
			out = append(out, a)
		}
	}
	return out
}

var statusBadges = map[models.BookingStatus]string{
	models.StatusConfirmed: "default",
	models.StatusPending:   "secondary",
	models.StatusCompleted: "outline",
	models.StatusCancelled: "destructive",
}

// BadgeVariant maps a status to its display variant. Unknown statuses
// render as "default".
func BadgeVariant(s models.BookingStatus) string {
	if v, ok := statusBadges[s]; ok {
		return v
	}
	return "default"
}

func PaymentBadgeVariant(p models.PaymentStatus) string {
	if p == models.PaymentPaid {
		return "default"
	}
	return "secondary"
}
