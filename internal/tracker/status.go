package tracker

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled},
	StatusDelivered:      nil,
	StatusCancelled:      nil,
}

// ParseStatus converts a raw status string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransition reports whether the table allows moving from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError is returned when a status change is not in the table.
type TransitionError struct {
	From Status
	To   Status
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// Event records when an order entered a status.
type Event struct {
	Status Status    `bson:"status" json:"status"`
	At     time.Time `bson:"at" json:"at"`
	Reason string    `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Start returns the history of a freshly placed order.
func Start(at time.Time) []Event {
	return []Event{{Status: StatusPending, At: at}}
}

// Current returns the status of the last event, or pending for an empty history.
func Current(history []Event) Status {
	if len(history) == 0 {
		return StatusPending
	}
	return history[len(history)-1].Status
}

// Transition appends a move to the given status. The history is not
// modified when the move is rejected.
func Transition(history []Event, to Status, at time.Time, reason string) ([]Event, error) {
	from := Current(history)
	if !CanTransition(from, to) {
		return history, TransitionError{From: from, To: to}
	}

	ev := Event{Status: to, At: at}
	if to == StatusCancelled {
		ev.Reason = reason
	}

	next := make([]Event, len(history), len(history)+1)
	copy(next, history)
	return append(next, ev), nil
}
