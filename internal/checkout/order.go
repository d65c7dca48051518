package checkout

import (
	"strings"
	"time"

	"localserve/internal/models"
	"localserve/internal/payment"
	"localserve/internal/tracker"
)

// BuildOrder composes the order placed from s. Cash-on-delivery orders
// carry the free-text contact; every other method carries the address.
func BuildOrder(s State, now time.Time) (models.Order, error) {
	if problems := Validate(s); len(problems) > 0 {
		return models.Order{}, ValidationError{Problems: problems}
	}

	slot, _ := LookupTimeSlot(s.TimeSlot)
	items := make([]models.CartItem, len(s.Items))
	copy(items, s.Items)

	order := models.Order{
		Items:         items,
		Totals:        ComputeTotals(items),
		PaymentMethod: s.PaymentMethod,
		PaymentRef:    s.PaymentDetails.ForMethod(s.PaymentMethod).Summary(),
		TimeSlot:      slot.ID,
		TimeSlotLabel: slot.Label,
		Instructions:  strings.TrimSpace(s.Instructions),
		Status:        tracker.StatusPending,
		History:       tracker.Start(now),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if payment.IsCOD(s.PaymentMethod) {
		order.Customer = &models.OrderCustomer{
			Name:    strings.TrimSpace(s.Contact.Name),
			Contact: strings.TrimSpace(s.Contact.Contact),
			Address: strings.TrimSpace(s.Contact.Address),
		}
	} else {
		address := *s.Address
		order.Address = &address
	}
	return order, nil
}
