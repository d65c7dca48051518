package checkout

import (
	"strings"

	"localserve/internal/models"
	"localserve/internal/payment"
)

// Problem is a condition that keeps an order from being submitted.
type Problem string

const (
	ProblemEmptyCart      Problem = "cart is empty"
	ProblemNoPayment      Problem = "payment method not selected"
	ProblemNoTimeSlot     Problem = "delivery time slot not selected"
	ProblemMissingContact Problem = "name, contact and address are required for cash on delivery"
	ProblemNoAddress      Problem = "delivery address not selected"
)

// State is everything the checkout form holds at submission time.
type State struct {
	Items          []models.CartItem
	PaymentMethod  string
	PaymentDetails payment.Details
	TimeSlot       string
	Address        *models.Address
	Contact        models.OrderCustomer
	Instructions   string
}

// Validate lists every unmet submission requirement. Unknown payment
// methods and time slots count as not selected.
func Validate(s State) []Problem {
	var problems []Problem

	if len(s.Items) == 0 {
		problems = append(problems, ProblemEmptyCart)
	}
	if _, ok := payment.Lookup(s.PaymentMethod); !ok {
		problems = append(problems, ProblemNoPayment)
	}
	if _, ok := LookupTimeSlot(s.TimeSlot); !ok {
		problems = append(problems, ProblemNoTimeSlot)
	}

	if payment.IsCOD(s.PaymentMethod) {
		if blank(s.Contact.Name) || blank(s.Contact.Contact) || blank(s.Contact.Address) {
			problems = append(problems, ProblemMissingContact)
		}
	} else if s.Address == nil {
		problems = append(problems, ProblemNoAddress)
	}
	return problems
}

// CanSubmit mirrors the enabled state of the place-order button.
func CanSubmit(s State) bool {
	return len(Validate(s)) == 0
}

// ValidationError carries the problems found by Validate.
type ValidationError struct {
	Problems []Problem
}

func (e ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = string(p)
	}
	return "checkout incomplete: " + strings.Join(parts, "; ")
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
