package payment

import "strings"

// CardDetails are collected for card payments. They are not validated here.
type CardDetails struct {
	Number string `json:"cardNumber"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
	Holder string `json:"cardHolder"`
}

type UPIDetails struct {
	ID string `json:"upiId"`
}

// Details carries the sub-form values of the selected method.
type Details struct {
	Card *CardDetails `json:"card,omitempty"`
	UPI  *UPIDetails  `json:"upi,omitempty"`
}

// ForMethod drops sub-forms that do not belong to the method.
func (d Details) ForMethod(methodID string) Details {
	switch methodID {
	case MethodCard:
		return Details{Card: d.Card}
	case MethodUPI:
		return Details{UPI: d.UPI}
	default:
		return Details{}
	}
}

// Summary is a display-safe reference stored with an order. Card numbers
// are reduced to their last four digits and the CVV is never included.
func (d Details) Summary() string {
	switch {
	case d.Card != nil:
		digits := onlyDigits(d.Card.Number)
		if len(digits) < 4 {
			return ""
		}
		return "card ending " + digits[len(digits)-4:]
	case d.UPI != nil:
		return strings.TrimSpace(d.UPI.ID)
	}
	return ""
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
