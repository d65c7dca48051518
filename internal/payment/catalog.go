package payment

const (
	MethodUPI        = "upi"
	MethodCard       = "card"
	MethodWallet     = "wallet"
	MethodNetBanking = "netbanking"
	MethodCOD        = "cod"
)

// Method is an entry of the payment catalog. Fields lists the sub-form
// inputs the method reveals.
type Method struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Popular     bool     `json:"popular"`
	Fields      []string `json:"fields,omitempty"`
}

var catalog = []Method{
	{ID: MethodUPI, Name: "UPI", Description: "Pay with any UPI app", Popular: true, Fields: []string{"upiId"}},
	{ID: MethodCard, Name: "Credit / Debit Card", Description: "Visa, Mastercard, RuPay", Fields: []string{"cardNumber", "expiry", "cvv", "cardHolder"}},
	{ID: MethodWallet, Name: "Wallet", Description: "Paytm, PhonePe and other wallets"},
	{ID: MethodNetBanking, Name: "Net Banking", Description: "All major banks supported"},
	{ID: MethodCOD, Name: "Cash on Delivery", Description: "Pay when your order arrives"},
}

// Catalog returns a copy of the fixed payment catalog.
func Catalog() []Method {
	out := make([]Method, len(catalog))
	copy(out, catalog)
	return out
}

func Lookup(id string) (Method, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Method{}, false
}

// DefaultSelection resolves the method to show as selected. An existing
// selection wins; otherwise the popular method, then the first one.
func DefaultSelection(methods []Method, selectedID string) (Method, bool) {
	if selectedID != "" {
		for _, m := range methods {
			if m.ID == selectedID {
				return m, true
			}
		}
	}
	for _, m := range methods {
		if m.Popular {
			return m, true
		}
	}
	if len(methods) == 0 {
		return Method{}, false
	}
	return methods[0], true
}

func IsCOD(id string) bool {
	return id == MethodCOD
}
