package enums

import "fmt"

// PaymentMethod describes how a purchase is settled.
type PaymentMethod string

const (
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodSquare  PaymentMethod = "square"
	PaymentMethodChime   PaymentMethod = "chime"
	PaymentMethodCashApp PaymentMethod = "cashapp"
	PaymentMethodVenmo   PaymentMethod = "venmo"
	PaymentMethodZelle   PaymentMethod = "zelle"
	PaymentMethodCrypto  PaymentMethod = "crypto"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodSquare,
	PaymentMethodChime,
	PaymentMethodCashApp,
	PaymentMethodVenmo,
	PaymentMethodZelle,
	PaymentMethodCrypto,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
