package enums

import "fmt"

// EntryMethod defines how a sweepstakes accepts entries.
type EntryMethod string

const (
	EntryMethodPoints   EntryMethod = "points"
	EntryMethodPurchase EntryMethod = "purchase"
	EntryMethodBoth     EntryMethod = "both"
	EntryMethodFree     EntryMethod = "free"
)

var validEntryMethods = []EntryMethod{
	EntryMethodPoints,
	EntryMethodPurchase,
	EntryMethodBoth,
	EntryMethodFree,
}

// String implements fmt.Stringer.
func (m EntryMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known EntryMethod.
func (m EntryMethod) IsValid() bool {
	for _, candidate := range validEntryMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// CostsPoints reports whether entries under this method debit loyalty points.
func (m EntryMethod) CostsPoints() bool {
	return m == EntryMethodPoints || m == EntryMethodBoth
}

// ParseEntryMethod converts raw input into an EntryMethod.
func ParseEntryMethod(value string) (EntryMethod, error) {
	for _, candidate := range validEntryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entry method %q", value)
}
