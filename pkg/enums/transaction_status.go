package enums

// TransactionStatus tracks the settlement state of a ledger entry.
// Only pending -> completed and pending -> failed transitions are legal;
// refunded is reserved for settled purchases reversed by a processor.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusCompleted,
	TransactionStatusFailed,
	TransactionStatusRefunded,
}

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransactionStatus.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
