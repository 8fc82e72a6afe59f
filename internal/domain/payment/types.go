package payment

// TransactionStatus defines the lifecycle states of a payment transaction
type TransactionStatus string

const (
	StatusApproved    TransactionStatus = "approved"
	StatusCaptured    TransactionStatus = "captured"
	StatusDeclined    TransactionStatus = "declined"
	StatusPending     TransactionStatus = "pending"
	StatusRefunded    TransactionStatus = "refunded"
	StatusChargedback TransactionStatus = "chargedback"
)

// IsValid reports whether the status is one of the known lifecycle states
func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusApproved, StatusCaptured, StatusDeclined, StatusPending, StatusRefunded, StatusChargedback:
		return true
	}
	return false
}

// Method defines supported payment methods
type Method string

const (
	MethodCreditCard   Method = "credit_card"
	MethodDebitCard    Method = "debit_card"
	MethodBankTransfer Method = "bank_transfer"
	MethodCashVoucher  Method = "cash_voucher"
)

// IsValid reports whether the method is one of the supported payment methods
func (m Method) IsValid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodBankTransfer, MethodCashVoucher:
		return true
	}
	return false
}

// IsCard reports whether the method settles through the card networks
func (m Method) IsCard() bool {
	return m == MethodCreditCard || m == MethodDebitCard
}

// Timestamp layouts used across the data files
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)
