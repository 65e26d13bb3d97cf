package models

// ShareType determines how a Share's Value is interpreted when computing
// the amount a beneficiary owes the payer.
type ShareType string

const (
	// ShareEqual means Value is a pre-normalized fraction of the expense
	// (1/participantCount, computed when the expense is created).
	ShareEqual ShareType = "equal"

	// SharePercentage means Value is a percentage of the expense amount
	// (0-100). Percentages on one expense must sum to 100.
	SharePercentage ShareType = "percentage"

	// ShareFixed means Value is an absolute owed amount. Fixed values on
	// one expense must sum to the expense amount.
	ShareFixed ShareType = "fixed"
)

// Share is one member's declared portion of an expense.
// All shares on a single expense carry the same type.
type Share struct {
	// UserID is the beneficiary of this share.
	UserID string

	// Type selects the interpretation of Value.
	Type ShareType

	// Value is a fraction, a percentage, or an absolute amount,
	// depending on Type.
	Value float64
}

// Owed returns the amount this share's beneficiary owes, given the expense
// total. An unrecognized share type owes nothing; share validation happens
// when the expense is created, not here.
func (s Share) Owed(total float64) float64 {
	switch s.Type {
	case ShareEqual:
		return total * s.Value
	case SharePercentage:
		return total * s.Value / 100
	case ShareFixed:
		return s.Value
	default:
		return 0
	}
}

// Expense represents one paid expense split among family members.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// FamilyID is the family this expense belongs to.
	FamilyID string

	// PayerID is the member who paid the full amount up front.
	PayerID string

	// Description is a human-readable label (e.g. "Groceries").
	Description string

	// Category is an optional budget category (e.g. "food").
	Category string

	// Amount is the full expense amount paid by the payer.
	Amount float64

	// SpentAt is the Unix timestamp of when the expense occurred.
	// Settlement periods select expenses by this field, bounds inclusive.
	SpentAt int64

	// Shares declares how the amount is split. A share whose beneficiary
	// is the payer contributes no debt.
	Shares []Share

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}
