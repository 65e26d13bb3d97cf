package models

// Period is an inclusive date range in Unix seconds.
type Period struct {
	Start int64
	End   int64
}

// Valid reports whether the period is non-empty and ordered.
func (p Period) Valid() bool {
	return p.Start > 0 && p.End >= p.Start
}

// Overlaps reports whether two inclusive periods share at least one instant.
func (p Period) Overlaps(other Period) bool {
	return p.Start <= other.End && other.Start <= p.End
}

// SettlementTransaction is one minimal payment instruction produced by debt
// simplification: FromUserID pays ToUserID the Amount. Transactions are owned
// by their parent SettlementRecord and addressed by position within it.
type SettlementTransaction struct {
	FromUserID string
	ToUserID   string

	// Amount is positive and rounded to two decimal places.
	Amount float64

	// Settled is true once the payment has been marked as made.
	Settled bool

	// SettledAt is the Unix timestamp of settling, zero while unsettled.
	SettledAt int64
}

// RecordStatus is the derived lifecycle state of a settlement record.
type RecordStatus string

const (
	// StatusOpen: at least one transaction is still unsettled.
	StatusOpen RecordStatus = "open"

	// StatusReady: every transaction is settled, record not yet finalized.
	StatusReady RecordStatus = "ready"

	// StatusFinalized: terminal. The record is immutable.
	StatusFinalized RecordStatus = "finalized"
)

// SettlementRecord is a computed settlement for one family and period.
// It is created by the aggregation+simplification pipeline and mutated only
// to mark transactions settled or to finalize the whole record.
type SettlementRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// FamilyID is the family this settlement belongs to.
	FamilyID string

	// Period is the inclusive expense date range this record covers.
	// A family may not have two finalized records with overlapping periods.
	Period Period

	// Transactions is the ordered output of the simplifier. The order is
	// fixed at creation; transactions are addressed by index.
	Transactions []SettlementTransaction

	// IsFinalized transitions false to true exactly once, and only when
	// every transaction is settled.
	IsFinalized bool

	// FinalizedAt is the Unix timestamp of finalization, zero before.
	FinalizedAt int64

	// Version is the optimistic concurrency token, incremented by the
	// store on every successful save. A save against a stale version fails.
	Version int

	// CreatedAt and UpdatedAt are Unix timestamps maintained by the store.
	CreatedAt int64
	UpdatedAt int64
}

// AllSettled reports whether every transaction on the record is settled.
func (r *SettlementRecord) AllSettled() bool {
	for _, tx := range r.Transactions {
		if !tx.Settled {
			return false
		}
	}
	return true
}

// Status derives the lifecycle state from the finalized flag and the
// transactions. It is never persisted separately.
func (r *SettlementRecord) Status() RecordStatus {
	if r.IsFinalized {
		return StatusFinalized
	}
	if r.AllSettled() {
		return StatusReady
	}
	return StatusOpen
}
