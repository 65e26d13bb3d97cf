package models

import "github.com/shopspring/decimal"

// Budget is a monthly spending limit for one family category.
// Exceeding a budget is reported to the caller, never enforced.
type Budget struct {
	// ID is the unique identifier for the budget (UUID format).
	ID string

	// FamilyID is the family this budget belongs to.
	FamilyID string

	// Category matches Expense.Category. Empty means all expenses.
	Category string

	// Month is the budget month in "2006-01" form.
	Month string

	// Limit is the spending limit for the month.
	Limit decimal.Decimal

	// CreatedAt is the Unix timestamp when the budget was set.
	CreatedAt int64
}
