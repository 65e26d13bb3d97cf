// Package calculator implements the debt aggregation and simplification
// algorithms. Both functions are pure: no storage, no clocks, no shared
// state, safe to call concurrently on independent inputs.
package calculator

import "github.com/Pujan77/expense-tracker-backend/internal/models"

// DebtMatrix maps debtor user ID to creditor user ID to the accumulated
// amount owed across all contributing expenses.
type DebtMatrix map[string]map[string]float64

// Aggregate reduces a list of expenses into pairwise raw debts.
//
// For every share whose beneficiary is not the payer, the owed amount is
// computed per the share type and added to matrix[beneficiary][payer].
// Accumulation is commutative: expense and share order do not affect the
// result. Shares are assumed validated at creation time; an unrecognized
// share type contributes nothing.
func Aggregate(expenses []models.Expense) DebtMatrix {
	matrix := make(DebtMatrix)
	for _, exp := range expenses {
		for _, share := range exp.Shares {
			if share.UserID == exp.PayerID {
				continue // self-share carries no obligation
			}
			owed := share.Owed(exp.Amount)
			if owed <= 0 {
				continue
			}
			if matrix[share.UserID] == nil {
				matrix[share.UserID] = make(map[string]float64)
			}
			matrix[share.UserID][exp.PayerID] += owed
		}
	}
	return matrix
}
