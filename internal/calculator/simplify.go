package calculator

import (
	"math"
	"sort"

	"github.com/Pujan77/expense-tracker-backend/internal/models"
)

// epsilon absorbs floating point accumulation noise; balances within it of
// zero count as settled. It is shared by the aggregator's callers and the
// simplifier so both sides agree on what "settled" means.
const epsilon = 0.01

type party struct {
	userID string
	amount float64 // positive magnitude of what is owed or due
}

// NetBalances derives each user's signed position from the raw debt matrix:
// amounts owed to them minus amounts they owe. The balances always sum to
// zero (within floating point tolerance), since every matrix entry debits
// one user and credits another symmetrically.
func NetBalances(matrix DebtMatrix) map[string]float64 {
	balances := make(map[string]float64)
	for debtor, creditors := range matrix {
		for creditor, amount := range creditors {
			balances[debtor] -= amount
			balances[creditor] += amount
		}
	}
	return balances
}

// Simplify reduces a raw debt matrix into a minimal list of settlement
// transactions using greedy net-balance matching.
//
// Users are partitioned into debtors and creditors by net balance, each
// list sorted descending by magnitude, and the largest debtor is repeatedly
// matched against the largest creditor for min(remaining, remaining). The
// lists are never re-sorted; exhausted parties are evicted from the front.
// Emitted amounts are rounded half-up to two decimals while the remainders
// are decremented by the unrounded amount.
//
// For N users with non-zero balances this emits at most N-1 transactions.
// The greedy matching is a heuristic, not a provably minimal solver, and
// its exact emission order is part of the observable contract.
func Simplify(matrix DebtMatrix) []models.SettlementTransaction {
	balances := NetBalances(matrix)

	// Iterate users in sorted order so ties keep a deterministic order
	// through the stable sort below.
	users := make([]string, 0, len(balances))
	for u := range balances {
		users = append(users, u)
	}
	sort.Strings(users)

	var debtors, creditors []party
	for _, u := range users {
		switch b := balances[u]; {
		case b < -epsilon:
			debtors = append(debtors, party{userID: u, amount: -b})
		case b > epsilon:
			creditors = append(creditors, party{userID: u, amount: b})
		}
	}

	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].amount > debtors[j].amount
	})
	sort.SliceStable(creditors, func(i, j int) bool {
		return creditors[i].amount > creditors[j].amount
	})

	// Greedy matching: largest debtor pays largest creditor until one
	// side runs out.
	var txns []models.SettlementTransaction
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := math.Min(debtors[i].amount, creditors[j].amount)

		txns = append(txns, models.SettlementTransaction{
			FromUserID: debtors[i].userID,
			ToUserID:   creditors[j].userID,
			Amount:     roundCents(amount),
		})

		debtors[i].amount -= amount
		creditors[j].amount -= amount

		if debtors[i].amount < epsilon {
			i++
		}
		if creditors[j].amount < epsilon {
			j++
		}
	}

	return txns
}

// roundCents rounds half-up to two decimal places.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
