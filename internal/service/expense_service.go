package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Pujan77/expense-tracker-backend/internal/faults"
	"github.com/Pujan77/expense-tracker-backend/internal/models"
	"github.com/Pujan77/expense-tracker-backend/internal/storage"
)

// shareTolerance is the allowed drift when checking share totals:
// percentages against 100, fixed amounts against the expense total.
const shareTolerance = 0.01

// ExpenseService is the validation boundary for expenses. Malformed share
// totals are rejected here so the debt aggregator never sees them and can
// stay validation-free.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// Create validates and persists a new expense.
func (s *ExpenseService) Create(ctx context.Context, expense *models.Expense) error {
	if err := s.validate(ctx, expense); err != nil {
		slog.Warn("Create expense rejected", "family_id", expense.FamilyID, "error", err)
		return err
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("Create expense failed", "error", err)
		return err
	}

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"family_id", expense.FamilyID,
		"amount", expense.Amount,
		"shares", len(expense.Shares),
	)
	return nil
}

// Update validates and replaces an existing expense.
func (s *ExpenseService) Update(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		return fmt.Errorf("%w: expense id required", faults.ErrValidation)
	}
	if err := s.validate(ctx, expense); err != nil {
		slog.Warn("Update expense rejected", "expense_id", expense.ID, "error", err)
		return err
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		slog.Error("Update expense failed", "expense_id", expense.ID, "error", err)
		return err
	}

	slog.Info("Expense updated", "expense_id", expense.ID)
	return nil
}

// Get retrieves an expense by ID.
func (s *ExpenseService) Get(ctx context.Context, expenseID string) (*models.Expense, error) {
	return s.store.GetExpense(ctx, expenseID)
}

// ListForPeriod returns a family's expenses inside the period, bounds
// inclusive. This is the expense supply consumed by the settlement pipeline.
func (s *ExpenseService) ListForPeriod(ctx context.Context, familyID string, period models.Period) ([]*models.Expense, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: invalid period", faults.ErrValidation)
	}
	return s.store.ListExpensesByPeriod(ctx, familyID, period)
}

// validate enforces the share contract: a non-empty, single-type share list
// whose totals match the share type's rule, with every participant a family
// member.
func (s *ExpenseService) validate(ctx context.Context, expense *models.Expense) error {
	if expense.FamilyID == "" {
		return fmt.Errorf("%w: family_id required", faults.ErrValidation)
	}
	if expense.PayerID == "" {
		return fmt.Errorf("%w: payer_id required", faults.ErrValidation)
	}
	if expense.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", faults.ErrValidation)
	}
	if len(expense.Shares) == 0 {
		return fmt.Errorf("%w: at least one share required", faults.ErrValidation)
	}

	family, err := s.store.GetFamily(ctx, expense.FamilyID)
	if err != nil {
		return err
	}
	if !family.HasMember(expense.PayerID) {
		return fmt.Errorf("%w: payer %s is not a member of family %s", faults.ErrValidation, expense.PayerID, expense.FamilyID)
	}

	shareType := expense.Shares[0].Type
	seen := make(map[string]bool, len(expense.Shares))
	var sum float64
	for _, share := range expense.Shares {
		if share.Type != shareType {
			return fmt.Errorf("%w: all shares of one expense must use the same type", faults.ErrValidation)
		}
		if share.UserID == "" {
			return fmt.Errorf("%w: share user_id required", faults.ErrValidation)
		}
		if seen[share.UserID] {
			return fmt.Errorf("%w: duplicate share for user %s", faults.ErrValidation, share.UserID)
		}
		seen[share.UserID] = true
		if !family.HasMember(share.UserID) {
			return fmt.Errorf("%w: user %s is not a member of family %s", faults.ErrValidation, share.UserID, expense.FamilyID)
		}
		if share.Value < 0 {
			return fmt.Errorf("%w: share value must not be negative", faults.ErrValidation)
		}
		sum += share.Value
	}

	switch shareType {
	case models.ShareEqual:
		// Values are pre-normalized fractions; together they cover the
		// whole expense exactly once.
		if math.Abs(sum-1) > shareTolerance {
			return fmt.Errorf("%w: equal share fractions sum to %.4f, want 1", faults.ErrValidation, sum)
		}
	case models.SharePercentage:
		if math.Abs(sum-100) > shareTolerance {
			return fmt.Errorf("%w: percentage shares sum to %.2f, want 100", faults.ErrValidation, sum)
		}
	case models.ShareFixed:
		if math.Abs(sum-expense.Amount) > shareTolerance {
			return fmt.Errorf("%w: fixed shares sum to %.2f, want %.2f", faults.ErrValidation, sum, expense.Amount)
		}
	default:
		return fmt.Errorf("%w: unknown share type %q", faults.ErrValidation, shareType)
	}

	return nil
}

// EqualShares builds a pre-normalized equal split across the given users.
func EqualShares(userIDs []string) []models.Share {
	if len(userIDs) == 0 {
		return nil
	}
	fraction := 1 / float64(len(userIDs))
	shares := make([]models.Share, len(userIDs))
	for i, userID := range userIDs {
		shares[i] = models.Share{UserID: userID, Type: models.ShareEqual, Value: fraction}
	}
	return shares
}
