package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pujan77/expense-tracker-backend/internal/faults"
	"github.com/Pujan77/expense-tracker-backend/internal/models"
	"github.com/Pujan77/expense-tracker-backend/internal/storage"
)

// BudgetStatus reports a month's spending against its limit.
type BudgetStatus struct {
	Budget    *models.Budget
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	Exceeded  bool
}

// BudgetService manages monthly spending limits per family category.
// Budgets are advisory: exceeding one is reported, never enforced.
type BudgetService struct {
	store storage.Store
}

// NewBudgetService creates a new BudgetService with the given storage backend.
func NewBudgetService(store storage.Store) *BudgetService {
	return &BudgetService{store: store}
}

// Set creates or replaces the budget for a family, category and month.
func (s *BudgetService) Set(ctx context.Context, budget *models.Budget) error {
	if budget.FamilyID == "" {
		return fmt.Errorf("%w: family_id required", faults.ErrValidation)
	}
	if _, err := monthPeriod(budget.Month); err != nil {
		return err
	}
	if !budget.Limit.IsPositive() {
		return fmt.Errorf("%w: budget limit must be positive", faults.ErrValidation)
	}

	if _, err := s.store.GetFamily(ctx, budget.FamilyID); err != nil {
		return err
	}

	if err := s.store.UpsertBudget(ctx, budget); err != nil {
		slog.Error("Set budget failed", "family_id", budget.FamilyID, "error", err)
		return err
	}

	slog.Info("Budget set",
		"family_id", budget.FamilyID,
		"category", budget.Category,
		"month", budget.Month,
		"limit", budget.Limit.String(),
	)
	return nil
}

// Status returns the month's spend against the configured limit.
func (s *BudgetService) Status(ctx context.Context, familyID, category, month string) (*BudgetStatus, error) {
	period, err := monthPeriod(month)
	if err != nil {
		return nil, err
	}

	budget, err := s.store.GetBudget(ctx, familyID, category, month)
	if err != nil {
		return nil, err
	}

	total, err := s.store.SumExpensesByCategory(ctx, familyID, category, period)
	if err != nil {
		return nil, err
	}

	spent := decimal.NewFromFloat(total).Round(2)
	remaining := budget.Limit.Sub(spent)

	return &BudgetStatus{
		Budget:    budget,
		Spent:     spent,
		Remaining: remaining,
		Exceeded:  remaining.IsNegative(),
	}, nil
}

// monthPeriod converts a "2006-01" month into an inclusive Unix period.
func monthPeriod(month string) (models.Period, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return models.Period{}, fmt.Errorf("%w: month must be in YYYY-MM form", faults.ErrValidation)
	}
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return models.Period{Start: start.Unix(), End: end.Unix()}, nil
}
