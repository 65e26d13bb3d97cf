package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Pujan77/expense-tracker-backend/internal/faults"
	"github.com/Pujan77/expense-tracker-backend/internal/models"
)

// UpsertBudget creates or replaces the budget for a family, category and month.
// Limits are stored as decimal strings to avoid float drift on round trips.
func (s *SQLiteStore) UpsertBudget(ctx context.Context, budget *models.Budget) error {
	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	if budget.CreatedAt == 0 {
		budget.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, family_id, category, month, limit_amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (family_id, category, month) DO UPDATE SET limit_amount = excluded.limit_amount`,
		budget.ID, budget.FamilyID, budget.Category, budget.Month,
		budget.Limit.String(), budget.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert budget: %v", faults.ErrPersistence, err)
	}

	return nil
}

// GetBudget retrieves the budget for a family, category and month.
func (s *SQLiteStore) GetBudget(ctx context.Context, familyID, category, month string) (*models.Budget, error) {
	budget := &models.Budget{}
	var limit string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, family_id, category, month, limit_amount, created_at
		 FROM budgets WHERE family_id = ? AND category = ? AND month = ?`,
		familyID, category, month,
	).Scan(&budget.ID, &budget.FamilyID, &budget.Category, &budget.Month, &limit, &budget.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: budget for %s/%s/%s", faults.ErrNotFound, familyID, category, month)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get budget: %v", faults.ErrPersistence, err)
	}

	if budget.Limit, err = decimal.NewFromString(limit); err != nil {
		return nil, fmt.Errorf("%w: corrupt budget limit %q: %v", faults.ErrPersistence, limit, err)
	}

	return budget, nil
}
