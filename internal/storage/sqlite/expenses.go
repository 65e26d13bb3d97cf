package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Pujan77/expense-tracker-backend/internal/faults"
	"github.com/Pujan77/expense-tracker-backend/internal/models"
)

// CreateExpense persists a new expense with its shares.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.SpentAt == 0 {
		expense.SpentAt = expense.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", faults.ErrPersistence, err)
	}
	defer tx.Rollback()

	if err := insertExpense(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", faults.ErrPersistence, err)
	}

	return nil
}

// UpdateExpense replaces an existing expense and its shares.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", faults.ErrPersistence, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE expenses SET payer_id = ?, description = ?, category = ?, amount = ?, spent_at = ?
		 WHERE id = ? AND family_id = ?`,
		expense.PayerID, expense.Description, expense.Category, expense.Amount,
		expense.SpentAt, expense.ID, expense.FamilyID,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update expense: %v", faults.ErrPersistence, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check update result: %v", faults.ErrPersistence, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expense %s", faults.ErrNotFound, expense.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_shares WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("%w: failed to clear expense shares: %v", faults.ErrPersistence, err)
	}
	if err := insertShares(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", faults.ErrPersistence, err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including its shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, family_id, payer_id, description, category, amount, spent_at, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.FamilyID, &expense.PayerID, &expense.Description,
		&expense.Category, &expense.Amount, &expense.SpentAt, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: expense %s", faults.ErrNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get expense: %v", faults.ErrPersistence, err)
	}

	if expense.Shares, err = s.loadShares(ctx, expense.ID); err != nil {
		return nil, err
	}

	return expense, nil
}

// ListExpensesByPeriod returns a family's expenses with SpentAt inside the
// period, bounds inclusive, oldest first.
func (s *SQLiteStore) ListExpensesByPeriod(ctx context.Context, familyID string, period models.Period) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, family_id, payer_id, description, category, amount, spent_at, created_at
		 FROM expenses WHERE family_id = ? AND spent_at >= ? AND spent_at <= ?
		 ORDER BY spent_at, id`,
		familyID, period.Start, period.End,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list expenses: %v", faults.ErrPersistence, err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		if err := rows.Scan(&expense.ID, &expense.FamilyID, &expense.PayerID, &expense.Description,
			&expense.Category, &expense.Amount, &expense.SpentAt, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan expense: %v", faults.ErrPersistence, err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate expenses: %v", faults.ErrPersistence, err)
	}

	for _, expense := range expenses {
		if expense.Shares, err = s.loadShares(ctx, expense.ID); err != nil {
			return nil, err
		}
	}

	return expenses, nil
}

// SumExpensesByCategory totals expense amounts for a family, category and
// period. An empty category matches every expense.
func (s *SQLiteStore) SumExpensesByCategory(ctx context.Context, familyID, category string, period models.Period) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses
		 WHERE family_id = ? AND spent_at >= ? AND spent_at <= ?`
	args := []interface{}{familyID, period.Start, period.End}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	var total float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: failed to sum expenses: %v", faults.ErrPersistence, err)
	}
	return total, nil
}

// loadShares fetches an expense's shares.
func (s *SQLiteStore) loadShares(ctx context.Context, expenseID string) ([]models.Share, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, share_type, share_value FROM expense_shares WHERE expense_id = ? ORDER BY user_id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get expense shares: %v", faults.ErrPersistence, err)
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		var share models.Share
		var shareType string
		if err := rows.Scan(&share.UserID, &shareType, &share.Value); err != nil {
			return nil, fmt.Errorf("%w: failed to scan expense share: %v", faults.ErrPersistence, err)
		}
		share.Type = models.ShareType(shareType)
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate expense shares: %v", faults.ErrPersistence, err)
	}

	return shares, nil
}

func insertExpense(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (id, family_id, payer_id, description, category, amount, spent_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.FamilyID, expense.PayerID, expense.Description,
		expense.Category, expense.Amount, expense.SpentAt, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert expense: %v", faults.ErrPersistence, err)
	}
	return insertShares(ctx, tx, expense)
}

func insertShares(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for _, share := range expense.Shares {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, user_id, share_type, share_value) VALUES (?, ?, ?, ?)",
			expense.ID, share.UserID, string(share.Type), share.Value,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert expense share: %v", faults.ErrPersistence, err)
		}
	}
	return nil
}
