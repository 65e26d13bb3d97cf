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

// CreateFamily persists a new family with its members.
func (s *SQLiteStore) CreateFamily(ctx context.Context, family *models.Family) error {
	if family.ID == "" {
		family.ID = uuid.New().String()
	}
	if family.CreatedAt == 0 {
		family.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", faults.ErrPersistence, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO families (id, name, head_id, created_at) VALUES (?, ?, ?, ?)",
		family.ID, family.Name, family.HeadID, family.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert family: %v", faults.ErrPersistence, err)
	}

	for _, userID := range family.Members {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO family_members (family_id, user_id) VALUES (?, ?)",
			family.ID, userID,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert family member: %v", faults.ErrPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", faults.ErrPersistence, err)
	}

	return nil
}

// GetFamily retrieves a family by ID, including its members.
func (s *SQLiteStore) GetFamily(ctx context.Context, familyID string) (*models.Family, error) {
	family := &models.Family{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, head_id, created_at FROM families WHERE id = ?",
		familyID,
	).Scan(&family.ID, &family.Name, &family.HeadID, &family.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: family %s", faults.ErrNotFound, familyID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get family: %v", faults.ErrPersistence, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM family_members WHERE family_id = ? ORDER BY user_id",
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get family members: %v", faults.ErrPersistence, err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("%w: failed to scan family member: %v", faults.ErrPersistence, err)
		}
		family.Members = append(family.Members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate family members: %v", faults.ErrPersistence, err)
	}

	return family, nil
}

// AddFamilyMembers adds user IDs to a family, ignoring existing members.
func (s *SQLiteStore) AddFamilyMembers(ctx context.Context, familyID string, userIDs []string) error {
	// Make sure the family exists first; INSERT OR IGNORE would hide it.
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM families WHERE id = ?", familyID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: family %s", faults.ErrNotFound, familyID)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to check family existence: %v", faults.ErrPersistence, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", faults.ErrPersistence, err)
	}
	defer tx.Rollback()

	for _, userID := range userIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO family_members (family_id, user_id) VALUES (?, ?)",
			familyID, userID,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert family member: %v", faults.ErrPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", faults.ErrPersistence, err)
	}

	return nil
}
