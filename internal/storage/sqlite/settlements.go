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

// CreateSettlementRecord persists a new settlement record with its transactions.
func (s *SQLiteStore) CreateSettlementRecord(ctx context.Context, record *models.SettlementRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if record.CreatedAt == 0 {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	record.Version = 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", faults.ErrPersistence, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlement_records (id, family_id, period_start, period_end, is_finalized, finalized_at, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, NULL, ?, ?, ?)`,
		record.ID, record.FamilyID, record.Period.Start, record.Period.End,
		record.Version, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert settlement record: %v", faults.ErrPersistence, err)
	}

	for i, txn := range record.Transactions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO settlement_transactions (record_id, position, from_user_id, to_user_id, amount, settled, settled_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.ID, i, txn.FromUserID, txn.ToUserID, txn.Amount,
			boolToInt(txn.Settled), nullableUnix(txn.SettledAt),
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert settlement transaction: %v", faults.ErrPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", faults.ErrPersistence, err)
	}

	return nil
}

// GetSettlementRecord retrieves a settlement record by ID, including its
// ordered transactions.
func (s *SQLiteStore) GetSettlementRecord(ctx context.Context, recordID string) (*models.SettlementRecord, error) {
	record := &models.SettlementRecord{}
	var finalized int
	var finalizedAt sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, family_id, period_start, period_end, is_finalized, finalized_at, version, created_at, updated_at
		 FROM settlement_records WHERE id = ?`,
		recordID,
	).Scan(&record.ID, &record.FamilyID, &record.Period.Start, &record.Period.End,
		&finalized, &finalizedAt, &record.Version, &record.CreatedAt, &record.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: settlement record %s", faults.ErrNotFound, recordID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get settlement record: %v", faults.ErrPersistence, err)
	}

	record.IsFinalized = finalized != 0
	if finalizedAt.Valid {
		record.FinalizedAt = finalizedAt.Int64
	}

	if record.Transactions, err = s.loadTransactions(ctx, record.ID); err != nil {
		return nil, err
	}

	return record, nil
}

// ListSettlementRecordsByFamily returns a family's settlement records,
// newest first, each with its transactions.
func (s *SQLiteStore) ListSettlementRecordsByFamily(ctx context.Context, familyID string) ([]*models.SettlementRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, family_id, period_start, period_end, is_finalized, finalized_at, version, created_at, updated_at
		 FROM settlement_records WHERE family_id = ? ORDER BY created_at DESC, id DESC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list settlement records: %v", faults.ErrPersistence, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if record.Transactions, err = s.loadTransactions(ctx, record.ID); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// FindFinalizedOverlapping returns a finalized record of the family whose
// inclusive period overlaps the requested one, or nil if there is none.
func (s *SQLiteStore) FindFinalizedOverlapping(ctx context.Context, familyID string, period models.Period) (*models.SettlementRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, family_id, period_start, period_end, is_finalized, finalized_at, version, created_at, updated_at
		 FROM settlement_records
		 WHERE family_id = ? AND is_finalized = 1 AND period_start <= ? AND period_end >= ?
		 LIMIT 1`,
		familyID, period.End, period.Start,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query overlapping records: %v", faults.ErrPersistence, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	record := records[0]
	if record.Transactions, err = s.loadTransactions(ctx, record.ID); err != nil {
		return nil, err
	}
	return record, nil
}

// SaveSettlementRecord writes back a record's finalization state and its
// transactions' settled flags. The update is guarded by the version the
// record was loaded with; a stale version fails with a conflict.
func (s *SQLiteStore) SaveSettlementRecord(ctx context.Context, record *models.SettlementRecord) error {
	record.UpdatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", faults.ErrPersistence, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE settlement_records
		 SET is_finalized = ?, finalized_at = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		boolToInt(record.IsFinalized), nullableUnix(record.FinalizedAt),
		record.UpdatedAt, record.ID, record.Version,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update settlement record: %v", faults.ErrPersistence, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to check update result: %v", faults.ErrPersistence, err)
	}
	if affected == 0 {
		// Distinguish a stale version from a missing record.
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM settlement_records WHERE id = ?", record.ID,
		).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: settlement record %s", faults.ErrNotFound, record.ID)
		}
		if err != nil {
			return fmt.Errorf("%w: failed to check record existence: %v", faults.ErrPersistence, err)
		}
		return fmt.Errorf("%w: settlement record %s was modified concurrently", faults.ErrConflict, record.ID)
	}

	for i, txn := range record.Transactions {
		_, err = tx.ExecContext(ctx,
			`UPDATE settlement_transactions SET settled = ?, settled_at = ?
			 WHERE record_id = ? AND position = ?`,
			boolToInt(txn.Settled), nullableUnix(txn.SettledAt), record.ID, i,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to update settlement transaction: %v", faults.ErrPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", faults.ErrPersistence, err)
	}

	record.Version++
	return nil
}

// loadTransactions fetches a record's transactions ordered by position.
func (s *SQLiteStore) loadTransactions(ctx context.Context, recordID string) ([]models.SettlementTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_user_id, to_user_id, amount, settled, settled_at
		 FROM settlement_transactions WHERE record_id = ? ORDER BY position`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get settlement transactions: %v", faults.ErrPersistence, err)
	}
	defer rows.Close()

	var txns []models.SettlementTransaction
	for rows.Next() {
		var txn models.SettlementTransaction
		var settled int
		var settledAt sql.NullInt64
		if err := rows.Scan(&txn.FromUserID, &txn.ToUserID, &txn.Amount, &settled, &settledAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan settlement transaction: %v", faults.ErrPersistence, err)
		}
		txn.Settled = settled != 0
		if settledAt.Valid {
			txn.SettledAt = settledAt.Int64
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate settlement transactions: %v", faults.ErrPersistence, err)
	}

	return txns, nil
}

// scanRecords drains settlement record rows (without transactions).
func scanRecords(rows *sql.Rows) ([]*models.SettlementRecord, error) {
	var records []*models.SettlementRecord
	for rows.Next() {
		record := &models.SettlementRecord{}
		var finalized int
		var finalizedAt sql.NullInt64
		if err := rows.Scan(&record.ID, &record.FamilyID, &record.Period.Start, &record.Period.End,
			&finalized, &finalizedAt, &record.Version, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan settlement record: %v", faults.ErrPersistence, err)
		}
		record.IsFinalized = finalized != 0
		if finalizedAt.Valid {
			record.FinalizedAt = finalizedAt.Int64
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate settlement records: %v", faults.ErrPersistence, err)
	}
	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableUnix(ts int64) interface{} {
	if ts == 0 {
		return nil
	}
	return ts
}
