package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Pujan77/expense-tracker-backend/internal/calculator"
	"github.com/Pujan77/expense-tracker-backend/internal/faults"
	"github.com/Pujan77/expense-tracker-backend/internal/metrics"
	"github.com/Pujan77/expense-tracker-backend/internal/models"
	"github.com/Pujan77/expense-tracker-backend/internal/storage"
)

// SettlementService owns the settlement record lifecycle: computing a
// settlement for a period, marking individual transactions settled, and
// finalizing fully settled records.
//
// Settle and Finalize are serialized per record with a keyed mutex, and the
// store's version check backs that up against writers outside this process.
// Membership and head checks belong to the caller; the service assumes they
// already passed.
type SettlementService struct {
	store storage.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSettlementService creates a new SettlementService with the given
// storage backend.
func NewSettlementService(store storage.Store) *SettlementService {
	return &SettlementService{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// recordLock returns the mutex serializing mutations of one record.
// Locks are never evicted; records are few and live for a period each.
func (s *SettlementService) recordLock(recordID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[recordID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[recordID] = lock
	}
	return lock
}

// Compute runs the aggregation+simplification pipeline over a family's
// expenses in the period and persists the result as a new settlement record.
//
// It fails with a validation fault when the period holds no expenses or the
// simplified transaction list is empty (nothing to settle), and with a
// conflict when a finalized record already covers an overlapping period.
func (s *SettlementService) Compute(ctx context.Context, familyID string, period models.Period) (*models.SettlementRecord, error) {
	start := time.Now()
	defer func() { metrics.ObserveCompute(time.Since(start)) }()

	if familyID == "" {
		return nil, fmt.Errorf("%w: family_id required", faults.ErrValidation)
	}
	if !period.Valid() {
		return nil, fmt.Errorf("%w: invalid settlement period", faults.ErrValidation)
	}

	expenses, err := s.store.ListExpensesByPeriod(ctx, familyID, period)
	if err != nil {
		return nil, s.storeErr("Compute: failed to list expenses", err)
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("%w: no expenses in the requested period", faults.ErrValidation)
	}

	deref := make([]models.Expense, len(expenses))
	for i, e := range expenses {
		deref[i] = *e
	}

	matrix := calculator.Aggregate(deref)
	txns := calculator.Simplify(matrix)
	if len(txns) == 0 {
		return nil, fmt.Errorf("%w: nothing to settle", faults.ErrValidation)
	}

	existing, err := s.store.FindFinalizedOverlapping(ctx, familyID, period)
	if err != nil {
		return nil, s.storeErr("Compute: overlap check failed", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: period overlaps finalized settlement %s", faults.ErrConflict, existing.ID)
	}

	record := &models.SettlementRecord{
		FamilyID:     familyID,
		Period:       period,
		Transactions: txns,
	}
	if err := s.store.CreateSettlementRecord(ctx, record); err != nil {
		return nil, s.storeErr("Compute: failed to create settlement record", err)
	}

	metrics.SettlementsComputed.Inc()
	metrics.TransactionsEmitted.Add(float64(len(txns)))
	slog.Info("Settlement computed",
		"record_id", record.ID,
		"family_id", familyID,
		"expenses", len(expenses),
		"transactions", len(txns),
	)

	return record, nil
}

// SettleTransaction marks one transaction of a record as settled.
//
// It fails with a conflict if the record is finalized or the transaction is
// already settled, and with a validation fault if the index is out of range.
// Repeating a settle call is an error, not a no-op.
func (s *SettlementService) SettleTransaction(ctx context.Context, recordID string, index int) (*models.SettlementRecord, error) {
	lock := s.recordLock(recordID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.store.GetSettlementRecord(ctx, recordID)
	if err != nil {
		return nil, s.storeErr("SettleTransaction: failed to get record", err)
	}

	if record.IsFinalized {
		return nil, fmt.Errorf("%w: settlement record %s is finalized", faults.ErrConflict, recordID)
	}
	if index < 0 || index >= len(record.Transactions) {
		return nil, fmt.Errorf("%w: transaction index %d out of range", faults.ErrValidation, index)
	}
	if record.Transactions[index].Settled {
		return nil, fmt.Errorf("%w: transaction %d is already settled", faults.ErrConflict, index)
	}

	record.Transactions[index].Settled = true
	record.Transactions[index].SettledAt = time.Now().Unix()

	if err := s.store.SaveSettlementRecord(ctx, record); err != nil {
		return nil, s.storeErr("SettleTransaction: failed to save record", err)
	}

	metrics.TransactionsSettled.Inc()
	slog.Info("Transaction settled",
		"record_id", recordID,
		"index", index,
		"status", record.Status(),
	)

	return record, nil
}

// Finalize irreversibly closes a fully settled record.
//
// It fails with a conflict if the record is already finalized or any
// transaction remains unsettled. After success the record is immutable.
func (s *SettlementService) Finalize(ctx context.Context, recordID string) (*models.SettlementRecord, error) {
	lock := s.recordLock(recordID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.store.GetSettlementRecord(ctx, recordID)
	if err != nil {
		return nil, s.storeErr("Finalize: failed to get record", err)
	}

	if record.IsFinalized {
		return nil, fmt.Errorf("%w: settlement record %s is already finalized", faults.ErrConflict, recordID)
	}
	if !record.AllSettled() {
		return nil, fmt.Errorf("%w: settlement record %s has unsettled transactions", faults.ErrConflict, recordID)
	}

	record.IsFinalized = true
	record.FinalizedAt = time.Now().Unix()

	if err := s.store.SaveSettlementRecord(ctx, record); err != nil {
		return nil, s.storeErr("Finalize: failed to save record", err)
	}

	metrics.RecordsFinalized.Inc()
	slog.Info("Settlement finalized", "record_id", recordID, "family_id", record.FamilyID)

	return record, nil
}

// Get retrieves a settlement record by ID.
func (s *SettlementService) Get(ctx context.Context, recordID string) (*models.SettlementRecord, error) {
	record, err := s.store.GetSettlementRecord(ctx, recordID)
	if err != nil {
		return nil, s.storeErr("Get: failed to get record", err)
	}
	return record, nil
}

// ListByFamily retrieves a family's settlement records, newest first.
func (s *SettlementService) ListByFamily(ctx context.Context, familyID string) ([]*models.SettlementRecord, error) {
	records, err := s.store.ListSettlementRecordsByFamily(ctx, familyID)
	if err != nil {
		return nil, s.storeErr("ListByFamily: failed to list records", err)
	}
	return records, nil
}

// storeErr logs a storage error, counts persistence failures, and passes
// the error through unchanged for the caller to classify.
func (s *SettlementService) storeErr(msg string, err error) error {
	if errors.Is(err, faults.ErrPersistence) {
		metrics.StorageFailures.Inc()
		slog.Error(msg, "error", err)
	} else {
		slog.Warn(msg, "error", err)
	}
	return err
}
