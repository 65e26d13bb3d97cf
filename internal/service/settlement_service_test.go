package service

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Pujan77/expense-tracker-backend/internal/faults"
	"github.com/Pujan77/expense-tracker-backend/internal/models"
	"github.com/Pujan77/expense-tracker-backend/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "tracker-service-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

// seedScenario creates the canonical three-user setup: alice pays 90 split
// equally three ways, bob pays 30 split equally with carol. Net balances:
// alice +60, bob -15, carol -45.
func seedScenario(t *testing.T, store *sqlite.SQLiteStore) *models.Family {
	t.Helper()
	ctx := context.Background()

	family := &models.Family{Name: "Smiths", HeadID: "alice", Members: []string{"alice", "bob", "carol"}}
	if err := store.CreateFamily(ctx, family); err != nil {
		t.Fatalf("CreateFamily failed: %v", err)
	}

	expenses := []*models.Expense{
		{
			FamilyID: family.ID,
			PayerID:  "alice",
			Amount:   90,
			SpentAt:  1000,
			Shares:   EqualShares([]string{"alice", "bob", "carol"}),
		},
		{
			FamilyID: family.ID,
			PayerID:  "bob",
			Amount:   30,
			SpentAt:  1500,
			Shares:   EqualShares([]string{"bob", "carol"}),
		},
	}
	svc := NewExpenseService(store)
	for _, expense := range expenses {
		if err := svc.Create(ctx, expense); err != nil {
			t.Fatalf("Create expense failed: %v", err)
		}
	}

	return family
}

var testPeriod = models.Period{Start: 1, End: 10000}

func TestComputeSettlement(t *testing.T) {
	store := newTestStore(t)
	family := seedScenario(t, store)
	svc := NewSettlementService(store)
	ctx := context.Background()

	record, err := svc.Compute(ctx, family.ID, testPeriod)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if record.ID == "" {
		t.Error("expected record ID to be generated")
	}
	if record.Status() != models.StatusOpen {
		t.Errorf("status = %s, want open", record.Status())
	}

	want := []models.SettlementTransaction{
		{FromUserID: "carol", ToUserID: "alice", Amount: 45},
		{FromUserID: "bob", ToUserID: "alice", Amount: 15},
	}
	if len(record.Transactions) != len(want) {
		t.Fatalf("transactions = %+v, want %+v", record.Transactions, want)
	}
	for i, tx := range want {
		got := record.Transactions[i]
		if got.FromUserID != tx.FromUserID || got.ToUserID != tx.ToUserID ||
			math.Abs(got.Amount-tx.Amount) > 0.001 {
			t.Errorf("txn %d = %+v, want %+v", i, got, tx)
		}
		if got.Settled {
			t.Errorf("txn %d created settled", i)
		}
	}
}

func TestComputeEmptyPeriod(t *testing.T) {
	store := newTestStore(t)
	family := seedScenario(t, store)
	svc := NewSettlementService(store)

	_, err := svc.Compute(context.Background(), family.ID, models.Period{Start: 50000, End: 60000})
	if !errors.Is(err, faults.ErrValidation) {
		t.Errorf("expected ErrValidation for empty period, got %v", err)
	}
}

func TestComputeNothingToSettle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	family := &models.Family{Name: "Solo", HeadID: "alice", Members: []string{"alice"}}
	if err := store.CreateFamily(ctx, family); err != nil {
		t.Fatalf("CreateFamily failed: %v", err)
	}
	// Self-only expense: the matrix and the simplified list come out empty.
	expense := &models.Expense{
		FamilyID: family.ID,
		PayerID:  "alice",
		Amount:   50,
		SpentAt:  1000,
		Shares:   EqualShares([]string{"alice"}),
	}
	if err := NewExpenseService(store).Create(ctx, expense); err != nil {
		t.Fatalf("Create expense failed: %v", err)
	}

	_, err := NewSettlementService(store).Compute(ctx, family.ID, testPeriod)
	if !errors.Is(err, faults.ErrValidation) {
		t.Errorf("expected ErrValidation (nothing to settle), got %v", err)
	}
}

func TestSettleTransactionLifecycle(t *testing.T) {
	store := newTestStore(t)
	family := seedScenario(t, store)
	svc := NewSettlementService(store)
	ctx := context.Background()

	record, err := svc.Compute(ctx, family.ID, testPeriod)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	t.Run("finalize before settling conflicts", func(t *testing.T) {
		_, err := svc.Finalize(ctx, record.ID)
		if !errors.Is(err, faults.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("settle marks transaction and stamps time", func(t *testing.T) {
		updated, err := svc.SettleTransaction(ctx, record.ID, 0)
		if err != nil {
			t.Fatalf("SettleTransaction failed: %v", err)
		}
		if !updated.Transactions[0].Settled || updated.Transactions[0].SettledAt == 0 {
			t.Errorf("transaction not settled: %+v", updated.Transactions[0])
		}
		if updated.Status() != models.StatusOpen {
			t.Errorf("status = %s, want open", updated.Status())
		}
	})

	t.Run("settling the same index twice conflicts", func(t *testing.T) {
		_, err := svc.SettleTransaction(ctx, record.ID, 0)
		if !errors.Is(err, faults.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("out-of-range index is a validation fault", func(t *testing.T) {
		_, err := svc.SettleTransaction(ctx, record.ID, 99)
		if !errors.Is(err, faults.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		_, err = svc.SettleTransaction(ctx, record.ID, -1)
		if !errors.Is(err, faults.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("last settle makes the record ready", func(t *testing.T) {
		updated, err := svc.SettleTransaction(ctx, record.ID, 1)
		if err != nil {
			t.Fatalf("SettleTransaction failed: %v", err)
		}
		if updated.Status() != models.StatusReady {
			t.Errorf("status = %s, want ready", updated.Status())
		}
	})

	t.Run("finalize succeeds once ready", func(t *testing.T) {
		finalized, err := svc.Finalize(ctx, record.ID)
		if err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if !finalized.IsFinalized || finalized.FinalizedAt == 0 {
			t.Errorf("record not finalized: %+v", finalized)
		}
		if finalized.Status() != models.StatusFinalized {
			t.Errorf("status = %s, want finalized", finalized.Status())
		}
	})

	t.Run("finalized record is immutable", func(t *testing.T) {
		if _, err := svc.Finalize(ctx, record.ID); !errors.Is(err, faults.ErrConflict) {
			t.Errorf("second finalize: expected ErrConflict, got %v", err)
		}
		if _, err := svc.SettleTransaction(ctx, record.ID, 1); !errors.Is(err, faults.ErrConflict) {
			t.Errorf("settle after finalize: expected ErrConflict, got %v", err)
		}
	})

	t.Run("overlapping finalized period blocks new computation", func(t *testing.T) {
		_, err := svc.Compute(ctx, family.ID, models.Period{Start: 5000, End: 20000})
		if !errors.Is(err, faults.ErrConflict) {
			t.Errorf("expected ErrConflict for overlapping period, got %v", err)
		}
	})
}

func TestComputeAllowsUnfinalizedOverlap(t *testing.T) {
	store := newTestStore(t)
	family := seedScenario(t, store)
	svc := NewSettlementService(store)
	ctx := context.Background()

	if _, err := svc.Compute(ctx, family.ID, testPeriod); err != nil {
		t.Fatalf("first Compute failed: %v", err)
	}
	// Only finalized records block; a draft does not.
	if _, err := svc.Compute(ctx, family.ID, testPeriod); err != nil {
		t.Fatalf("second Compute over draft period failed: %v", err)
	}
}

func TestConcurrentSettleSameIndex(t *testing.T) {
	store := newTestStore(t)
	family := seedScenario(t, store)
	svc := NewSettlementService(store)
	ctx := context.Background()

	record, err := svc.Compute(ctx, family.ID, testPeriod)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.SettleTransaction(ctx, record.ID, 0); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	if got := len(successes); got != 1 {
		t.Errorf("settle succeeded %d times, want exactly 1", got)
	}
}

func TestConcurrentFinalize(t *testing.T) {
	store := newTestStore(t)
	family := seedScenario(t, store)
	svc := NewSettlementService(store)
	ctx := context.Background()

	record, err := svc.Compute(ctx, family.ID, testPeriod)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	for i := range record.Transactions {
		if _, err := svc.SettleTransaction(ctx, record.ID, i); err != nil {
			t.Fatalf("SettleTransaction failed: %v", err)
		}
	}

	const workers = 8
	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Finalize(ctx, record.ID); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	if got := len(successes); got != 1 {
		t.Errorf("finalize succeeded %d times, want exactly 1", got)
	}
}
