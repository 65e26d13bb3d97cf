package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Pujan77/expense-tracker-backend/internal/faults"
	"github.com/Pujan77/expense-tracker-backend/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "tracker-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func seedFamily(t *testing.T, store *SQLiteStore, members ...string) *models.Family {
	t.Helper()
	family := &models.Family{Name: "Test Family", HeadID: members[0], Members: members}
	if err := store.CreateFamily(context.Background(), family); err != nil {
		t.Fatalf("CreateFamily failed: %v", err)
	}
	return family
}

func TestFamilyStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateFamily generates ID and timestamps", func(t *testing.T) {
		family := seedFamily(t, store, "alice", "bob")
		if family.ID == "" {
			t.Error("Expected family ID to be generated")
		}
		if family.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetFamily retrieves members", func(t *testing.T) {
		family := seedFamily(t, store, "alice", "bob", "carol")

		retrieved, err := store.GetFamily(ctx, family.ID)
		if err != nil {
			t.Fatalf("GetFamily failed: %v", err)
		}
		if retrieved.HeadID != "alice" {
			t.Errorf("HeadID = %s, want alice", retrieved.HeadID)
		}
		if len(retrieved.Members) != 3 {
			t.Errorf("Members count = %d, want 3", len(retrieved.Members))
		}
	})

	t.Run("GetFamily returns not-found fault", func(t *testing.T) {
		_, err := store.GetFamily(ctx, "nonexistent-id")
		if !errors.Is(err, faults.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddFamilyMembers skips duplicates", func(t *testing.T) {
		family := seedFamily(t, store, "alice")

		if err := store.AddFamilyMembers(ctx, family.ID, []string{"bob", "alice"}); err != nil {
			t.Fatalf("AddFamilyMembers failed: %v", err)
		}

		retrieved, err := store.GetFamily(ctx, family.ID)
		if err != nil {
			t.Fatalf("GetFamily failed: %v", err)
		}
		if len(retrieved.Members) != 2 {
			t.Errorf("Members count = %d, want 2", len(retrieved.Members))
		}
	})
}

func TestExpenseStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	family := seedFamily(t, store, "alice", "bob", "carol")

	t.Run("CreateExpense round-trips shares", func(t *testing.T) {
		expense := &models.Expense{
			FamilyID:    family.ID,
			PayerID:     "alice",
			Description: "Groceries",
			Category:    "food",
			Amount:      90,
			SpentAt:     1000,
			Shares: []models.Share{
				{UserID: "alice", Type: models.ShareEqual, Value: 1.0 / 3},
				{UserID: "bob", Type: models.ShareEqual, Value: 1.0 / 3},
				{UserID: "carol", Type: models.ShareEqual, Value: 1.0 / 3},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}

		retrieved, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if retrieved.Amount != 90 || retrieved.PayerID != "alice" {
			t.Errorf("round-trip mismatch: %+v", retrieved)
		}
		if len(retrieved.Shares) != 3 {
			t.Fatalf("Shares count = %d, want 3", len(retrieved.Shares))
		}
		if retrieved.Shares[0].Type != models.ShareEqual {
			t.Errorf("share type = %s, want equal", retrieved.Shares[0].Type)
		}
	})

	t.Run("ListExpensesByPeriod uses inclusive bounds", func(t *testing.T) {
		for _, spentAt := range []int64{2000, 2500, 3000} {
			expense := &models.Expense{
				FamilyID: family.ID,
				PayerID:  "bob",
				Amount:   10,
				SpentAt:  spentAt,
				Shares:   []models.Share{{UserID: "carol", Type: models.ShareFixed, Value: 10}},
			}
			if err := store.CreateExpense(ctx, expense); err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}

		expenses, err := store.ListExpensesByPeriod(ctx, family.ID, models.Period{Start: 2000, End: 3000})
		if err != nil {
			t.Fatalf("ListExpensesByPeriod failed: %v", err)
		}
		if len(expenses) != 3 {
			t.Errorf("expenses count = %d, want 3 (bounds are inclusive)", len(expenses))
		}

		expenses, err = store.ListExpensesByPeriod(ctx, family.ID, models.Period{Start: 2001, End: 2999})
		if err != nil {
			t.Fatalf("ListExpensesByPeriod failed: %v", err)
		}
		if len(expenses) != 1 {
			t.Errorf("expenses count = %d, want 1", len(expenses))
		}
	})

	t.Run("UpdateExpense replaces shares", func(t *testing.T) {
		expense := &models.Expense{
			FamilyID: family.ID,
			PayerID:  "alice",
			Amount:   50,
			SpentAt:  4000,
			Shares:   []models.Share{{UserID: "bob", Type: models.ShareFixed, Value: 50}},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expense.Amount = 60
		expense.Shares = []models.Share{
			{UserID: "bob", Type: models.ShareFixed, Value: 40},
			{UserID: "carol", Type: models.ShareFixed, Value: 20},
		}
		if err := store.UpdateExpense(ctx, expense); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}

		retrieved, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if retrieved.Amount != 60 || len(retrieved.Shares) != 2 {
			t.Errorf("update not applied: %+v", retrieved)
		}
	})

	t.Run("SumExpensesByCategory filters by category", func(t *testing.T) {
		sum, err := store.SumExpensesByCategory(ctx, family.ID, "food", models.Period{Start: 1, End: 10000})
		if err != nil {
			t.Fatalf("SumExpensesByCategory failed: %v", err)
		}
		if sum != 90 {
			t.Errorf("food sum = %v, want 90", sum)
		}
	})
}

func TestSettlementRecordStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	family := seedFamily(t, store, "alice", "bob", "carol")

	newRecord := func(start, end int64) *models.SettlementRecord {
		return &models.SettlementRecord{
			FamilyID: family.ID,
			Period:   models.Period{Start: start, End: end},
			Transactions: []models.SettlementTransaction{
				{FromUserID: "carol", ToUserID: "alice", Amount: 45},
				{FromUserID: "bob", ToUserID: "alice", Amount: 15},
			},
		}
	}

	t.Run("Create and Get round-trip", func(t *testing.T) {
		record := newRecord(1000, 2000)
		if err := store.CreateSettlementRecord(ctx, record); err != nil {
			t.Fatalf("CreateSettlementRecord failed: %v", err)
		}
		if record.ID == "" || record.Version != 1 {
			t.Errorf("ID/Version not initialized: id=%q version=%d", record.ID, record.Version)
		}

		retrieved, err := store.GetSettlementRecord(ctx, record.ID)
		if err != nil {
			t.Fatalf("GetSettlementRecord failed: %v", err)
		}
		if len(retrieved.Transactions) != 2 {
			t.Fatalf("transactions count = %d, want 2", len(retrieved.Transactions))
		}
		if retrieved.Transactions[0].FromUserID != "carol" {
			t.Errorf("transaction order not preserved: %+v", retrieved.Transactions)
		}
		if retrieved.Status() != models.StatusOpen {
			t.Errorf("status = %s, want open", retrieved.Status())
		}
	})

	t.Run("Save persists settled flags and bumps version", func(t *testing.T) {
		record := newRecord(3000, 4000)
		if err := store.CreateSettlementRecord(ctx, record); err != nil {
			t.Fatalf("CreateSettlementRecord failed: %v", err)
		}

		record.Transactions[0].Settled = true
		record.Transactions[0].SettledAt = 3500
		if err := store.SaveSettlementRecord(ctx, record); err != nil {
			t.Fatalf("SaveSettlementRecord failed: %v", err)
		}
		if record.Version != 2 {
			t.Errorf("version = %d, want 2", record.Version)
		}

		retrieved, err := store.GetSettlementRecord(ctx, record.ID)
		if err != nil {
			t.Fatalf("GetSettlementRecord failed: %v", err)
		}
		if !retrieved.Transactions[0].Settled || retrieved.Transactions[0].SettledAt != 3500 {
			t.Errorf("settled flag lost: %+v", retrieved.Transactions[0])
		}
		if retrieved.Transactions[1].Settled {
			t.Error("unrelated transaction marked settled")
		}
	})

	t.Run("Save with stale version conflicts", func(t *testing.T) {
		record := newRecord(5000, 6000)
		if err := store.CreateSettlementRecord(ctx, record); err != nil {
			t.Fatalf("CreateSettlementRecord failed: %v", err)
		}

		stale, err := store.GetSettlementRecord(ctx, record.ID)
		if err != nil {
			t.Fatalf("GetSettlementRecord failed: %v", err)
		}

		record.Transactions[0].Settled = true
		if err := store.SaveSettlementRecord(ctx, record); err != nil {
			t.Fatalf("first save failed: %v", err)
		}

		stale.Transactions[1].Settled = true
		err = store.SaveSettlementRecord(ctx, stale)
		if !errors.Is(err, faults.ErrConflict) {
			t.Errorf("expected ErrConflict for stale save, got %v", err)
		}
	})

	t.Run("Save of missing record is not-found", func(t *testing.T) {
		record := newRecord(1, 2)
		record.ID = "nonexistent-id"
		record.Version = 1
		err := store.SaveSettlementRecord(ctx, record)
		if !errors.Is(err, faults.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("FindFinalizedOverlapping ignores unfinalized records", func(t *testing.T) {
		record := newRecord(10000, 20000)
		if err := store.CreateSettlementRecord(ctx, record); err != nil {
			t.Fatalf("CreateSettlementRecord failed: %v", err)
		}

		found, err := store.FindFinalizedOverlapping(ctx, family.ID, models.Period{Start: 15000, End: 25000})
		if err != nil {
			t.Fatalf("FindFinalizedOverlapping failed: %v", err)
		}
		if found != nil {
			t.Errorf("unfinalized record reported as overlapping: %+v", found)
		}

		record.Transactions[0].Settled = true
		record.Transactions[1].Settled = true
		record.IsFinalized = true
		record.FinalizedAt = 20001
		if err := store.SaveSettlementRecord(ctx, record); err != nil {
			t.Fatalf("SaveSettlementRecord failed: %v", err)
		}

		found, err = store.FindFinalizedOverlapping(ctx, family.ID, models.Period{Start: 20000, End: 25000})
		if err != nil {
			t.Fatalf("FindFinalizedOverlapping failed: %v", err)
		}
		if found == nil || found.ID != record.ID {
			t.Errorf("expected overlap with %s, got %+v", record.ID, found)
		}

		// Touching periods overlap because bounds are inclusive; disjoint
		// ones do not.
		found, err = store.FindFinalizedOverlapping(ctx, family.ID, models.Period{Start: 20001, End: 25000})
		if err != nil {
			t.Fatalf("FindFinalizedOverlapping failed: %v", err)
		}
		if found != nil {
			t.Errorf("disjoint period reported as overlapping: %+v", found)
		}
	})

	t.Run("ListSettlementRecordsByFamily newest first", func(t *testing.T) {
		records, err := store.ListSettlementRecordsByFamily(ctx, family.ID)
		if err != nil {
			t.Fatalf("ListSettlementRecordsByFamily failed: %v", err)
		}
		if len(records) < 4 {
			t.Fatalf("records count = %d, want at least 4", len(records))
		}
		for i := 1; i < len(records); i++ {
			if records[i-1].CreatedAt < records[i].CreatedAt {
				t.Errorf("records not sorted newest first")
			}
		}
	})
}

func TestBudgetStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	family := seedFamily(t, store, "alice")

	budget := &models.Budget{
		FamilyID: family.ID,
		Category: "food",
		Month:    "2025-08",
		Limit:    decimal.RequireFromString("500.00"),
	}
	if err := store.UpsertBudget(ctx, budget); err != nil {
		t.Fatalf("UpsertBudget failed: %v", err)
	}

	retrieved, err := store.GetBudget(ctx, family.ID, "food", "2025-08")
	if err != nil {
		t.Fatalf("GetBudget failed: %v", err)
	}
	if !retrieved.Limit.Equal(budget.Limit) {
		t.Errorf("limit = %s, want %s", retrieved.Limit, budget.Limit)
	}

	// Upsert replaces the limit for the same family/category/month.
	budget.Limit = decimal.RequireFromString("750.50")
	if err := store.UpsertBudget(ctx, budget); err != nil {
		t.Fatalf("second UpsertBudget failed: %v", err)
	}
	retrieved, err = store.GetBudget(ctx, family.ID, "food", "2025-08")
	if err != nil {
		t.Fatalf("GetBudget failed: %v", err)
	}
	if !retrieved.Limit.Equal(decimal.RequireFromString("750.50")) {
		t.Errorf("limit = %s, want 750.50", retrieved.Limit)
	}

	if _, err := store.GetBudget(ctx, family.ID, "travel", "2025-08"); !errors.Is(err, faults.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
