// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/Pujan77/expense-tracker-backend/internal/models"
)

// Store defines the interface for tracker storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateSettlementRecord persists a new settlement record.
	// The ID, Version, CreatedAt and UpdatedAt fields are populated by the store.
	CreateSettlementRecord(ctx context.Context, record *models.SettlementRecord) error

	// GetSettlementRecord retrieves a settlement record with its transactions.
	GetSettlementRecord(ctx context.Context, recordID string) (*models.SettlementRecord, error)

	// ListSettlementRecordsByFamily returns a family's records, newest first.
	ListSettlementRecordsByFamily(ctx context.Context, familyID string) ([]*models.SettlementRecord, error)

	// FindFinalizedOverlapping returns a finalized record of the family
	// whose period overlaps the given one, or nil if none exists.
	FindFinalizedOverlapping(ctx context.Context, familyID string, period models.Period) (*models.SettlementRecord, error)

	// SaveSettlementRecord updates a record's finalization state and its
	// transactions' settled flags. The save is version-checked: it fails
	// with a conflict if the record changed since it was loaded, and
	// increments record.Version on success.
	SaveSettlementRecord(ctx context.Context, record *models.SettlementRecord) error

	// CreateExpense persists a new expense with its shares.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// UpdateExpense replaces an existing expense and its shares.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID, including its shares.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByPeriod returns a family's expenses whose SpentAt falls
	// inside the period, bounds inclusive.
	ListExpensesByPeriod(ctx context.Context, familyID string, period models.Period) ([]*models.Expense, error)

	// SumExpensesByCategory totals a family's expense amounts for a
	// category within the period. An empty category matches all expenses.
	SumExpensesByCategory(ctx context.Context, familyID, category string, period models.Period) (float64, error)

	// CreateFamily persists a new family with its members.
	CreateFamily(ctx context.Context, family *models.Family) error

	// GetFamily retrieves a family by ID, including its members.
	GetFamily(ctx context.Context, familyID string) (*models.Family, error)

	// AddFamilyMembers adds the given user IDs to a family, skipping
	// users that are already members.
	AddFamilyMembers(ctx context.Context, familyID string, userIDs []string) error

	// UpsertBudget creates or replaces the budget for a family, category
	// and month.
	UpsertBudget(ctx context.Context, budget *models.Budget) error

	// GetBudget retrieves the budget for a family, category and month.
	GetBudget(ctx context.Context, familyID, category, month string) (*models.Budget, error)

	// Close releases any resources held by the store.
	Close() error
}
