// Package models defines the core domain models for the family expense tracker.
//
// # Models
//
//   - Family: a group of users who share expenses, with a designated head
//   - Expense: one paid expense, split among family members via Shares
//   - Share: one member's declared portion of an expense (equal/percentage/fixed)
//   - SettlementRecord: a computed settlement for a family and period
//   - SettlementTransaction: one "X pays Y amount A" instruction on a record
//   - Budget: a monthly spending limit for a family category
//
// # Design Principles
//
//  1. **IDs are strings**: UUIDs assigned by the storage layer on create.
//  2. **Timestamps are Unix seconds**: int64 everywhere, zero means unset.
//  3. **Avoid circular references**: models reference each other by ID.
//  4. **State is derived where possible**: a settlement record's status is
//     computed from its transactions and finalized flag, never stored.
package models
