package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Pujan77/expense-tracker-backend/internal/faults"
	"github.com/Pujan77/expense-tracker-backend/internal/models"
	"github.com/Pujan77/expense-tracker-backend/internal/storage"
)

// FamilyService provides the membership surface the settlement operations
// are gated on: IsMember for settling, IsHead for computing and finalizing.
type FamilyService struct {
	store storage.Store
}

// NewFamilyService creates a new FamilyService with the given storage backend.
func NewFamilyService(store storage.Store) *FamilyService {
	return &FamilyService{store: store}
}

// Create persists a new family. The head is always a member.
func (s *FamilyService) Create(ctx context.Context, family *models.Family) error {
	if family.Name == "" {
		return fmt.Errorf("%w: family name required", faults.ErrValidation)
	}
	if family.HeadID == "" {
		return fmt.Errorf("%w: head_id required", faults.ErrValidation)
	}
	if !contains(family.Members, family.HeadID) {
		family.Members = append(family.Members, family.HeadID)
	}

	if err := s.store.CreateFamily(ctx, family); err != nil {
		slog.Error("Create family failed", "error", err)
		return err
	}

	slog.Info("Family created", "family_id", family.ID, "members", len(family.Members))
	return nil
}

// Get retrieves a family by ID.
func (s *FamilyService) Get(ctx context.Context, familyID string) (*models.Family, error) {
	return s.store.GetFamily(ctx, familyID)
}

// AddMembers adds users to a family. Only the family head may do this.
func (s *FamilyService) AddMembers(ctx context.Context, actorID, familyID string, userIDs []string) error {
	family, err := s.store.GetFamily(ctx, familyID)
	if err != nil {
		return err
	}
	if !family.IsHead(actorID) {
		return fmt.Errorf("%w: only the family head may add members", faults.ErrForbidden)
	}
	if len(userIDs) == 0 {
		return fmt.Errorf("%w: no members to add", faults.ErrValidation)
	}

	if err := s.store.AddFamilyMembers(ctx, familyID, userIDs); err != nil {
		slog.Error("AddMembers failed", "family_id", familyID, "error", err)
		return err
	}

	slog.Info("Members added", "family_id", familyID, "count", len(userIDs))
	return nil
}

// IsMember reports whether the user belongs to the family.
func (s *FamilyService) IsMember(ctx context.Context, userID, familyID string) (bool, error) {
	family, err := s.store.GetFamily(ctx, familyID)
	if err != nil {
		return false, err
	}
	return family.HasMember(userID), nil
}

// IsHead reports whether the user is the family head.
func (s *FamilyService) IsHead(ctx context.Context, userID, familyID string) (bool, error) {
	family, err := s.store.GetFamily(ctx, familyID)
	if err != nil {
		return false, err
	}
	return family.IsHead(userID), nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
