package models

// Family represents a group of users who share expenses.
type Family struct {
	// ID is the unique identifier for the family (UUID format).
	ID string

	// Name is the display name of the family.
	Name string

	// HeadID is the member with administrative rights (creating
	// settlements, finalizing them, managing budgets).
	HeadID string

	// Members is the list of user IDs in this family. Always includes
	// the head.
	Members []string

	// CreatedAt is the Unix timestamp when the family was created.
	CreatedAt int64
}

// HasMember reports whether the user belongs to the family.
func (f *Family) HasMember(userID string) bool {
	for _, m := range f.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// IsHead reports whether the user is the family head.
func (f *Family) IsHead(userID string) bool {
	return userID != "" && userID == f.HeadID
}
