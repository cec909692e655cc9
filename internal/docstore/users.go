package docstore

import (
	"context"
	"strings"
)

// DefaultUserRole is assigned when no role is supplied at creation.
const DefaultUserRole = "user"

// UserInput carries the fields accepted when creating a user.
type UserInput struct {
	Email string
	Name  string
	Image string
	Role  string
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Email *string
	Name  *string
	Image *string
	Role  *string
}

// CreateUser sanitizes, validates, and appends a new user. Fails with a
// Duplicate error when the normalized email is already taken.
func (s *Store) CreateUser(ctx context.Context, in UserInput) (*User, error) {
	now := s.now()
	user := User{
		ID:        s.newID(now),
		Email:     normalizeEmail(in.Email),
		Name:      strings.TrimSpace(in.Name),
		Image:     strings.TrimSpace(in.Image),
		Role:      strings.TrimSpace(in.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if user.Role == "" {
		user.Role = DefaultUserRole
	}
	if res := ValidateUser(&user); !res.Valid {
		return nil, ValidationFailed(res.Errors)
	}
	err := s.update(ctx, func(doc *Document) (bool, error) {
		// Stored emails are normalized on write, but the file is
		// hand-editable, so normalize them again for comparison.
		for i := range doc.Users {
			if normalizeEmail(doc.Users[i].Email) == user.Email {
				return false, Duplicate("user with email " + user.Email + " already exists")
			}
		}
		doc.Users = append(doc.Users, user)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID returns the user, or nil when the id is absent.
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	var found *User
	err := s.view(ctx, func(doc *Document) error {
		for i := range doc.Users {
			if doc.Users[i].ID == id {
				u := doc.Users[i]
				found = &u
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// GetUserByEmail returns the user with the normalized email, or nil.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	email = normalizeEmail(email)
	var found *User
	err := s.view(ctx, func(doc *Document) error {
		for i := range doc.Users {
			if doc.Users[i].Email == email {
				u := doc.Users[i]
				found = &u
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// UpdateUser merges the patch over the stored user, revalidates the
// merged result in full, and persists it. ID and CreatedAt are
// preserved.
func (s *Store) UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error) {
	var updated *User
	err := s.update(ctx, func(doc *Document) (bool, error) {
		idx := -1
		for i := range doc.Users {
			if doc.Users[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false, NotFound("user", id)
		}
		merged := doc.Users[idx]
		if patch.Email != nil {
			merged.Email = normalizeEmail(*patch.Email)
			for i := range doc.Users {
				if i != idx && normalizeEmail(doc.Users[i].Email) == merged.Email {
					return false, Duplicate("user with email " + merged.Email + " already exists")
				}
			}
		}
		if patch.Name != nil {
			merged.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Image != nil {
			merged.Image = strings.TrimSpace(*patch.Image)
		}
		if patch.Role != nil {
			merged.Role = strings.TrimSpace(*patch.Role)
		}
		merged.UpdatedAt = s.now()
		if res := ValidateUser(&merged); !res.Valid {
			return false, ValidationFailed(res.Errors)
		}
		doc.Users[idx] = merged
		updated = &merged
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteUser removes the user permanently. Fails with NotFound when the
// id is absent.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.update(ctx, func(doc *Document) (bool, error) {
		for i := range doc.Users {
			if doc.Users[i].ID == id {
				doc.Users = append(doc.Users[:i], doc.Users[i+1:]...)
				return true, nil
			}
		}
		return false, NotFound("user", id)
	})
}

// normalizeEmail trims and lowercases an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
