package handlers

import (
	"context"

	"github.com/flatdoc/flatdoc/internal/docstore"
	"github.com/flatdoc/flatdoc/internal/errors"
)

// UserHandler handles user management requests.
type UserHandler struct {
	store *docstore.Store
}

// NewUserHandler creates a new user handler.
func NewUserHandler(store *docstore.Store) *UserHandler {
	return &UserHandler{store: store}
}

// CreateUserRequest is a request to create a user.
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Role  string `json:"role"`
}

// UpdateUserRequest is a partial user update. Absent fields are left
// untouched.
type UpdateUserRequest struct {
	ID    string  `json:"-" path:"id"`
	Email *string `json:"email"`
	Name  *string `json:"name"`
	Image *string `json:"image"`
	Role  *string `json:"role"`
}

// GetUserRequest identifies a user by id.
type GetUserRequest struct {
	ID string `path:"id"`
}

// FindUserRequest identifies a user by email.
type FindUserRequest struct {
	Email string `query:"email"`
}

// DeleteUserResponse acknowledges a deletion.
type DeleteUserResponse struct {
	Deleted bool `json:"deleted"`
}

// CreateUser creates a new user.
func (h *UserHandler) CreateUser(ctx context.Context, req CreateUserRequest) (*docstore.User, error) {
	return h.store.CreateUser(ctx, docstore.UserInput{
		Email: req.Email,
		Name:  req.Name,
		Image: req.Image,
		Role:  req.Role,
	})
}

// GetUser returns a single user by id.
func (h *UserHandler) GetUser(ctx context.Context, req GetUserRequest) (*docstore.User, error) {
	user, err := h.store.GetUserByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NotFound("user")
	}
	return user, nil
}

// FindUser returns a single user by email.
func (h *UserHandler) FindUser(ctx context.Context, req FindUserRequest) (*docstore.User, error) {
	if req.Email == "" {
		return nil, errors.BadRequest("email is required")
	}
	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NotFound("user")
	}
	return user, nil
}

// UpdateUser applies a partial update to a user.
func (h *UserHandler) UpdateUser(ctx context.Context, req UpdateUserRequest) (*docstore.User, error) {
	return h.store.UpdateUser(ctx, req.ID, docstore.UserPatch{
		Email: req.Email,
		Name:  req.Name,
		Image: req.Image,
		Role:  req.Role,
	})
}

// DeleteUser removes a user by id.
func (h *UserHandler) DeleteUser(ctx context.Context, req GetUserRequest) (*DeleteUserResponse, error) {
	if err := h.store.DeleteUser(ctx, req.ID); err != nil {
		return nil, err
	}
	return &DeleteUserResponse{Deleted: true}, nil
}
