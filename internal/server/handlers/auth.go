package handlers

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/flatdoc/flatdoc/internal/docstore"
	"github.com/flatdoc/flatdoc/internal/errors"
)

// AuthHandler handles login, logout, and identity requests. Credential
// verification lives outside the store, so login resolves an existing
// user by email and mints a session for it.
type AuthHandler struct {
	store      *docstore.Store
	jwtSecret  []byte
	sessionTTL time.Duration
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(store *docstore.Store, jwtSecret string, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
	}
}

// LoginRequest is a request to log in.
type LoginRequest struct {
	Email string `json:"email"`
}

// LoginResponse is a response from logging in.
type LoginResponse struct {
	Token   string         `json:"token"`
	Expires time.Time      `json:"expires"`
	User    *docstore.User `json:"user"`
}

// LogoutResponse acknowledges a logout.
type LogoutResponse struct {
	LoggedOut bool `json:"loggedOut"`
}

// Login resolves the user by email, creates a session, and returns a
// JWT carrying the session token.
func (h *AuthHandler) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Email == "" {
		return nil, errors.BadRequest("email is required")
	}

	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Unauthorized()
	}

	session, err := h.store.CreateSession(ctx, docstore.SessionInput{
		UserID:  user.ID,
		Expires: time.Now().UTC().Add(h.sessionTTL),
	})
	if err != nil {
		return nil, err
	}

	token, err := h.generateToken(user, session)
	if err != nil {
		return nil, errors.Internal("Failed to generate token").Wrap(err)
	}

	return &LoginResponse{
		Token:   token,
		Expires: session.Expires,
		User:    user,
	}, nil
}

// Logout deletes the session behind the presented token.
func (h *AuthHandler) Logout(ctx context.Context, _ struct{}) (*LogoutResponse, error) {
	token := SessionTokenFrom(ctx)
	if token == "" {
		return nil, errors.Unauthorized()
	}
	deleted, err := h.store.DeleteSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return &LogoutResponse{LoggedOut: deleted}, nil
}

// Me returns the authenticated user from the context.
func (h *AuthHandler) Me(ctx context.Context, _ struct{}) (*docstore.User, error) {
	user := UserFrom(ctx)
	if user == nil {
		return nil, errors.Unauthorized()
	}
	return user, nil
}

func (h *AuthHandler) generateToken(user *docstore.User, session *docstore.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID,
		"sid": session.SessionToken,
		"exp": session.Expires.Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}
