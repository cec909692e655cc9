// Package handlers implements the HTTP request handlers.
package handlers

import (
	"context"

	"github.com/flatdoc/flatdoc/internal/docstore"
)

type contextKey string

const (
	keyUser         contextKey = "user"
	keySessionToken contextKey = "sessionToken"
)

// WithUser adds the authenticated user to the context.
func WithUser(ctx context.Context, user *docstore.User) context.Context {
	return context.WithValue(ctx, keyUser, user)
}

// UserFrom extracts the authenticated user from the context, or nil.
func UserFrom(ctx context.Context) *docstore.User {
	if v, ok := ctx.Value(keyUser).(*docstore.User); ok {
		return v
	}
	return nil
}

// WithSessionToken adds the session token to the context.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keySessionToken, token)
}

// SessionTokenFrom extracts the session token from the context, or "".
func SessionTokenFrom(ctx context.Context) string {
	if v, ok := ctx.Value(keySessionToken).(string); ok {
		return v
	}
	return ""
}
