// Handles authentication sessions and their garbage collection.

package docstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionInput carries the fields accepted when creating a session. An
// empty SessionToken gets a generated one.
type SessionInput struct {
	UserID       string
	SessionToken string
	Expires      time.Time
}

// CreateSession appends a new session. The token is generated when the
// caller supplies none.
func (s *Store) CreateSession(ctx context.Context, in SessionInput) (*Session, error) {
	var errs []string
	if strings.TrimSpace(in.UserID) == "" {
		errs = append(errs, "userId is required")
	}
	if in.Expires.IsZero() {
		errs = append(errs, "expires is required")
	}
	if len(errs) > 0 {
		return nil, ValidationFailed(errs)
	}
	now := s.now()
	session := Session{
		ID:           s.newID(now),
		UserID:       strings.TrimSpace(in.UserID),
		SessionToken: strings.TrimSpace(in.SessionToken),
		Expires:      in.Expires,
		CreatedAt:    now,
	}
	if session.SessionToken == "" {
		session.SessionToken = uuid.NewString()
	}
	err := s.update(ctx, func(doc *Document) (bool, error) {
		doc.Sessions = append(doc.Sessions, session)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSessionByToken returns the session with the token, or nil.
func (s *Store) GetSessionByToken(ctx context.Context, token string) (*Session, error) {
	var found *Session
	err := s.view(ctx, func(doc *Document) error {
		for i := range doc.Sessions {
			if doc.Sessions[i].SessionToken == token {
				sess := doc.Sessions[i]
				found = &sess
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

// DeleteSession removes the session with the token. It reports whether
// a session was removed; a missing token is not an error.
func (s *Store) DeleteSession(ctx context.Context, token string) (bool, error) {
	deleted := false
	err := s.update(ctx, func(doc *Document) (bool, error) {
		for i := range doc.Sessions {
			if doc.Sessions[i].SessionToken == token {
				doc.Sessions = append(doc.Sessions[:i], doc.Sessions[i+1:]...)
				deleted = true
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// CleanupExpiredSessions removes every session whose expiry is strictly
// before now, in one pass, and returns the count removed.
func (s *Store) CleanupExpiredSessions(ctx context.Context) (int, error) {
	removed := 0
	err := s.update(ctx, func(doc *Document) (bool, error) {
		now := s.now()
		kept := doc.Sessions[:0]
		for _, sess := range doc.Sessions {
			if sess.Expires.Before(now) {
				removed++
				continue
			}
			kept = append(kept, sess)
		}
		doc.Sessions = kept
		return removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
