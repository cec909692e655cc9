package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/flatdoc/flatdoc/internal/docstore"
	apierrors "github.com/flatdoc/flatdoc/internal/errors"
	"github.com/flatdoc/flatdoc/internal/server/handlers"
)

// Logging logs every request with method, path, status, and duration.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.InfoContext(r.Context(), "http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"dur", time.Since(start).Round(time.Microsecond),
			"ip", clientIP(r))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// RateLimiter enforces a per-client token bucket over all API routes.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*clientBucket
	rate    rate.Limit
	burst   int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requestsPerMinute sustained requests per client
// with the given burst capacity.
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*clientBucket),
		rate:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
	}
}

// Middleware rejects requests above the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, apierrors.ErrUnavailable, "Rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
		// Drop buckets idle for 10 minutes to bound memory.
		if len(l.buckets) > 1024 {
			stale := time.Now().Add(-10 * time.Minute)
			for k, v := range l.buckets {
				if v.lastSeen.Before(stale) {
					delete(l.buckets, k)
				}
			}
		}
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()
	return b.limiter.Allow()
}

// clientIP extracts the client IP, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if strings.HasPrefix(addr, "[") {
		if host, _, found := strings.Cut(addr, "]:"); found {
			return host[1:]
		}
		return strings.Trim(addr, "[]")
	}
	if host, _, found := strings.Cut(addr, ":"); found {
		return host
	}
	return addr
}

// AuthMiddleware validates the bearer JWT, resolves its session in the
// store, and adds the session's user to the request context.
func AuthMiddleware(store *docstore.Store, jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, apierrors.ErrUnauthorized, "Unauthorized", nil)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, apierrors.ErrUnauthorized, "Invalid authorization header", nil)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return jwtSecret, nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, apierrors.ErrUnauthorized, "Invalid token", nil)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, apierrors.ErrUnauthorized, "Invalid claims", nil)
				return
			}
			sid, ok := claims["sid"].(string)
			if !ok || sid == "" {
				writeError(w, http.StatusUnauthorized, apierrors.ErrUnauthorized, "Invalid session in token", nil)
				return
			}

			ctx := r.Context()
			session, err := store.GetSessionByToken(ctx, sid)
			if err != nil {
				writeError(w, http.StatusInternalServerError, apierrors.ErrStorageError, "Failed to load session", nil)
				return
			}
			if session == nil || session.Expires.Before(time.Now()) {
				writeError(w, http.StatusUnauthorized, apierrors.ErrUnauthorized, "Session expired", nil)
				return
			}

			user, err := store.GetUserByID(ctx, session.UserID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, apierrors.ErrStorageError, "Failed to load user", nil)
				return
			}
			if user == nil {
				writeError(w, http.StatusUnauthorized, apierrors.ErrUnauthorized, "Unknown user", nil)
				return
			}

			ctx = handlers.WithUser(ctx, user)
			ctx = handlers.WithSessionToken(ctx, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin ensures the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := handlers.UserFrom(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, apierrors.ErrUnauthorized, "Unauthorized", nil)
			return
		}
		if user.Role != "admin" {
			writeError(w, http.StatusForbidden, apierrors.ErrForbidden, "Admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
