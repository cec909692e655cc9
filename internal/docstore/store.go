package docstore

import (
	"context"
	"log/slog"
	"time"
)

// Default guard tuning. The poll interval mirrors the short fixed
// retry the lock protocol has always used; the timeout bounds the wait
// so contention fails fast instead of stalling forever.
const (
	DefaultLockTimeout = 10 * time.Second
	DefaultLockPoll    = 100 * time.Millisecond
)

// Options tunes a Store. The zero value selects defaults.
type Options struct {
	// LockTimeout bounds how long an operation waits for the store lock.
	LockTimeout time.Duration
	// LockPoll is the retry interval while waiting for the lock.
	LockPoll time.Duration
	// GitBackups commits every backup to a git repository in the store
	// directory, keeping a browsable history.
	GitBackups bool
}

// Store is the document store engine. All entity operations run a full
// read-modify-write cycle under the guard; the Document is only ever
// handled inside that critical section.
type Store struct {
	file    *fileStore
	guard   *guard
	backups *backupHistory // nil unless git backups are enabled

	// Overridable for tests.
	now   func() time.Time
	newID func(now time.Time) string
}

// Open creates a Store for the given file path, creating the containing
// directory if needed. The store file itself is created lazily on first
// read or write.
func Open(path string, opts *Options) (*Store, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = DefaultLockTimeout
	}
	if o.LockPoll <= 0 {
		o.LockPoll = DefaultLockPoll
	}

	s := &Store{
		// Millisecond precision in UTC so timestamps survive a JSON
		// round trip unchanged.
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID: newEntityID,
	}
	s.file = &fileStore{path: path, now: func() time.Time { return s.now() }}
	if err := s.file.ensureContainer(); err != nil {
		return nil, err
	}
	s.guard = newGuard(path+".lock", o.LockTimeout, o.LockPoll)
	if o.GitBackups {
		h, err := newBackupHistory(path)
		if err != nil {
			return nil, err
		}
		s.backups = h
	}
	return s, nil
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.file.path
}

// Initialize forces creation of the store file if it does not exist
// yet. Reads do this lazily; callers that need the file on disk up
// front (e.g. to watch it) call this once after Open.
func (s *Store) Initialize(ctx context.Context) error {
	return s.view(ctx, func(*Document) error { return nil })
}

// view runs fn against a freshly loaded document under the guard.
func (s *Store) view(ctx context.Context, fn func(doc *Document) error) error {
	release, err := s.guard.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	doc, err := s.file.read()
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs fn against a freshly loaded document under the guard and
// persists the full document when fn reports a mutation. The document
// is never persisted when fn returns an error.
func (s *Store) update(ctx context.Context, fn func(doc *Document) (changed bool, err error)) error {
	release, err := s.guard.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	doc, err := s.file.read()
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.file.write(doc); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Store updated",
		"users", len(doc.Users), "items", len(doc.Items), "sessions", len(doc.Sessions))
	return nil
}
