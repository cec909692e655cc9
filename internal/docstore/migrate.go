package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// CurrentVersion is the schema version written by this build. Stores at
// an older version are brought forward by RunMigrations.
const CurrentVersion = "1.0.0"

// Migration is a versioned, total transform over the whole document.
// Apply must be safe to re-run on already-migrated data.
type Migration struct {
	Version     string
	Description string
	Apply       func(doc *Document) error
}

// migrations is the ordered list of known migrations. Order in this
// slice does not matter; pending migrations are sorted by version
// before they run.
var migrations = []Migration{
	{
		Version:     "1.0.0",
		Description: "normalize entity defaults",
		Apply:       migrateNormalizeDefaults,
	},
}

// MigrationResult reports the outcome of a migration run. Migration
// failures are reported in the result, never raised, since the caller
// is typically tooling that inspects a status field.
type MigrationResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
	Applied []string `json:"applied,omitempty"`
}

// RunMigrations brings the store schema up to CurrentVersion. Every
// migration with a version strictly greater than the stored one is
// applied in ascending order against an in-memory copy; the version is
// stamped after each step and the document is persisted once at the
// end. A failing step discards the copy and leaves the store untouched.
func (s *Store) RunMigrations(ctx context.Context) MigrationResult {
	return s.runMigrations(ctx, migrations, CurrentVersion)
}

func (s *Store) runMigrations(ctx context.Context, list []Migration, target string) MigrationResult {
	result := MigrationResult{To: target}
	err := s.update(ctx, func(doc *Document) (bool, error) {
		from := doc.Metadata.Version
		result.From = from
		if CompareVersions(from, target) == 0 {
			result.Success = true
			result.Message = "database is already at version " + target
			return false, nil
		}

		pending := make([]Migration, 0, len(list))
		for _, m := range list {
			if CompareVersions(m.Version, from) > 0 {
				pending = append(pending, m)
			}
		}
		sort.SliceStable(pending, func(i, j int) bool {
			return CompareVersions(pending[i].Version, pending[j].Version) < 0
		})
		if len(pending) == 0 {
			result.Success = true
			result.Message = "no migrations to apply"
			return false, nil
		}

		migrated := doc.Clone()
		for _, m := range pending {
			slog.InfoContext(ctx, "Applying migration", "version", m.Version, "description", m.Description)
			if err := m.Apply(migrated); err != nil {
				result.Message = fmt.Sprintf("migration to version %s failed: %v", m.Version, err)
				return false, nil
			}
			migrated.Metadata.Version = m.Version
			result.Applied = append(result.Applied, m.Version)
		}
		*doc = *migrated
		result.Success = true
		result.Message = fmt.Sprintf("migrated from %s to %s", from, doc.Metadata.Version)
		return true, nil
	})
	if err != nil {
		result.Success = false
		result.Message = err.Error()
	}
	return result
}

// migrateNormalizeDefaults is the baseline migration: every entity gets
// all required fields, with defaults filled in for missing ones. Total
// and idempotent.
func migrateNormalizeDefaults(doc *Document) error {
	if doc.Users == nil {
		doc.Users = []User{}
	}
	if doc.Items == nil {
		doc.Items = []Item{}
	}
	if doc.Sessions == nil {
		doc.Sessions = []Session{}
	}
	for i := range doc.Users {
		u := &doc.Users[i]
		u.Email = normalizeEmail(u.Email)
		if u.Role == "" {
			u.Role = DefaultUserRole
		}
		if u.UpdatedAt.IsZero() {
			u.UpdatedAt = u.CreatedAt
		}
	}
	for i := range doc.Items {
		it := &doc.Items[i]
		it.Price = roundPrice(it.Price)
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = it.CreatedAt
		}
	}
	return nil
}

// CompareVersions compares dotted-numeric versions: split on ".",
// compare each component as an integer, missing components are 0.
// Returns -1, 0, or 1.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(strings.TrimSpace(as[i]))
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(strings.TrimSpace(bs[i]))
		}
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}
