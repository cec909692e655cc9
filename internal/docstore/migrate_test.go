package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.1.0", "1.0.9", 1},
		{"2.0.0", "1.9.9", 1},
		{"1.0", "1.0.0", 0},
		{"1", "1.0.1", -1},
		{"", "1.0.0", -1},
		{"0.9", "1", -1},
		{"10.0.0", "9.0.0", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b), "CompareVersions(%q, %q)", tt.a, tt.b)
	}
}

func TestRunMigrationsNoOpWhenCurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.view(ctx, func(*Document) error { return nil })) // force initialization

	res := s.RunMigrations(ctx)
	require.True(t, res.Success)
	assert.Empty(t, res.Applied)
	assert.Equal(t, CurrentVersion, res.From)
}

func TestRunMigrationsFromLegacyStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A hand-written legacy store: no version, missing defaults.
	legacy := []byte(`{
  "users": [{"id": "u1", "email": "Old@Example.com", "name": "Old"}],
  "items": [{"id": "i1", "name": "Pen", "description": "d", "price": 1.5}],
  "sessions": [],
  "metadata": {"version": "0.0.0"}
}`)
	require.NoError(t, os.WriteFile(s.Path(), legacy, 0o644))

	res := s.RunMigrations(ctx)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{"1.0.0"}, res.Applied)

	user, err := s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "old@example.com", user.Email)
	assert.Equal(t, DefaultUserRole, user.Role)
}

func TestRunMigrationsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateItem(ctx, ItemInput{Name: "Pen", Description: "d", Price: 1.99})
	require.NoError(t, err)

	first := s.RunMigrations(ctx)
	require.True(t, first.Success)
	after1, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	second := s.RunMigrations(ctx)
	require.True(t, second.Success)
	assert.Empty(t, second.Applied, "second run must be a no-op")
	after2, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, string(after1), string(after2), "second run changed the store")
}

func TestRunMigrationsChain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"users":[],"items":[],"sessions":[],"metadata":{"version":"1.0.0"}}`), 0o644))

	var order []string
	chain := []Migration{
		// Deliberately out of order in the slice.
		{Version: "1.2.0", Apply: func(d *Document) error { order = append(order, "1.2.0"); return nil }},
		{Version: "1.1.0", Apply: func(d *Document) error { order = append(order, "1.1.0"); return nil }},
		{Version: "1.0.0", Apply: func(d *Document) error { order = append(order, "1.0.0"); return nil }},
	}
	res := s.runMigrations(ctx, chain, "1.2.0")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{"1.1.0", "1.2.0"}, res.Applied, "only versions above the stored one, ascending")
	assert.Equal(t, []string{"1.1.0", "1.2.0"}, order)

	var doc Document
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "1.2.0", doc.Metadata.Version)
}

func TestRunMigrationsFailingStepLeavesStoreUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateItem(ctx, ItemInput{Name: "Pen", Description: "d", Price: 1})
	require.NoError(t, err)
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	chain := []Migration{
		{Version: "1.1.0", Apply: func(d *Document) error {
			d.Items = nil // would lose data if persisted
			return nil
		}},
		{Version: "1.2.0", Apply: func(d *Document) error {
			return errors.New("boom")
		}},
	}
	res := s.runMigrations(ctx, chain, "1.2.0")
	require.False(t, res.Success)
	assert.Contains(t, res.Message, "1.2.0", "failing version must be reported")

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "partial migration leaked to disk")
}
