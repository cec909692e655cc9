package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatdoc/flatdoc/internal/docstore"
)

func runCommand(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestMigrateCommandCreatesStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, runCommand(t, "migrate", "--store", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "users")
	assert.Contains(t, doc, "metadata")
}

func TestResetCommandRequiresForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	err := runCommand(t, "reset", "--store", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, runCommand(t, "reset", "--store", path, "--force"))
}

func TestRestoreCommandFailsOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	err := runCommand(t, "restore", filepath.Join(t.TempDir(), "absent.json"), "--store", path)
	assert.Error(t, err)
}

func TestBackupCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	require.NoError(t, runCommand(t, "backup", "--store", path))

	// The directory also holds the persistent .lock sibling, so check
	// for the store and backup files by name rather than counting.
	_, err := os.Stat(path)
	require.NoError(t, err, "store file missing after backup")
	backups, err := filepath.Glob(filepath.Join(dir, "store.backup-*.json"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

// The serve startup path watches the store file, which does not exist
// yet on a first run against a fresh path.
func TestWatchStoreFileOnFreshStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "store.json")
	store, err := docstore.Open(path, nil)
	require.NoError(t, err)

	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, watchStoreFile(ctx, store.Path()))
}

func TestSchemaCommand(t *testing.T) {
	require.NoError(t, runCommand(t, "schema"))
}
