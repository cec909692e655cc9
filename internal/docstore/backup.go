package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// AdminResult is the outcome of an administrative operation. Errors are
// folded into the result rather than raised, so tooling can inspect a
// status field instead of a call stack.
type AdminResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// CreateBackup snapshots the current document to a timestamped sibling
// file. When git backups are enabled the snapshot is also committed.
func (s *Store) CreateBackup(ctx context.Context) AdminResult {
	var snapshot *Document
	err := s.view(ctx, func(doc *Document) error {
		snapshot = doc.Clone()
		return nil
	})
	if err != nil {
		return AdminResult{Message: "backup failed: " + err.Error()}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return AdminResult{Message: "backup failed: " + err.Error()}
	}
	path := s.backupPath(s.now())
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return AdminResult{Message: "backup failed: " + err.Error()}
	}

	if s.backups != nil {
		if err := s.backups.commit(path, s.now()); err != nil {
			// The snapshot file exists; only the history entry is missing.
			slog.WarnContext(ctx, "Failed to commit backup to git", "path", path, "err", err)
		}
	}
	return AdminResult{Success: true, Message: "backup created", Path: path}
}

// RestoreFromBackup overwrites the live document with the backup at
// path. The backup must carry the three collections; anything else is
// rejected before the live document is touched.
func (s *Store) RestoreFromBackup(ctx context.Context, path string) AdminResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return AdminResult{Message: "restore failed: " + err.Error()}
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return AdminResult{Message: "restore failed: backup is not valid JSON: " + err.Error()}
	}
	for _, key := range []string{"users", "items", "sessions"} {
		if _, ok := raw[key]; !ok {
			return AdminResult{Message: "restore failed: backup is missing the " + key + " collection"}
		}
	}
	var restored Document
	if err := json.Unmarshal(data, &restored); err != nil {
		return AdminResult{Message: "restore failed: " + err.Error()}
	}

	err = s.update(ctx, func(doc *Document) (bool, error) {
		*doc = restored
		return true, nil
	})
	if err != nil {
		return AdminResult{Message: "restore failed: " + err.Error()}
	}
	return AdminResult{Success: true, Message: "database restored from " + path, Path: path}
}

// ResetDatabase overwrites the live document with the empty default
// structure.
func (s *Store) ResetDatabase(ctx context.Context) AdminResult {
	err := s.update(ctx, func(doc *Document) (bool, error) {
		*doc = *emptyDocument()
		return true, nil
	})
	if err != nil {
		return AdminResult{Message: "reset failed: " + err.Error()}
	}
	return AdminResult{Success: true, Message: "database reset to empty state"}
}

// backupPath builds a timestamped sibling path for the store file, e.g.
// app.json becomes app.backup-20060102-150405.json.
func (s *Store) backupPath(now time.Time) string {
	base := filepath.Base(s.file.path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := stem + ".backup-" + now.Format("20060102-150405") + ext
	return filepath.Join(filepath.Dir(s.file.path), name)
}

// backupHistory commits backup snapshots to a git repository in the
// store directory.
type backupHistory struct {
	dir string
}

func newBackupHistory(storePath string) (*backupHistory, error) {
	dir := filepath.Dir(storePath)
	_, err := gogit.PlainOpen(dir)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		_, err = gogit.PlainInit(dir, false)
	}
	if err != nil {
		return nil, IOError("failed to open backup history repository in "+dir, err)
	}
	return &backupHistory{dir: dir}, nil
}

// commit stages the snapshot file and records a commit for it.
func (h *backupHistory) commit(path string, now time.Time) error {
	repo, err := gogit.PlainOpen(h.dir)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(h.dir, path)
	if err != nil {
		return err
	}
	if _, err := wt.Add(rel); err != nil {
		return err
	}
	_, err = wt.Commit("backup: "+rel, &gogit.CommitOptions{
		Author: &object.Signature{Name: "flatdoc", Email: "flatdoc@localhost", When: now},
	})
	return err
}
