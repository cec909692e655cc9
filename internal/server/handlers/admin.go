package handlers

import (
	"context"

	"github.com/flatdoc/flatdoc/internal/docstore"
)

// AdminHandler exposes the maintenance operations of the store.
type AdminHandler struct {
	store *docstore.Store
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(store *docstore.Store) *AdminHandler {
	return &AdminHandler{store: store}
}

// RestoreRequest names the backup file to restore from.
type RestoreRequest struct {
	Path string `json:"path"`
}

// CleanupSessionsResponse reports how many expired sessions were removed.
type CleanupSessionsResponse struct {
	Removed int `json:"removed"`
}

// Migrate brings the store file up to the current schema version.
func (h *AdminHandler) Migrate(ctx context.Context, _ struct{}) (*docstore.MigrationResult, error) {
	result := h.store.RunMigrations(ctx)
	return &result, nil
}

// Backup writes a timestamped copy of the store file.
func (h *AdminHandler) Backup(ctx context.Context, _ struct{}) (*docstore.AdminResult, error) {
	result := h.store.CreateBackup(ctx)
	return &result, nil
}

// Restore replaces the store content with a previously taken backup.
func (h *AdminHandler) Restore(ctx context.Context, req RestoreRequest) (*docstore.AdminResult, error) {
	result := h.store.RestoreFromBackup(ctx, req.Path)
	return &result, nil
}

// Reset replaces the store content with an empty document.
func (h *AdminHandler) Reset(ctx context.Context, _ struct{}) (*docstore.AdminResult, error) {
	result := h.store.ResetDatabase(ctx)
	return &result, nil
}

// CleanupSessions removes sessions that expired before now.
func (h *AdminHandler) CleanupSessions(ctx context.Context, _ struct{}) (*CleanupSessionsResponse, error) {
	removed, err := h.store.CleanupExpiredSessions(ctx)
	if err != nil {
		return nil, err
	}
	return &CleanupSessionsResponse{Removed: removed}, nil
}
