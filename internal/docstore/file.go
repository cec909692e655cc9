package docstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// fileStore performs the raw reads and writes of the store file. Every
// write replaces the entire file; there is no append log. Callers must
// hold the guard while using it.
type fileStore struct {
	path string
	now  func() time.Time
}

// ensureContainer creates the parent directory of the store file if it
// does not exist yet.
func (f *fileStore) ensureContainer() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return IOError("failed to create store directory "+dir, err)
	}
	return nil
}

// initialize writes an empty document if the store file does not exist.
// A no-op otherwise. Called implicitly before every read.
func (f *fileStore) initialize() error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return IOError("failed to stat store file "+f.path, err)
	}
	if err := f.ensureContainer(); err != nil {
		return err
	}
	return f.write(emptyDocument())
}

// read loads and parses the full document. Unparseable content is
// reported as corruption, distinct from I/O failure, so callers know a
// retry cannot help.
func (f *fileStore) read() (*Document, error) {
	if err := f.initialize(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, IOError("failed to read store file "+f.path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, CorruptionError(f.path, err)
	}
	return &doc, nil
}

// write stamps metadata.lastUpdated and overwrites the store file with
// the full serialized document. This is the sole mutation point.
func (f *fileStore) write(doc *Document) error {
	doc.Metadata.LastUpdated = f.now()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return IOError("failed to serialize document", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return IOError("failed to write store file "+f.path, err)
	}
	return nil
}
