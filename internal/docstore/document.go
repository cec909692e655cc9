// Package docstore implements a single-file JSON document store with
// advisory locking, entity validation, and versioned schema migrations.
//
// The whole dataset lives in one aggregate Document that is read and
// rewritten in full on every mutation. Atomicity is at the document
// granularity: there is no partial-field update at the storage layer.
// The file on disk is pretty-printed JSON and safe to hand-edit while
// the process is stopped.
package docstore

import "time"

// Document is the single aggregate persisted to the store file.
type Document struct {
	Users    []User    `json:"users" jsonschema:"description=All user accounts"`
	Items    []Item    `json:"items" jsonschema:"description=All catalog items"`
	Sessions []Session `json:"sessions" jsonschema:"description=Active authentication sessions"`
	Metadata Metadata  `json:"metadata" jsonschema:"description=Store metadata"`
}

// Metadata tracks the schema version and last write time of the store.
type Metadata struct {
	Version     string    `json:"version" jsonschema:"description=Schema version (dotted numeric)"`
	LastUpdated time.Time `json:"lastUpdated" jsonschema:"description=Timestamp of the last write"`
}

// User is a registered account. Email is unique after lowercase
// normalization.
type User struct {
	ID        string    `json:"id" jsonschema:"description=Unique user identifier"`
	Email     string    `json:"email" jsonschema:"description=Lowercase-normalized unique email address"`
	Name      string    `json:"name" jsonschema:"description=Display name"`
	Image     string    `json:"image,omitempty" jsonschema:"description=Avatar URL"`
	Role      string    `json:"role" jsonschema:"description=Access role (user/admin)"`
	CreatedAt time.Time `json:"createdAt" jsonschema:"description=Creation timestamp"`
	UpdatedAt time.Time `json:"updatedAt" jsonschema:"description=Last modification timestamp"`
}

// Item is a catalog entry.
type Item struct {
	ID          string    `json:"id" jsonschema:"description=Unique item identifier"`
	Name        string    `json:"name" jsonschema:"description=Item name"`
	Description string    `json:"description" jsonschema:"description=Item description"`
	Price       float64   `json:"price" jsonschema:"description=Non-negative price with at most 2 decimal places"`
	Image       string    `json:"image,omitempty" jsonschema:"description=Image URL"`
	Category    string    `json:"category,omitempty" jsonschema:"description=Category name"`
	InStock     bool      `json:"inStock" jsonschema:"description=Availability flag"`
	CreatedAt   time.Time `json:"createdAt" jsonschema:"description=Creation timestamp"`
	UpdatedAt   time.Time `json:"updatedAt" jsonschema:"description=Last modification timestamp"`
	CreatedBy   string    `json:"createdBy,omitempty" jsonschema:"description=ID of the creating user"`
}

// Session is an authentication session looked up by token.
type Session struct {
	ID           string    `json:"id" jsonschema:"description=Unique session identifier"`
	UserID       string    `json:"userId" jsonschema:"description=User who owns this session"`
	SessionToken string    `json:"sessionToken" jsonschema:"description=Opaque session token"`
	Expires      time.Time `json:"expires" jsonschema:"description=Expiration timestamp"`
	CreatedAt    time.Time `json:"createdAt" jsonschema:"description=Creation timestamp"`
}

// emptyDocument returns a fresh Document with empty collections and
// current version metadata. Slices are non-nil so the file renders
// empty arrays rather than null.
func emptyDocument() *Document {
	return &Document{
		Users:    []User{},
		Items:    []Item{},
		Sessions: []Session{},
		Metadata: Metadata{Version: CurrentVersion},
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	c.Users = make([]User, len(d.Users))
	copy(c.Users, d.Users)
	c.Items = make([]Item, len(d.Items))
	copy(c.Items, d.Items)
	c.Sessions = make([]Session, len(d.Sessions))
	copy(c.Sessions, d.Sessions)
	return &c
}
