// Package store persists per-user module collections in SQLite.
package store

import (
	"context"

	"github.com/rcliao/agent-modules/internal/model"
)

// ListParams holds parameters for listing modules.
type ListParams struct {
	User string
	Type model.Type
	// Archived filters by archive state when set.
	Archived *bool
	Tags     []string
	// Limit defaults to 50 when zero. A negative limit lists everything.
	Limit int
}

// SearchParams holds parameters for searching modules.
type SearchParams struct {
	User  string
	Query string
	Type  model.Type
	Limit int
}

// Record is a stored module together with its owner and key.
type Record struct {
	User   string        `json:"user"`
	Key    string        `json:"key"`
	Module *model.Module `json:"module"`
}

// Store defines the module storage interface.
type Store interface {
	// Load returns the user's whole collection. An unknown user has an empty one.
	Load(ctx context.Context, user string) (model.Collection, error)

	// Save replaces the user's stored collection with c.
	Save(ctx context.Context, user string, c model.Collection) error

	// Get returns one module, or nil if the key is absent.
	Get(ctx context.Context, user, key string) (*model.Module, error)

	// List returns modules matching the filters, most recently updated first.
	List(ctx context.Context, p ListParams) ([]Record, error)

	// Remove deletes one module and reports whether it existed.
	Remove(ctx context.Context, user, key string) (bool, error)

	// Users lists every user with at least one stored module.
	Users(ctx context.Context) ([]string, error)

	// Close closes the store.
	Close() error
}
