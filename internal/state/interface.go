package state

import (
	"io"
	"time"
)

// HistoryStore handles compilation history persistence.
type HistoryStore interface {
	RecordCompilation(r *Record) error
	GetCompilation(id string) (*Record, error)
	ListCompilations(limit int) ([]Record, error)
	PurgeOlderThan(olderThan time.Duration) (int64, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store is the full history backend used by the CLI.
type Store interface {
	io.Closer
	Migrator
	HistoryStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store        = (*DB)(nil)
	_ Migrator     = (*DB)(nil)
	_ HistoryStore = (*DB)(nil)
)
