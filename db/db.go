package db

import (
	"database/sql"
	"fmt"
)

// DB wraps a SQLite connection for one bounded unit of work: open it, run a
// logical operation, close it. Migrations run on every Open so a fresh cache
// file gets its schema without a separate setup step.
type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	if err := Migrate(path); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	conn, err := connection(path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return &DB{db: conn}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// ReadFilter selects items by read state.
type ReadFilter int

const (
	ReadAny ReadFilter = iota
	ReadOnly
	UnreadOnly
)

// ItemFilter is a conjunction of optional predicates over stored items. The
// zero value matches everything.
type ItemFilter struct {
	// MaxAgeDays keeps only items dated within the last N days; 0 disables
	// the age cut. Items without a date never pass an age cut.
	MaxAgeDays int

	Read ReadFilter

	// RequireLink drops items without a link.
	RequireLink bool
}
