package claims

import "context"

// Repository loads the five source tables from a backing store.
// Implementations exist for PostgreSQL (stg schema) and CSV directories.
type Repository interface {
	// LoadTables reads all five tables. An unreachable source returns an
	// error matching pkg/errors.ErrConnection; empty dimension tables are
	// legal and simply join to null columns downstream.
	LoadTables(ctx context.Context) (*Tables, error)
}
