// Package store defines the interface for database implementations persisting found records and scan runs.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tarancss/chainscan/lib/block/types"
)

// DB defines required methods for the scanner
type DB interface {
	// found records
	SaveFound(ctx context.Context, f types.Found) error
	GetFound(ctx context.Context, chains []string) ([]types.Found, error)
	// scan runs
	SaveRun(ctx context.Context, r Run) error
	GetRuns(ctx context.Context, limit int) ([]Run, error)
}

// Errors returned
var (
	ErrDataNotFound = errors.New("Data was not found in store")
	ErrUnknownDB    = errors.New("Unknown database type")
)
