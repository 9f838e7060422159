package store

import (
	"context"
	"errors"

	"github.com/nhle/branch-tracker/internal/model"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// Store defines the persistence interface for report run history.
type Store interface {
	// SaveRun stores a run and its rows, assigning an ID when empty.
	SaveRun(ctx context.Context, run model.Run) (string, error)

	// ListRuns returns runs newest first, without rows.
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// GetRun returns a run and its rows. id may be a unique prefix.
	GetRun(ctx context.Context, id string) (*model.Run, error)

	// LatestRun returns the most recent run with its rows.
	LatestRun(ctx context.Context) (*model.Run, error)

	// LatestStatus returns the status of branchID in the most recent
	// run that reported it.
	LatestStatus(ctx context.Context, branchID string) (model.Status, error)

	Close() error
}
