package driven

import (
	"context"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

// RenderLogStore defines the driven port for render diagnostics persistence.
type RenderLogStore interface {
	// Record stores one render record.
	Record(ctx context.Context, rec model.RenderRecord) error

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.RenderRecord, error)

	// Prune deletes all but the newest keep records and returns how many were removed.
	Prune(ctx context.Context, keep int) (int64, error)
}
