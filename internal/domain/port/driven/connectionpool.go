package driven

import (
	"context"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
)

// ConnectionPool exposes liveness and occupancy of the warehouse pool.
type ConnectionPool interface {
	// Ping leases a connection and round-trips to the server, building the
	// pool first if needed.
	Ping(ctx context.Context) error
	Status() model.PoolStatus
}
