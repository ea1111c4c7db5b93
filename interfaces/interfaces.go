// Package interfaces defines the contracts between the data pipeline,
// the load orchestrator and the HTTP surface. Components depend on these
// interfaces instead of concrete types so tests can substitute fakes.
package interfaces

import (
	"context"
	"time"

	"github.com/oroya/vademecum-api/snapshot"
)

// IndexSource builds the lightweight catalog tier from the
// authoritative source.
type IndexSource interface {
	BuildIndex(ctx context.Context) (*snapshot.IndexPayload, error)
}

// FullSource builds the complete dataset, merged with the bundled
// fallback and enriched.
type FullSource interface {
	BuildFull(ctx context.Context) (*snapshot.FullPayload, error)
}

// DatasetSource combines both build tiers.
type DatasetSource interface {
	IndexSource
	FullSource
}

// SnapshotCache reads and writes cached dataset snapshots. Writes are
// best effort; reads return nil on miss, corruption or expiry.
type SnapshotCache interface {
	ReadIndex(ctx context.Context, indexTTL, fullTTL time.Duration) *snapshot.IndexPayload
	ReadFull(ctx context.Context, ttl time.Duration) *snapshot.FullPayload
	WriteIndex(ctx context.Context, p *snapshot.IndexPayload)
	WriteFull(ctx context.Context, p *snapshot.FullPayload)
}

// IdleScheduler defers low-priority work until the process is idle.
// The returned cancel func stops the task and reports whether it
// prevented the task from running at all.
type IdleScheduler interface {
	Schedule(task func(), timeout time.Duration) (cancel func() bool)
}

// Scheduler manages periodic background refreshes.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports service health for the /health endpoint.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}
