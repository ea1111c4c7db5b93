// Package orchestrator drives the two-branch dataset load: a fast index
// branch for first paint and a deferred full branch that supersedes it.
// Both branches seed from the snapshot cache when warm and are cancellable
// through the context passed to Start.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oroya/vademecum-api/compendium"
	"github.com/oroya/vademecum-api/data"
	"github.com/oroya/vademecum-api/interfaces"
	"github.com/oroya/vademecum-api/logging"
	"github.com/oroya/vademecum-api/metrics"
)

// Orchestrator coordinates the index and full load branches against the
// shared data container.
type Orchestrator struct {
	container   *data.Container
	source      interfaces.DatasetSource
	cache       interfaces.SnapshotCache
	idle        interfaces.IdleScheduler
	indexTTL    time.Duration
	fullTTL     time.Duration
	idleTimeout time.Duration

	mu         sync.Mutex
	cancel     context.CancelFunc
	cancelIdle func() bool
	closeFull  func()
	indexDone  chan struct{}
	fullDone   chan struct{}
}

// New creates an orchestrator. A nil idle scheduler falls back to a short
// timer so the full branch never blocks startup.
func New(container *data.Container, source interfaces.DatasetSource, cache interfaces.SnapshotCache, idle interfaces.IdleScheduler, indexTTL, fullTTL time.Duration) *Orchestrator {
	if idle == nil {
		idle = TimerIdleScheduler{Delay: 200 * time.Millisecond}
	}
	return &Orchestrator{
		container:   container,
		source:      source,
		cache:       cache,
		idle:        idle,
		indexTTL:    indexTTL,
		fullTTL:     fullTTL,
		idleTimeout: 2 * time.Second,
	}
}

var stateRank = map[data.State]int{
	data.StateCold:         0,
	data.StateIndexLoading: 1,
	data.StateIndexReady:   2,
	data.StateFullLoading:  3,
	data.StateFullReady:    4,
}

// advanceState moves the container state forward, never backward. A later
// index-branch completion must not demote a full-ready container.
func (o *Orchestrator) advanceState(s data.State) {
	cur := o.container.GetState()
	if cur == data.StateError {
		return
	}
	if stateRank[s] > stateRank[cur] {
		o.container.SetState(s)
	}
}

// Start seeds the container from the snapshot cache, then launches the
// index branch immediately and the full branch once the process is idle.
// It returns without waiting for either branch; cancel the context or
// call Stop to abort in-flight work.
func (o *Orchestrator) Start(ctx context.Context) {
	o.seedFromCache(ctx)

	ctx, cancel := context.WithCancel(ctx)
	indexDone := make(chan struct{})
	fullDone := make(chan struct{})

	o.mu.Lock()
	o.cancel = cancel
	o.indexDone = indexDone
	o.fullDone = fullDone
	o.mu.Unlock()

	o.container.SetIndexLoading(true)
	o.advanceState(data.StateIndexLoading)
	go func() {
		defer close(indexDone)
		defer o.container.SetIndexLoading(false)
		o.runIndexBranch(ctx)
	}()

	var fullOnce sync.Once
	closeFull := func() { fullOnce.Do(func() { close(fullDone) }) }
	cancelIdle := o.idle.Schedule(func() {
		defer closeFull()
		o.runFullBranch(ctx)
	}, o.idleTimeout)

	o.mu.Lock()
	o.cancelIdle = cancelIdle
	o.closeFull = closeFull
	o.mu.Unlock()
}

// Stop cancels in-flight branches and waits for them to wind down.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	cancelIdle := o.cancelIdle
	closeFull := o.closeFull
	indexDone := o.indexDone
	fullDone := o.fullDone
	o.mu.Unlock()

	if cancelIdle != nil && cancelIdle() {
		closeFull()
	}
	if cancel != nil {
		cancel()
	}
	if indexDone != nil {
		<-indexDone
	}
	if fullDone != nil {
		select {
		case <-fullDone:
		case <-time.After(5 * time.Second):
			logging.Warn("Full load branch did not stop in time")
		}
	}
}

// IndexDone returns a channel closed when the index branch finishes.
func (o *Orchestrator) IndexDone() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.indexDone
}

// FullDone returns a channel closed when the full branch finishes.
func (o *Orchestrator) FullDone() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fullDone
}

// seedFromCache applies a warm snapshot before any network work. A valid
// full snapshot wins over the index snapshot since it derives the index.
func (o *Orchestrator) seedFromCache(ctx context.Context) {
	if full := o.cache.ReadFull(ctx, o.fullTTL); full != nil {
		o.container.SetFull(full)
		o.advanceState(data.StateFullReady)
		logging.Info("Seeded container from cached full snapshot",
			"procedures", len(full.Procedures), "drugs", len(full.Drugs))
		return
	}
	if index := o.cache.ReadIndex(ctx, o.indexTTL, o.fullTTL); index != nil {
		if o.container.SetIndex(index.Procedures, index.Specialties) {
			o.advanceState(data.StateIndexReady)
			logging.Info("Seeded container from cached index snapshot",
				"procedures", len(index.Procedures))
		}
	}
}

// revertIndexLoading demotes the state after a failed index branch so the
// container reflects what is actually served.
func (o *Orchestrator) revertIndexLoading() {
	if o.container.GetState() == data.StateIndexLoading {
		o.container.SetState(data.StateCold)
	}
}

// revertFullLoading demotes the state after a failed full branch, back to
// index-ready when a listing is available.
func (o *Orchestrator) revertFullLoading() {
	if o.container.GetState() != data.StateFullLoading {
		return
	}
	if len(o.container.GetIndex()) > 0 {
		o.container.SetState(data.StateIndexReady)
	} else {
		o.container.SetState(data.StateCold)
	}
}

func (o *Orchestrator) runIndexBranch(ctx context.Context) {
	payload, err := o.source.BuildIndex(ctx)
	if ctx.Err() != nil {
		logging.Debug("Index branch cancelled")
		metrics.SyncCyclesTotal.WithLabelValues("index", "cancelled").Inc()
		o.revertIndexLoading()
		return
	}
	if err != nil {
		metrics.SyncCyclesTotal.WithLabelValues("index", "error").Inc()
		o.revertIndexLoading()
		o.handleBranchError("index", err)
		return
	}

	if o.container.SetIndex(payload.Procedures, payload.Specialties) {
		o.advanceState(data.StateIndexReady)
	}
	o.cache.WriteIndex(ctx, payload)
	metrics.SyncCyclesTotal.WithLabelValues("index", "success").Inc()
	logging.Info("Index branch completed", "procedures", len(payload.Procedures))
}

func (o *Orchestrator) runFullBranch(ctx context.Context) {
	o.container.SetLoading(true)
	defer o.container.SetLoading(false)
	o.advanceState(data.StateFullLoading)

	payload, err := o.source.BuildFull(ctx)
	if ctx.Err() != nil {
		logging.Debug("Full branch cancelled")
		metrics.SyncCyclesTotal.WithLabelValues("full", "cancelled").Inc()
		o.revertFullLoading()
		return
	}
	if err != nil {
		metrics.SyncCyclesTotal.WithLabelValues("full", "error").Inc()
		o.revertFullLoading()
		o.handleBranchError("full", err)
		return
	}

	o.container.SetFull(payload)
	o.container.SetErr(nil)
	// Set explicitly rather than advance: a successful full build
	// supersedes an earlier fatal error.
	o.container.SetState(data.StateFullReady)
	o.cache.WriteFull(ctx, payload)
	metrics.SyncCyclesTotal.WithLabelValues("full", "success").Inc()
	logging.Info("Full branch completed",
		"procedures", len(payload.Procedures),
		"drugs", len(payload.Drugs),
		"guidelines", len(payload.Guidelines))
}

// handleBranchError decides whether a branch failure is fatal. An
// unavailable source is fatal only when nothing is being served yet;
// with warm data the container keeps serving and the failure is logged.
func (o *Orchestrator) handleBranchError(branch string, err error) {
	warm := o.container.FullApplied() || len(o.container.GetIndex()) > 0
	if errors.Is(err, compendium.ErrSourceUnavailable) && !warm {
		o.container.SetErr(err)
		o.container.SetState(data.StateError)
		logging.Error("Load branch failed with no warm data", "branch", branch, "error", err)
		return
	}
	logging.Warn("Load branch failed, keeping current data", "branch", branch, "error", err)
}

// Refresh rebuilds the full tier synchronously. Used by the periodic
// scheduler; overlapping cycles are skipped.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if !o.container.BeginUpdate() {
		logging.Warn("Refresh skipped, another cycle is running")
		return nil
	}
	defer o.container.EndUpdate()

	payload, err := o.source.BuildFull(ctx)
	if err != nil {
		metrics.SyncCyclesTotal.WithLabelValues("refresh", "error").Inc()
		o.handleBranchError("refresh", err)
		return err
	}

	o.container.SetFull(payload)
	o.container.SetErr(nil)
	o.container.SetState(data.StateFullReady)
	o.cache.WriteFull(ctx, payload)
	metrics.SyncCyclesTotal.WithLabelValues("refresh", "success").Inc()
	logging.Info("Refresh cycle completed", "procedures", len(payload.Procedures))
	return nil
}
