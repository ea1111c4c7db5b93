package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oroya/vademecum-api/compendium"
	"github.com/oroya/vademecum-api/compendium/entities"
	"github.com/oroya/vademecum-api/data"
	"github.com/oroya/vademecum-api/snapshot"
)

const (
	testIndexTTL = 15 * time.Minute
	testFullTTL  = 30 * time.Minute
	waitTimeout  = 5 * time.Second
)

// stubSource returns canned payloads, optionally blocking on a gate until
// the test releases it.
type stubSource struct {
	index     *snapshot.IndexPayload
	full      *snapshot.FullPayload
	indexErr  error
	fullErr   error
	indexGate chan struct{}
	fullGate  chan struct{}
}

func (s *stubSource) BuildIndex(ctx context.Context) (*snapshot.IndexPayload, error) {
	if s.indexGate != nil {
		select {
		case <-s.indexGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.index, s.indexErr
}

func (s *stubSource) BuildFull(ctx context.Context) (*snapshot.FullPayload, error) {
	if s.fullGate != nil {
		select {
		case <-s.fullGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.full, s.fullErr
}

func testIndexPayload(id string) *snapshot.IndexPayload {
	return &snapshot.IndexPayload{
		Procedures: []entities.ProcedureIndex{{ID: id}},
	}
}

func testFullPayload(id string) *snapshot.FullPayload {
	return &snapshot.FullPayload{
		Procedures: []entities.Procedure{
			{ID: id, Titles: entities.Localized[string]{entities.LangES: id}},
		},
	}
}

func newTestCache() *snapshot.Cache {
	return snapshot.NewCache(snapshot.NewMemoryStore())
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestColdStartLoadsBothTiers(t *testing.T) {
	source := &stubSource{
		index: testIndexPayload("cesarea"),
		full:  testFullPayload("cesarea"),
	}
	container := data.NewContainer()
	cache := newTestCache()

	o := New(container, source, cache, ImmediateIdleScheduler{}, testIndexTTL, testFullTTL)
	o.Start(context.Background())
	defer o.Stop()

	waitClosed(t, o.IndexDone(), "index branch")
	waitClosed(t, o.FullDone(), "full branch")

	assert.Equal(t, data.StateFullReady, container.GetState())
	assert.True(t, container.FullApplied())
	require.Len(t, container.GetProcedures(), 1)
	assert.Nil(t, container.Err())

	// Both snapshots landed in the cache.
	assert.NotNil(t, cache.ReadFull(context.Background(), testFullTTL))
	assert.NotNil(t, cache.ReadIndex(context.Background(), testIndexTTL, testFullTTL))
}

func TestLateIndexResultDoesNotRollBackFull(t *testing.T) {
	source := &stubSource{
		index:     testIndexPayload("stale-listing"),
		full:      testFullPayload("cesarea"),
		indexGate: make(chan struct{}),
	}
	container := data.NewContainer()

	o := New(container, source, newTestCache(), TimerIdleScheduler{}, testIndexTTL, testFullTTL)
	o.Start(context.Background())
	defer o.Stop()

	waitClosed(t, o.FullDone(), "full branch")
	require.True(t, container.FullApplied())

	close(source.indexGate)
	waitClosed(t, o.IndexDone(), "index branch")

	// The listing derived from the full payload survives.
	require.Len(t, container.GetIndex(), 1)
	assert.Equal(t, "cesarea", container.GetIndex()[0].ID)
	assert.Equal(t, data.StateFullReady, container.GetState())
}

func TestSourceUnavailableColdIsFatal(t *testing.T) {
	source := &stubSource{
		indexErr: compendium.ErrSourceUnavailable,
		fullErr:  compendium.ErrSourceUnavailable,
	}
	container := data.NewContainer()

	o := New(container, source, newTestCache(), ImmediateIdleScheduler{}, testIndexTTL, testFullTTL)
	o.Start(context.Background())
	defer o.Stop()

	waitClosed(t, o.IndexDone(), "index branch")
	waitClosed(t, o.FullDone(), "full branch")

	assert.Equal(t, data.StateError, container.GetState())
	assert.ErrorIs(t, container.Err(), compendium.ErrSourceUnavailable)
}

func TestSourceUnavailableWithWarmCacheKeepsServing(t *testing.T) {
	cache := newTestCache()
	cache.WriteFull(context.Background(), testFullPayload("cesarea"))

	source := &stubSource{
		indexErr: compendium.ErrSourceUnavailable,
		fullErr:  compendium.ErrSourceUnavailable,
	}
	container := data.NewContainer()

	o := New(container, source, cache, ImmediateIdleScheduler{}, testIndexTTL, testFullTTL)
	o.Start(context.Background())
	defer o.Stop()

	waitClosed(t, o.IndexDone(), "index branch")
	waitClosed(t, o.FullDone(), "full branch")

	// Seeded data survives and the failure is not surfaced as fatal.
	assert.Equal(t, data.StateFullReady, container.GetState())
	require.Len(t, container.GetProcedures(), 1)
	assert.Nil(t, container.Err())
}

func TestSourceUnavailableKeepsWarmIndexListing(t *testing.T) {
	cache := newTestCache()
	cache.WriteIndex(context.Background(), testIndexPayload("cesarea"))

	source := &stubSource{
		indexErr: compendium.ErrSourceUnavailable,
		fullErr:  compendium.ErrSourceUnavailable,
	}
	container := data.NewContainer()

	o := New(container, source, cache, ImmediateIdleScheduler{}, testIndexTTL, testFullTTL)
	o.Start(context.Background())
	defer o.Stop()

	waitClosed(t, o.IndexDone(), "index branch")
	waitClosed(t, o.FullDone(), "full branch")

	// The seeded listing keeps serving and the failure is not fatal.
	assert.Equal(t, data.StateIndexReady, container.GetState())
	require.Len(t, container.GetIndex(), 1)
	assert.Equal(t, "cesarea", container.GetIndex()[0].ID)
	assert.Nil(t, container.Err())

	// The persisted snapshot survives untouched.
	cached := cache.ReadIndex(context.Background(), testIndexTTL, testFullTTL)
	require.NotNil(t, cached)
	require.Len(t, cached.Procedures, 1)
}

func TestRefreshRecoversFromErrorState(t *testing.T) {
	source := &stubSource{
		indexErr: compendium.ErrSourceUnavailable,
		fullErr:  compendium.ErrSourceUnavailable,
	}
	container := data.NewContainer()

	o := New(container, source, newTestCache(), ImmediateIdleScheduler{}, testIndexTTL, testFullTTL)
	o.Start(context.Background())

	waitClosed(t, o.IndexDone(), "index branch")
	waitClosed(t, o.FullDone(), "full branch")
	o.Stop()

	require.Equal(t, data.StateError, container.GetState())

	// The store comes back; the next cycle must clear the error state.
	source.fullErr = nil
	source.full = testFullPayload("cesarea")

	require.NoError(t, o.Refresh(context.Background()))

	assert.Equal(t, data.StateFullReady, container.GetState())
	assert.Nil(t, container.Err())
	require.Len(t, container.GetProcedures(), 1)
}

func TestNonFatalErrorKeepsIndexTier(t *testing.T) {
	source := &stubSource{
		index:   testIndexPayload("cesarea"),
		fullErr: errors.New("decode failure"),
	}
	container := data.NewContainer()

	o := New(container, source, newTestCache(), TimerIdleScheduler{}, testIndexTTL, testFullTTL)
	o.Start(context.Background())
	defer o.Stop()

	waitClosed(t, o.IndexDone(), "index branch")
	waitClosed(t, o.FullDone(), "full branch")

	assert.Equal(t, data.StateIndexReady, container.GetState())
	require.Len(t, container.GetIndex(), 1)
	assert.False(t, container.FullApplied())
	assert.Nil(t, container.Err())
}

func TestStopCancelsInFlightLoad(t *testing.T) {
	source := &stubSource{
		index:     testIndexPayload("cesarea"),
		full:      testFullPayload("cesarea"),
		indexGate: make(chan struct{}),
		fullGate:  make(chan struct{}),
	}
	container := data.NewContainer()

	o := New(container, source, newTestCache(), TimerIdleScheduler{}, testIndexTTL, testFullTTL)
	o.Start(context.Background())

	o.Stop()

	// Cancelled branches leave the container untouched.
	assert.Empty(t, container.GetIndex())
	assert.False(t, container.FullApplied())
	assert.NotEqual(t, data.StateError, container.GetState())
}

func TestSeedFromCachePrefersFull(t *testing.T) {
	cache := newTestCache()
	cache.WriteIndex(context.Background(), testIndexPayload("listado-viejo"))
	cache.WriteFull(context.Background(), testFullPayload("cesarea"))

	source := &stubSource{
		index:     testIndexPayload("cesarea"),
		full:      testFullPayload("cesarea"),
		indexGate: make(chan struct{}),
		fullGate:  make(chan struct{}),
	}
	container := data.NewContainer()

	o := New(container, source, cache, TimerIdleScheduler{}, testIndexTTL, testFullTTL)
	o.Start(context.Background())
	defer o.Stop()

	// Before any branch completes, the warm full snapshot is serving.
	assert.Equal(t, data.StateFullReady, container.GetState())
	require.Len(t, container.GetProcedures(), 1)
	assert.Equal(t, "cesarea", container.GetIndex()[0].ID)
}

func TestSeedFromCacheIndexOnly(t *testing.T) {
	cache := newTestCache()
	cache.WriteIndex(context.Background(), testIndexPayload("cesarea"))

	source := &stubSource{
		index:     testIndexPayload("cesarea"),
		full:      testFullPayload("cesarea"),
		indexGate: make(chan struct{}),
		fullGate:  make(chan struct{}),
	}
	container := data.NewContainer()

	// A long idle delay keeps the full branch from racing the assertions.
	o := New(container, source, cache, TimerIdleScheduler{Delay: time.Hour}, testIndexTTL, testFullTTL)
	o.Start(context.Background())
	defer o.Stop()

	assert.Equal(t, data.StateIndexReady, container.GetState())
	require.Len(t, container.GetIndex(), 1)
	assert.False(t, container.FullApplied())
}

func TestRefreshRebuildsFullTier(t *testing.T) {
	source := &stubSource{full: testFullPayload("cesarea")}
	container := data.NewContainer()
	cache := newTestCache()

	o := New(container, source, cache, ImmediateIdleScheduler{}, testIndexTTL, testFullTTL)

	require.NoError(t, o.Refresh(context.Background()))

	assert.True(t, container.FullApplied())
	assert.Equal(t, data.StateFullReady, container.GetState())
	assert.NotNil(t, cache.ReadFull(context.Background(), testFullTTL))
}

func TestRefreshSkippedWhileUpdating(t *testing.T) {
	source := &stubSource{full: testFullPayload("cesarea")}
	container := data.NewContainer()
	require.True(t, container.BeginUpdate())
	defer container.EndUpdate()

	o := New(container, source, newTestCache(), ImmediateIdleScheduler{}, testIndexTTL, testFullTTL)

	require.NoError(t, o.Refresh(context.Background()))
	assert.False(t, container.FullApplied())
}

func TestRefreshErrorKeepsCurrentData(t *testing.T) {
	container := data.NewContainer()
	container.SetFull(testFullPayload("cesarea"))

	source := &stubSource{fullErr: compendium.ErrSourceUnavailable}
	o := New(container, source, newTestCache(), ImmediateIdleScheduler{}, testIndexTTL, testFullTTL)

	err := o.Refresh(context.Background())
	assert.ErrorIs(t, err, compendium.ErrSourceUnavailable)

	require.Len(t, container.GetProcedures(), 1)
	assert.Nil(t, container.Err())
}
