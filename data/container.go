// Package data provides the thread-safe session state container for the
// vademecum API. It holds the index and full entity tiers with atomic
// pointers for zero-downtime replacement: the two load branches post
// complete replacement values, readers always see a consistent snapshot.
package data

import (
	"sync/atomic"
	"time"

	"github.com/oroya/vademecum-api/compendium/entities"
	"github.com/oroya/vademecum-api/logging"
	"github.com/oroya/vademecum-api/snapshot"
)

// State names the load orchestration phases.
type State string

const (
	StateCold         State = "cold"
	StateIndexLoading State = "index_loading"
	StateIndexReady   State = "index_ready"
	StateFullLoading  State = "full_loading"
	StateFullReady    State = "full_ready"
	StateError        State = "error"
)

// Container holds both data tiers. Collections returned by getters are
// shared snapshots and must be treated as immutable by callers.
type Container struct {
	index        atomic.Value // []entities.ProcedureIndex
	specialties  atomic.Value // []entities.Specialty
	full         atomic.Value // *snapshot.FullPayload (nil until full tier loads)
	procedureMap atomic.Value // map[string]entities.Procedure
	drugMap      atomic.Value // map[string]entities.Drug
	guidelineMap atomic.Value // map[string]entities.Guideline
	protocolMap  atomic.Value // map[string]entities.Protocol
	blockMap     atomic.Value // map[string]entities.RegionalBlock
	lastUpdated  atomic.Value // time.Time
	state        atomic.Value // State
	errSlot      atomic.Value // errBox
	indexLoading atomic.Bool
	loading      atomic.Bool
	fullApplied  atomic.Bool
	updating     atomic.Bool
	startTime    atomic.Value // time.Time
}

// errBox wraps an error so atomic.Value can store a nil error.
type errBox struct{ err error }

// NewContainer creates a container with empty data in the Cold state.
func NewContainer() *Container {
	c := &Container{}
	c.index.Store([]entities.ProcedureIndex{})
	c.specialties.Store([]entities.Specialty{})
	c.full.Store((*snapshot.FullPayload)(nil))
	c.procedureMap.Store(map[string]entities.Procedure{})
	c.drugMap.Store(map[string]entities.Drug{})
	c.guidelineMap.Store(map[string]entities.Guideline{})
	c.protocolMap.Store(map[string]entities.Protocol{})
	c.blockMap.Store(map[string]entities.RegionalBlock{})
	c.lastUpdated.Store(time.Time{})
	c.state.Store(StateCold)
	c.errSlot.Store(errBox{})
	c.startTime.Store(time.Now())
	return c
}

// GetIndex returns the procedure listing tier.
func (c *Container) GetIndex() []entities.ProcedureIndex {
	if v, ok := c.index.Load().([]entities.ProcedureIndex); ok {
		return v
	}
	logging.Warn("Procedure index is empty or invalid")
	return []entities.ProcedureIndex{}
}

// GetSpecialties returns the specialty metadata.
func (c *Container) GetSpecialties() []entities.Specialty {
	if v, ok := c.specialties.Load().([]entities.Specialty); ok {
		return v
	}
	logging.Warn("Specialty list is empty or invalid")
	return []entities.Specialty{}
}

// GetFull returns the full tier payload, or nil before it has loaded.
func (c *Container) GetFull() *snapshot.FullPayload {
	if v, ok := c.full.Load().(*snapshot.FullPayload); ok {
		return v
	}
	return nil
}

// GetProcedures returns the full procedure set, empty until the full tier
// has been applied.
func (c *Container) GetProcedures() []entities.Procedure {
	if full := c.GetFull(); full != nil {
		return full.Procedures
	}
	return []entities.Procedure{}
}

// GetDrugs returns the full drug set, empty until the full tier applies.
func (c *Container) GetDrugs() []entities.Drug {
	if full := c.GetFull(); full != nil {
		return full.Drugs
	}
	return []entities.Drug{}
}

// GetGuidelines returns the guideline set, empty until the full tier applies.
func (c *Container) GetGuidelines() []entities.Guideline {
	if full := c.GetFull(); full != nil {
		return full.Guidelines
	}
	return []entities.Guideline{}
}

// GetProtocols returns the protocol set, empty until the full tier applies.
func (c *Container) GetProtocols() []entities.Protocol {
	if full := c.GetFull(); full != nil {
		return full.Protocols
	}
	return []entities.Protocol{}
}

// GetBlocks returns the regional-block set, empty until the full tier applies.
func (c *Container) GetBlocks() []entities.RegionalBlock {
	if full := c.GetFull(); full != nil {
		return full.Blocks
	}
	return []entities.RegionalBlock{}
}

// GetProcedureByID returns a procedure by id from the full tier.
func (c *Container) GetProcedureByID(id string) (entities.Procedure, bool) {
	if m, ok := c.procedureMap.Load().(map[string]entities.Procedure); ok {
		p, found := m[id]
		return p, found
	}
	return entities.Procedure{}, false
}

// GetDrugByID returns a drug by id from the full tier.
func (c *Container) GetDrugByID(id string) (entities.Drug, bool) {
	if m, ok := c.drugMap.Load().(map[string]entities.Drug); ok {
		d, found := m[id]
		return d, found
	}
	return entities.Drug{}, false
}

// GetGuidelineByID returns a guideline by id from the full tier.
func (c *Container) GetGuidelineByID(id string) (entities.Guideline, bool) {
	if m, ok := c.guidelineMap.Load().(map[string]entities.Guideline); ok {
		g, found := m[id]
		return g, found
	}
	return entities.Guideline{}, false
}

// GetProtocolByID returns a protocol by id from the full tier.
func (c *Container) GetProtocolByID(id string) (entities.Protocol, bool) {
	if m, ok := c.protocolMap.Load().(map[string]entities.Protocol); ok {
		p, found := m[id]
		return p, found
	}
	return entities.Protocol{}, false
}

// GetBlockByID returns a regional block by id from the full tier.
func (c *Container) GetBlockByID(id string) (entities.RegionalBlock, bool) {
	if m, ok := c.blockMap.Load().(map[string]entities.RegionalBlock); ok {
		b, found := m[id]
		return b, found
	}
	return entities.RegionalBlock{}, false
}

// SetIndex replaces the index tier. Ignored once a full payload has been
// applied this session: the full tier is projected into the index on write,
// so a later index-branch result must not roll it back.
func (c *Container) SetIndex(index []entities.ProcedureIndex, specialties []entities.Specialty) bool {
	if c.fullApplied.Load() {
		logging.Debug("Index update skipped, full tier already applied")
		return false
	}
	c.index.Store(index)
	c.specialties.Store(specialties)
	return true
}

// SetFull atomically replaces the full tier, its lookup maps, and the
// derived index tier. The full tier always supersedes index-only state.
func (c *Container) SetFull(payload *snapshot.FullPayload) {
	procedureMap := make(map[string]entities.Procedure, len(payload.Procedures))
	for i := range payload.Procedures {
		procedureMap[payload.Procedures[i].ID] = payload.Procedures[i]
	}
	drugMap := make(map[string]entities.Drug, len(payload.Drugs))
	for i := range payload.Drugs {
		drugMap[payload.Drugs[i].ID] = payload.Drugs[i]
	}
	guidelineMap := make(map[string]entities.Guideline, len(payload.Guidelines))
	for i := range payload.Guidelines {
		guidelineMap[payload.Guidelines[i].ID] = payload.Guidelines[i]
	}
	protocolMap := make(map[string]entities.Protocol, len(payload.Protocols))
	for i := range payload.Protocols {
		protocolMap[payload.Protocols[i].ID] = payload.Protocols[i]
	}
	blockMap := make(map[string]entities.RegionalBlock, len(payload.Blocks))
	for i := range payload.Blocks {
		blockMap[payload.Blocks[i].ID] = payload.Blocks[i]
	}

	derived := snapshot.DeriveIndexFromFull(payload)

	c.full.Store(payload)
	c.procedureMap.Store(procedureMap)
	c.drugMap.Store(drugMap)
	c.guidelineMap.Store(guidelineMap)
	c.protocolMap.Store(protocolMap)
	c.blockMap.Store(blockMap)
	c.index.Store(derived.Procedures)
	c.specialties.Store(derived.Specialties)
	c.lastUpdated.Store(time.Now())
	c.fullApplied.Store(true)
}

// GetLastUpdated returns the time of the last applied full payload.
func (c *Container) GetLastUpdated() time.Time {
	if v, ok := c.lastUpdated.Load().(time.Time); ok {
		return v
	}
	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// GetState returns the current orchestration state.
func (c *Container) GetState() State {
	if v, ok := c.state.Load().(State); ok {
		return v
	}
	return StateCold
}

// SetState records the current orchestration state.
func (c *Container) SetState(s State) {
	c.state.Store(s)
}

// Err returns the consumer-visible error slot, nil when healthy.
func (c *Container) Err() error {
	if box, ok := c.errSlot.Load().(errBox); ok {
		return box.err
	}
	return nil
}

// SetErr replaces the error slot. Passing nil clears it.
func (c *Container) SetErr(err error) {
	c.errSlot.Store(errBox{err: err})
}

// IndexLoading reports whether the index branch is still in flight.
func (c *Container) IndexLoading() bool { return c.indexLoading.Load() }

// SetIndexLoading sets the index-branch loading flag.
func (c *Container) SetIndexLoading(v bool) { c.indexLoading.Store(v) }

// Loading reports whether the full branch is still in flight.
func (c *Container) Loading() bool { return c.loading.Load() }

// SetLoading sets the full-branch loading flag.
func (c *Container) SetLoading(v bool) { c.loading.Store(v) }

// FullApplied reports whether a full payload has been applied this session.
func (c *Container) FullApplied() bool { return c.fullApplied.Load() }

// BeginUpdate marks the start of a refresh cycle. Returns false when
// another cycle is already running.
func (c *Container) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a refresh cycle.
func (c *Container) EndUpdate() {
	c.updating.Store(false)
}

// IsUpdating reports whether a refresh cycle is in progress.
func (c *Container) IsUpdating() bool {
	return c.updating.Load()
}

// GetStartTime returns the process start time.
func (c *Container) GetStartTime() time.Time {
	if v, ok := c.startTime.Load().(time.Time); ok {
		return v
	}
	return time.Time{}
}
