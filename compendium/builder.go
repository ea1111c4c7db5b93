package compendium

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/oroya/vademecum-api/compendium/entities"
	"github.com/oroya/vademecum-api/logging"
	"github.com/oroya/vademecum-api/metrics"
	"github.com/oroya/vademecum-api/snapshot"
	"github.com/oroya/vademecum-api/validation"
)

// RemoteSource is the bulk query surface of the authoritative store.
type RemoteSource interface {
	FetchProcedures(ctx context.Context) ([]entities.ProcedureRow, error)
	// FetchProcedureIndex returns procedure rows restricted to the
	// index-relevant columns (no quick or deep bodies).
	FetchProcedureIndex(ctx context.Context) ([]entities.ProcedureRow, error)
	FetchDrugs(ctx context.Context) ([]entities.DrugRow, error)
	FetchGuidelines(ctx context.Context) ([]entities.GuidelineRow, error)
	FetchProtocols(ctx context.Context) ([]entities.ProtocolRow, error)
	FetchRegionalBlocks(ctx context.Context) ([]entities.RegionalBlockRow, error)
	FetchSpecialties(ctx context.Context) ([]entities.SpecialtyRow, error)
}

// Compile-time check that the HTTP client satisfies the contract.
var _ RemoteSource = (*RemoteClient)(nil)

// FetchProcedures returns all procedure rows.
func (c *RemoteClient) FetchProcedures(ctx context.Context) ([]entities.ProcedureRow, error) {
	return fetchTable[entities.ProcedureRow](ctx, c, "/procedures")
}

// FetchProcedureIndex returns procedure rows with index-only columns.
func (c *RemoteClient) FetchProcedureIndex(ctx context.Context) ([]entities.ProcedureRow, error) {
	return fetchTable[entities.ProcedureRow](ctx, c, "/procedures/index")
}

// FetchDrugs returns all drug rows.
func (c *RemoteClient) FetchDrugs(ctx context.Context) ([]entities.DrugRow, error) {
	return fetchTable[entities.DrugRow](ctx, c, "/drugs")
}

// FetchGuidelines returns all guideline rows.
func (c *RemoteClient) FetchGuidelines(ctx context.Context) ([]entities.GuidelineRow, error) {
	return fetchTable[entities.GuidelineRow](ctx, c, "/guidelines")
}

// FetchProtocols returns all protocol rows.
func (c *RemoteClient) FetchProtocols(ctx context.Context) ([]entities.ProtocolRow, error) {
	return fetchTable[entities.ProtocolRow](ctx, c, "/protocols")
}

// FetchRegionalBlocks returns all regional-block rows.
func (c *RemoteClient) FetchRegionalBlocks(ctx context.Context) ([]entities.RegionalBlockRow, error) {
	return fetchTable[entities.RegionalBlockRow](ctx, c, "/blocks")
}

// FetchSpecialties returns all specialty rows.
func (c *RemoteClient) FetchSpecialties(ctx context.Context) ([]entities.SpecialtyRow, error) {
	return fetchTable[entities.SpecialtyRow](ctx, c, "/specialties")
}

// BundleSource loads the static fallback dataset shipped with the service.
type BundleSource interface {
	Load(ctx context.Context) (*BundleDataset, error)
}

// BundleDataset is the bundled fallback, already in canonical shape.
type BundleDataset struct {
	Procedures []entities.Procedure     `json:"procedures"`
	Drugs      []entities.Drug          `json:"drugs"`
	Guidelines []entities.Guideline     `json:"guidelines"`
	Protocols  []entities.Protocol      `json:"protocols"`
	Blocks     []entities.RegionalBlock `json:"blocks"`
}

// Builder runs the fetch, normalize, merge and enrich pipeline and
// assembles cacheable payloads.
type Builder struct {
	remote RemoteSource
	bundle BundleSource
}

// NewBuilder creates a builder over the two sources.
func NewBuilder(remote RemoteSource, bundle BundleSource) *Builder {
	return &Builder{remote: remote, bundle: bundle}
}

// normalizeAll converts raw rows to canonical entities, dropping invalid
// records individually with a diagnostic. Sibling records are unaffected
// and input order is preserved. Duplicate ids keep the first occurrence.
func normalizeAll[R any, E any](
	rows []R,
	kind string,
	convert func(R) E,
	normalize func(E) E,
	id func(E) string,
	validate func(*E) error,
) []E {
	out := make([]E, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		entity := normalize(convert(row))
		if err := validate(&entity); err != nil {
			logging.Warn("Dropping invalid record", "kind", kind, "error", err)
			metrics.RecordsDroppedTotal.WithLabelValues(kind).Inc()
			continue
		}
		key := id(entity)
		if seen[key] {
			logging.Warn("Dropping duplicate record", "kind", kind, "id", key)
			metrics.RecordsDroppedTotal.WithLabelValues(kind).Inc()
			continue
		}
		seen[key] = true
		out = append(out, entity)
	}
	return out
}

func identity[E any](e E) E { return e }

// normalizeProcedures applies the shared drop and dedup policy to raw
// procedure rows. Both build paths go through here.
func normalizeProcedures(rows []entities.ProcedureRow) []entities.Procedure {
	return normalizeAll(rows, "procedure",
		ProcedureFromRow, NormalizeProcedure,
		func(p entities.Procedure) string { return p.ID },
		validation.ValidateProcedure)
}

// BuildIndex fetches the lightweight listing plus specialty metadata. An
// empty procedure listing is SourceUnavailable, same as BuildFull: a warm
// cached listing must never be replaced by nothing.
func (b *Builder) BuildIndex(ctx context.Context) (*snapshot.IndexPayload, error) {
	rows, err := b.remote.FetchProcedureIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	specRows, err := b.remote.FetchSpecialties(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	procedures := normalizeProcedures(rows)
	if len(procedures) == 0 {
		return nil, fmt.Errorf("%w: remote store returned no procedures", ErrSourceUnavailable)
	}

	payload := &snapshot.IndexPayload{
		Procedures:  make([]entities.ProcedureIndex, 0, len(procedures)),
		Specialties: b.normalizeSpecialties(specRows),
	}
	for _, p := range procedures {
		payload.Procedures = append(payload.Procedures, snapshot.ProjectProcedure(p))
	}
	return payload, nil
}

func (b *Builder) normalizeSpecialties(rows []entities.SpecialtyRow) []entities.Specialty {
	specialties := normalizeAll(rows, "specialty",
		SpecialtyFromRow, NormalizeSpecialty,
		func(s entities.Specialty) string { return s.ID },
		validation.ValidateSpecialty)

	sort.SliceStable(specialties, func(i, j int) bool {
		if specialties[i].SortWeight != specialties[j].SortWeight {
			return specialties[i].SortWeight < specialties[j].SortWeight
		}
		return specialties[i].ID < specialties[j].ID
	})
	return specialties
}

// remoteDataset collects one fetch cycle's raw rows.
type remoteDataset struct {
	procedures  []entities.ProcedureRow
	drugs       []entities.DrugRow
	guidelines  []entities.GuidelineRow
	protocols   []entities.ProtocolRow
	blocks      []entities.RegionalBlockRow
	specialties []entities.SpecialtyRow
}

// fetchAll downloads every entity table concurrently.
func (b *Builder) fetchAll(ctx context.Context) (*remoteDataset, error) {
	var (
		ds   remoteDataset
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)

	run := func(fetch func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fetch(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	run(func() (err error) { ds.procedures, err = b.remote.FetchProcedures(ctx); return })
	run(func() (err error) { ds.drugs, err = b.remote.FetchDrugs(ctx); return })
	run(func() (err error) { ds.guidelines, err = b.remote.FetchGuidelines(ctx); return })
	run(func() (err error) { ds.protocols, err = b.remote.FetchProtocols(ctx); return })
	run(func() (err error) { ds.blocks, err = b.remote.FetchRegionalBlocks(ctx); return })
	run(func() (err error) { ds.specialties, err = b.remote.FetchSpecialties(ctx); return })
	wg.Wait()

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, errs)
	}
	return &ds, nil
}

// BuildFull runs the complete cycle: fetch, normalize, fallback-merge,
// enrich. A remote store with zero procedures is SourceUnavailable: the
// bundle may only add detail to remote entities, never replace the store.
// A missing or broken bundle degrades to remote-only data.
func (b *Builder) BuildFull(ctx context.Context) (*snapshot.FullPayload, error) {
	ds, err := b.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	procedures := normalizeProcedures(ds.procedures)
	if len(procedures) == 0 {
		return nil, fmt.Errorf("%w: remote store returned no procedures", ErrSourceUnavailable)
	}

	drugs := normalizeAll(ds.drugs, "drug",
		DrugFromRow, NormalizeDrug,
		func(d entities.Drug) string { return d.ID },
		validation.ValidateDrug)
	guidelines := normalizeAll(ds.guidelines, "guideline",
		GuidelineFromRow, NormalizeGuideline,
		func(g entities.Guideline) string { return g.ID },
		validation.ValidateGuideline)
	protocols := normalizeAll(ds.protocols, "protocol",
		ProtocolFromRow, NormalizeProtocol,
		func(p entities.Protocol) string { return p.ID },
		validation.ValidateProtocol)
	blocks := normalizeAll(ds.blocks, "block",
		RegionalBlockFromRow, NormalizeRegionalBlock,
		func(b entities.RegionalBlock) string { return b.ID },
		validation.ValidateRegionalBlock)

	bundle := b.loadBundle(ctx)

	procedures = MergeProcedures(procedures, bundle.Procedures)
	drugs = MergeDrugs(drugs, bundle.Drugs)
	guidelines = MergeGuidelines(guidelines, bundle.Guidelines)
	protocols = MergeProtocols(protocols, bundle.Protocols)
	blocks = MergeRegionalBlocks(blocks, bundle.Blocks)

	procedures = EnrichProcedures(procedures)
	drugs = EnrichDrugs(drugs)

	payload := &snapshot.FullPayload{
		Procedures:  procedures,
		Drugs:       drugs,
		Guidelines:  guidelines,
		Protocols:   protocols,
		Blocks:      blocks,
		Specialties: b.normalizeSpecialties(ds.specialties),
	}

	report := validation.ReportDataQuality(payload)
	report.Log()

	return payload, nil
}

// loadBundle returns the normalized bundled fallback, or an empty dataset
// when the bundle cannot be fetched or parsed. The remote store is
// self-sufficient, so this failure is logged, never propagated.
func (b *Builder) loadBundle(ctx context.Context) *BundleDataset {
	if b.bundle == nil {
		return &BundleDataset{}
	}

	bundle, err := b.bundle.Load(ctx)
	if err != nil {
		logging.Warn("Bundled fallback unavailable, serving remote-only data", "error", err)
		return &BundleDataset{}
	}

	bundle.Procedures = normalizeAll(bundle.Procedures, "bundle procedure",
		identity, NormalizeProcedure,
		func(p entities.Procedure) string { return p.ID },
		validation.ValidateProcedure)
	bundle.Drugs = normalizeAll(bundle.Drugs, "bundle drug",
		identity, NormalizeDrug,
		func(d entities.Drug) string { return d.ID },
		validation.ValidateDrug)
	bundle.Guidelines = normalizeAll(bundle.Guidelines, "bundle guideline",
		identity, NormalizeGuideline,
		func(g entities.Guideline) string { return g.ID },
		validation.ValidateGuideline)
	bundle.Protocols = normalizeAll(bundle.Protocols, "bundle protocol",
		identity, NormalizeProtocol,
		func(p entities.Protocol) string { return p.ID },
		validation.ValidateProtocol)
	bundle.Blocks = normalizeAll(bundle.Blocks, "bundle block",
		identity, NormalizeRegionalBlock,
		func(blk entities.RegionalBlock) string { return blk.ID },
		validation.ValidateRegionalBlock)

	return bundle
}
