// Package snapshot persists timestamped, immutable copies of the merged
// knowledge base in a two-tier cache: a lightweight Index snapshot for
// instant listings and a Full snapshot holding every entity type after
// merge and enrichment. The cache is advisory, never a source of truth:
// write failures are swallowed and unreadable or expired records read as
// absent.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/oroya/vademecum-api/compendium/entities"
	"github.com/oroya/vademecum-api/logging"
	"github.com/oroya/vademecum-api/metrics"
)

// Cache keys. A write fully replaces the prior snapshot under its key.
const (
	KeyIndex = "vademecum:index"
	KeyFull  = "vademecum:full"
)

// ErrNotFound is returned by a Store when no record exists under a key.
var ErrNotFound = errors.New("snapshot: key not found")

// Store is the persistent local key-value surface the cache writes
// envelopes to. No transactional guarantees are assumed.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// IndexPayload is the listing-only projection plus specialty metadata.
type IndexPayload struct {
	Procedures  []entities.ProcedureIndex `json:"procedures"`
	Specialties []entities.Specialty      `json:"specialties"`
}

// FullPayload holds every entity type after merge and enrichment.
type FullPayload struct {
	Procedures  []entities.Procedure     `json:"procedures"`
	Drugs       []entities.Drug          `json:"drugs"`
	Guidelines  []entities.Guideline     `json:"guidelines"`
	Protocols   []entities.Protocol      `json:"protocols"`
	Blocks      []entities.RegionalBlock `json:"blocks"`
	Specialties []entities.Specialty     `json:"specialties"`
}

// envelope tags a payload with its write timestamp.
type envelope struct {
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// ProjectProcedure returns the listing projection of a procedure.
func ProjectProcedure(p entities.Procedure) entities.ProcedureIndex {
	return entities.ProcedureIndex{
		ID:          p.ID,
		Specialty:   p.Specialty,
		Specialties: p.Specialties,
		Titles:      p.Titles,
		Synonyms:    p.Synonyms,
		Tags:        p.Tags,
		IsPro:       p.IsPro,
	}
}

// DeriveIndexFromFull is the pure projection that keeps the Index tier
// consistent with any successful Full write.
func DeriveIndexFromFull(full *FullPayload) *IndexPayload {
	idx := &IndexPayload{
		Procedures:  make([]entities.ProcedureIndex, 0, len(full.Procedures)),
		Specialties: full.Specialties,
	}
	for _, p := range full.Procedures {
		idx.Procedures = append(idx.Procedures, ProjectProcedure(p))
	}
	return idx
}

// Cache reads and writes snapshot envelopes against a Store.
type Cache struct {
	store Store
	now   func() time.Time
}

// NewCache creates a cache over store.
func NewCache(store Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

// write envelopes and persists payload under key. Best effort: any
// serialization or storage failure is logged and swallowed.
func (c *Cache) write(ctx context.Context, key string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logging.Warn("Failed to serialize snapshot payload", "key", key, "error", err)
		return
	}

	data, err := json.Marshal(envelope{Timestamp: c.now(), Payload: raw})
	if err != nil {
		logging.Warn("Failed to serialize snapshot envelope", "key", key, "error", err)
		return
	}

	if err := c.store.Set(ctx, key, data); err != nil {
		logging.Warn("Failed to persist snapshot", "key", key, "error", err)
	}
}

// read returns the raw payload stored under key, or nil when the record is
// missing, unparsable, or older than ttl. A corrupt envelope is a miss.
func (c *Cache) read(ctx context.Context, key string, ttl time.Duration) json.RawMessage {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Warn("Failed to read snapshot", "key", key, "error", err)
		}
		metrics.SnapshotReadsTotal.WithLabelValues(key, "miss").Inc()
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logging.Warn("Discarding corrupt snapshot envelope", "key", key, "error", err)
		metrics.SnapshotReadsTotal.WithLabelValues(key, "corrupt").Inc()
		return nil
	}

	if c.now().Sub(env.Timestamp) > ttl {
		metrics.SnapshotReadsTotal.WithLabelValues(key, "expired").Inc()
		return nil
	}

	metrics.SnapshotReadsTotal.WithLabelValues(key, "hit").Inc()
	return env.Payload
}

// WriteIndex persists an Index snapshot.
func (c *Cache) WriteIndex(ctx context.Context, payload *IndexPayload) {
	c.write(ctx, KeyIndex, payload)
}

// WriteFull persists a Full snapshot and its derived Index projection, so a
// warm Full cache also satisfies Index reads without a second round trip.
func (c *Cache) WriteFull(ctx context.Context, payload *FullPayload) {
	c.write(ctx, KeyFull, payload)
	c.write(ctx, KeyIndex, DeriveIndexFromFull(payload))
}

// ReadIndex returns the Index snapshot if one is fresh, falling back to
// deriving it from a still-valid Full snapshot. Full freshness always
// implies Index freshness.
func (c *Cache) ReadIndex(ctx context.Context, indexTTL, fullTTL time.Duration) *IndexPayload {
	if raw := c.read(ctx, KeyIndex, indexTTL); raw != nil {
		var payload IndexPayload
		if err := json.Unmarshal(raw, &payload); err == nil {
			return &payload
		}
		logging.Warn("Discarding unparsable index snapshot")
	}

	if full := c.ReadFull(ctx, fullTTL); full != nil {
		return DeriveIndexFromFull(full)
	}
	return nil
}

// ReadFull returns the Full snapshot, or nil when absent or expired.
func (c *Cache) ReadFull(ctx context.Context, ttl time.Duration) *FullPayload {
	raw := c.read(ctx, KeyFull, ttl)
	if raw == nil {
		return nil
	}
	var payload FullPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		logging.Warn("Discarding unparsable full snapshot", "error", err)
		return nil
	}
	return &payload
}
