package compendium

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/oroya/vademecum-api/compendium/entities"
	"github.com/oroya/vademecum-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// BundleReader loads the static fallback documents shipped next to the
// binary, one JSON array per entity type.
type BundleReader struct {
	dir string
}

// NewBundleReader creates a reader over dir.
func NewBundleReader(dir string) *BundleReader {
	return &BundleReader{dir: dir}
}

var _ BundleSource = (*BundleReader)(nil)

// readDocument reads one bundle file. Some authored exports still arrive in
// ISO-8859-1, so non-UTF-8 content is decoded before parsing.
func (r *BundleReader) readDocument(name string) ([]byte, error) {
	path := filepath.Join(r.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle document %s: %w", path, err)
	}

	if !utf8.Valid(data) {
		decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode bundle document %s: %w", path, err)
		}
		data = decoded
	}
	return data, nil
}

// decodeArray decodes a JSON array element by element, dropping elements
// that fail to decode with a diagnostic so one malformed record does not
// poison its siblings.
func decodeArray[E any](data []byte, kind string) ([]E, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("bundle document for %s is not a JSON array: %w", kind, err)
	}

	out := make([]E, 0, len(raw))
	for i, element := range raw {
		var e E
		if err := json.Unmarshal(element, &e); err != nil {
			logging.Warn("Dropping malformed bundle element", "kind", kind, "index", i, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// loadDocument reads and decodes one entity type's document. A missing
// document is not an error: the bundle is allowed to cover a subset of the
// entity types.
func loadDocument[E any](r *BundleReader, name, kind string) ([]E, error) {
	data, err := r.readDocument(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Bundle document absent", "kind", kind)
			return []E{}, nil
		}
		return nil, err
	}
	return decodeArray[E](data, kind)
}

// Load reads every bundle document. Returns an error only when the bundle
// as a whole is unusable; the caller degrades to remote-only data then.
func (r *BundleReader) Load(ctx context.Context) (*BundleDataset, error) {
	ds := &BundleDataset{}
	var err error

	if ds.Procedures, err = loadDocument[entities.Procedure](r, "procedures.json", "procedure"); err != nil {
		return nil, err
	}
	if ds.Drugs, err = loadDocument[entities.Drug](r, "drugs.json", "drug"); err != nil {
		return nil, err
	}
	if ds.Guidelines, err = loadDocument[entities.Guideline](r, "guidelines.json", "guideline"); err != nil {
		return nil, err
	}
	if ds.Protocols, err = loadDocument[entities.Protocol](r, "protocols.json", "protocol"); err != nil {
		return nil, err
	}
	if ds.Blocks, err = loadDocument[entities.RegionalBlock](r, "blocks.json", "block"); err != nil {
		return nil, err
	}

	return ds, nil
}
