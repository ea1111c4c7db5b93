// Package compendium downloads, normalizes, merges and enriches the
// knowledge-base entities served by the vademecum API. The remote store is
// authoritative; a bundled static dataset fills in fields the remote store
// is missing, and a small rule engine infers implied clinical content.
package compendium

import "github.com/oroya/vademecum-api/compendium/entities"

// ResolveLocalized turns a raw localized input into a complete per-language
// record. The primary language comes from the raw primary value, the bare
// value, or fallback(), in that order; every other language defaults to the
// resolved primary value. Pure and total: malformed or absent input still
// yields a record covering all supported languages.
func ResolveLocalized[T any](raw entities.RawLocalized[T], fallback func() T) entities.Localized[T] {
	out := make(entities.Localized[T], len(entities.Languages))

	primary, ok := raw.PerLang[entities.Primary]
	if !ok {
		if raw.PerLang == nil && raw.Bare != nil {
			primary = *raw.Bare
		} else {
			primary = fallback()
		}
	}
	out[entities.Primary] = primary

	for _, lang := range entities.Languages {
		if lang == entities.Primary {
			continue
		}
		if v, ok := raw.PerLang[lang]; ok {
			out[lang] = v
		} else {
			out[lang] = primary
		}
	}

	return out
}

// completeLocalized re-resolves an already-canonical localized record,
// filling any language that is still missing. fix is applied to every
// present value so type-level defaults (nil slices, nested blocks) are
// normalized in the same pass. Idempotent.
func completeLocalized[T any](in entities.Localized[T], fallback func() T, fix func(T) T) entities.Localized[T] {
	out := make(entities.Localized[T], len(entities.Languages))

	primary, ok := in[entities.Primary]
	if !ok {
		primary = fallback()
	}
	primary = fix(primary)
	out[entities.Primary] = primary

	for _, lang := range entities.Languages {
		if lang == entities.Primary {
			continue
		}
		if v, ok := in[lang]; ok {
			out[lang] = fix(v)
		} else {
			out[lang] = primary
		}
	}

	return out
}

func emptyString() string { return "" }

func fixString(s string) string { return s }

func emptyStrings() []string { return []string{} }

func fixStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
