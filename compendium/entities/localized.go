package entities

import "encoding/json"

// Lang identifies a supported display language.
type Lang string

const (
	// LangES is the primary language; every localized field is guaranteed
	// to carry an es value once normalized.
	LangES Lang = "es"
	LangEN Lang = "en"
	LangPT Lang = "pt"
)

// Languages is the ordered set of supported languages, primary first.
var Languages = []Lang{LangES, LangEN, LangPT}

// Primary is the language every other language defaults to.
const Primary = LangES

// Localized holds one value per supported language. After normalization
// all languages in Languages are present and the primary value is never
// missing. Marshals as {"es": ..., "en": ..., "pt": ...}.
type Localized[T any] map[Lang]T

// Get returns the value for lang, defaulting to the primary language
// when lang is unknown or absent.
func (l Localized[T]) Get(lang Lang) T {
	if v, ok := l[lang]; ok {
		return v
	}
	return l[Primary]
}

// RawLocalized is the pre-normalization shape of a localized field. Source
// rows may carry either a per-language object or a bare value meant for the
// primary language; both decode into this type.
type RawLocalized[T any] struct {
	PerLang map[Lang]T
	Bare    *T
}

// UnmarshalJSON accepts either {"es": ..., "en": ...} (detected by the
// presence of at least one supported language key) or a bare value, which
// is treated as the primary-language value.
func (r *RawLocalized[T]) UnmarshalJSON(b []byte) error {
	r.PerLang = nil
	r.Bare = nil

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err == nil {
		hasLangKey := false
		for _, lang := range Languages {
			if _, ok := probe[string(lang)]; ok {
				hasLangKey = true
				break
			}
		}
		if hasLangKey {
			perLang := make(map[Lang]T, len(Languages))
			for _, lang := range Languages {
				raw, ok := probe[string(lang)]
				if !ok {
					continue
				}
				var v T
				if err := json.Unmarshal(raw, &v); err != nil {
					// Malformed variant: skip it, the resolver defaults it.
					continue
				}
				perLang[lang] = v
			}
			r.PerLang = perLang
			return nil
		}
	}

	var bare T
	if err := json.Unmarshal(b, &bare); err != nil {
		// Malformed input yields an empty raw value, never an error:
		// the resolver is total and fills in typed defaults.
		return nil
	}
	r.Bare = &bare
	return nil
}
