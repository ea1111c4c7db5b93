package compendium

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Heuristic text-pattern detection for the enrichment rules. Matching is
// diacritic-insensitive and case-insensitive: the input is NFD-decomposed,
// combining marks are stripped, and the result is lowercased before the
// precompiled patterns run. Patterns cover the Spanish and English token
// variants seen in authored intraop notes.

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldText strips diacritics and lowercases s. Returns s unchanged (apart
// from lowercasing) if the transform fails on malformed input.
func foldText(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

var (
	generalAnesthesiaPattern = regexp.MustCompile(
		`anestesia general|general an(?:a)?esthesia|intubacion|intubation|` +
			`mascarilla laringea|laryngeal mask|` +
			`secuencia rapida|rapid[ -]sequence induction`)

	tivaPattern = regexp.MustCompile(
		`\btiva\b|anestesia total intravenosa|total intravenous an(?:a)?esthesia`)
)

// matchesGeneralAnesthesia reports whether the concatenated intraop text
// contains a general-anesthesia marker.
func matchesGeneralAnesthesia(intraop []string) bool {
	return generalAnesthesiaPattern.MatchString(foldText(strings.Join(intraop, "\n")))
}

// matchesTIVA reports whether the concatenated intraop text contains a
// total-intravenous-anesthesia marker.
func matchesTIVA(intraop []string) bool {
	return tivaPattern.MatchString(foldText(strings.Join(intraop, "\n")))
}
