package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawLocalizedUnmarshalPerLanguageObject(t *testing.T) {
	var raw RawLocalized[string]
	err := json.Unmarshal([]byte(`{"es": "colecistectomía", "en": "cholecystectomy"}`), &raw)
	require.NoError(t, err)

	require.NotNil(t, raw.PerLang)
	assert.Nil(t, raw.Bare)
	assert.Equal(t, "colecistectomía", raw.PerLang[LangES])
	assert.Equal(t, "cholecystectomy", raw.PerLang[LangEN])
	_, hasPT := raw.PerLang[LangPT]
	assert.False(t, hasPT)
}

func TestRawLocalizedUnmarshalBareValue(t *testing.T) {
	var raw RawLocalized[string]
	err := json.Unmarshal([]byte(`"cesárea"`), &raw)
	require.NoError(t, err)

	require.NotNil(t, raw.Bare)
	assert.Nil(t, raw.PerLang)
	assert.Equal(t, "cesárea", *raw.Bare)
}

func TestRawLocalizedUnmarshalObjectWithoutLangKeys(t *testing.T) {
	// An object carrying no supported language key is a bare value for
	// structured types like QuickContent.
	var raw RawLocalized[QuickContent]
	err := json.Unmarshal([]byte(`{"preop": ["ayuno 6h"], "intraop": [], "postop": [], "red_flags": [], "drugs": []}`), &raw)
	require.NoError(t, err)

	require.NotNil(t, raw.Bare)
	assert.Nil(t, raw.PerLang)
	assert.Equal(t, []string{"ayuno 6h"}, raw.Bare.Preop)
}

func TestRawLocalizedUnmarshalSkipsMalformedVariant(t *testing.T) {
	var raw RawLocalized[[]string]
	err := json.Unmarshal([]byte(`{"es": ["vía aérea difícil"], "en": 42}`), &raw)
	require.NoError(t, err)

	require.NotNil(t, raw.PerLang)
	assert.Equal(t, []string{"vía aérea difícil"}, raw.PerLang[LangES])
	_, hasEN := raw.PerLang[LangEN]
	assert.False(t, hasEN)
}

func TestRawLocalizedUnmarshalMalformedInputIsEmpty(t *testing.T) {
	var raw RawLocalized[string]
	err := json.Unmarshal([]byte(`42`), &raw)
	require.NoError(t, err)

	assert.Nil(t, raw.PerLang)
	assert.Nil(t, raw.Bare)
}

func TestLocalizedGetFallsBackToPrimary(t *testing.T) {
	l := Localized[string]{LangES: "anestesia raquídea"}

	assert.Equal(t, "anestesia raquídea", l.Get(LangES))
	assert.Equal(t, "anestesia raquídea", l.Get(LangPT))
	assert.Equal(t, "anestesia raquídea", l.Get(Lang("fr")))
}
