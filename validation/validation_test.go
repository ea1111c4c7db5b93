package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oroya/vademecum-api/compendium/entities"
)

func floatPtr(v float64) *float64 { return &v }

func validProcedure() *entities.Procedure {
	return &entities.Procedure{
		ID: "cesarea",
		Titles: entities.Localized[string]{
			entities.LangES: "Cesárea",
			entities.LangEN: "Cesarean section",
		},
	}
}

func TestValidateProcedure(t *testing.T) {
	require.NoError(t, ValidateProcedure(validProcedure()))

	assert.Error(t, ValidateProcedure(nil))

	p := validProcedure()
	p.ID = ""
	assert.Error(t, ValidateProcedure(p))

	p = validProcedure()
	p.ID = "Cesárea"
	assert.Error(t, ValidateProcedure(p), "uppercase and diacritics are not slug characters")

	p = validProcedure()
	p.Titles[entities.Primary] = "   "
	assert.Error(t, ValidateProcedure(p))

	p = validProcedure()
	p.Titles[entities.LangEN] = strings.Repeat("x", maxTitleLength+1)
	assert.Error(t, ValidateProcedure(p))
}

func TestValidateDrug(t *testing.T) {
	d := &entities.Drug{
		ID:   "propofol",
		Name: entities.Localized[string]{entities.LangES: "Propofol"},
		DoseRules: []entities.DoseRule{
			{IndicationTag: "induction", MgPerKg: floatPtr(2), MaxMg: floatPtr(200)},
		},
	}
	require.NoError(t, ValidateDrug(d))

	d.DoseRules[0].MgPerKg = floatPtr(-1)
	err := ValidateDrug(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative mg/kg")

	d.DoseRules[0].MgPerKg = floatPtr(2)
	d.DoseRules[0].MaxMg = floatPtr(-200)
	assert.Error(t, ValidateDrug(d))

	d.DoseRules = nil
	d.Name = entities.Localized[string]{}
	assert.Error(t, ValidateDrug(d))
}

func TestValidateGuidelineProtocolBlockSpecialty(t *testing.T) {
	titles := entities.Localized[string]{entities.LangES: "Vía aérea difícil"}

	require.NoError(t, ValidateGuideline(&entities.Guideline{ID: "via-aerea-dificil", Titles: titles}))
	assert.Error(t, ValidateGuideline(&entities.Guideline{ID: "via-aerea-dificil"}))

	require.NoError(t, ValidateProtocol(&entities.Protocol{ID: "rsi", Titles: titles}))
	assert.Error(t, ValidateProtocol(&entities.Protocol{Titles: titles}))

	require.NoError(t, ValidateRegionalBlock(&entities.RegionalBlock{ID: "tap", Titles: titles}))
	assert.Error(t, ValidateRegionalBlock(&entities.RegionalBlock{ID: "TAP!", Titles: titles}))

	require.NoError(t, ValidateSpecialty(&entities.Specialty{ID: "obstetricia", Name: titles}))
	assert.Error(t, ValidateSpecialty(nil))
}

func TestValidateEntityID(t *testing.T) {
	id, err := ValidateEntityID("protesis-total-cadera")
	require.NoError(t, err)
	assert.Equal(t, "protesis-total-cadera", id)

	cases := []string{
		"",
		"   ",
		" cesarea",
		"cesarea ",
		"../etc/passwd",
		"ces/area",
		"CESAREA",
		strings.Repeat("a", maxIDLength+1),
	}
	for _, input := range cases {
		_, err := ValidateEntityID(input)
		assert.Error(t, err, "input %q should be rejected", input)
	}
}

func TestValidateLang(t *testing.T) {
	lang, err := ValidateLang("")
	require.NoError(t, err)
	assert.Equal(t, entities.Primary, lang)

	lang, err = ValidateLang("EN")
	require.NoError(t, err)
	assert.Equal(t, entities.LangEN, lang)

	lang, err = ValidateLang("pt")
	require.NoError(t, err)
	assert.Equal(t, entities.LangPT, lang)

	_, err = ValidateLang("fr")
	assert.Error(t, err)
}
