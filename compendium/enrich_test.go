package compendium

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oroya/vademecum-api/compendium/entities"
)

func procedureWithQuick(id string, quick entities.QuickContent) entities.Procedure {
	return NormalizeProcedure(entities.Procedure{
		ID:     id,
		Titles: entities.Localized[string]{entities.LangES: id},
		Quick:  entities.Localized[entities.QuickContent]{entities.LangES: quick},
	})
}

func refKeys(refs []entities.DrugRef) []string {
	keys := make([]string, 0, len(refs))
	for _, r := range refs {
		keys = append(keys, r.DrugID+"/"+r.IndicationTag)
	}
	return keys
}

func TestEnrichInfersMaintenanceFromIndicativeDrug(t *testing.T) {
	p := procedureWithQuick("laparotomia", entities.QuickContent{
		Drugs: []entities.DrugRef{{DrugID: "rocuronio", IndicationTag: "intubation"}},
	})

	out := EnrichProcedures([]entities.Procedure{p})

	refs := out[0].Quick[entities.LangES].Drugs
	assert.Contains(t, refKeys(refs), "sevoflurano/maintenance")
	// Existing references stay first.
	assert.Equal(t, "rocuronio", refs[0].DrugID)
}

func TestEnrichInfersMaintenanceFromIntraopText(t *testing.T) {
	p := procedureWithQuick("tiroidectomia", entities.QuickContent{
		Intraop: []string{"Anestesia general con intubación orotraqueal"},
	})

	out := EnrichProcedures([]entities.Procedure{p})

	refs := out[0].Quick[entities.LangES].Drugs
	assert.Contains(t, refKeys(refs), "sevoflurano/maintenance")
}

func TestEnrichTIVAAddsPropofolReference(t *testing.T) {
	p := procedureWithQuick("neurocirugia-electiva", entities.QuickContent{
		Intraop: []string{"mantenimiento con TIVA y monitorización BIS"},
	})

	out := EnrichProcedures([]entities.Procedure{p})

	keys := refKeys(out[0].Quick[entities.LangES].Drugs)
	assert.Contains(t, keys, "sevoflurano/maintenance")
	assert.Contains(t, keys, "propofol/tiva")
}

func TestEnrichSkipsMaintenanceWhenAlreadyTagged(t *testing.T) {
	p := procedureWithQuick("laparotomia", entities.QuickContent{
		Drugs: []entities.DrugRef{
			{DrugID: "desflurano", IndicationTag: "maintenance"},
		},
	})

	out := EnrichProcedures([]entities.Procedure{p})

	keys := refKeys(out[0].Quick[entities.LangES].Drugs)
	assert.Contains(t, keys, "desflurano/maintenance")
	assert.NotContains(t, keys, "sevoflurano/maintenance")
}

func TestEnrichAppliesCuratedPlan(t *testing.T) {
	p := procedureWithQuick("cesarea", entities.QuickContent{})

	out := EnrichProcedures([]entities.Procedure{p})

	keys := refKeys(out[0].Quick[entities.LangES].Drugs)
	assert.Contains(t, keys, "bupivacaina-hiperbara/espinal")
	assert.Contains(t, keys, "fenilefrina/hipotension")
	assert.Contains(t, keys, "oxitocina/uterotonico")
	// Neuraxial plan, no general-anesthesia inference.
	assert.NotContains(t, keys, "sevoflurano/maintenance")
}

func TestEnrichDeduplicatesFirstWins(t *testing.T) {
	p := procedureWithQuick("protesis-total-cadera", entities.QuickContent{
		Drugs: []entities.DrugRef{
			{DrugID: "propofol", IndicationTag: "induction"},
		},
	})

	out := EnrichProcedures([]entities.Procedure{p})

	refs := out[0].Quick[entities.LangES].Drugs
	count := 0
	for _, r := range refs {
		if r.DrugID == "propofol" && r.IndicationTag == "induction" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "propofol", refs[0].DrugID)
}

func TestEnrichProceduresIdempotent(t *testing.T) {
	p := procedureWithQuick("colecistectomia-laparoscopica", entities.QuickContent{
		Intraop: []string{"anestesia general, neumoperitoneo"},
		Drugs:   []entities.DrugRef{{DrugID: "fentanilo", IndicationTag: "analgesia"}},
	})

	once := EnrichProcedures([]entities.Procedure{p})
	twice := EnrichProcedures(once)

	assert.Equal(t, once, twice)
}

func TestEnrichAppliesPerLanguageVariant(t *testing.T) {
	p := NormalizeProcedure(entities.Procedure{
		ID:     "gastrectomia",
		Titles: entities.Localized[string]{entities.LangES: "Gastrectomía"},
		Quick: entities.Localized[entities.QuickContent]{
			entities.LangES: {Intraop: []string{"anestesia regional"}},
			entities.LangEN: {Intraop: []string{"general anesthesia with ETT"}},
		},
	})

	out := EnrichProcedures([]entities.Procedure{p})

	assert.NotContains(t, refKeys(out[0].Quick[entities.LangES].Drugs), "sevoflurano/maintenance")
	assert.Contains(t, refKeys(out[0].Quick[entities.LangEN].Drugs), "sevoflurano/maintenance")
}

func TestEnrichDrugsAddsSupplementalRules(t *testing.T) {
	d := NormalizeDrug(entities.Drug{
		ID:   "ondansetron",
		Name: entities.Localized[string]{entities.LangES: "Ondansetrón"},
	})

	out := EnrichDrugs([]entities.Drug{d})

	require.Len(t, out[0].DoseRules, 1)
	assert.Equal(t, "profilaxis-nvpo", out[0].DoseRules[0].IndicationTag)
	assert.Equal(t, 4.0, *out[0].DoseRules[0].MaxMg)
}

func TestEnrichDrugsSkipsPresentIndications(t *testing.T) {
	d := NormalizeDrug(entities.Drug{
		ID:   "propofol",
		Name: entities.Localized[string]{entities.LangES: "Propofol"},
		DoseRules: []entities.DoseRule{
			{IndicationTag: "tiva", Route: "iv", MgPerKg: scalar(0.15), DoseScalar: entities.ScalarLBW},
		},
	})

	out := EnrichDrugs([]entities.Drug{d})

	require.Len(t, out[0].DoseRules, 1)
	assert.Equal(t, 0.15, *out[0].DoseRules[0].MgPerKg)
}

func TestEnrichDrugsUntouchedWithoutCuratedRules(t *testing.T) {
	d := NormalizeDrug(entities.Drug{
		ID:   "fentanilo",
		Name: entities.Localized[string]{entities.LangES: "Fentanilo"},
	})

	out := EnrichDrugs([]entities.Drug{d})

	assert.Equal(t, d, out[0])
}
