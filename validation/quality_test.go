package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oroya/vademecum-api/compendium/entities"
	"github.com/oroya/vademecum-api/snapshot"
)

func TestReportDataQualityCleanPayload(t *testing.T) {
	payload := &snapshot.FullPayload{
		Procedures: []entities.Procedure{
			{
				ID:        "cesarea",
				Specialty: "obstetricia",
				Quick: entities.Localized[entities.QuickContent]{
					entities.LangES: {Drugs: []entities.DrugRef{{DrugID: "propofol", IndicationTag: "induction"}}},
				},
			},
		},
		Drugs: []entities.Drug{
			{ID: "propofol", DoseRules: []entities.DoseRule{{IndicationTag: "induction"}}},
		},
	}

	report := ReportDataQuality(payload)

	assert.Zero(t, report.ProceduresWithoutDrugRefs)
	assert.Zero(t, report.DrugsWithoutDoseRules)
	assert.Zero(t, report.DanglingDrugRefs)
	assert.Zero(t, report.ProceduresWithoutSpecialty)
}

func TestReportDataQualityFindings(t *testing.T) {
	payload := &snapshot.FullPayload{
		Procedures: []entities.Procedure{
			{
				ID: "cesarea",
				Quick: entities.Localized[entities.QuickContent]{
					entities.LangES: {Drugs: []entities.DrugRef{{DrugID: "fantasma", IndicationTag: "induction"}}},
				},
			},
			{ID: "apendicectomia", Specialty: "general"},
		},
		Drugs: []entities.Drug{
			{ID: "propofol"},
		},
	}

	report := ReportDataQuality(payload)

	assert.Equal(t, 1, report.ProceduresWithoutDrugRefs)
	assert.Equal(t, []string{"apendicectomia"}, report.ProceduresWithoutDrugRefsIDs)

	assert.Equal(t, 1, report.DrugsWithoutDoseRules)
	assert.Equal(t, []string{"propofol"}, report.DrugsWithoutDoseRulesIDs)

	assert.Equal(t, 1, report.DanglingDrugRefs)
	require.Len(t, report.DanglingDrugRefIDs, 1)
	assert.Equal(t, "cesarea->fantasma", report.DanglingDrugRefIDs[0])

	assert.Equal(t, 1, report.ProceduresWithoutSpecialty)
}

func TestReportDataQualityCapsReportedIDs(t *testing.T) {
	payload := &snapshot.FullPayload{}
	for i := 0; i < maxReportedIDs+5; i++ {
		payload.Drugs = append(payload.Drugs, entities.Drug{ID: string(rune('a' + i))})
	}

	report := ReportDataQuality(payload)

	assert.Equal(t, maxReportedIDs+5, report.DrugsWithoutDoseRules)
	assert.Len(t, report.DrugsWithoutDoseRulesIDs, maxReportedIDs)
}
