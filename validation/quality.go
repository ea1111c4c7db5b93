package validation

import (
	"github.com/oroya/vademecum-api/compendium/entities"
	"github.com/oroya/vademecum-api/logging"
	"github.com/oroya/vademecum-api/snapshot"
)

// DataQualityReport summarizes soft data issues found in one build cycle.
// Nothing here is fatal; the report exists so authored-content gaps show up
// in the logs instead of silently shipping.
type DataQualityReport struct {
	ProceduresWithoutDrugRefs    int
	ProceduresWithoutDrugRefsIDs []string
	DrugsWithoutDoseRules        int
	DrugsWithoutDoseRulesIDs     []string
	DanglingDrugRefs             int
	DanglingDrugRefIDs           []string
	ProceduresWithoutSpecialty   int
}

const maxReportedIDs = 10

// ReportDataQuality inspects a full payload after merge and enrichment.
func ReportDataQuality(payload *snapshot.FullPayload) *DataQualityReport {
	report := &DataQualityReport{
		ProceduresWithoutDrugRefsIDs: []string{},
		DrugsWithoutDoseRulesIDs:     []string{},
		DanglingDrugRefIDs:           []string{},
	}

	knownDrugs := make(map[string]bool, len(payload.Drugs))
	for _, d := range payload.Drugs {
		if len(d.DoseRules) == 0 {
			report.DrugsWithoutDoseRules++
			if len(report.DrugsWithoutDoseRulesIDs) < maxReportedIDs {
				report.DrugsWithoutDoseRulesIDs = append(report.DrugsWithoutDoseRulesIDs, d.ID)
			}
		}
		knownDrugs[d.ID] = true
	}

	for _, p := range payload.Procedures {
		if p.Specialty == "" {
			report.ProceduresWithoutSpecialty++
		}

		quick := p.Quick[entities.Primary]
		if len(quick.Drugs) == 0 {
			report.ProceduresWithoutDrugRefs++
			if len(report.ProceduresWithoutDrugRefsIDs) < maxReportedIDs {
				report.ProceduresWithoutDrugRefsIDs = append(report.ProceduresWithoutDrugRefsIDs, p.ID)
			}
		}
		for _, ref := range quick.Drugs {
			if !knownDrugs[ref.DrugID] {
				report.DanglingDrugRefs++
				if len(report.DanglingDrugRefIDs) < maxReportedIDs {
					report.DanglingDrugRefIDs = append(report.DanglingDrugRefIDs, p.ID+"->"+ref.DrugID)
				}
			}
		}
	}

	return report
}

// Log writes every non-zero finding at Warn level.
func (r *DataQualityReport) Log() {
	if r.ProceduresWithoutDrugRefs > 0 {
		logging.Warn("Procedures without drug references",
			"count", r.ProceduresWithoutDrugRefs,
			"ids", r.ProceduresWithoutDrugRefsIDs,
		)
	}
	if r.DrugsWithoutDoseRules > 0 {
		logging.Warn("Drugs without dose rules",
			"count", r.DrugsWithoutDoseRules,
			"ids", r.DrugsWithoutDoseRulesIDs,
		)
	}
	if r.DanglingDrugRefs > 0 {
		logging.Warn("Drug references to unknown drugs",
			"count", r.DanglingDrugRefs,
			"refs", r.DanglingDrugRefIDs,
		)
	}
	if r.ProceduresWithoutSpecialty > 0 {
		logging.Warn("Procedures without a specialty", "count", r.ProceduresWithoutSpecialty)
	}
}
