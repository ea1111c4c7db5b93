// Package entities defines the canonical knowledge-base records served by
// the vademecum API: surgical procedures, drugs, practice guidelines,
// protocols and regional-anesthesia blocks, plus the raw row shapes those
// records are normalized from.
package entities

// DrugRef links a procedure to a drug for a given clinical indication.
// Its composite identity is (DrugID, IndicationTag).
type DrugRef struct {
	DrugID        string `json:"drug_id"`
	IndicationTag string `json:"indication_tag"`
}

// Key returns the composite identity used for deduplication.
func (r DrugRef) Key() string {
	return r.DrugID + "\x00" + r.IndicationTag
}

// Reference is a literature or guideline citation.
type Reference struct {
	Source string `json:"source"`
	Year   int    `json:"year,omitempty"`
	Note   string `json:"note,omitempty"`
}

// QuickContent is the at-the-bedside view of a procedure.
type QuickContent struct {
	Preop    []string  `json:"preop"`
	Intraop  []string  `json:"intraop"`
	Postop   []string  `json:"postop"`
	RedFlags []string  `json:"red_flags"`
	Drugs    []DrugRef `json:"drugs"`
}

// DeepContent is the long-form view of a procedure.
type DeepContent struct {
	ClinicalNotes string      `json:"clinical_notes"`
	Pitfalls      []string    `json:"pitfalls"`
	References    []Reference `json:"references"`
}

// Procedure is a surgical procedure record.
type Procedure struct {
	ID          string                  `json:"id"`
	Specialty   string                  `json:"specialty"`
	Specialties []string                `json:"specialties"`
	Titles      Localized[string]       `json:"titles"`
	Synonyms    Localized[[]string]     `json:"synonyms"`
	Quick       Localized[QuickContent] `json:"quick"`
	Deep        Localized[DeepContent]  `json:"deep"`
	Tags        []string                `json:"tags"`
	IsPro       bool                    `json:"is_pro"`
}

// DoseScalar selects the body-weight basis for a weight-based dose.
type DoseScalar string

const (
	ScalarTBW     DoseScalar = "TBW"
	ScalarIBW     DoseScalar = "IBW"
	ScalarLBW     DoseScalar = "LBW"
	ScalarAdjBW   DoseScalar = "AdjBW"
	ScalarTitrate DoseScalar = "TITRATE"
)

// DoseRule is one authored dosing line for a drug and indication.
type DoseRule struct {
	IndicationTag string     `json:"indication_tag"`
	Route         string     `json:"route"`
	MgPerKg       *float64   `json:"mg_per_kg"`
	MaxMg         *float64   `json:"max_mg"`
	Notes         string     `json:"notes"`
	UnitOverride  string     `json:"unit_override,omitempty"`
	DoseScalar    DoseScalar `json:"dose_scalar"`
}

// Concentration is a commonly used preparation of a drug.
type Concentration struct {
	Label   string   `json:"label"`
	MgPerMl *float64 `json:"mg_per_ml"`
}

// Drug is a perioperative drug record.
type Drug struct {
	ID                string            `json:"id"`
	Name              Localized[string] `json:"name"`
	DoseRules         []DoseRule        `json:"dose_rules"`
	Concentrations    []Concentration   `json:"concentrations"`
	Presentations     []string          `json:"presentations"`
	Dilutions         []string          `json:"dilutions"`
	Contraindications Localized[string] `json:"contraindications"`
	RenalHepaticNotes Localized[string] `json:"renal_hepatic_notes"`
	Tags              []string          `json:"tags"`
}

// Provenance records where a guideline or protocol came from.
type Provenance struct {
	Organization  string `json:"organization,omitempty"`
	Version       string `json:"version,omitempty"`
	Source        string `json:"source,omitempty"`
	EvidenceGrade string `json:"evidence_grade,omitempty"`
	PublishedAt   string `json:"published_at,omitempty"`
	ReviewedAt    string `json:"reviewed_at,omitempty"`
}

// Guideline is a practice guideline with localized recommendation items.
type Guideline struct {
	ID         string              `json:"id"`
	Category   string              `json:"category"`
	Titles     Localized[string]   `json:"titles"`
	Items      Localized[[]string] `json:"items"`
	References []Reference         `json:"references"`
	Tags       []string            `json:"tags"`
	Provenance Provenance          `json:"provenance"`
}

// Protocol is an ordered clinical protocol with localized steps.
type Protocol struct {
	ID         string              `json:"id"`
	Category   string              `json:"category"`
	Titles     Localized[string]   `json:"titles"`
	Steps      Localized[[]string] `json:"steps"`
	References []Reference         `json:"references"`
	Tags       []string            `json:"tags"`
	Provenance Provenance          `json:"provenance"`
}

// RegionalBlock is a regional-anesthesia block record.
type RegionalBlock struct {
	ID                string              `json:"id"`
	Region            string              `json:"region"`
	Titles            Localized[string]   `json:"titles"`
	Indications       Localized[[]string] `json:"indications"`
	Contraindications Localized[[]string] `json:"contraindications"`
	Technique         Localized[string]   `json:"technique"`
	DrugNotes         Localized[string]   `json:"drug_notes"`
	Tags              []string            `json:"tags"`
}

// Specialty is the listing metadata for a surgical specialty.
type Specialty struct {
	ID         string            `json:"id"`
	Name       Localized[string] `json:"name"`
	SortWeight int               `json:"sort_weight"`
}

// ProcedureIndex is the lightweight listing projection of a Procedure.
// It deliberately excludes the quick and deep content bodies.
type ProcedureIndex struct {
	ID          string              `json:"id"`
	Specialty   string              `json:"specialty"`
	Specialties []string            `json:"specialties"`
	Titles      Localized[string]   `json:"titles"`
	Synonyms    Localized[[]string] `json:"synonyms"`
	Tags        []string            `json:"tags"`
	IsPro       bool                `json:"is_pro"`
}
