package entities

// Raw row shapes as returned by the remote store's query surface. Localized
// fields arrive either as per-language objects or bare primary-language
// values; RawLocalized absorbs both.

// ProcedureRow is the pre-normalization shape of a procedure record.
type ProcedureRow struct {
	ID          string                     `json:"id"`
	Specialty   string                     `json:"specialty"`
	Specialties []string                   `json:"specialties"`
	Titles      RawLocalized[string]       `json:"titles"`
	Synonyms    RawLocalized[[]string]     `json:"synonyms"`
	Quick       RawLocalized[QuickContent] `json:"quick"`
	Deep        RawLocalized[DeepContent]  `json:"deep"`
	Tags        []string                   `json:"tags"`
	IsPro       bool                       `json:"is_pro"`
}

// DrugRow is the pre-normalization shape of a drug record.
type DrugRow struct {
	ID                string               `json:"id"`
	Name              RawLocalized[string] `json:"name"`
	DoseRules         []DoseRule           `json:"dose_rules"`
	Concentrations    []Concentration      `json:"concentrations"`
	Presentations     []string             `json:"presentations"`
	Dilutions         []string             `json:"dilutions"`
	Contraindications RawLocalized[string] `json:"contraindications"`
	RenalHepaticNotes RawLocalized[string] `json:"renal_hepatic_notes"`
	Tags              []string             `json:"tags"`
}

// GuidelineRow is the pre-normalization shape of a guideline record.
type GuidelineRow struct {
	ID         string                 `json:"id"`
	Category   string                 `json:"category"`
	Titles     RawLocalized[string]   `json:"titles"`
	Items      RawLocalized[[]string] `json:"items"`
	References []Reference            `json:"references"`
	Tags       []string               `json:"tags"`
	Provenance Provenance             `json:"provenance"`
}

// ProtocolRow is the pre-normalization shape of a protocol record.
type ProtocolRow struct {
	ID         string                 `json:"id"`
	Category   string                 `json:"category"`
	Titles     RawLocalized[string]   `json:"titles"`
	Steps      RawLocalized[[]string] `json:"steps"`
	References []Reference            `json:"references"`
	Tags       []string               `json:"tags"`
	Provenance Provenance             `json:"provenance"`
}

// RegionalBlockRow is the pre-normalization shape of a block record.
type RegionalBlockRow struct {
	ID                string                 `json:"id"`
	Region            string                 `json:"region"`
	Titles            RawLocalized[string]   `json:"titles"`
	Indications       RawLocalized[[]string] `json:"indications"`
	Contraindications RawLocalized[[]string] `json:"contraindications"`
	Technique         RawLocalized[string]   `json:"technique"`
	DrugNotes         RawLocalized[string]   `json:"drug_notes"`
	Tags              []string               `json:"tags"`
}

// SpecialtyRow is the pre-normalization shape of a specialty record.
type SpecialtyRow struct {
	ID         string               `json:"id"`
	Name       RawLocalized[string] `json:"name"`
	SortWeight int                  `json:"sort_weight"`
}
