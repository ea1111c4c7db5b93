package compendium

import "github.com/oroya/vademecum-api/compendium/entities"

// Normalizers map heterogeneous raw records into one canonical shape per
// entity type. Every field gets an explicit default: missing arrays become
// empty slices, missing localized fields become complete per-language
// records, missing nested blocks become their structural empty value.
// All normalizers are pure and idempotent.

func emptyQuick() entities.QuickContent {
	return entities.QuickContent{
		Preop:    []string{},
		Intraop:  []string{},
		Postop:   []string{},
		RedFlags: []string{},
		Drugs:    []entities.DrugRef{},
	}
}

func fixQuick(q entities.QuickContent) entities.QuickContent {
	q.Preop = fixStrings(q.Preop)
	q.Intraop = fixStrings(q.Intraop)
	q.Postop = fixStrings(q.Postop)
	q.RedFlags = fixStrings(q.RedFlags)
	if q.Drugs == nil {
		q.Drugs = []entities.DrugRef{}
	}
	return q
}

func emptyDeep() entities.DeepContent {
	return entities.DeepContent{
		Pitfalls:   []string{},
		References: []entities.Reference{},
	}
}

func fixDeep(d entities.DeepContent) entities.DeepContent {
	d.Pitfalls = fixStrings(d.Pitfalls)
	if d.References == nil {
		d.References = []entities.Reference{}
	}
	return d
}

// NormalizeProcedure fills every missing field of a partial procedure with
// its canonical default.
func NormalizeProcedure(p entities.Procedure) entities.Procedure {
	p.Specialties = fixStrings(p.Specialties)
	if p.Specialty == "" && len(p.Specialties) > 0 {
		p.Specialty = p.Specialties[0]
	}
	if p.Specialty != "" && !containsString(p.Specialties, p.Specialty) {
		// Specialties stays a backward-compatible superset of Specialty.
		p.Specialties = append([]string{p.Specialty}, p.Specialties...)
	}
	p.Titles = completeLocalized(p.Titles, emptyString, fixString)
	p.Synonyms = completeLocalized(p.Synonyms, emptyStrings, fixStrings)
	p.Quick = completeLocalized(p.Quick, emptyQuick, fixQuick)
	p.Deep = completeLocalized(p.Deep, emptyDeep, fixDeep)
	p.Tags = fixStrings(p.Tags)
	return p
}

// ProcedureFromRow converts a remote row into a partial canonical procedure.
func ProcedureFromRow(row entities.ProcedureRow) entities.Procedure {
	return entities.Procedure{
		ID:          row.ID,
		Specialty:   row.Specialty,
		Specialties: row.Specialties,
		Titles:      ResolveLocalized(row.Titles, emptyString),
		Synonyms:    ResolveLocalized(row.Synonyms, emptyStrings),
		Quick:       ResolveLocalized(row.Quick, emptyQuick),
		Deep:        ResolveLocalized(row.Deep, emptyDeep),
		Tags:        row.Tags,
		IsPro:       row.IsPro,
	}
}

func fixDoseRules(rules []entities.DoseRule) []entities.DoseRule {
	if rules == nil {
		return []entities.DoseRule{}
	}
	for i := range rules {
		if rules[i].DoseScalar == "" {
			rules[i].DoseScalar = entities.ScalarTBW
		}
	}
	return rules
}

// NormalizeDrug fills every missing field of a partial drug with its
// canonical default. Dose rules without a scalar default to total body
// weight.
func NormalizeDrug(d entities.Drug) entities.Drug {
	d.Name = completeLocalized(d.Name, emptyString, fixString)
	d.DoseRules = fixDoseRules(d.DoseRules)
	if d.Concentrations == nil {
		d.Concentrations = []entities.Concentration{}
	}
	d.Presentations = fixStrings(d.Presentations)
	d.Dilutions = fixStrings(d.Dilutions)
	d.Contraindications = completeLocalized(d.Contraindications, emptyString, fixString)
	d.RenalHepaticNotes = completeLocalized(d.RenalHepaticNotes, emptyString, fixString)
	d.Tags = fixStrings(d.Tags)
	return d
}

// DrugFromRow converts a remote row into a partial canonical drug.
func DrugFromRow(row entities.DrugRow) entities.Drug {
	return entities.Drug{
		ID:                row.ID,
		Name:              ResolveLocalized(row.Name, emptyString),
		DoseRules:         row.DoseRules,
		Concentrations:    row.Concentrations,
		Presentations:     row.Presentations,
		Dilutions:         row.Dilutions,
		Contraindications: ResolveLocalized(row.Contraindications, emptyString),
		RenalHepaticNotes: ResolveLocalized(row.RenalHepaticNotes, emptyString),
		Tags:              row.Tags,
	}
}

func fixReferences(refs []entities.Reference) []entities.Reference {
	if refs == nil {
		return []entities.Reference{}
	}
	return refs
}

// NormalizeGuideline fills every missing field of a partial guideline.
func NormalizeGuideline(g entities.Guideline) entities.Guideline {
	g.Titles = completeLocalized(g.Titles, emptyString, fixString)
	g.Items = completeLocalized(g.Items, emptyStrings, fixStrings)
	g.References = fixReferences(g.References)
	g.Tags = fixStrings(g.Tags)
	return g
}

// GuidelineFromRow converts a remote row into a partial canonical guideline.
func GuidelineFromRow(row entities.GuidelineRow) entities.Guideline {
	return entities.Guideline{
		ID:         row.ID,
		Category:   row.Category,
		Titles:     ResolveLocalized(row.Titles, emptyString),
		Items:      ResolveLocalized(row.Items, emptyStrings),
		References: row.References,
		Tags:       row.Tags,
		Provenance: row.Provenance,
	}
}

// NormalizeProtocol fills every missing field of a partial protocol.
func NormalizeProtocol(p entities.Protocol) entities.Protocol {
	p.Titles = completeLocalized(p.Titles, emptyString, fixString)
	p.Steps = completeLocalized(p.Steps, emptyStrings, fixStrings)
	p.References = fixReferences(p.References)
	p.Tags = fixStrings(p.Tags)
	return p
}

// ProtocolFromRow converts a remote row into a partial canonical protocol.
func ProtocolFromRow(row entities.ProtocolRow) entities.Protocol {
	return entities.Protocol{
		ID:         row.ID,
		Category:   row.Category,
		Titles:     ResolveLocalized(row.Titles, emptyString),
		Steps:      ResolveLocalized(row.Steps, emptyStrings),
		References: row.References,
		Tags:       row.Tags,
		Provenance: row.Provenance,
	}
}

// NormalizeRegionalBlock fills every missing field of a partial block.
func NormalizeRegionalBlock(b entities.RegionalBlock) entities.RegionalBlock {
	b.Titles = completeLocalized(b.Titles, emptyString, fixString)
	b.Indications = completeLocalized(b.Indications, emptyStrings, fixStrings)
	b.Contraindications = completeLocalized(b.Contraindications, emptyStrings, fixStrings)
	b.Technique = completeLocalized(b.Technique, emptyString, fixString)
	b.DrugNotes = completeLocalized(b.DrugNotes, emptyString, fixString)
	b.Tags = fixStrings(b.Tags)
	return b
}

// RegionalBlockFromRow converts a remote row into a partial canonical block.
func RegionalBlockFromRow(row entities.RegionalBlockRow) entities.RegionalBlock {
	return entities.RegionalBlock{
		ID:                row.ID,
		Region:            row.Region,
		Titles:            ResolveLocalized(row.Titles, emptyString),
		Indications:       ResolveLocalized(row.Indications, emptyStrings),
		Contraindications: ResolveLocalized(row.Contraindications, emptyStrings),
		Technique:         ResolveLocalized(row.Technique, emptyString),
		DrugNotes:         ResolveLocalized(row.DrugNotes, emptyString),
		Tags:              row.Tags,
	}
}

// NormalizeSpecialty fills every missing field of a partial specialty.
func NormalizeSpecialty(s entities.Specialty) entities.Specialty {
	s.Name = completeLocalized(s.Name, emptyString, fixString)
	return s
}

// SpecialtyFromRow converts a remote row into a partial canonical specialty.
func SpecialtyFromRow(row entities.SpecialtyRow) entities.Specialty {
	return entities.Specialty{
		ID:         row.ID,
		Name:       ResolveLocalized(row.Name, emptyString),
		SortWeight: row.SortWeight,
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
