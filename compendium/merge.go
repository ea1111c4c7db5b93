package compendium

import "github.com/oroya/vademecum-api/compendium/entities"

// Fallback merge: fill only the missing fields of an authoritative remote
// entity from its bundled counterpart, never overwriting present data.
// Scalars adopt the fallback when empty, lists only when the target list is
// empty (non-empty lists are never extended), and nested records recurse
// key-wise. All merge functions are idempotent.

func mergeString(target, fallback string) string {
	if target == "" {
		return fallback
	}
	return target
}

func mergeStrings(target, fallback []string) []string {
	if len(target) == 0 && len(fallback) > 0 {
		return fallback
	}
	return target
}

func mergeLocalized[T any](target, fallback entities.Localized[T], merge func(T, T) T) entities.Localized[T] {
	out := make(entities.Localized[T], len(entities.Languages))
	for _, lang := range entities.Languages {
		out[lang] = merge(target[lang], fallback[lang])
	}
	return out
}

func mergeQuick(target, fallback entities.QuickContent) entities.QuickContent {
	target.Preop = mergeStrings(target.Preop, fallback.Preop)
	target.Intraop = mergeStrings(target.Intraop, fallback.Intraop)
	target.Postop = mergeStrings(target.Postop, fallback.Postop)
	target.RedFlags = mergeStrings(target.RedFlags, fallback.RedFlags)
	if len(target.Drugs) == 0 && len(fallback.Drugs) > 0 {
		target.Drugs = fallback.Drugs
	}
	return target
}

func mergeDeep(target, fallback entities.DeepContent) entities.DeepContent {
	target.ClinicalNotes = mergeString(target.ClinicalNotes, fallback.ClinicalNotes)
	target.Pitfalls = mergeStrings(target.Pitfalls, fallback.Pitfalls)
	if len(target.References) == 0 && len(fallback.References) > 0 {
		target.References = fallback.References
	}
	return target
}

func mergeProvenance(target, fallback entities.Provenance) entities.Provenance {
	target.Organization = mergeString(target.Organization, fallback.Organization)
	target.Version = mergeString(target.Version, fallback.Version)
	target.Source = mergeString(target.Source, fallback.Source)
	target.EvidenceGrade = mergeString(target.EvidenceGrade, fallback.EvidenceGrade)
	target.PublishedAt = mergeString(target.PublishedAt, fallback.PublishedAt)
	target.ReviewedAt = mergeString(target.ReviewedAt, fallback.ReviewedAt)
	return target
}

func mergeMissingProcedure(target, fallback entities.Procedure) entities.Procedure {
	target.Specialty = mergeString(target.Specialty, fallback.Specialty)
	target.Specialties = mergeStrings(target.Specialties, fallback.Specialties)
	target.Titles = mergeLocalized(target.Titles, fallback.Titles, mergeString)
	target.Synonyms = mergeLocalized(target.Synonyms, fallback.Synonyms, mergeStrings)
	target.Quick = mergeLocalized(target.Quick, fallback.Quick, mergeQuick)
	target.Deep = mergeLocalized(target.Deep, fallback.Deep, mergeDeep)
	target.Tags = mergeStrings(target.Tags, fallback.Tags)
	return target
}

func mergeMissingDrug(target, fallback entities.Drug) entities.Drug {
	target.Name = mergeLocalized(target.Name, fallback.Name, mergeString)
	if len(target.DoseRules) == 0 && len(fallback.DoseRules) > 0 {
		target.DoseRules = fallback.DoseRules
	}
	if len(target.Concentrations) == 0 && len(fallback.Concentrations) > 0 {
		target.Concentrations = fallback.Concentrations
	}
	target.Presentations = mergeStrings(target.Presentations, fallback.Presentations)
	target.Dilutions = mergeStrings(target.Dilutions, fallback.Dilutions)
	target.Contraindications = mergeLocalized(target.Contraindications, fallback.Contraindications, mergeString)
	target.RenalHepaticNotes = mergeLocalized(target.RenalHepaticNotes, fallback.RenalHepaticNotes, mergeString)
	target.Tags = mergeStrings(target.Tags, fallback.Tags)
	return target
}

func mergeMissingGuideline(target, fallback entities.Guideline) entities.Guideline {
	target.Category = mergeString(target.Category, fallback.Category)
	target.Titles = mergeLocalized(target.Titles, fallback.Titles, mergeString)
	target.Items = mergeLocalized(target.Items, fallback.Items, mergeStrings)
	if len(target.References) == 0 && len(fallback.References) > 0 {
		target.References = fallback.References
	}
	target.Tags = mergeStrings(target.Tags, fallback.Tags)
	target.Provenance = mergeProvenance(target.Provenance, fallback.Provenance)
	return target
}

func mergeMissingProtocol(target, fallback entities.Protocol) entities.Protocol {
	target.Category = mergeString(target.Category, fallback.Category)
	target.Titles = mergeLocalized(target.Titles, fallback.Titles, mergeString)
	target.Steps = mergeLocalized(target.Steps, fallback.Steps, mergeStrings)
	if len(target.References) == 0 && len(fallback.References) > 0 {
		target.References = fallback.References
	}
	target.Tags = mergeStrings(target.Tags, fallback.Tags)
	target.Provenance = mergeProvenance(target.Provenance, fallback.Provenance)
	return target
}

func mergeMissingRegionalBlock(target, fallback entities.RegionalBlock) entities.RegionalBlock {
	target.Region = mergeString(target.Region, fallback.Region)
	target.Titles = mergeLocalized(target.Titles, fallback.Titles, mergeString)
	target.Indications = mergeLocalized(target.Indications, fallback.Indications, mergeStrings)
	target.Contraindications = mergeLocalized(target.Contraindications, fallback.Contraindications, mergeStrings)
	target.Technique = mergeLocalized(target.Technique, fallback.Technique, mergeString)
	target.DrugNotes = mergeLocalized(target.DrugNotes, fallback.DrugNotes, mergeString)
	target.Tags = mergeStrings(target.Tags, fallback.Tags)
	return target
}

// mergeFallbackByID joins normalized remote entities against an id-indexed
// bundle. Remote entities without a bundled counterpart pass through
// unchanged; the output id set always equals the remote id set.
func mergeFallbackByID[E any](
	remote []E,
	bundle []E,
	id func(E) string,
	merge func(target, fallback E) E,
	normalize func(E) E,
) []E {
	if len(bundle) == 0 {
		return remote
	}

	index := make(map[string]E, len(bundle))
	for _, b := range bundle {
		index[id(b)] = b
	}

	out := make([]E, 0, len(remote))
	for _, r := range remote {
		if b, ok := index[id(r)]; ok {
			out = append(out, normalize(merge(r, b)))
		} else {
			out = append(out, r)
		}
	}
	return out
}

// MergeProcedures merges bundled detail into the remote procedure set.
func MergeProcedures(remote, bundle []entities.Procedure) []entities.Procedure {
	return mergeFallbackByID(remote, bundle,
		func(p entities.Procedure) string { return p.ID },
		mergeMissingProcedure, NormalizeProcedure)
}

// MergeDrugs merges bundled detail into the remote drug set.
func MergeDrugs(remote, bundle []entities.Drug) []entities.Drug {
	return mergeFallbackByID(remote, bundle,
		func(d entities.Drug) string { return d.ID },
		mergeMissingDrug, NormalizeDrug)
}

// MergeGuidelines merges bundled detail into the remote guideline set.
func MergeGuidelines(remote, bundle []entities.Guideline) []entities.Guideline {
	return mergeFallbackByID(remote, bundle,
		func(g entities.Guideline) string { return g.ID },
		mergeMissingGuideline, NormalizeGuideline)
}

// MergeProtocols merges bundled detail into the remote protocol set.
func MergeProtocols(remote, bundle []entities.Protocol) []entities.Protocol {
	return mergeFallbackByID(remote, bundle,
		func(p entities.Protocol) string { return p.ID },
		mergeMissingProtocol, NormalizeProtocol)
}

// MergeRegionalBlocks merges bundled detail into the remote block set.
func MergeRegionalBlocks(remote, bundle []entities.RegionalBlock) []entities.RegionalBlock {
	return mergeFallbackByID(remote, bundle,
		func(b entities.RegionalBlock) string { return b.ID },
		mergeMissingRegionalBlock, NormalizeRegionalBlock)
}
