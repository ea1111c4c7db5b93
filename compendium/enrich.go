package compendium

import (
	"github.com/oroya/vademecum-api/compendium/entities"
	"github.com/oroya/vademecum-api/metrics"
)

// Enrichment rule engine. Runs on normalized, merged entities before they
// are cached. Two procedure rules per language variant (general-anesthesia
// inference and curated procedure drug plans) and one drug rule
// (supplemental dose rules). Deterministic: identical input yields
// byte-identical output, so cached snapshots diff cleanly.

const (
	tagMaintenance = "maintenance"
	tagTIVA        = "tiva"
	tagInduction   = "induction"
	tagIntubation  = "intubation"
)

// Drug ids whose presence on a procedure implies general anesthesia.
var gaIndicativeDrugs = map[string]bool{
	"propofol":       true,
	"etomidate":      true,
	"sevoflurano":    true,
	"desflurano":     true,
	"rocuronio":      true,
	"succinilcolina": true,
	"remifentanilo":  true,
}

// Canonical inferred references.
var (
	inhalationalMaintenanceRef = entities.DrugRef{DrugID: "sevoflurano", IndicationTag: tagMaintenance}
	tivaMaintenanceRef         = entities.DrugRef{DrugID: "propofol", IndicationTag: tagTIVA}
)

// curatedProcedurePlans maps specific procedure ids to drug references that
// are always implied for that procedure, appended after the inference rule.
var curatedProcedurePlans = map[string][]entities.DrugRef{
	"protesis-total-cadera": {
		{DrugID: "propofol", IndicationTag: tagInduction},
		{DrugID: "rocuronio", IndicationTag: tagIntubation},
		{DrugID: "sevoflurano", IndicationTag: tagMaintenance},
		{DrugID: "acido-tranexamico", IndicationTag: "profilaxis-sangrado"},
	},
	"cesarea": {
		{DrugID: "bupivacaina-hiperbara", IndicationTag: "espinal"},
		{DrugID: "fenilefrina", IndicationTag: "hipotension"},
		{DrugID: "oxitocina", IndicationTag: "uterotonico"},
	},
	"colecistectomia-laparoscopica": {
		{DrugID: "propofol", IndicationTag: tagInduction},
		{DrugID: "rocuronio", IndicationTag: tagIntubation},
		{DrugID: "ondansetron", IndicationTag: "profilaxis-nvpo"},
	},
}

// supplementalDoseRules adds curated dosing lines per drug id. A curated
// rule is skipped when the drug already carries a rule for that indication
// tag: curated data never overrides authored dosing.
var supplementalDoseRules = map[string][]entities.DoseRule{
	"propofol": {
		{IndicationTag: tagTIVA, Route: "iv", MgPerKg: scalar(0.1), Notes: "perfusion, mg/kg/min titulada a efecto", DoseScalar: entities.ScalarTitrate},
	},
	"ondansetron": {
		{IndicationTag: "profilaxis-nvpo", Route: "iv", MgPerKg: scalar(0.1), MaxMg: scalar(4), DoseScalar: entities.ScalarTBW},
	},
	"acido-tranexamico": {
		{IndicationTag: "profilaxis-sangrado", Route: "iv", MgPerKg: scalar(10), MaxMg: scalar(1000), DoseScalar: entities.ScalarIBW},
	},
}

func scalar(v float64) *float64 { return &v }

// hasGAIndicativeDrug reports whether any existing reference names a drug
// from the GA-indicative set.
func hasGAIndicativeDrug(refs []entities.DrugRef) bool {
	for _, ref := range refs {
		if gaIndicativeDrugs[ref.DrugID] {
			return true
		}
	}
	return false
}

func hasIndicationTag(refs []entities.DrugRef, tag string) bool {
	for _, ref := range refs {
		if ref.IndicationTag == tag {
			return true
		}
	}
	return false
}

func hasDrugOrTag(refs []entities.DrugRef, drugID, tag string) bool {
	for _, ref := range refs {
		if ref.DrugID == drugID || ref.IndicationTag == tag {
			return true
		}
	}
	return false
}

// dedupeDrugRefs drops references whose (drug_id, indication_tag) composite
// key has already been seen, preserving insertion order.
func dedupeDrugRefs(refs []entities.DrugRef) []entities.DrugRef {
	seen := make(map[string]bool, len(refs))
	out := make([]entities.DrugRef, 0, len(refs))
	for _, ref := range refs {
		key := ref.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ref)
	}
	return out
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// enrichQuick applies both procedure rules to one language variant.
func enrichQuick(p entities.Procedure, q entities.QuickContent) entities.QuickContent {
	refs := q.Drugs

	// Rule 1: general-anesthesia inference. Existing references come
	// first, inferred references after.
	tiva := hasTag(p.Tags, tagTIVA) || matchesTIVA(q.Intraop)
	if hasGAIndicativeDrug(refs) || matchesGeneralAnesthesia(q.Intraop) || tiva {
		if !hasIndicationTag(refs, tagMaintenance) {
			refs = append(refs, inhalationalMaintenanceRef)
		}
		if tiva && !hasDrugOrTag(refs, tivaMaintenanceRef.DrugID, tagTIVA) {
			refs = append(refs, tivaMaintenanceRef)
		}
	}

	// Rule 2: curated procedure drug plan.
	if plan, ok := curatedProcedurePlans[p.ID]; ok {
		refs = append(refs, plan...)
	}

	q.Drugs = dedupeDrugRefs(refs)
	return q
}

// EnrichProcedures applies the rule engine to every language variant of
// every procedure. Running it on its own output is a no-op.
func EnrichProcedures(procedures []entities.Procedure) []entities.Procedure {
	out := make([]entities.Procedure, 0, len(procedures))
	for _, p := range procedures {
		quick := make(entities.Localized[entities.QuickContent], len(p.Quick))
		for _, lang := range entities.Languages {
			enriched := enrichQuick(p, p.Quick[lang])
			if added := len(enriched.Drugs) - len(p.Quick[lang].Drugs); added > 0 {
				metrics.EnrichmentAdditionsTotal.WithLabelValues("drug_ref").Add(float64(added))
			}
			quick[lang] = enriched
		}
		p.Quick = quick
		out = append(out, p)
	}
	return out
}

// EnrichDrugs appends curated supplemental dose rules to each drug,
// skipping indication tags the drug already carries.
func EnrichDrugs(drugs []entities.Drug) []entities.Drug {
	out := make([]entities.Drug, 0, len(drugs))
	for _, d := range drugs {
		supplemental, ok := supplementalDoseRules[d.ID]
		if !ok {
			out = append(out, d)
			continue
		}

		present := make(map[string]bool, len(d.DoseRules))
		for _, rule := range d.DoseRules {
			present[rule.IndicationTag] = true
		}

		rules := make([]entities.DoseRule, len(d.DoseRules), len(d.DoseRules)+len(supplemental))
		copy(rules, d.DoseRules)
		for _, rule := range supplemental {
			if present[rule.IndicationTag] {
				continue
			}
			rules = append(rules, rule)
			metrics.EnrichmentAdditionsTotal.WithLabelValues("dose_rule").Inc()
		}
		d.DoseRules = rules
		out = append(out, d)
	}
	return out
}
