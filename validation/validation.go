// Package validation provides schema validation for knowledge-base records
// and input validation for the HTTP surface. Record validation is used to
// drop individual invalid records with a diagnostic while leaving sibling
// records untouched.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oroya/vademecum-api/compendium/entities"
)

const (
	maxIDLength    = 128
	maxTitleLength = 300
)

// Entity ids are lowercase slugs.
var idRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

func validateID(id, kind string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("missing %s id", kind)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%s id too long: %d characters", kind, len(id))
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("invalid %s id: %q", kind, id)
	}
	return nil
}

func validateTitle(title, kind, id string) error {
	if len(title) > maxTitleLength {
		return fmt.Errorf("%s title too long for %s: %d characters", kind, id, len(title))
	}
	return nil
}

// ValidateProcedure checks a normalized procedure record.
func ValidateProcedure(p *entities.Procedure) error {
	if p == nil {
		return fmt.Errorf("procedure is nil")
	}
	if err := validateID(p.ID, "procedure"); err != nil {
		return err
	}
	if strings.TrimSpace(p.Titles[entities.Primary]) == "" {
		return fmt.Errorf("empty primary title for procedure %s", p.ID)
	}
	for _, title := range p.Titles {
		if err := validateTitle(title, "procedure", p.ID); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDrug checks a normalized drug record.
func ValidateDrug(d *entities.Drug) error {
	if d == nil {
		return fmt.Errorf("drug is nil")
	}
	if err := validateID(d.ID, "drug"); err != nil {
		return err
	}
	if strings.TrimSpace(d.Name[entities.Primary]) == "" {
		return fmt.Errorf("empty primary name for drug %s", d.ID)
	}
	for _, rule := range d.DoseRules {
		if rule.MgPerKg != nil && *rule.MgPerKg < 0 {
			return fmt.Errorf("negative mg/kg dose on drug %s (%s)", d.ID, rule.IndicationTag)
		}
		if rule.MaxMg != nil && *rule.MaxMg < 0 {
			return fmt.Errorf("negative max dose on drug %s (%s)", d.ID, rule.IndicationTag)
		}
	}
	return nil
}

// ValidateGuideline checks a normalized guideline record.
func ValidateGuideline(g *entities.Guideline) error {
	if g == nil {
		return fmt.Errorf("guideline is nil")
	}
	if err := validateID(g.ID, "guideline"); err != nil {
		return err
	}
	if strings.TrimSpace(g.Titles[entities.Primary]) == "" {
		return fmt.Errorf("empty primary title for guideline %s", g.ID)
	}
	return nil
}

// ValidateProtocol checks a normalized protocol record.
func ValidateProtocol(p *entities.Protocol) error {
	if p == nil {
		return fmt.Errorf("protocol is nil")
	}
	if err := validateID(p.ID, "protocol"); err != nil {
		return err
	}
	if strings.TrimSpace(p.Titles[entities.Primary]) == "" {
		return fmt.Errorf("empty primary title for protocol %s", p.ID)
	}
	return nil
}

// ValidateRegionalBlock checks a normalized regional-block record.
func ValidateRegionalBlock(b *entities.RegionalBlock) error {
	if b == nil {
		return fmt.Errorf("block is nil")
	}
	if err := validateID(b.ID, "block"); err != nil {
		return err
	}
	if strings.TrimSpace(b.Titles[entities.Primary]) == "" {
		return fmt.Errorf("empty primary title for block %s", b.ID)
	}
	return nil
}

// ValidateSpecialty checks a normalized specialty record.
func ValidateSpecialty(s *entities.Specialty) error {
	if s == nil {
		return fmt.Errorf("specialty is nil")
	}
	if err := validateID(s.ID, "specialty"); err != nil {
		return err
	}
	if strings.TrimSpace(s.Name[entities.Primary]) == "" {
		return fmt.Errorf("empty primary name for specialty %s", s.ID)
	}
	return nil
}

// ValidateEntityID validates an id taken from a request path.
func ValidateEntityID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("id cannot be empty")
	}
	if len(input) != len(trimmed) {
		return "", fmt.Errorf("id contains surrounding whitespace")
	}
	if err := validateID(trimmed, "requested"); err != nil {
		return "", err
	}
	return trimmed, nil
}

// ValidateLang validates a ?lang= query parameter. An empty value selects
// the primary language.
func ValidateLang(input string) (entities.Lang, error) {
	if input == "" {
		return entities.Primary, nil
	}
	lang := entities.Lang(strings.ToLower(input))
	for _, supported := range entities.Languages {
		if lang == supported {
			return lang, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q", input)
}
