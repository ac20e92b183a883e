package utils

import (
	"regexp"
	"strings"
)

// Citizens type document names free-form; services declare them as canonical
// snake_case keys. The alias table folds common phrasings onto the canonical
// key after basic normalization.
var documentAliases = map[string]string{
	"id_proof":            "identity_proof",
	"photo_id":            "identity_proof",
	"identity_card":       "identity_proof",
	"national_id":         "identity_proof",
	"residence_proof":     "address_proof",
	"proof_of_address":    "address_proof",
	"proof_of_residence":  "address_proof",
	"utility_bill":        "address_proof",
	"dob_proof":           "birth_certificate",
	"proof_of_birth":      "birth_certificate",
	"driving_license":     "old_license",
	"existing_license":    "old_license",
	"insurance_policy":    "insurance_certificate",
	"vehicle_insurance":   "insurance_certificate",
	"sale_agreement":      "sale_deed",
	"ownership_agreement": "sale_deed",
}

var nonWordRunsPattern = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeDocumentName reduces a citizen-entered document name to the
// canonical key used in service configuration: lowercase snake_case with
// known aliases folded in. "Photo ID" and "identity_proof" normalize to the
// same key.
func NormalizeDocumentName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = nonWordRunsPattern.ReplaceAllString(normalized, "_")
	normalized = strings.Trim(normalized, "_")

	if canonical, ok := documentAliases[normalized]; ok {
		return canonical
	}
	return normalized
}
