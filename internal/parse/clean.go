// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"regexp"
	"strings"

	"github.com/pdiddy/medscan/pkg/types"
)

// ivMedications are drugs dispensed as IV bags. A vial or injection form for
// one of these is normalized to "bag" so floor-stock picks count bags.
var ivMedications = []string{
	"cefazolin", "ceftriaxone", "ampicillin", "vancomycin", "piperacillin",
	"meropenem", "ertapenem", "ceftazidime", "cefepime", "gentamicin",
	"tobramycin", "azithromycin", "levofloxacin", "ciprofloxacin",
	"metronidazole", "normal saline", "lactated ringers", "dextrose",
	"sodium chloride", "potassium chloride", "magnesium sulfate",
}

var digitAdjacentO = regexp.MustCompile(`(\d)[Oo]|[Oo](\d)`)

// CleanStrength fixes common OCR misreads in a strength token: the letter O
// standing in for a zero next to digits, and "rng"/"rnL" for "mg"/"mL".
func CleanStrength(strength string) string {
	if strength == "" {
		return ""
	}
	s := strings.Join(strings.Fields(strength), " ")
	s = digitAdjacentO.ReplaceAllStringFunc(s, func(m string) string {
		return strings.Map(func(r rune) rune {
			if r == 'O' || r == 'o' {
				return '0'
			}
			return r
		}, m)
	})
	s = strings.ReplaceAll(s, "rng", "mg")
	s = strings.ReplaceAll(s, "rnL", "mL")
	return s
}

// StandardizeForm normalizes a free-text dosage form. IVPB and mini-bag are
// bags; suspensions are liquid; a vial or injection of a known IV drug is a
// bag. An empty form defaults to tablet.
func StandardizeForm(name, form string) string {
	f := strings.ToLower(strings.TrimSpace(form))
	if f == "" {
		return "tablet"
	}
	// Singularize the cascade's plural captures.
	switch {
	case strings.HasSuffix(f, "ches"), strings.HasSuffix(f, "shes"):
		f = strings.TrimSuffix(f, "es")
	case strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss"):
		f = strings.TrimSuffix(f, "s")
	}
	switch {
	case strings.Contains(f, "ivpb"), strings.Contains(f, "mini"):
		f = "bag"
	case strings.HasPrefix(f, "tab"):
		f = "tablet"
	case strings.HasPrefix(f, "cap"):
		f = "capsule"
	case f == "susp" || f == "suspension" || f == "syrup":
		f = "liquid"
	case strings.HasPrefix(f, "inject"):
		f = "injection"
	case f == "cream" || f == "ointment":
		f = "topical"
	case f == "patch":
		f = "patch"
	case f == "drop":
		f = "drops"
	}

	if f == "injection" || f == "vial" {
		lower := strings.ToLower(name)
		for _, iv := range ivMedications {
			if strings.Contains(lower, iv) {
				return "bag"
			}
		}
	}
	return f
}

// Confidence scores how complete and corroborated a candidate is: required
// fields carry most of the weight, optional fields a bonus, and a name that
// actually appears in the source text earns corroboration. Capped at 1.0.
func Confidence(c types.Candidate, rawText string) float64 {
	score := 0.0
	if c.Name != "" {
		score += 0.4
	}
	if c.Strength != "" {
		score += 0.3
	}
	if c.Form != "" {
		score += 0.1
	}
	if c.Patient != "" {
		score += 0.1
	}
	if c.SigCode != "" {
		score += 0.05
	}
	if c.Floor != "" {
		score += 0.05
	}
	if c.Name != "" && strings.Contains(strings.ToLower(rawText), strings.ToLower(c.Name)) {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
