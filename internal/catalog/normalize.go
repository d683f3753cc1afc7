// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog maintains the reference table of canonical medication
// locations: a SQLite store fed from the pharmacy's location CSV, and an
// immutable in-memory index queried by exact triple or fuzzy score.
package catalog

import (
	"regexp"
	"strings"
)

// abbreviations expands pharmacy shorthand before matching. Solution names in
// particular appear under several spellings across pick lists and the CSV.
var abbreviations = map[string]string{
	"NS":   "SODIUM CHLORIDE 0.9%",
	"NACL": "SODIUM CHLORIDE",
	"D5W":  "DEXTROSE 5% IN WATER",
	"D10W": "DEXTROSE 10% IN WATER",
	"LR":   "LACTATED RINGERS",
	"1/2NS": "SODIUM CHLORIDE 0.45%",
}

// saltWords are salt-form suffixes that vary between label and catalog
// ("metoprolol tartrate" vs "metoprolol succinate" shelve together).
var saltWords = map[string]bool{
	"HCL": true, "HYDROCHLORIDE": true, "SULFATE": true, "TARTRATE": true,
	"SUCCINATE": true, "BITARTRATE": true, "MALEATE": true, "FUMARATE": true,
	"BESYLATE": true, "MESYLATE": true, "CITRATE": true,
}

// routeWords add no shelving identity.
var routeWords = map[string]bool{
	"ORAL": true, "PO": true, "ORALLY": true, "IVPB": true,
	"TOPICAL": true, "OPHTHALMIC": true, "NASAL": true, "RECTAL": true,
}

// parenRe matches parentheticals; brand parentheticals are dropped but
// digit-bearing ones ("(0.9%)") carry concentration and stay.
var parenRe = regexp.MustCompile(`\(([^)]*)\)`)

var digitRe = regexp.MustCompile(`\d`)

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeName canonicalizes a medication name for catalog matching:
// uppercase, brand parentheticals removed, abbreviations expanded, salt and
// route words dropped, units and whitespace normalized.
func NormalizeName(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))

	s = parenRe.ReplaceAllStringFunc(s, func(m string) string {
		if digitRe.MatchString(m) {
			return m
		}
		return " "
	})

	var out []string
	for _, tok := range strings.Fields(s) {
		if exp, ok := abbreviations[tok]; ok {
			out = append(out, exp)
			continue
		}
		if saltWords[tok] || routeWords[tok] {
			continue
		}
		// Unit spelling drift from OCR and hand-keyed CSVs.
		switch tok {
		case "GM":
			tok = "G"
		case "MGS":
			tok = "MG"
		}
		out = append(out, tok)
	}

	return spaceRe.ReplaceAllString(strings.Join(out, " "), " ")
}

// NormalizeDose canonicalizes a dose string: lowercase with all spaces
// stripped, so "100 mg" and "100mg" collide.
func NormalizeDose(dose string) string {
	s := strings.ToLower(strings.TrimSpace(dose))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "gm", "g")
	return s
}

// NormalizeForm canonicalizes a dosage form: lowercase, trimmed, singular.
func NormalizeForm(form string) string {
	f := strings.ToLower(strings.TrimSpace(form))
	switch {
	case strings.HasSuffix(f, "ches"), strings.HasSuffix(f, "shes"), strings.HasSuffix(f, "xes"):
		f = strings.TrimSuffix(f, "es")
	case strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss"):
		f = strings.TrimSuffix(f, "s")
	}
	return f
}
