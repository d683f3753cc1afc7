// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse recovers structured medication candidates from noisy OCR
// label text. The parser is an ordered cascade of structural patterns: the
// first pattern whose shape matches a line wins and lower-priority patterns
// are never consulted. Text no pattern can match is handed to the fallback
// oracle, which is the rare path by design.
package parse

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/medscan/pkg/types"
)

// Pattern fragments shared by the cascade rules. A medication name is one or
// more letter-led words, possibly hyphenated (dorzolamide-timolol); a brand
// is an upper-case parenthetical; a strength is a number with a dose unit,
// optionally a concentration (650 mg/20 mL).
const (
	nameFrag     = `([A-Za-z][A-Za-z'-]*(?:[ -][A-Za-z][A-Za-z'-]*)*)`
	brandFrag    = `\(([A-Z][A-Z0-9 /.-]*)\)`
	strengthFrag = `(\d+(?:\.\d+)?\s*(?:mg|mcg|g|mL|L|mEq|mmol|units?|%)(?:\s*/\s*\d+(?:\.\d+)?\s*(?:mL|L))?)`
	formFrag     = `(tablets?|capsules?|vials?|bags?|patch(?:es)?|syringes?|packets?|nebulizers?|cups?|syrups?|liquid|suspension|injection|solution|cream|ointment|drops?)`
)

// rule is one structural pattern in the cascade. Each rule is a pure function
// from a line to an optional candidate; priority order is the order of the
// rules slice, highest first.
type rule struct {
	name  string
	re    *regexp.Regexp
	build func(m []string) types.Candidate
}

// rules is the cascade, in priority order. Shapes with a brand precede
// shapes without one, and strength-before-form precedes form-before-strength,
// because field order on real labels varies and the more specific shape must
// be tried first.
var rules = []rule{
	{
		name: "name-brand-strength-form",
		re:   regexp.MustCompile(`^` + nameFrag + `\s*` + brandFrag + `\s*` + strengthFrag + `\s+` + formFrag + `\b`),
		build: func(m []string) types.Candidate {
			return types.Candidate{Name: m[1], Brand: m[2], Strength: m[3], Form: m[4]}
		},
	},
	{
		name: "name-brand-form-strength",
		re:   regexp.MustCompile(`^` + nameFrag + `\s*` + brandFrag + `\s*` + formFrag + `\s+` + strengthFrag + `\b`),
		build: func(m []string) types.Candidate {
			return types.Candidate{Name: m[1], Brand: m[2], Form: m[3], Strength: m[4]}
		},
	},
	{
		name: "name-strength-form",
		re:   regexp.MustCompile(`^` + nameFrag + `\s+` + strengthFrag + `\s+` + formFrag + `\b`),
		build: func(m []string) types.Candidate {
			return types.Candidate{Name: m[1], Strength: m[2], Form: m[3]}
		},
	},
	{
		name: "name-form-strength",
		re:   regexp.MustCompile(`^` + nameFrag + `\s+` + formFrag + `\s+` + strengthFrag + `\b`),
		build: func(m []string) types.Candidate {
			return types.Candidate{Name: m[1], Form: m[2], Strength: m[3]}
		},
	},
	{
		name: "name-strength",
		re:   regexp.MustCompile(`^` + nameFrag + `\s+` + strengthFrag + `\b`),
		build: func(m []string) types.Candidate {
			return types.Candidate{Name: m[1], Strength: m[2], Form: "tablet"}
		},
	},
	{
		name: "name-only",
		re:   regexp.MustCompile(`^` + nameFrag + `$`),
		build: func(m []string) types.Candidate {
			return types.Candidate{Name: m[1]}
		},
	},
}

// noiseRe matches lines that are pure digits, punctuation, and whitespace:
// table column residue, rulers, blank separators.
var noiseRe = regexp.MustCompile(`^[\d\s\-.()]+$`)

// headerLabelRe matches label-style header lines ("Dose: 1 mg", "Admin:",
// "MRN: 12345") that must be rejected before pattern matching.
var headerLabelRe = regexp.MustCompile(`(?i)^(dose|admin|directions|patient|mrn|rx|qty|quantity|dob|lot|order|dispense|refill|tech|rph)\s*[:#]`)

// stopwords are tokens that look like names to the cascade but never are.
// Drawn from header rows, demographics, pharmacy boilerplate, and form words.
var stopwords = map[string]bool{
	"patient": true, "directions": true, "pharmacy": true, "label": true,
	"dose": true, "admin": true, "tablet": true, "capsule": true,
	"solution": true, "drop": true, "drops": true, "medication": true,
	"order": true, "quantity": true, "dispense": true, "refill": true,
	"tech": true, "rph": true, "hospital": true, "floor": true,
	"lot": true, "dob": true, "mrn": true, "each": true, "eye": true,
	"ophthalmic": true, "qty": true, "device": true, "med": true,
	"description": true, "pick": true, "amount": true, "max": true,
	"current": true, "area": true, "actual": true, "page": true,
	"report": true, "time": true, "group": true, "run": true,
	"summary": true, "vial": true, "bag": true, "injection": true,
	"mount": true, "sinai": true, "morningside": true, "clark": true,
}

// IsNoise reports whether a line should be rejected before pattern matching:
// too short to carry a medication, pure punctuation/digits, or a label-style
// header row.
func IsNoise(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 5 {
		return true
	}
	if noiseRe.MatchString(trimmed) {
		return true
	}
	if headerLabelRe.MatchString(trimmed) {
		return true
	}
	if stopwords[strings.ToLower(trimmed)] {
		return true
	}
	return false
}

// ValidName reports whether a parsed name passes identity validation: length
// 3-50 after trimming, contains a letter, and is not a pure stopword.
func ValidName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 3 || len(trimmed) > 50 {
		return false
	}
	hasLetter := false
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}

	// A name that is nothing but stopwords ("Pick Amount", "Mount Sinai")
	// is header or boilerplate residue, not a medication.
	allStop := true
	for _, tok := range strings.Fields(strings.ToLower(trimmed)) {
		if !stopwords[tok] {
			allStop = false
			break
		}
	}
	return !allStop
}

// Line attempts the cascade against one line of text and returns the first
// matching rule's candidate. The boolean is false when no rule matched or the
// match failed identity validation.
func Line(line string) (types.Candidate, bool) {
	trimmed := strings.TrimSpace(line)
	if IsNoise(trimmed) {
		return types.Candidate{}, false
	}

	for _, r := range rules {
		m := r.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}

		cand := r.build(m)
		cand.Name = strings.TrimSpace(cand.Name)
		if cand.Name == "" || !ValidName(cand.Name) {
			// The shape matched but the captured name is not a
			// medication; lower-priority rules would only capture a
			// looser version of the same text, so stop here.
			return types.Candidate{}, false
		}

		// The bare-name rule needs extra guards: an all-caps token is a
		// location or device code, not a drug name, and real drug names
		// on a line of their own are short.
		if r.name == "name-only" {
			if len(cand.Name) > 25 || isAllUpper(cand.Name) {
				return types.Candidate{}, false
			}
		}

		cand.Strength = CleanStrength(cand.Strength)
		cand.Form = StandardizeForm(cand.Name, cand.Form)
		cand.Source = types.SourceCascade
		captureTrailing(trimmed, &cand)
		cand.Confidence = Confidence(cand, trimmed)
		return cand, true
	}

	return types.Candidate{}, false
}

// sigRe matches frequency shorthand anywhere in a line's trailing text.
var sigRe = regexp.MustCompile(`(?i)\b(BID|TID|QID|Q\d{1,2}H|QHS|QAM|QPM|QD|PRN|twice daily|three times daily|four times daily|once daily|daily|at bedtime|bedtime|as needed|every \d{1,2} hours)\b`)

var (
	patientRe = regexp.MustCompile(`(?i)\bfor\s+patient\s+([A-Za-z][A-Za-z ,.'-]*)`)
	// floorRe matches device/floor codes such as "6W", "8E-1", "9E-2".
	floorRe  = regexp.MustCompile(`\b(\d{1,2}[EW](?:-\d+)?)\b`)
	mrnRe    = regexp.MustCompile(`(?i)\bMRN[:\s]*(\d+)`)
	rxRe     = regexp.MustCompile(`(?i)\bRx[:#\s]*(\d+)`)
	orderRe  = regexp.MustCompile(`(?i)\border\s*#?\s*(\d+)`)
	adminRe  = regexp.MustCompile(`(?i)\b(?:admin|take)\s*[:\s]\s*(\d+(?:\.\d+)?)\s*(?:tablet|capsule|drop|mL)`)
	halfRe   = regexp.MustCompile(`(?i)\bhalf[\s-]tablet\b`)
	nameLine = regexp.MustCompile(`([A-Z][a-z]+,\s*[A-Z][a-z]+)`)
)

// captureTrailing fills optional sig/patient/floor/identifier fields from the
// text that follows the structural match.
func captureTrailing(line string, c *types.Candidate) {
	if m := sigRe.FindStringSubmatch(line); m != nil {
		c.SigCode = m[1]
	}
	if m := patientRe.FindStringSubmatch(line); m != nil {
		c.Patient = strings.TrimSpace(m[1])
	} else if m := nameLine.FindStringSubmatch(line); m != nil {
		c.Patient = m[1]
	}
	if m := floorRe.FindStringSubmatch(line); m != nil {
		c.Floor = m[1]
	}
	if m := mrnRe.FindStringSubmatch(line); m != nil {
		c.MRN = m[1]
	}
	if m := rxRe.FindStringSubmatch(line); m != nil {
		c.RxNumber = m[1]
	}
	if m := orderRe.FindStringSubmatch(line); m != nil {
		c.OrderNumber = m[1]
	}
	if m := adminRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			c.AdminPerDose = v
		}
	}
	if halfRe.MatchString(line) {
		c.AdminPerDose = 0.5
	}
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

// Parser runs the cascade over whole documents and consults the fallback
// oracle for text the cascade cannot match.
type Parser struct {
	// Oracle is the fallback extraction service. Nil disables the fallback.
	Oracle Oracle

	// MinConfidence drops candidates scoring below it.
	MinConfidence float64
}

// Document parses one OCR text unit into medication candidates. Lines the
// cascade cannot match are collected and, if any remain, handed to the oracle
// in a single call carrying the full document context. Duplicate names within
// one document are suppressed, keeping the first (highest-priority) parse.
// Oracle failures degrade to "no record": they are reported on w and the
// cascade's results are returned unchanged.
func (p *Parser) Document(ctx context.Context, unit types.TextUnit, w io.Writer) []types.Candidate {
	var (
		candidates []types.Candidate
		seen       = map[string]bool{}
		missed     int
	)

	for _, line := range strings.Split(unit.Text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || IsNoise(trimmed) {
			continue
		}

		cand, ok := Line(trimmed)
		if !ok {
			missed++
			continue
		}
		if cand.Confidence < p.MinConfidence {
			fmt.Fprintf(w, "dropped %s: confidence %.2f below threshold\n", cand.Name, cand.Confidence)
			continue
		}

		key := strings.ToLower(cand.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, cand)
	}

	if missed > 0 && p.Oracle != nil {
		oracleCands, err := p.fallback(ctx, unit.Text)
		if err != nil {
			fmt.Fprintf(w, "oracle fallback failed (%d unmatched lines dropped): %v\n", missed, err)
		} else {
			for _, cand := range oracleCands {
				key := strings.ToLower(cand.Name)
				if seen[key] {
					continue
				}
				seen[key] = true
				candidates = append(candidates, cand)
			}
		}
	}

	return candidates
}
