// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sig interprets pharmacy sig/frequency codes into daily-dose
// multipliers. Interpret is pure and total: any input, including garbage,
// yields a multiplier of at least 1, since dosing frequency is often simply
// absent from a label and 1 is the conservative floor.
package sig

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// frequencyTable maps known sig phrases to times-per-day. Phrases are matched
// as lowercase substrings in declaration order; more specific entries come
// before looser ones so "three times" wins over "times".
var frequencyTable = []struct {
	phrase string
	times  int
	label  string
}{
	{"q4h", 6, "every 4 hours"},
	{"every 4 hours", 6, "every 4 hours"},
	{"every four hours", 6, "every 4 hours"},
	{"q6h", 4, "every 6 hours"},
	{"every 6 hours", 4, "every 6 hours"},
	{"every six hours", 4, "every 6 hours"},
	{"q8h", 3, "every 8 hours"},
	{"every 8 hours", 3, "every 8 hours"},
	{"every eight hours", 3, "every 8 hours"},
	{"q12h", 2, "every 12 hours"},
	{"every 12 hours", 2, "every 12 hours"},
	{"every twelve hours", 2, "every 12 hours"},
	{"q24h", 1, "once daily"},
	{"qid", 4, "four times daily"},
	{"four times", 4, "four times daily"},
	{"four", 4, "four times daily"},
	{"tid", 3, "three times daily"},
	{"three times", 3, "three times daily"},
	{"three", 3, "three times daily"},
	{"bid", 2, "twice daily"},
	{"twice", 2, "twice daily"},
	{"two times", 2, "twice daily"},
	{"qhs", 1, "at bedtime"},
	{"bedtime", 1, "at bedtime"},
	{"qam", 1, "in the morning"},
	{"morning", 1, "in the morning"},
	{"qpm", 1, "in the evening"},
	{"evening", 1, "in the evening"},
	{"prn", 1, "as needed"},
	{"as needed", 1, "as needed"},
	{"qd", 1, "once daily"},
	{"once", 1, "once daily"},
	{"daily", 1, "once daily"},
}

// qnhRe matches the general every-N-hours shorthand, e.g. "Q3H".
var qnhRe = regexp.MustCompile(`(?i)\bq(\d{1,2})h\b`)

// bareNumberRe extracts the count from a bare numeric phrase like
// "take 2 tablets".
var bareNumberRe = regexp.MustCompile(`\b(\d{1,2})\b`)

// Interpret maps a sig code to its daily-dose multiplier. Unknown or empty
// input returns 1; the result is never below 1.
func Interpret(code string) int {
	lower := strings.ToLower(strings.TrimSpace(code))
	if lower == "" {
		return 1
	}

	for _, e := range frequencyTable {
		if strings.Contains(lower, e.phrase) {
			return e.times
		}
	}

	// General Q<N>H: round(24/N) clamped to [1,6].
	if m := qnhRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			times := int(math.Round(24.0 / float64(n)))
			return clamp(times, 1, 6)
		}
	}

	// Bare numeric phrase ("take 2 tablets"): the count is taken as-is,
	// only the Q<N>H conversion above is clamped.
	if m := bareNumberRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 {
			return n
		}
	}

	return 1
}

// Describe returns the human frequency phrase for a sig code, or "" when the
// code matches nothing in the table.
func Describe(code string) string {
	lower := strings.ToLower(strings.TrimSpace(code))
	if lower == "" {
		return ""
	}
	for _, e := range frequencyTable {
		if strings.Contains(lower, e.phrase) {
			return e.label
		}
	}
	if m := qnhRe.FindStringSubmatch(lower); m != nil {
		return "every " + m[1] + " hours"
	}
	return ""
}

// DailyQuantity returns the 24-hour unit count for a sig code and a per-dose
// administration amount. A zero or negative adminPerDose is treated as one
// unit per dose. The result may be fractional (half-tablet doses); callers
// round the aggregate, not the per-candidate value.
func DailyQuantity(code string, adminPerDose float64) float64 {
	if adminPerDose <= 0 {
		adminPerDose = 1
	}
	return adminPerDose * float64(Interpret(code))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
