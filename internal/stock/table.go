// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stock

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/medscan/internal/parse"
	"github.com/pdiddy/medscan/pkg/types"
)

// deviceHeadingRe matches a floor/device section heading such as "6W", "8E-1",
// or "Device: 9E-2". The code must be essentially the whole line; a code
// embedded in a medication line is trailing context, not a heading.
var deviceHeadingRe = regexp.MustCompile(`(?i)^\s*(?:device[:\s]*)?(\d{1,2}[EW](?:-\d+)?)\s*$`)

// strengthTokenRe matches dose-strength tokens whose numbers must be excluded
// from disambiguation ("650 mg" is a strength, not a stock count).
var strengthTokenRe = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:mg|mcg|g|mL|L|mEq|mmol|units?|%)(?:\s*/\s*\d+(?:\.\d+)?\s*(?:mL|L))?`)

var intTokenRe = regexp.MustCompile(`\b\d+\b`)

// block accumulates one medication and the standalone numbers that follow it
// until the next medication or device heading.
type block struct {
	cand types.Candidate
	nums []int
}

// Walk scans linearized pick-list text and returns one candidate per
// medication block, with pick/max/current recovered by the disambiguator and
// the enclosing device heading attached as the floor. A block whose numbers
// cannot be disambiguated keeps a nil RawPick so the caller can flag it for
// manual verification.
func Walk(text string, tolerance int) []types.Candidate {
	var (
		candidates []types.Candidate
		cur        *block
		floor      string
	)

	flush := func() {
		if cur == nil {
			return
		}
		c := cur.cand
		if floor != "" && c.Floor == "" {
			c.Floor = floor
		}
		if t, ok := Disambiguate(cur.nums, tolerance); ok {
			c.RawPick = &t.Pick
			c.RawMax = t.Max
			c.RawCurrent = t.Current
		}
		c.Source = types.SourceTable
		candidates = append(candidates, c)
		cur = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := deviceHeadingRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			floor = strings.ToUpper(m[1])
			continue
		}

		if cand, ok := parse.Line(trimmed); ok {
			flush()
			cur = &block{cand: cand}
			cur.nums = append(cur.nums, standaloneInts(trimmed)...)
			continue
		}

		if cur != nil {
			cur.nums = append(cur.nums, standaloneInts(trimmed)...)
		}
	}
	flush()

	return candidates
}

// standaloneInts extracts the integers on a line that are not part of a
// strength token or a device code.
func standaloneInts(line string) []int {
	cleaned := strengthTokenRe.ReplaceAllString(line, " ")
	cleaned = deviceCodeRe.ReplaceAllString(cleaned, " ")

	var nums []int
	for _, tok := range intTokenRe.FindAllString(cleaned, -1) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	return nums
}

// deviceCodeRe strips inline device codes ("8E-1") before integer extraction.
var deviceCodeRe = regexp.MustCompile(`\b\d{1,2}[EW](?:-\d+)?\b`)
