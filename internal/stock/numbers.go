// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stock extracts floor-stock pick quantities from tabular scans. OCR
// linearization of a multi-column table can interleave numbers from adjacent
// rows, so the pick amount is recovered from the stock-count invariant
// pick = max - current rather than from position alone.
package stock

// DefaultTolerance is the allowed residual for |pick - (max - current)|. It
// absorbs OCR digit misreads and timing skew between the pick count and the
// shelf counts.
const DefaultTolerance = 5

// Triple holds the disambiguated table numbers for one medication. Max and
// Current are nil when the sequence was too short to identify them.
type Triple struct {
	Pick    int
	Max     *int
	Current *int
}

// Disambiguate identifies which numbers in a medication's standalone number
// sequence are pick, max, and current. A non-positive tolerance selects
// DefaultTolerance.
//
// With one number it is the pick; with two, the first is. With three or more,
// consecutive windows are scanned first because the physical table places the
// three columns adjacently; when no window fits the invariant, all ordered
// combinations are tried. Among candidates within tolerance the one with the
// smallest absolute residual wins, ties going to the earliest position. If
// nothing fits, ok is false: the pick amount is unknown and is never guessed
// from the first number seen.
func Disambiguate(nums []int, tolerance int) (Triple, bool) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	switch len(nums) {
	case 0:
		return Triple{}, false
	case 1:
		return Triple{Pick: nums[0]}, true
	case 2:
		return Triple{Pick: nums[0]}, true
	}

	if t, ok := bestConsecutive(nums, tolerance); ok {
		return t, true
	}
	return bestCombination(nums, tolerance)
}

func residual(p, m, c int) int {
	r := p - (m - c)
	if r < 0 {
		r = -r
	}
	return r
}

func bestConsecutive(nums []int, tolerance int) (Triple, bool) {
	best := -1
	var bestT Triple
	for i := 0; i+2 < len(nums); i++ {
		p, m, c := nums[i], nums[i+1], nums[i+2]
		r := residual(p, m, c)
		if r > tolerance {
			continue
		}
		if best < 0 || r < best {
			best = r
			bestT = triple(p, m, c)
		}
	}
	return bestT, best >= 0
}

func bestCombination(nums []int, tolerance int) (Triple, bool) {
	best := -1
	var bestT Triple
	for i := 0; i < len(nums); i++ {
		for j := i + 1; j < len(nums); j++ {
			for k := j + 1; k < len(nums); k++ {
				p, m, c := nums[i], nums[j], nums[k]
				r := residual(p, m, c)
				if r > tolerance {
					continue
				}
				if best < 0 || r < best {
					best = r
					bestT = triple(p, m, c)
				}
			}
		}
	}
	return bestT, best >= 0
}

func triple(p, m, c int) Triple {
	return Triple{Pick: p, Max: &m, Current: &c}
}
