// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stock

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/medscan/internal/parse"
	"github.com/pdiddy/medscan/pkg/types"
)

// DefaultRowClusterPx is the vertical tolerance for grouping word boxes into
// one table row. Scanned pick lists drift a few pixels per row.
const DefaultRowClusterPx = 15.0

// Rows clusters word boxes into table rows. Words whose Y centers lie within
// clusterPx of a row's running mean join that row; rows are ordered top to
// bottom and each row's words left to right. A non-positive clusterPx selects
// DefaultRowClusterPx.
func Rows(words []types.WordBox, clusterPx float64) [][]types.WordBox {
	if clusterPx <= 0 {
		clusterPx = DefaultRowClusterPx
	}
	if len(words) == 0 {
		return nil
	}

	sorted := make([]types.WordBox, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })

	var (
		rows  [][]types.WordBox
		row   []types.WordBox
		meanY float64
	)
	for _, w := range sorted {
		if row != nil && w.Y-meanY <= clusterPx {
			row = append(row, w)
			meanY += (w.Y - meanY) / float64(len(row))
			continue
		}
		if row != nil {
			rows = append(rows, row)
		}
		row = []types.WordBox{w}
		meanY = w.Y
	}
	rows = append(rows, row)

	for _, r := range rows {
		sort.SliceStable(r, func(i, j int) bool { return r[i].X < r[j].X })
	}
	return rows
}

// Linearize renders clustered rows back into plain text, one line per row,
// for callers that only need the text walk.
func Linearize(rows [][]types.WordBox) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, w := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(w.Text)
		}
	}
	return b.String()
}

// columns holds the X centers of the table's count columns, taken from the
// header row. hasPick is false when the Pick header word was unreadable.
type columns struct {
	pick, max, current          float64
	hasPick, hasMax, hasCurrent bool
}

// findColumns locates the header row. A usable header names Max and at least
// one of Pick or Current; the Pick column can be inferred later from Max's
// position when its header word was garbled.
func findColumns(rows [][]types.WordBox) (columns, int, bool) {
	for i, row := range rows {
		var c columns
		for _, w := range row {
			switch strings.ToLower(strings.Trim(w.Text, ":.")) {
			case "pick":
				c.pick, c.hasPick = w.X, true
			case "max", "maximum":
				c.max, c.hasMax = w.X, true
			case "current", "curr", "cur":
				c.current, c.hasCurrent = w.X, true
			}
		}
		if c.hasMax && (c.hasPick || c.hasCurrent) {
			return c, i, true
		}
	}
	return columns{}, 0, false
}

// numCell is one numeric table cell with its horizontal position.
type numCell struct {
	val int
	x   float64
}

var unitWords = map[string]bool{
	"mg": true, "mcg": true, "g": true, "ml": true, "l": true,
	"meq": true, "mmol": true, "unit": true, "units": true, "%": true,
}

// splitRow partitions a row into the medication text and the numeric count
// cells. An integer immediately followed by a unit word is a strength, so it
// stays on the text side.
func splitRow(row []types.WordBox) (string, []numCell) {
	var (
		text  []string
		cells []numCell
	)
	for i, w := range row {
		if n, err := strconv.Atoi(w.Text); err == nil {
			if i+1 < len(row) && unitWords[strings.ToLower(row[i+1].Text)] {
				text = append(text, w.Text)
				continue
			}
			cells = append(cells, numCell{val: n, x: w.X})
			continue
		}
		text = append(text, w.Text)
	}
	return strings.Join(text, " "), cells
}

// FromWords extracts floor-stock candidates from word-level OCR annotations.
// When a count-column header row is present the numbers are assigned to
// Pick/Max/Current by column position; otherwise the words are linearized and
// handed to the plain-text walk.
func FromWords(words []types.WordBox, tolerance int, clusterPx float64) []types.Candidate {
	rows := Rows(words, clusterPx)
	cols, headerIdx, ok := findColumns(rows)
	if !ok {
		return Walk(Linearize(rows), tolerance)
	}

	tol := tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	var (
		out   []types.Candidate
		floor string
	)
	for _, row := range rows[headerIdx+1:] {
		line, cells := splitRow(row)

		if m := deviceHeadingRe.FindStringSubmatch(line); m != nil {
			floor = strings.ToUpper(m[1])
			continue
		}

		cand, parsed := parse.Line(line)
		if !parsed {
			continue
		}
		if floor != "" && cand.Floor == "" {
			cand.Floor = floor
		}
		cand.Source = types.SourceTable

		assignColumns(&cand, cells, cols, tol)
		out = append(out, cand)
	}
	return out
}

// assignColumns maps numeric cells to the header columns by nearest X. When
// the Pick header was unreadable, the pick cell is the numeric cell nearest
// to, and left of, the Max column. If the assigned triple violates the stock
// invariant the row falls back to sequence disambiguation.
func assignColumns(c *types.Candidate, cells []numCell, cols columns, tolerance int) {
	if len(cells) == 0 {
		return
	}

	nearest := func(x float64) *numCell {
		var best *numCell
		for i := range cells {
			if best == nil || abs(cells[i].x-x) < abs(best.x-x) {
				best = &cells[i]
			}
		}
		return best
	}

	var pick, max, cur *int
	if cols.hasMax {
		if cell := nearest(cols.max); cell != nil {
			max = &cell.val
		}
	}
	if cols.hasCurrent {
		if cell := nearest(cols.current); cell != nil {
			cur = &cell.val
		}
	}
	if cols.hasPick {
		if cell := nearest(cols.pick); cell != nil {
			pick = &cell.val
		}
	} else if cols.hasMax {
		// Closest cell strictly left of the Max column.
		var best *numCell
		for i := range cells {
			if cells[i].x >= cols.max {
				continue
			}
			if best == nil || cells[i].x > best.x {
				best = &cells[i]
			}
		}
		if best != nil && (max == nil || best.val != *max) {
			pick = &best.val
		}
	}

	if pick != nil && max != nil && cur != nil {
		if residual(*pick, *max, *cur) <= tolerance {
			c.RawPick, c.RawMax, c.RawCurrent = pick, max, cur
			return
		}
		// Columns disagree with the invariant; treat the row's numbers
		// as an ambiguous sequence instead.
		nums := make([]int, len(cells))
		for i, cell := range cells {
			nums[i] = cell.val
		}
		if t, ok := Disambiguate(nums, tolerance); ok {
			c.RawPick = &t.Pick
			c.RawMax = t.Max
			c.RawCurrent = t.Current
		}
		return
	}

	c.RawPick, c.RawMax, c.RawCurrent = pick, max, cur
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
