// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate merges resolved medication candidates into the final
// pick-list records. Each candidate is counted in exactly one category and
// each aggregation key yields exactly one record; both rules exist to make
// double-counting a pick quantity structurally impossible.
package aggregate

import (
	"math"

	"github.com/pdiddy/medscan/internal/sig"
	"github.com/pdiddy/medscan/pkg/types"
)

// Aggregate groups candidates by aggregation key and merges each group into
// one record. Floor-stock members sum their pick amounts into a floor
// breakdown; patient-label members sum fractional 24-hour quantities into a
// patient breakdown, with the total rounded up to whole units; unclassified
// members sum picks with no breakdown. A member whose pick amount could not
// be disambiguated forces the record's PickAmount to nil so the caller sees
// "needs manual verification" instead of a partial sum.
func Aggregate(candidates []types.Candidate) []types.Record {
	groups := make(map[types.Key][]types.Candidate)
	var order []types.Key
	for _, c := range candidates {
		k := types.KeyFor(c)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	records := make([]types.Record, 0, len(order))
	for _, k := range order {
		records = append(records, merge(groups[k]))
	}

	SortRoute(records)
	return records
}

// merge folds one key group into a record. The record's category follows the
// same precedence as candidate categorization: any floor member makes the
// group floor stock.
func merge(members []types.Candidate) types.Record {
	first := members[0]
	rec := types.Record{
		Name:     first.Name,
		Dose:     first.Strength,
		Form:     first.Form,
		Location: first.Resolved,
		Notes:    first.Resolved.Notes,
		Category: groupCategory(members),
	}

	var (
		pickSum    int
		havePick   bool
		pickKnown  = true
		patientSum float64
	)
	for _, c := range members {
		switch c.Categorize() {
		case types.FloorStock:
			if c.RawPick == nil {
				pickKnown = false
				continue
			}
			pickSum += *c.RawPick
			havePick = true
			if rec.FloorBreakdown == nil {
				rec.FloorBreakdown = make(map[string]int)
			}
			rec.FloorBreakdown[c.Floor] += *c.RawPick

		case types.PatientLabel:
			qty := sig.DailyQuantity(c.SigCode, c.AdminPerDose)
			patientSum += qty
			if rec.PatientBreakdown == nil {
				rec.PatientBreakdown = make(map[string]float64)
			}
			rec.PatientBreakdown[patientLabel(c)] += qty

		default:
			if c.RawPick == nil {
				continue
			}
			pickSum += *c.RawPick
			havePick = true
		}
	}

	if patientSum > 0 {
		rec.CalculatedQty = math.Ceil(patientSum)
		if pickKnown && !havePick {
			total := int(rec.CalculatedQty)
			rec.PickAmount = &total
			return rec
		}
	}

	// Any member with an undetermined pick poisons the whole record: a
	// partial sum would read as a complete one.
	if pickKnown && havePick {
		rec.PickAmount = &pickSum
	}
	return rec
}

func groupCategory(members []types.Candidate) types.Category {
	category := types.Unclassified
	for _, c := range members {
		switch c.Categorize() {
		case types.FloorStock:
			return types.FloorStock
		case types.PatientLabel:
			category = types.PatientLabel
		}
	}
	return category
}

func patientLabel(c types.Candidate) string {
	if c.Patient != "" {
		return c.Patient
	}
	if c.MRN != "" {
		return "MRN " + c.MRN
	}
	return "unidentified"
}
