package aggregate

import (
	"reflect"
	"testing"

	"github.com/pdiddy/medscan/pkg/types"
)

func intp(v int) *int { return &v }

func phrm(specific string) types.Location {
	return types.Location{General: "PHRM", Specific: specific}
}

// Two floor-stock picks of the same medication from different floors collapse
// into one record with a per-floor breakdown.
func TestAggregateFloorStockBreakdown(t *testing.T) {
	candidates := []types.Candidate{
		{Name: "Acetaminophen", Strength: "325 mg", Form: "tablet",
			Floor: "8E-1", RawPick: intp(7), Resolved: phrm("A-3-2")},
		{Name: "acetaminophen", Strength: "325mg", Form: "tablet",
			Floor: "8E-2", RawPick: intp(4), Resolved: phrm("A-3-2")},
	}

	got := Aggregate(candidates)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(got), got)
	}

	rec := got[0]
	if rec.Category != types.FloorStock {
		t.Errorf("Category = %q", rec.Category)
	}
	if rec.PickAmount == nil || *rec.PickAmount != 11 {
		t.Errorf("PickAmount = %v, want 11", rec.PickAmount)
	}
	want := map[string]int{"8E-1": 7, "8E-2": 4}
	if !reflect.DeepEqual(rec.FloorBreakdown, want) {
		t.Errorf("FloorBreakdown = %v, want %v", rec.FloorBreakdown, want)
	}
}

func TestAggregatePatientLabels(t *testing.T) {
	candidates := []types.Candidate{
		{Name: "Warfarin", Strength: "5 mg", Form: "tablet",
			Patient: "Smith, John", SigCode: "BID", AdminPerDose: 0.5,
			Resolved: phrm("B-1-1")},
		{Name: "warfarin", Strength: "5mg", Form: "tablet",
			Patient: "Jones, Mary", SigCode: "QD",
			Resolved: phrm("B-1-1")},
	}

	got := Aggregate(candidates)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1: %+v", len(got), got)
	}

	rec := got[0]
	if rec.Category != types.PatientLabel {
		t.Errorf("Category = %q", rec.Category)
	}
	// 0.5 * 2 + 1 * 1 = 2.0; ceil of the total, not per patient.
	if rec.CalculatedQty != 2 {
		t.Errorf("CalculatedQty = %v, want 2", rec.CalculatedQty)
	}
	want := map[string]float64{"Smith, John": 1, "Jones, Mary": 1}
	if !reflect.DeepEqual(rec.PatientBreakdown, want) {
		t.Errorf("PatientBreakdown = %v, want %v", rec.PatientBreakdown, want)
	}
	if rec.PickAmount == nil || *rec.PickAmount != 2 {
		t.Errorf("PickAmount = %v, want 2", rec.PickAmount)
	}
}

func TestAggregateFractionalTotalRoundsUp(t *testing.T) {
	candidates := []types.Candidate{
		{Name: "Warfarin", Strength: "5 mg", Form: "tablet",
			Patient: "Smith, John", SigCode: "QD", AdminPerDose: 0.5,
			Resolved: phrm("B-1-1")},
	}

	got := Aggregate(candidates)
	if len(got) != 1 || got[0].CalculatedQty != 1 {
		t.Fatalf("CalculatedQty = %v, want ceil(0.5) = 1", got[0].CalculatedQty)
	}
}

// A candidate with both a floor and a patient reference counts once, as floor
// stock.
func TestAggregateMutualExclusivity(t *testing.T) {
	candidates := []types.Candidate{
		{Name: "Metformin", Strength: "500 mg", Form: "tablet",
			Floor: "6W", Patient: "Smith, John", SigCode: "BID",
			RawPick: intp(3), Resolved: phrm("C-2-1")},
	}

	got := Aggregate(candidates)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}

	rec := got[0]
	if rec.Category != types.FloorStock {
		t.Errorf("Category = %q, want floor stock (floor takes precedence)", rec.Category)
	}
	if rec.PickAmount == nil || *rec.PickAmount != 3 {
		t.Errorf("PickAmount = %v, want 3", rec.PickAmount)
	}
	if rec.PatientBreakdown != nil {
		t.Errorf("candidate counted in two categories: %+v", rec)
	}
	if rec.CalculatedQty != 0 {
		t.Errorf("CalculatedQty = %v, want 0", rec.CalculatedQty)
	}
}

// One record per key group, never one per category per group.
func TestAggregateOneRecordPerGroup(t *testing.T) {
	candidates := []types.Candidate{
		{Name: "Lisinopril", Strength: "10 mg", Form: "tablet",
			Floor: "8E-1", RawPick: intp(5), Resolved: phrm("A-1")},
		{Name: "lisinopril", Strength: "10mg", Form: "tablet",
			Patient: "Smith, John", SigCode: "QD", Resolved: phrm("A-1")},
	}

	got := Aggregate(candidates)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1 per group: %+v", len(got), got)
	}
	if got[0].Category != types.FloorStock {
		t.Errorf("Category = %q", got[0].Category)
	}
}

func TestAggregateNilPickPropagates(t *testing.T) {
	candidates := []types.Candidate{
		{Name: "Ibuprofen", Strength: "200 mg", Form: "tablet",
			Floor: "8E-1", RawPick: intp(5), Resolved: phrm("D-1")},
		{Name: "ibuprofen", Strength: "200mg", Form: "tablet",
			Floor: "8E-2", Resolved: phrm("D-1")},
	}

	got := Aggregate(candidates)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].PickAmount != nil {
		t.Errorf("PickAmount = %v, want nil (needs manual verification)", got[0].PickAmount)
	}
}

// An undetermined floor pick keeps the record unverified even when a
// patient-label member of the same group carries a calculable quantity.
func TestAggregateUnknownFloorPickNotMaskedByPatientQty(t *testing.T) {
	candidates := []types.Candidate{
		{Name: "Metoprolol", Strength: "25 mg", Form: "tablet",
			Floor: "8E-1", Resolved: phrm("C-4-1")},
		{Name: "metoprolol", Strength: "25mg", Form: "tablet",
			Patient: "Smith, John", SigCode: "TID", Resolved: phrm("C-4-1")},
	}

	got := Aggregate(candidates)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}

	rec := got[0]
	if rec.PickAmount != nil {
		t.Errorf("PickAmount = %v, want nil (floor pick unknown, needs verification)", *rec.PickAmount)
	}
	if rec.CalculatedQty != 3 {
		t.Errorf("CalculatedQty = %v, want 3", rec.CalculatedQty)
	}
	if rec.Category != types.FloorStock {
		t.Errorf("Category = %q", rec.Category)
	}
}

// Re-aggregating the output, each record reduced to a singleton candidate,
// reproduces the same records.
func TestAggregateIdempotent(t *testing.T) {
	candidates := []types.Candidate{
		{Name: "Acetaminophen", Strength: "325 mg", Form: "tablet",
			Floor: "8E-1", RawPick: intp(7), Resolved: phrm("A-3-2")},
		{Name: "Warfarin", Strength: "5 mg", Form: "tablet",
			Patient: "Smith, John", SigCode: "BID", AdminPerDose: 0.5,
			Resolved: phrm("B-1-1")},
		{Name: "warfarin", Strength: "5mg", Form: "tablet",
			Patient: "Smith, John", SigCode: "QD",
			Resolved: phrm("B-1-1")},
		{Name: "Aspirin", Strength: "81 mg", Form: "tablet",
			RawPick: intp(2), Resolved: phrm("E-1")},
	}

	first := Aggregate(candidates)

	singletons := make([]types.Candidate, 0, len(first))
	for _, rec := range first {
		singletons = append(singletons, singleton(t, rec))
	}

	second := Aggregate(singletons)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("aggregation is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// singleton converts a record back into the one candidate that would produce
// it. Only records with at most one breakdown entry are representable.
func singleton(t *testing.T, r types.Record) types.Candidate {
	t.Helper()
	c := types.Candidate{
		Name:     r.Name,
		Strength: r.Dose,
		Form:     r.Form,
		Resolved: r.Location,
	}
	switch r.Category {
	case types.FloorStock:
		if len(r.FloorBreakdown) != 1 {
			t.Fatalf("record %q has %d floors, not reducible to a singleton", r.Name, len(r.FloorBreakdown))
		}
		for floor, qty := range r.FloorBreakdown {
			c.Floor = floor
			c.RawPick = intp(qty)
		}
	case types.PatientLabel:
		if len(r.PatientBreakdown) != 1 {
			t.Fatalf("record %q has %d patients, not reducible to a singleton", r.Name, len(r.PatientBreakdown))
		}
		for patient, qty := range r.PatientBreakdown {
			c.Patient = patient
			c.AdminPerDose = qty
		}
	default:
		c.RawPick = r.PickAmount
	}
	return c
}

func TestAggregateDeterministic(t *testing.T) {
	candidates := []types.Candidate{
		{Name: "Acetaminophen", Strength: "325 mg", Form: "tablet",
			Floor: "8E-1", RawPick: intp(7), Resolved: phrm("A-3-2")},
		{Name: "Warfarin", Strength: "5 mg", Form: "tablet",
			Patient: "Smith, John", SigCode: "BID", Resolved: phrm("B-1-1")},
		{Name: "Metformin", Strength: "500 mg", Form: "tablet",
			Resolved: types.Location{General: types.LocationNotAssigned}},
	}

	first := Aggregate(candidates)
	second := Aggregate(candidates)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("aggregation is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestAggregateUnclassified(t *testing.T) {
	candidates := []types.Candidate{
		{Name: "Aspirin", Strength: "81 mg", Form: "tablet",
			RawPick: intp(2), Resolved: phrm("E-1")},
	}

	got := Aggregate(candidates)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	rec := got[0]
	if rec.Category != types.Unclassified {
		t.Errorf("Category = %q", rec.Category)
	}
	if rec.PickAmount == nil || *rec.PickAmount != 2 {
		t.Errorf("PickAmount = %v, want 2", rec.PickAmount)
	}
	if rec.FloorBreakdown != nil || rec.PatientBreakdown != nil {
		t.Errorf("unclassified record should carry no breakdown: %+v", rec)
	}
}

func TestSortRoute(t *testing.T) {
	records := []types.Record{
		{Name: "zolpidem", Location: types.Location{General: types.LocationNotAssigned}},
		{Name: "ceftriaxone", Location: types.Location{General: "STR", Specific: "B-2-1"}},
		{Name: "insulin", Location: types.Location{General: "FRIDGE", Specific: "F-2"}},
		{Name: "lisinopril", Location: types.Location{General: "PHRM", Specific: "A-10-1"}},
		{Name: "metformin", Location: types.Location{General: "PHRM", Specific: "A-2-1"}},
	}

	SortRoute(records)

	wantOrder := []string{"insulin", "metformin", "lisinopril", "ceftriaxone", "zolpidem"}
	for i, name := range wantOrder {
		if records[i].Name != name {
			t.Fatalf("position %d = %q, want %q (full order %+v)", i, records[i].Name, name, names(records))
		}
	}
}

func names(records []types.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestCompareSpecificNumeric(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"A-2-1", "A-10-1", -1},
		{"A-10-1", "A-2-1", 1},
		{"A-3-2", "A-3-2", 0},
		{"A-3", "A-3-2", -1},
		{"B-1", "A-9", 1},
	}
	for _, tt := range tests {
		if got := compareSpecific(tt.a, tt.b); got != tt.want {
			t.Errorf("compareSpecific(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
