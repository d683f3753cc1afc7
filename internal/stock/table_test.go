// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stock

import (
	"strings"
	"testing"

	"github.com/pdiddy/medscan/pkg/types"
)

func TestWalk(t *testing.T) {
	text := strings.Join([]string{
		"8E-1",
		"Acetaminophen 325 mg tablet",
		"7 10 3",
		"8E-2",
		"Ibuprofen 200 mg tablet",
		"30 17 40 24",
		"11 23 40 17",
	}, "\n")

	got := Walk(text, 0)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}

	acet := got[0]
	if acet.Name != "Acetaminophen" || acet.Floor != "8E-1" {
		t.Errorf("first candidate = %+v", acet)
	}
	if acet.RawPick == nil || *acet.RawPick != 7 {
		t.Errorf("acetaminophen RawPick = %v, want 7", acet.RawPick)
	}
	if acet.Source != types.SourceTable {
		t.Errorf("Source = %q, want %q", acet.Source, types.SourceTable)
	}

	ibu := got[1]
	if ibu.Name != "Ibuprofen" || ibu.Floor != "8E-2" {
		t.Errorf("second candidate = %+v", ibu)
	}
	if ibu.RawPick == nil || *ibu.RawPick != 23 {
		t.Errorf("ibuprofen RawPick = %v, want 23 (interleaved rows)", ibu.RawPick)
	}
	if ibu.RawMax == nil || *ibu.RawMax != 40 || ibu.RawCurrent == nil || *ibu.RawCurrent != 17 {
		t.Errorf("ibuprofen max/current = %v/%v, want 40/17", ibu.RawMax, ibu.RawCurrent)
	}
}

func TestWalkStrengthNumbersExcluded(t *testing.T) {
	got := Walk("Acetaminophen 650 mg tablet 7 10 3", 0)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	// 650 is a strength, not a stock count; the triple is (7, 10, 3).
	if got[0].RawPick == nil || *got[0].RawPick != 7 {
		t.Errorf("RawPick = %v, want 7", got[0].RawPick)
	}
}

func TestWalkUnresolvedNumbersKeepNilPick(t *testing.T) {
	got := Walk("Warfarin 5 mg tablet\n100 1 1", 0)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].RawPick != nil {
		t.Errorf("RawPick = %v, want nil (needs manual verification)", got[0].RawPick)
	}
}

func TestWalkDeviceHeadingForms(t *testing.T) {
	text := strings.Join([]string{
		"Device: 6W",
		"Metformin 500 mg tablet",
		"4 12 8",
	}, "\n")

	got := Walk(text, 0)
	if len(got) != 1 || got[0].Floor != "6W" {
		t.Fatalf("got %+v, want floor 6W", got)
	}
}

func TestStandaloneInts(t *testing.T) {
	tests := []struct {
		line string
		want []int
	}{
		{"7 10 3", []int{7, 10, 3}},
		{"650 mg 7 10 3", []int{7, 10, 3}},
		{"8E-1 7", []int{7}},
		{"no numbers here", nil},
	}
	for _, tt := range tests {
		got := standaloneInts(tt.line)
		if len(got) != len(tt.want) {
			t.Errorf("standaloneInts(%q) = %v, want %v", tt.line, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("standaloneInts(%q) = %v, want %v", tt.line, got, tt.want)
				break
			}
		}
	}
}
