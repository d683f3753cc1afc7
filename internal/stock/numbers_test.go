// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stock

import "testing"

func TestDisambiguate(t *testing.T) {
	tests := []struct {
		name    string
		nums    []int
		pick    int
		max     int
		current int
		partial bool
		ok      bool
	}{
		{
			name: "exact triple returns itself",
			nums: []int{7, 10, 3},
			pick: 7, max: 10, current: 3,
			ok: true,
		},
		{
			name: "interleaved rows pick the tail triplet",
			nums: []int{30, 17, 40, 24, 11, 23, 40, 17},
			pick: 23, max: 40, current: 17,
			ok: true,
		},
		{
			name:    "single number is the pick",
			nums:    []int{11},
			pick:    11,
			partial: true,
			ok:      true,
		},
		{
			name:    "two numbers first is the pick",
			nums:    []int{5, 9},
			pick:    5,
			partial: true,
			ok:      true,
		},
		{
			name: "combination fallback skips a stray number",
			nums: []int{7, 99, 10, 3},
			pick: 7, max: 10, current: 3,
			ok: true,
		},
		{
			name: "residual within tolerance accepted",
			nums: []int{8, 10, 3},
			pick: 8, max: 10, current: 3,
			ok: true,
		},
		{
			name: "equal residuals break ties to the earliest window",
			nums: []int{2, 5, 3, 4, 7, 3},
			pick: 2, max: 5, current: 3,
			ok: true,
		},
		{
			name: "no valid triple",
			nums: []int{100, 1, 1},
			ok:   false,
		},
		{
			name: "empty sequence",
			nums: nil,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Disambiguate(tt.nums, 0)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Pick != tt.pick {
				t.Errorf("Pick = %d, want %d", got.Pick, tt.pick)
			}
			if tt.partial {
				if got.Max != nil || got.Current != nil {
					t.Errorf("partial result should leave Max/Current nil, got %+v", got)
				}
				return
			}
			if got.Max == nil || *got.Max != tt.max {
				t.Errorf("Max = %v, want %d", got.Max, tt.max)
			}
			if got.Current == nil || *got.Current != tt.current {
				t.Errorf("Current = %v, want %d", got.Current, tt.current)
			}
		})
	}
}

func TestDisambiguateTolerance(t *testing.T) {
	// Residual 2 fails a tolerance of 1 but passes the default of 5.
	nums := []int{9, 10, 3}

	if _, ok := Disambiguate(nums, 1); ok {
		t.Error("residual 2 should fail tolerance 1")
	}
	got, ok := Disambiguate(nums, 0)
	if !ok || got.Pick != 9 {
		t.Errorf("residual 2 should pass default tolerance, got %+v ok=%v", got, ok)
	}
}
