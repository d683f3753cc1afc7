package sig

import (
	"math"
	"testing"
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"BID", 2},
		{"bid", 2},
		{"twice daily", 2},
		{"TID", 3},
		{"three times daily", 3},
		{"QID", 4},
		{"Q6H", 4},
		{"Q8H", 3},
		{"Q12H", 2},
		// Spelled-out hour phrases win over bare count words.
		{"every four hours", 6},
		{"every six hours", 4},
		{"every eight hours", 3},
		{"every twelve hours", 2},
		{"QD", 1},
		{"daily", 1},
		{"once daily", 1},
		{"QHS", 1},
		{"at bedtime", 1},
		{"PRN", 1},
		{"as needed", 1},
		// General Q<N>H falls back to round(24/N), clamped.
		{"Q3H", 6},
		{"Q2H", 6},  // 12 clamps to 6
		{"Q5H", 5},  // round(4.8)
		{"Q48H", 1}, // 0.5 clamps to 1
		// Bare numeric phrase: the count is taken as-is, not clamped.
		{"take 2 tablets", 2},
		{"take 8 tablets", 8},
		{"take 10 tablets", 10},
		// Safe defaults.
		{"", 1},
		{"   ", 1},
		{"see directions", 1},
		{"!!@#$%", 1},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := Interpret(tt.code); got != tt.want {
				t.Errorf("Interpret(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

// Interpret must never return less than 1 for any input.
func TestInterpretTotality(t *testing.T) {
	inputs := []string{
		"", " ", "\n", "0", "-3", "q0h", "Q0H", "qh", "mg", "Ω≈ç√",
		"take 0 tablets", "999999999999999999999", "q999h",
	}
	for _, in := range inputs {
		if got := Interpret(in); got < 1 {
			t.Errorf("Interpret(%q) = %d, want >= 1", in, got)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"BID", "twice daily"},
		{"Q8H", "every 8 hours"},
		{"Q3H", "every 3 hours"},
		{"bedtime", "at bedtime"},
		{"", ""},
		{"garbage", ""},
	}
	for _, tt := range tests {
		if got := Describe(tt.code); got != tt.want {
			t.Errorf("Describe(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestDailyQuantity(t *testing.T) {
	tests := []struct {
		code  string
		admin float64
		want  float64
	}{
		{"BID", 1, 2},
		{"TID", 0.5, 1.5},
		{"Q6H", 2, 8},
		{"", 0, 1}, // unknown admin defaults to one unit per dose
	}
	for _, tt := range tests {
		got := DailyQuantity(tt.code, tt.admin)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DailyQuantity(%q, %v) = %v, want %v", tt.code, tt.admin, got, tt.want)
		}
	}
}
