package catalog

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"lisinopril", "LISINOPRIL"},
		{"Zonisamide (ZONEGRAN)", "ZONISAMIDE"},
		{"sodium chloride (0.9%)", "SODIUM CHLORIDE (0.9%)"},
		{"NS", "SODIUM CHLORIDE 0.9%"},
		{"D5W", "DEXTROSE 5% IN WATER"},
		{"LR", "LACTATED RINGERS"},
		{"metoprolol tartrate", "METOPROLOL"},
		{"diphenhydramine HCL", "DIPHENHYDRAMINE"},
		{"acetaminophen oral", "ACETAMINOPHEN"},
		{"magnesium 1 GM", "MAGNESIUM 1 G"},
		{"  warfarin   sodium chloride  ", "WARFARIN SODIUM CHLORIDE"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeDose(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"100 mg", "100mg"},
		{"100MG", "100mg"},
		{"650 mg/20 mL", "650mg/20ml"},
		{"1 gm", "1g"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDose(tt.in); got != tt.want {
			t.Errorf("NormalizeDose(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeForm(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tablets", "tablet"},
		{"capsules", "capsule"},
		{"patches", "patch"},
		{"bag", "bag"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeForm(tt.in); got != tt.want {
			t.Errorf("NormalizeForm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
