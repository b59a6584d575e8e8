package sim

import "testing"

func TestParseWeightKg(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"2.4 kg", 2.4},
		{"3kg", 3},
		{"  0.5 kg", 0.5},
		{".75 kg", 0.75},
		{"1e1 kg", 10},
		{"4.0", 4},
		{"heavy", DefaultPayloadKg},
		{"", DefaultPayloadKg},
		{"0 kg", DefaultPayloadKg},
		{"-1 kg", DefaultPayloadKg},
		{"kg 2.4", DefaultPayloadKg},
		{"1e999 kg", DefaultPayloadKg},
	}
	for _, tt := range tests {
		if got := ParseWeightKg(tt.text); got != tt.want {
			t.Errorf("ParseWeightKg(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
