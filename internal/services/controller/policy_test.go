package controller

import "testing"

func TestDecideTable(t *testing.T) {
	cases := []struct {
		name string
		ph   float64
		soil float64
		want int
	}{
		{"very acidic opens fully whatever the soil", 4.0, 90, PositionFullOpen},
		{"very dry opens fully whatever the ph", 5.0, 10, PositionFullOpen},
		{"alkaline closes", 6.0, 50, PositionClosed},
		{"wet soil closes even with ph in band", 5.0, 75, PositionClosed},
		{"in band, dryish", 5.0, 35, PositionHalf},
		{"in band, middling", 5.0, 45, PositionQuarter},
		{"in band, comfortable", 5.0, 60, PositionClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.ph, tc.soil); got != tc.want {
				t.Fatalf("Decide(%.2f, %.1f) = %d, want %d", tc.ph, tc.soil, got, tc.want)
			}
		})
	}
}

func TestDecideRuleOrder(t *testing.T) {
	// Rule 1 fires before anything else: dry soil wins even when the
	// soil bands of rule 3 would say otherwise.
	if got := Decide(5.0, 29.9); got != PositionFullOpen {
		t.Fatalf("soil just under dry threshold: got %d, want %d", got, PositionFullOpen)
	}
	// Rule 2 fires before rule 3: wet soil with in-band ph closes.
	if got := Decide(5.0, 75); got != PositionClosed {
		t.Fatalf("wet soil must hit rule 2 first: got %d, want %d", got, PositionClosed)
	}
}

func TestDecideBoundaries(t *testing.T) {
	cases := []struct {
		name string
		ph   float64
		soil float64
		want int
	}{
		{"ph exactly 4.4 is not too low", 4.4, 50, PositionQuarter},
		{"ph just under 4.4 is too low", 4.39, 50, PositionFullOpen},
		{"soil exactly 30 is not too dry", 5.0, 30, PositionHalf},
		{"soil exactly 70 is not too wet", 5.0, 70, PositionClosed},
		{"ph exactly 5.5 is not too high", 5.5, 45, PositionQuarter},
		{"soil exactly 40 leaves the half band", 5.0, 40, PositionQuarter},
		{"soil exactly 50 stays in the quarter band", 5.0, 50, PositionQuarter},
		{"soil just over 50 leaves the quarter band", 5.0, 50.1, PositionClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.ph, tc.soil); got != tc.want {
				t.Fatalf("Decide(%.2f, %.1f) = %d, want %d", tc.ph, tc.soil, got, tc.want)
			}
		})
	}
}

func TestDecideAcidAlwaysWins(t *testing.T) {
	for _, soil := range []float64{0, 25, 45, 75, 100} {
		if got := Decide(4.2, soil); got != PositionFullOpen {
			t.Fatalf("ph 4.2 soil %.0f: got %d, want %d", soil, got, PositionFullOpen)
		}
	}
}
