package components

import (
	"strings"
	"testing"

	"github.com/abhisek/parley/internal/ui/theme"
)

func TestFraction(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 3, 0},
		{1, 4, 0.25},
		{5, 4, 1},
		{2, 0, 0},
		{-1, 4, 0},
	}
	for _, tt := range tests {
		if got := Fraction(tt.done, tt.total); got != tt.want {
			t.Errorf("Fraction(%d, %d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestProgressBar_ViewShowsPercent(t *testing.T) {
	view := NewProgressBar("Layer", Fraction(1, 2), true, 30).View()
	if !strings.Contains(view, "50%") || !strings.Contains(view, "Layer") {
		t.Errorf("unexpected view %q", view)
	}
}

func TestProgressBar_GradedFill(t *testing.T) {
	low := ProgressBar{Percent: 0.2, Graded: true}
	high := ProgressBar{Percent: 0.9, Graded: true}
	if low.fill().GetBackground() == high.fill().GetBackground() {
		t.Error("low and high scores should use different colors")
	}
	plain := ProgressBar{Percent: 0.2}
	if plain.fill().GetBackground() != theme.ProgressFilled.GetBackground() {
		t.Error("ungraded bars use the default fill")
	}
}
