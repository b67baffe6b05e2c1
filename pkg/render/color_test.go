package render

import (
	"image/color"
	"testing"
)

func TestBlend(t *testing.T) {
	bg := RGB(50, 10, 50)
	red := RGB(216, 46, 52)
	tests := []struct {
		name  string
		alpha float64
		want  Color
	}{
		{"transparent keeps dst", 0, bg},
		{"opaque replaces dst", 1, red},
		{"over-opaque clamps", 3, red},
		{"negative keeps dst", -1, bg},
		{"half", 0.5, RGB(133, 28, 51)},
	}
	for _, tt := range tests {
		if got := Blend(bg, red, tt.alpha); got != tt.want {
			t.Errorf("%s: Blend = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestColorInterop(t *testing.T) {
	std := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	c := FromRGBA(std)
	if c != RGB(1, 2, 3) {
		t.Errorf("FromRGBA = %v", c)
	}
	r, g, b, a := c.RGBA()
	wr, wg, wb, wa := std.RGBA()
	if r != wr || g != wg || b != wb || a != wa {
		t.Error("RGBA does not match the standard library color")
	}
}
