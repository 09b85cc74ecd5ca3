package hand

import (
	"image"
	"testing"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		label string
		want  Side
	}{
		{"Left", Left},
		{"left", Left},
		{" Right ", Right},
		{"RIGHT", Right},
		{"", Unknown},
		{"Both", Unknown},
	}

	for _, tt := range tests {
		if got := ParseSide(tt.label); got != tt.want {
			t.Errorf("ParseSide(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestSide_String(t *testing.T) {
	if Left.String() != "left" || Right.String() != "right" || Unknown.String() != "unknown" {
		t.Errorf("unexpected side names: %s %s %s", Left, Right, Unknown)
	}
}

func TestLandmarks_Fingertip(t *testing.T) {
	t.Run("scales normalized tip to pixels", func(t *testing.T) {
		h := Pointing("Left", 0.5, 0.25)

		got := h.Fingertip(1280, 720)
		want := image.Pt(640, 180)
		if got != want {
			t.Errorf("Fingertip() = %v, want %v", got, want)
		}
	})

	t.Run("truncates fractional pixels", func(t *testing.T) {
		h := Landmarks{}
		h.Points[IndexTip] = Point3D{X: 0.0999, Y: 0.5004}

		got := h.Fingertip(1000, 1000)
		want := image.Pt(99, 500)
		if got != want {
			t.Errorf("Fingertip() = %v, want %v", got, want)
		}
	})
}

func TestConnections_ValidIndices(t *testing.T) {
	for _, c := range Connections {
		for _, idx := range c {
			if idx < 0 || idx >= NumLandmarks {
				t.Fatalf("connection %v has out-of-range landmark %d", c, idx)
			}
		}
	}
}

func TestPointing_SideAndScore(t *testing.T) {
	h := Pointing("Right", 0.2, 0.3)
	if h.Side() != Right {
		t.Errorf("Side() = %v, want right", h.Side())
	}
	if h.Points[Wrist].Y <= h.Points[IndexTip].Y {
		t.Errorf("wrist %v should sit below the tip %v", h.Points[Wrist], h.Points[IndexTip])
	}
}
