package geom

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		want      float64
	}{
		{"within", 150, 100, 200, 150},
		{"below min", 50, 100, 200, 100},
		{"above max", 250, 100, 200, 200},
		{"unbounded max", 5000, 100, 0, 5000},
		{"max below min", 50, 100, 80, 100},
		{"negative floor", -10, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
				t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestLimitsApply(t *testing.T) {
	l := Limits{MinWidth: 100, MaxWidth: 200}
	got := l.Apply(Size{Width: 50, Height: 30})
	if got.Width != 100 || got.Height != 30 {
		t.Fatalf("Apply() = %+v, want width=100 height=30", got)
	}
}

func TestAnchorOriginFor(t *testing.T) {
	size := Size{Width: 200, Height: 100}
	p := Point{X: 500, Y: 400}
	for a := range anchorNames {
		origin := a.OriginFor(p, size)
		frame := Rect{X: origin.X, Y: origin.Y, Width: size.Width, Height: size.Height}
		if got := a.PointOf(frame); got != p {
			t.Errorf("%s: anchor lands at %+v, want %+v", a, got, p)
		}
	}

	if got := Center.OriginFor(p, size); got != (Point{X: 400, Y: 350}) {
		t.Fatalf("Center.OriginFor = %+v, want (400,350)", got)
	}
}

func TestParseAnchor(t *testing.T) {
	a, err := ParseAnchor("bottomRight")
	if err != nil || a != BottomRight {
		t.Fatalf("ParseAnchor(bottomRight) = %v, %v", a, err)
	}
	a, err = ParseAnchor("")
	if err != nil || a != TopLeft {
		t.Fatalf("ParseAnchor(\"\") = %v, %v", a, err)
	}
	if _, err := ParseAnchor("middle"); err == nil {
		t.Fatalf("expected error for unknown anchor")
	}
}

func TestEdgeCompatibility(t *testing.T) {
	for _, f := range AllEdges {
		for _, g := range AllEdges {
			want := f.Opposite() == g
			if got := Compatible(f, g); got != want {
				t.Errorf("Compatible(%s, %s) = %v, want %v", f, g, got, want)
			}
			if Compatible(f, g) != Compatible(g, f) {
				t.Errorf("Compatible(%s, %s) is not symmetric", f, g)
			}
		}
	}
}

func TestAlignmentAlign(t *testing.T) {
	tests := []struct {
		a    Alignment
		want float64
	}{
		{AlignLeading, 10},
		{AlignCenter, 30},
		{AlignTrailing, 50},
	}
	for _, tt := range tests {
		if got := tt.a.Align(10, 100, 60); got != tt.want {
			t.Errorf("%s.Align(10,100,60) = %v, want %v", tt.a, got, tt.want)
		}
	}
}

func TestOverlap(t *testing.T) {
	if got := Overlap(0, 100, 50, 150); got != 50 {
		t.Errorf("Overlap = %v, want 50", got)
	}
	if got := Overlap(0, 100, 100, 150); got != 0 {
		t.Errorf("touching spans overlap = %v, want 0", got)
	}
}
