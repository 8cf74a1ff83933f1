package svgpath

import (
	"errors"
	"math"
	"testing"

	"plasmacut/standalone/motion"
)

var area = motion.WorkArea{Width: 90, Height: 50}

func pt(x, y float64) motion.Point {
	return motion.Point{X: x, Y: y}
}

func samePath(a, b motion.Path) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i].X-b[i].X) > 1e-9 || math.Abs(a[i].Y-b[i].Y) > 1e-9 {
			return false
		}
	}
	return true
}

func TestParseStraightSegments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  motion.Path
	}{
		{"relative lineto", "M0,0 l10,0 l0,5", motion.Path{pt(0, 0), pt(10, 0), pt(10, 5)}},
		{"absolute", "M5,5 L15,5", motion.Path{pt(5, 5), pt(15, 5)}},
		{"relative moveto", "M0,0 m5,5 l10,0", motion.Path{pt(0, 0), pt(5, 5), pt(15, 5)}},
		{"horizontal vertical", "M1,1 H10 v4 h-2 V2", motion.Path{pt(1, 1), pt(10, 1), pt(10, 5), pt(8, 5), pt(8, 2)}},
		{"closepath", "M2,2 L8,2 L8,6 Z", motion.Path{pt(2, 2), pt(8, 2), pt(8, 6), pt(2, 2)}},
		{"implicit lineto", "M1 1 2 2 3 3", motion.Path{pt(1, 1), pt(2, 2), pt(3, 3)}},
		{"implicit relative lineto", "m1,1 1,0 0,1", motion.Path{pt(1, 1), pt(2, 1), pt(2, 2)}},
		{"repeated lineto", "M0,0 L1,1 2,2", motion.Path{pt(0, 0), pt(1, 1), pt(2, 2)}},
		{"compact numbers", "M1.5.5L3e1,2", motion.Path{pt(1.5, 0.5), pt(30, 2)}},
		{"subpaths", "M1,1 L2,1 z m3,3 l1,0 z", motion.Path{pt(1, 1), pt(2, 1), pt(1, 1), pt(4, 4), pt(5, 4), pt(4, 4)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, area)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if !samePath(got, tt.want) {
				t.Errorf("Parse(%q): expected %v, got %v", tt.input, tt.want, got)
			}
		})
	}
}

func TestParseMovetoForms(t *testing.T) {
	a, err := Parse("M5,5 L15,5", area)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("M0,0 m5,5 l10,0", area)
	if err != nil {
		t.Fatal(err)
	}
	if a[len(a)-1] != b[len(b)-1] || a[len(a)-1] != pt(15, 5) {
		t.Errorf("Expected both to end at (15,5), got %v and %v", a[len(a)-1], b[len(b)-1])
	}
	if a[len(a)-2] != b[len(b)-2] {
		t.Errorf("Expected both to reach the end from (5,5), got %v and %v", a[len(a)-2], b[len(b)-2])
	}
}

func TestParseOutOfBoundsDrop(t *testing.T) {
	var discarded, added []motion.Point
	obs := motion.ObserverFunc(func(ev motion.Event) {
		switch ev.Kind {
		case motion.EventPointDiscarded:
			discarded = append(discarded, ev.Point)
		case motion.EventPointAdded:
			added = append(added, ev.Point)
		}
	})

	got, err := Parse("M0,0 L100,0 L10,10", area, WithObserver(obs))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !samePath(got, motion.Path{pt(0, 0), pt(10, 10)}) {
		t.Errorf("Expected [(0,0) (10,10)], got %v", got)
	}
	if len(discarded) != 1 || discarded[0] != pt(100, 0) {
		t.Errorf("Expected one discard at (100,0), got %v", discarded)
	}
	if len(added) != 2 {
		t.Errorf("Expected 2 added events, got %d", len(added))
	}

	// Relative moves continue from the true (dropped) position
	got, err = Parse("M0,0 L100,0 l-20,5", area)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !samePath(got, motion.Path{pt(0, 0), pt(80, 5)}) {
		t.Errorf("Expected [(0,0) (80,5)], got %v", got)
	}
}

func TestParseNeverRetainsOutsidePoints(t *testing.T) {
	inputs := []string{
		"M-1,-1 L200,300 l-5,-5 H-3 V70 Z",
		"m95,10 l-10,0 l0,45 l0,-10",
		"M0,0 Q100,100 50,25 T 91,0",
	}
	for _, in := range inputs {
		got, err := Parse(in, area, WithCurveSegments(16))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", in, err)
		}
		for _, p := range got {
			if p.X < 0 || p.X > area.Width || p.Y < 0 || p.Y > area.Height {
				t.Errorf("Parse(%q) kept out-of-bounds point %v", in, p)
			}
		}
	}
}

func TestParseCurvesWithoutFlattening(t *testing.T) {
	tests := []struct {
		input string
		want  motion.Path
	}{
		{"M0,0 C1,1 2,2 3,3 L5,5", motion.Path{pt(0, 0), pt(5, 5)}},
		{"M0,0 c1,1 2,2 3,3 l1,0", motion.Path{pt(0, 0), pt(4, 3)}},
		{"M0,0 Q1,1 2,2 t2,0 L9,9", motion.Path{pt(0, 0), pt(9, 9)}},
		{"M0,0 S1,1 2,2 s1,1 2,0 l1,1", motion.Path{pt(0, 0), pt(5, 3)}},
		{"M10,10 A5,5 0 1,0 20,10 l0,5", motion.Path{pt(10, 10), pt(20, 15)}},
		{"M10,10 a5 5 30 0110 0 h1", motion.Path{pt(10, 10), pt(21, 10)}},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input, area)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.input, err)
		}
		if !samePath(got, tt.want) {
			t.Errorf("Parse(%q): expected %v, got %v", tt.input, tt.want, got)
		}
	}
}

func TestParseCurveFlattening(t *testing.T) {
	tests := []struct {
		input    string
		segments int
		want     motion.Path
	}{
		{"M0,0 Q5,10 10,0", 2, motion.Path{pt(0, 0), pt(5, 5), pt(10, 0)}},
		{"M0,0 C0,4 4,4 4,0", 2, motion.Path{pt(0, 0), pt(2, 3), pt(4, 0)}},
		{"M0,0 A5,5 0 0,0 10,0", 2, motion.Path{pt(0, 0), pt(5, 5), pt(10, 0)}},
		{"M0,0 A0,5 0 0,0 10,0", 4, motion.Path{pt(0, 0), pt(10, 0)}},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input, area, WithCurveSegments(tt.segments))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tt.input, err)
		}
		if !samePath(got, tt.want) {
			t.Errorf("Parse(%q, %d segments): expected %v, got %v", tt.input, tt.segments, tt.want, got)
		}
	}
}

func TestParseSmoothReflection(t *testing.T) {
	// Second segment mirrors the first control point about (4,0)
	got, err := Parse("M0,0 Q2,4 4,0 T8,0", area, WithCurveSegments(2))
	if err != nil {
		t.Fatal(err)
	}
	// The reflected control point (6,-4) puts the T midpoint at (6,-2), which is dropped
	want := motion.Path{pt(0, 0), pt(2, 2), pt(4, 0), pt(8, 0)}
	if !samePath(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", " ,\n\t"} {
		got, err := Parse(in, area)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", in, err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Parse(%q): expected empty non-nil path, got %#v", in, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input  string
		offset int
		token  string
	}{
		{"M0,0 L-,5", 6, "-"},
		{"M0,0 L.,5", 6, "."},
		{"M0,0 X5,5", 5, "X"},
		{"10,10 L5,5", 0, "10"},
		{"M0,0 L5", 7, ""},
		{"M0,0 Z 5,5", 7, "5"},
		{"M0,0 A5,5 0 2,0 10,0", 12, "2"},
	}

	for _, tt := range tests {
		_, err := Parse(tt.input, area)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Parse(%q): expected ParseError, got %v", tt.input, err)
			continue
		}
		if perr.Offset != tt.offset || perr.Token != tt.token {
			t.Errorf("Parse(%q): expected token %q at %d, got %q at %d", tt.input, tt.token, tt.offset, perr.Token, perr.Offset)
		}
	}
}

func TestParserReuse(t *testing.T) {
	p := NewParser(area)
	first, err := p.Parse("M1,1 L2,2")
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Parse("l3,3")
	if err != nil {
		t.Fatal(err)
	}
	// Each call starts from the origin
	if !samePath(second, motion.Path{pt(3, 3)}) {
		t.Errorf("Expected fresh cursor per call, got %v", second)
	}
	if len(first) != 2 {
		t.Errorf("Expected first path untouched, got %v", first)
	}
}

func TestParseWithOffset(t *testing.T) {
	got, err := Parse("M0,0 l5,0 L-4,1", area, WithOffset(pt(3, 2)))
	if err != nil {
		t.Fatal(err)
	}
	// (-4,1) lands at (-1,3) and is dropped
	if !samePath(got, motion.Path{pt(3, 2), pt(8, 2)}) {
		t.Errorf("Expected translated path, got %v", got)
	}
}
