package svgdoc

import (
	"errors"
	"math"
	"strings"
	"testing"

	"plasmacut/standalone/motion"
)

const drawing = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="80cm" height="400mm">
  <path id="outline" d="M0,0 L10,0 L10,10 Z"/>
  <g transform="translate(5, 2)">
    <path d="M1,1 l2,0"/>
    <g transform="translate(1)">
      <path d="M0,0 h1"/>
    </g>
  </g>
  <path d=""/>
  <rect width="10" height="10"/>
</svg>`

func TestLoad(t *testing.T) {
	doc, err := Load(strings.NewReader(drawing))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if doc.Width != 80 || math.Abs(doc.Height-40) > 1e-9 {
		t.Errorf("Expected 80x40 cm, got %gx%g", doc.Width, doc.Height)
	}
	if len(doc.Paths) != 3 {
		t.Fatalf("Expected 3 non-empty paths, got %d", len(doc.Paths))
	}
	if doc.Paths[0].ID != "outline" || doc.Paths[0].Offset != (motion.Point{}) {
		t.Errorf("Unexpected first path: %+v", doc.Paths[0])
	}
	if doc.Paths[1].Offset != (motion.Point{X: 5, Y: 2}) {
		t.Errorf("Expected group translate (5,2), got %v", doc.Paths[1].Offset)
	}
	if doc.Paths[2].Offset != (motion.Point{X: 6, Y: 2}) {
		t.Errorf("Expected nested translate (6,2), got %v", doc.Paths[2].Offset)
	}
}

func TestCheckSize(t *testing.T) {
	area := motion.WorkArea{Width: 90, Height: 50}

	tests := []struct {
		svg string
		ok  bool
	}{
		{`<svg width="90cm" height="50cm"></svg>`, true},
		{`<svg width="91cm" height="50cm"></svg>`, false},
		{`<svg width="90" height="51"></svg>`, false},
		{`<svg width="100%" height="100%"></svg>`, true},
		{`<svg></svg>`, true},
		{`<svg width="30in" height="10in"></svg>`, true},
		{`<svg width="36in" height="10in"></svg>`, false},
	}

	for _, tt := range tests {
		doc, err := Load(strings.NewReader(tt.svg))
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", tt.svg, err)
		}
		err = doc.CheckSize(area)
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.svg, err)
		}
		if !tt.ok && !errors.Is(err, ErrDrawingTooLarge) {
			t.Errorf("%s: expected ErrDrawingTooLarge, got %v", tt.svg, err)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want error
	}{
		{"no root", `<html></html>`, ErrNoSVG},
		{"rotate", `<svg><path transform="rotate(45)" d="M0,0"/></svg>`, ErrUnsupportedTransform},
		{"scale after translate", `<svg><g transform="translate(1,1) scale(2)"></g></svg>`, ErrUnsupportedTransform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.svg))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	for _, bad := range []string{
		`<svg width="abc"></svg>`,
		`<svg width="10furlongs"></svg>`,
		`<svg><path d="M0,0"`,
		`<svg><g transform="translate(1,2,3)"></g></svg>`,
	} {
		if _, err := Load(strings.NewReader(bad)); err == nil {
			t.Errorf("Load(%s): expected error", bad)
		}
	}
}
