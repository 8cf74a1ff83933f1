// Package svgdoc reads the parts of an SVG document the cutter needs: the
// declared drawing size and the path data of every <path> element.
package svgdoc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2/strconv"

	"plasmacut/standalone/motion"
)

var (
	// ErrDrawingTooLarge is returned when the declared size exceeds the work area
	ErrDrawingTooLarge = errors.New("svgdoc: drawing exceeds work area")

	// ErrNoSVG is returned when the document has no <svg> root
	ErrNoSVG = errors.New("svgdoc: no svg element")

	// ErrUnsupportedTransform is returned for transforms other than translate
	ErrUnsupportedTransform = errors.New("svgdoc: unsupported transform")
)

// Centimetres per unit. Unitless lengths are taken as cm.
var unitScale = map[string]float64{
	"":   1,
	"cm": 1,
	"mm": 0.1,
	"in": 2.54,
	"pt": 2.54 / 72,
	"pc": 2.54 / 6,
	"px": 2.54 / 96,
}

// PathData is the d attribute of one <path> element
type PathData struct {
	ID     string
	D      string
	Offset motion.Point // Accumulated translate of the element and its groups
}

// Document is the cut-relevant content of an SVG file
type Document struct {
	Width  float64 // Declared width in cm, 0 if absent
	Height float64 // Declared height in cm, 0 if absent
	Paths  []PathData
}

// CheckSize rejects drawings whose declared size does not fit area.
// Undeclared dimensions are not checked.
func (d *Document) CheckSize(area motion.WorkArea) error {
	if d.Width > area.Width || d.Height > area.Height {
		return fmt.Errorf("%w: %gx%g cm on a %gx%g cm table",
			ErrDrawingTooLarge, d.Width, d.Height, area.Width, area.Height)
	}
	return nil
}

// Load reads an SVG document
func Load(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)

	doc := &Document{}
	seenRoot := false
	offsets := []motion.Point{{}}

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("svgdoc: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			off, err := translate(attr(t, "transform"))
			if err != nil {
				return nil, err
			}
			off = off.Add(offsets[len(offsets)-1])
			offsets = append(offsets, off)

			switch t.Name.Local {
			case "svg":
				if seenRoot {
					continue
				}
				seenRoot = true
				if doc.Width, err = length(attr(t, "width")); err != nil {
					return nil, err
				}
				if doc.Height, err = length(attr(t, "height")); err != nil {
					return nil, err
				}
			case "path":
				if d := attr(t, "d"); strings.TrimSpace(d) != "" {
					doc.Paths = append(doc.Paths, PathData{ID: attr(t, "id"), D: d, Offset: off})
				}
			}

		case xml.EndElement:
			if len(offsets) > 1 {
				offsets = offsets[:len(offsets)-1]
			}
		}
	}

	if !seenRoot {
		return nil, ErrNoSVG
	}
	return doc, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// length parses an SVG length into cm. Percentages and empty values
// count as undeclared.
func length(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0, nil
	}
	v, n := strconv.ParseFloat([]byte(s))
	if n == 0 {
		return 0, fmt.Errorf("svgdoc: invalid length %q", s)
	}
	scale, ok := unitScale[strings.ToLower(strings.TrimSpace(s[n:]))]
	if !ok {
		return 0, fmt.Errorf("svgdoc: unknown unit in length %q", s)
	}
	return v * scale, nil
}

// translate parses a transform attribute. Only translate() is supported.
func translate(s string) (motion.Point, error) {
	var off motion.Point
	s = strings.TrimSpace(s)
	for s != "" {
		if !strings.HasPrefix(s, "translate") {
			return motion.Point{}, fmt.Errorf("%w: %q", ErrUnsupportedTransform, s)
		}
		open := strings.IndexByte(s, '(')
		end := strings.IndexByte(s, ')')
		if open < 0 || end < open {
			return motion.Point{}, fmt.Errorf("svgdoc: malformed transform %q", s)
		}

		args := []byte(s[open+1 : end])
		var vals []float64
		for {
			args = []byte(strings.TrimLeft(string(args), " ,\t\n"))
			if len(args) == 0 {
				break
			}
			v, n := strconv.ParseFloat(args)
			if n == 0 {
				return motion.Point{}, fmt.Errorf("svgdoc: malformed transform %q", s)
			}
			vals = append(vals, v)
			args = args[n:]
		}
		switch len(vals) {
		case 1:
			off.X += vals[0]
		case 2:
			off.X += vals[0]
			off.Y += vals[1]
		default:
			return motion.Point{}, fmt.Errorf("svgdoc: malformed transform %q", s)
		}
		s = strings.TrimLeft(s[end+1:], " ,\t\n")
	}
	return off, nil
}
