package svgpath

import (
	"fmt"

	"github.com/tdewolff/parse/v2/strconv"

	"plasmacut/standalone/kinematics"
	"plasmacut/standalone/motion"
)

// ParseError reports malformed path data. The whole parse is aborted.
type ParseError struct {
	Offset int    // Byte offset of the offending token
	Token  string // Offending token, empty at end of input
	Reason string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("svgpath: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("svgpath: %s at offset %d: %q", e.Reason, e.Offset, e.Token)
}

// Number of arguments per command
var cmdLens = map[byte]int{
	'M': 2,
	'L': 2,
	'H': 1,
	'V': 1,
	'C': 6,
	'S': 4,
	'Q': 4,
	'T': 2,
	'A': 7,
	'Z': 0,
}

// Option configures a Parser
type Option func(*Parser)

// WithObserver sets the observer receiving point added/discarded events
func WithObserver(obs motion.Observer) Option {
	return func(p *Parser) {
		p.observer = obs
	}
}

// WithCurveSegments flattens curve and arc commands into n chords. With
// n == 0 (the default) curves only advance the current position.
func WithCurveSegments(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.segments = n
		}
	}
}

// WithOffset translates every point by off before bounds checking, as a
// translate transform on the path element would
func WithOffset(off motion.Point) Option {
	return func(p *Parser) {
		p.offset = off
	}
}

// Parser turns SVG path data into bounded toolpath points
type Parser struct {
	area     motion.WorkArea
	observer motion.Observer
	segments int
	offset   motion.Point
}

// NewParser creates a parser validating points against area
func NewParser(area motion.WorkArea, opts ...Option) *Parser {
	p := &Parser{
		area:     area,
		observer: motion.Nop,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse is a shorthand for NewParser(area, opts...).Parse(d)
func Parse(d string, area motion.WorkArea, opts ...Option) (motion.Path, error) {
	return NewParser(area, opts...).Parse(d)
}

// cursor tracks the pen while walking one path string
type cursor struct {
	cur   motion.Point // True current position, advances even for dropped points
	start motion.Point // Subpath start
	ctrl  motion.Point // Last control point, for S/T reflection
	prev  byte         // Previous command, upper case
	path  motion.Path
}

// Parse walks path data d. Every moveto, lineto and closepath yields a
// candidate point; candidates outside the work area are dropped. Empty
// input yields an empty path.
func (p *Parser) Parse(d string) (motion.Path, error) {
	b := []byte(d)
	c := &cursor{path: motion.Path{}}

	var f [7]float64
	cmd := byte(0)
	i := skipCommaWhitespace(b)
	for i < len(b) {
		if !isNumberStart(b[i]) {
			cmd = b[i]
			if _, ok := cmdLens[upper(cmd)]; !ok {
				return nil, &ParseError{Offset: i, Token: string(b[i]), Reason: "unknown command"}
			}
			i++
			i += skipCommaWhitespace(b[i:])
		} else if cmd == 0 {
			return nil, &ParseError{Offset: i, Token: tokenAt(b, i), Reason: "path data must start with a command"}
		} else if upper(cmd) == 'Z' {
			return nil, &ParseError{Offset: i, Token: tokenAt(b, i), Reason: "unexpected number after closepath"}
		}

		n := cmdLens[upper(cmd)]
		for j := 0; j < n; j++ {
			if i >= len(b) {
				return nil, &ParseError{Offset: i, Reason: fmt.Sprintf("expected %d numbers after '%c'", n, cmd)}
			}
			if upper(cmd) == 'A' && (j == 3 || j == 4) {
				// Arc flags are single digits and may be written without separators
				if b[i] != '0' && b[i] != '1' {
					return nil, &ParseError{Offset: i, Token: tokenAt(b, i), Reason: "invalid arc flag"}
				}
				f[j] = float64(b[i] - '0')
				i++
			} else {
				num, k := strconv.ParseFloat(b[i:])
				if k == 0 {
					return nil, &ParseError{Offset: i, Token: tokenAt(b, i), Reason: "malformed number"}
				}
				f[j] = num
				i += k
			}
			i += skipCommaWhitespace(b[i:])
		}

		p.apply(c, cmd, f[:n])

		// Numbers after a moveto are implicit linetos
		switch cmd {
		case 'M':
			cmd = 'L'
		case 'm':
			cmd = 'l'
		}
	}
	return c.path, nil
}

func (p *Parser) apply(c *cursor, cmd byte, f []float64) {
	rel := cmd >= 'a'
	var origin motion.Point
	if rel {
		origin = c.cur
	}
	at := func(x, y float64) motion.Point {
		return motion.Point{X: origin.X + x, Y: origin.Y + y}
	}

	switch upper(cmd) {
	case 'M':
		c.cur = at(f[0], f[1])
		c.start = c.cur
		p.emit(c, c.cur)
	case 'L':
		c.cur = at(f[0], f[1])
		p.emit(c, c.cur)
	case 'H':
		c.cur.X = origin.X + f[0]
		p.emit(c, c.cur)
	case 'V':
		c.cur.Y = origin.Y + f[0]
		p.emit(c, c.cur)
	case 'Z':
		c.cur = c.start
		p.emit(c, c.cur)
	case 'C':
		cp1, cp2, end := at(f[0], f[1]), at(f[2], f[3]), at(f[4], f[5])
		p.curve(c, cubicPoints(c.cur, cp1, cp2, end, p.segments), end)
		c.ctrl = cp2
	case 'S':
		cp1 := c.cur
		if c.prev == 'C' || c.prev == 'S' {
			cp1 = reflect(c.ctrl, c.cur)
		}
		cp2, end := at(f[0], f[1]), at(f[2], f[3])
		p.curve(c, cubicPoints(c.cur, cp1, cp2, end, p.segments), end)
		c.ctrl = cp2
	case 'Q':
		cp, end := at(f[0], f[1]), at(f[2], f[3])
		p.curve(c, quadPoints(c.cur, cp, end, p.segments), end)
		c.ctrl = cp
	case 'T':
		cp := c.cur
		if c.prev == 'Q' || c.prev == 'T' {
			cp = reflect(c.ctrl, c.cur)
		}
		end := at(f[0], f[1])
		p.curve(c, quadPoints(c.cur, cp, end, p.segments), end)
		c.ctrl = cp
	case 'A':
		end := at(f[5], f[6])
		p.curve(c, arcPoints(c.cur, f[0], f[1], f[2], f[3] == 1, f[4] == 1, end, p.segments), end)
	}
	c.prev = upper(cmd)
}

// curve emits flattened points (if any) and moves the pen to end
func (p *Parser) curve(c *cursor, pts []motion.Point, end motion.Point) {
	for _, pt := range pts {
		p.emit(c, pt)
	}
	c.cur = end
}

func (p *Parser) emit(c *cursor, pt motion.Point) {
	pt = pt.Add(p.offset)
	if !kinematics.Within(pt, p.area) {
		p.observer.Notify(motion.Event{Kind: motion.EventPointDiscarded, Point: pt})
		return
	}
	c.path = append(c.path, pt)
	p.observer.Notify(motion.Event{Kind: motion.EventPointAdded, Point: pt})
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func isNumberStart(c byte) bool {
	return '0' <= c && c <= '9' || c == '.' || c == '-' || c == '+'
}

func skipCommaWhitespace(b []byte) int {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == ',' || b[i] == '\n' || b[i] == '\r' || b[i] == '\t') {
		i++
	}
	return i
}

// tokenAt returns the run of bytes at i up to the next separator
func tokenAt(b []byte, i int) string {
	j := i
	for j < len(b) && j-i < 32 {
		c := b[j]
		if c == ' ' || c == ',' || c == '\n' || c == '\r' || c == '\t' {
			break
		}
		if j > i && !isNumberStart(c) && c != 'e' && c != 'E' {
			break
		}
		j++
	}
	return string(b[i:j])
}
