package svgpath

import (
	"math"

	"plasmacut/standalone/motion"
)

// reflect mirrors p about center
func reflect(p, center motion.Point) motion.Point {
	return motion.Point{X: 2*center.X - p.X, Y: 2*center.Y - p.Y}
}

// cubicPoints samples a cubic Bézier at n evenly spaced parameters. The
// last point is exactly p1. It returns nil for n == 0.
func cubicPoints(p0, c1, c2, p1 motion.Point, n int) []motion.Point {
	if n <= 0 {
		return nil
	}
	pts := make([]motion.Point, 0, n)
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		u := 1 - t
		a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
		pts = append(pts, motion.Point{
			X: a*p0.X + b*c1.X + c*c2.X + d*p1.X,
			Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
		})
	}
	return append(pts, p1)
}

// quadPoints samples a quadratic Bézier like cubicPoints
func quadPoints(p0, c, p1 motion.Point, n int) []motion.Point {
	if n <= 0 {
		return nil
	}
	pts := make([]motion.Point, 0, n)
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		u := 1 - t
		a, b, d := u*u, 2*u*t, t*t
		pts = append(pts, motion.Point{
			X: a*p0.X + b*c.X + d*p1.X,
			Y: a*p0.Y + b*c.Y + d*p1.Y,
		})
	}
	return append(pts, p1)
}

// arcPoints samples an SVG elliptical arc using the endpoint to center
// conversion of SVG 1.1 appendix F.6. Degenerate arcs collapse to a line.
func arcPoints(p0 motion.Point, rx, ry, phiDeg float64, large, sweep bool, p1 motion.Point, n int) []motion.Point {
	if n <= 0 || p0 == p1 {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []motion.Point{p1}
	}

	sinPhi, cosPhi := math.Sincos(phiDeg * math.Pi / 180)
	dx2, dy2 := (p0.X-p1.X)/2, (p0.Y-p1.Y)/2
	x1 := cosPhi*dx2 + sinPhi*dy2
	y1 := -sinPhi*dx2 + cosPhi*dy2

	// Scale up radii that cannot span the endpoints
	if lambda := x1*x1/(rx*rx) + y1*y1/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}

	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := 0.0
	if num > 0 && den > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cx1 := coef * rx * y1 / ry
	cy1 := -coef * ry * x1 / rx
	cx := cosPhi*cx1 - sinPhi*cy1 + (p0.X+p1.X)/2
	cy := sinPhi*cx1 + cosPhi*cy1 + (p0.Y+p1.Y)/2

	theta := math.Atan2((y1-cy1)/ry, (x1-cx1)/rx)
	theta2 := math.Atan2((-y1-cy1)/ry, (-x1-cx1)/rx)
	delta := theta2 - theta
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}

	pts := make([]motion.Point, 0, n)
	for i := 1; i < n; i++ {
		sin, cos := math.Sincos(theta + delta*float64(i)/float64(n))
		x, y := rx*cos, ry*sin
		pts = append(pts, motion.Point{
			X: cosPhi*x - sinPhi*y + cx,
			Y: sinPhi*x + cosPhi*y + cy,
		})
	}
	return append(pts, p1)
}
