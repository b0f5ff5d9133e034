package geom

import (
	"fmt"
	"math"
)

// Point is a position in screen coordinates.
type Point struct {
	X int
	Y int
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns the offset from o to p.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Distance returns the Euclidean distance between p and o.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(float64(p.X-o.X), float64(p.Y-o.Y))
}

// Rect describes a rectangular region in screen coordinates.
// Rect values are never mutated in place; every helper returns a new value.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// UnsetRect marks a rectangle that has not been assigned yet.
var UnsetRect = Rect{X: math.MinInt32, Y: math.MinInt32}

// IsZero reports whether r is the zero rectangle.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// IsUnset reports whether r is the UnsetRect marker.
func (r Rect) IsUnset() bool {
	return r == UnsetRect
}

func (r Rect) Left() int   { return r.X }
func (r Rect) Top() int    { return r.Y }
func (r Rect) Right() int  { return r.X + r.Width }
func (r Rect) Bottom() int { return r.Y + r.Height }

// WithLeft moves r horizontally so its left edge lands on x.
func (r Rect) WithLeft(x int) Rect {
	r.X = x
	return r
}

// WithTop moves r vertically so its top edge lands on y.
func (r Rect) WithTop(y int) Rect {
	r.Y = y
	return r
}

// WithRight moves r horizontally so its right edge lands on x.
func (r Rect) WithRight(x int) Rect {
	r.X = x - r.Width
	return r
}

// WithBottom moves r vertically so its bottom edge lands on y.
func (r Rect) WithBottom(y int) Rect {
	r.Y = y - r.Height
	return r
}

// Contains reports whether p lies inside r. The right and bottom edges are exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Center returns the center point of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// WithCenter moves r so its center lands on c.
func (r Rect) WithCenter(c Point) Rect {
	r.X = c.X - r.Width/2
	r.Y = c.Y - r.Height/2
	return r
}

// ClampWithin translates r so it fits inside bounds without resizing it.
// A rectangle larger than bounds is aligned to the bounds' top-left corner.
func (r Rect) ClampWithin(bounds Rect) Rect {
	if r.Right() > bounds.Right() {
		r.X = bounds.Right() - r.Width
	}
	if r.X < bounds.X {
		r.X = bounds.X
	}
	if r.Bottom() > bounds.Bottom() {
		r.Y = bounds.Bottom() - r.Height
	}
	if r.Y < bounds.Y {
		r.Y = bounds.Y
	}
	return r
}

// Sub returns the component-wise difference r - o.
func (r Rect) Sub(o Rect) Rect {
	return Rect{
		X:      r.X - o.X,
		Y:      r.Y - o.Y,
		Width:  r.Width - o.Width,
		Height: r.Height - o.Height,
	}
}

// Magnitude returns the Euclidean length of r viewed as a four component vector.
// Used on delta rectangles to measure how far an animation has to travel.
func (r Rect) Magnitude() float64 {
	x, y := float64(r.X), float64(r.Y)
	w, h := float64(r.Width), float64(r.Height)
	return math.Sqrt(x*x + y*y + w*w + h*h)
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// LerpRect interpolates every component of a toward b by t, rounding to the
// nearest pixel. t is not clamped so overshooting curves work.
func LerpRect(a, b Rect, t float64) Rect {
	return Rect{
		X:      lerpInt(a.X, b.X, t),
		Y:      lerpInt(a.Y, b.Y, t),
		Width:  lerpInt(a.Width, b.Width, t),
		Height: lerpInt(a.Height, b.Height, t),
	}
}

func lerpInt(a, b int, t float64) int {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return a + int(math.Round(float64(b-a)*t))
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Percentage returns where x falls between min and max, 0 at min and 1 at max.
func Percentage(x, min, max float64) float64 {
	return (x - min) / (max - min)
}

// Clamp01 limits v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v >= 0 {
		return v
	}
	return 0
}
