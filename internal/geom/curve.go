package geom

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Curve maps linear progress in [0, 1] to eased progress.
// The output usually stays in [0, 1] but is not required to be monotonic.
type Curve func(t float64) float64

var (
	// Linear applies no easing.
	Linear Curve = func(t float64) float64 { return t }

	// ExpoOut starts fast and decelerates exponentially. Reaches exactly 1 at t=1.
	ExpoOut Curve = func(t float64) float64 {
		if t >= 1 {
			return 1
		}
		return 1 - math.Pow(2, -10*t)
	}

	// Bounce overshoots into the target and settles with decaying bounces.
	Bounce Curve = bounceOut

	// EaseInOutCubic accelerates through the first half and decelerates through the second.
	EaseInOutCubic Curve = func(t float64) float64 {
		if t < 0.5 {
			return 4 * t * t * t
		}
		p := 2*t - 2
		return 1 + p*p*p/2
	}

	// Smoothstep is the classic 3t²-2t³ S-curve.
	Smoothstep Curve = func(t float64) float64 {
		return t * t * (3 - 2*t)
	}
)

func bounceOut(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// CubicBezier returns a curve matching CSS cubic-bezier(x1, y1, x2, y2).
func CubicBezier(x1, y1, x2, y2 float64) Curve {
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}

		u := t
		for range 8 {
			x := sampleBezier(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				return sampleBezier(y1, y2, Clamp01(u))
			}
			dx := sampleBezierDerivative(x1, x2, u)
			if math.Abs(dx) < 1e-7 {
				break
			}
			u -= x / dx
		}

		// Newton failed to converge; bisect.
		lo, hi := 0.0, 1.0
		u = Clamp01(u)
		for range 20 {
			x := sampleBezier(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				break
			}
			if x > 0 {
				hi = u
			} else {
				lo = u
			}
			u = (lo + hi) / 2
		}
		return sampleBezier(y1, y2, u)
	}
}

func sampleBezier(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*t*a + 3*inv*t*t*b + t*t*t
}

func sampleBezierDerivative(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*a + 6*inv*t*(b-a) + 3*t*t*(1-b)
}

var namedCurves = map[string]Curve{
	"linear":     Linear,
	"expo":       ExpoOut,
	"bounce":     Bounce,
	"cubic":      EaseInOutCubic,
	"smoothstep": Smoothstep,
	"ease":       CubicBezier(0.25, 0.1, 0.25, 1.0),
}

// CurveByName resolves a curve name used in configuration files.
func CurveByName(name string) (Curve, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if c, ok := namedCurves[key]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown curve %q (available: %s)", name, strings.Join(CurveNames(), ", "))
}

// CurveNames lists the names accepted by CurveByName.
func CurveNames() []string {
	names := make([]string, 0, len(namedCurves))
	for name := range namedCurves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
