package serial

import "math"

// Geometry is the exact boundary the mesh approximates.
type Geometry interface {
	// Project returns the closest point of the boundary to p.
	Project(p []float64) []float64
	// Contains reports whether p lies on the boundary within tol, relative
	// to the size of the geometry.
	Contains(p []float64, tol float64) bool
}

// Circle is a circle in the plane.
type Circle struct {
	Center [2]float64
	Radius float64
}

func (c Circle) Project(p []float64) []float64 {
	return projectSphere(c.Center[:], c.Radius, p)
}

func (c Circle) Contains(p []float64, tol float64) bool {
	return onSphere(c.Center[:], c.Radius, p, tol)
}

// Sphere is a sphere in space.
type Sphere struct {
	Center [3]float64
	Radius float64
}

func (s Sphere) Project(p []float64) []float64 {
	return projectSphere(s.Center[:], s.Radius, p)
}

func (s Sphere) Contains(p []float64, tol float64) bool {
	return onSphere(s.Center[:], s.Radius, p, tol)
}

func projectSphere(center []float64, radius float64, p []float64) []float64 {
	r := distance(center, p)
	out := append([]float64(nil), p...)
	if r == 0 {
		return out
	}
	for i := range out {
		out[i] = center[i] + radius*(p[i]-center[i])/r
	}
	return out
}

func onSphere(center []float64, radius float64, p []float64, tol float64) bool {
	return math.Abs(distance(center, p)-radius) <= tol*math.Max(1, radius)
}

func distance(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
