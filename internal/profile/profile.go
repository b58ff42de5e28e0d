// Package profile handles planar polygon outlines such as the notched side
// profile of a rafter.
//
// The profile is defined in a local coordinate system where:
// - X-axis runs along the member (horizontal projection)
// - Y-axis points upward
package profile

import (
	"fmt"
	"math"
)

// Point represents a 2D coordinate (m)
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is a simple polygon without holes. The closing edge from the last
// vertex back to the first is implicit.
type Polygon []Point

// Properties holds the geometric properties of a polygon
type Properties struct {
	Area      float64 // m²
	CentroidX float64 // m
	CentroidY float64 // m

	// Bounding box
	MinX float64
	MaxX float64
	MinY float64
	MaxY float64
}

// ValidationError represents a profile validation error
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Validate checks that the polygon has enough vertices, finite coordinates
// and a non-zero area
func (p Polygon) Validate() error {
	if len(p) < 3 {
		return &ValidationError{"profile must have at least 3 vertices"}
	}
	for i, v := range p {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return &ValidationError{msg: fmt.Sprintf("vertex %d is not finite", i)}
		}
	}
	if math.Abs(p.SignedArea()) < 1e-12 {
		return &ValidationError{"profile has zero area"}
	}
	return nil
}

// SignedArea uses the shoelace formula. Positive for counter-clockwise order.
func (p Polygon) SignedArea() float64 {
	n := len(p)
	var a float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return a / 2
}

// CalculateProperties computes area, centroid and bounding box
func (p Polygon) CalculateProperties() Properties {
	var props Properties
	if len(p) == 0 {
		return props
	}

	props.MinX, props.MaxX = p[0].X, p[0].X
	props.MinY, props.MaxY = p[0].Y, p[0].Y
	for _, v := range p {
		props.MinX = math.Min(props.MinX, v.X)
		props.MaxX = math.Max(props.MaxX, v.X)
		props.MinY = math.Min(props.MinY, v.Y)
		props.MaxY = math.Max(props.MaxY, v.Y)
	}

	n := len(p)
	var signedArea, sumX, sumY float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := p[i].X*p[j].Y - p[j].X*p[i].Y
		signedArea += cross
		sumX += (p[i].X + p[j].X) * cross
		sumY += (p[i].Y + p[j].Y) * cross
	}
	signedArea /= 2
	props.Area = math.Abs(signedArea)
	if props.Area > 0 {
		props.CentroidX = sumX / (6 * signedArea)
		props.CentroidY = sumY / (6 * signedArea)
	}
	return props
}

// CCW returns the polygon in counter-clockwise order, dropping consecutive
// duplicate vertices.
func (p Polygon) CCW() Polygon {
	out := make(Polygon, 0, len(p))
	for i, v := range p {
		prev := p[(i+len(p)-1)%len(p)]
		if i > 0 && samePoint(v, prev) {
			continue
		}
		out = append(out, v)
	}
	if len(out) > 1 && samePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	if out.SignedArea() < 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func samePoint(a, b Point) bool {
	return math.Abs(a.X-b.X) < 1e-12 && math.Abs(a.Y-b.Y) < 1e-12
}
