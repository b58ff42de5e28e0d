// Package mesh builds triangle meshes of beams and writes them as STL.
package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexiusacademia/timbertrace/internal/profile"
)

// Triangle is a counter-clockwise (outward facing) triangle.
type Triangle struct {
	V [3]r3.Vec
}

// Normal returns the unit normal of the triangle, or the zero vector for a
// degenerate triangle.
func (t Triangle) Normal() r3.Vec {
	n := r3.Cross(r3.Sub(t.V[1], t.V[0]), r3.Sub(t.V[2], t.V[0]))
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// Area returns the triangle area.
func (t Triangle) Area() float64 {
	return r3.Norm(r3.Cross(r3.Sub(t.V[1], t.V[0]), r3.Sub(t.V[2], t.V[0]))) / 2
}

// Mesh is a named triangle soup.
type Mesh struct {
	Name      string
	Triangles []Triangle
}

// New creates an empty mesh.
func New(name string) *Mesh {
	return &Mesh{Name: name}
}

// Add appends the triangles of other meshes.
func (m *Mesh) Add(others ...*Mesh) {
	for _, o := range others {
		m.Triangles = append(m.Triangles, o.Triangles...)
	}
}

// Transform maps every vertex through f in place and returns m.
func (m *Mesh) Transform(f func(r3.Vec) r3.Vec) *Mesh {
	for i := range m.Triangles {
		for j := range m.Triangles[i].V {
			m.Triangles[i].V[j] = f(m.Triangles[i].V[j])
		}
	}
	return m
}

// Volume returns the enclosed volume of a closed mesh via the divergence
// theorem.
func (m *Mesh) Volume() float64 {
	var v float64
	for _, t := range m.Triangles {
		v += r3.Dot(t.V[0], r3.Cross(t.V[1], t.V[2])) / 6
	}
	return math.Abs(v)
}

// SurfaceArea returns the summed triangle area.
func (m *Mesh) SurfaceArea() float64 {
	var a float64
	for _, t := range m.Triangles {
		a += t.Area()
	}
	return a
}

// Bounds returns the axis-aligned bounding box.
func (m *Mesh) Bounds() (min, max r3.Vec) {
	if len(m.Triangles) == 0 {
		return
	}
	min, max = m.Triangles[0].V[0], m.Triangles[0].V[0]
	for _, t := range m.Triangles {
		for _, v := range t.V {
			min = r3.Vec{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
			max = r3.Vec{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
		}
	}
	return min, max
}

// Box returns an axis-aligned box spanning [min, max].
func Box(name string, min, max r3.Vec) *Mesh {
	c := [8]r3.Vec{
		{X: min.X, Y: min.Y, Z: min.Z}, {X: max.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z}, {X: min.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z}, {X: max.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z}, {X: min.X, Y: max.Y, Z: max.Z},
	}
	quads := [6][4]int{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4}, // -Y
		{2, 3, 7, 6}, // +Y
		{1, 2, 6, 5}, // +X
		{3, 0, 4, 7}, // -X
	}
	m := New(name)
	for _, q := range quads {
		m.Triangles = append(m.Triangles,
			Triangle{V: [3]r3.Vec{c[q[0]], c[q[1]], c[q[2]]}},
			Triangle{V: [3]r3.Vec{c[q[0]], c[q[2]], c[q[3]]}},
		)
	}
	return m
}

// ExtrudeXZ extrudes a profile drawn in the local XZ plane (profile X -> X,
// profile Y -> Z) symmetrically along Y by the given total width.
func ExtrudeXZ(name string, outline profile.Polygon, width float64) (*Mesh, error) {
	poly, tris, err := outline.Triangulate()
	if err != nil {
		return nil, err
	}

	hw := width / 2
	at := func(p profile.Point, y float64) r3.Vec { return r3.Vec{X: p.X, Y: y, Z: p.Y} }

	m := New(name)
	// The profile is counter-clockwise seen from -Y looking towards +Y,
	// so the face at -Y keeps the order and the face at +Y flips it.
	for _, t := range tris {
		a, b, c := poly[t[0]], poly[t[1]], poly[t[2]]
		m.Triangles = append(m.Triangles,
			Triangle{V: [3]r3.Vec{at(a, -hw), at(b, -hw), at(c, -hw)}},
			Triangle{V: [3]r3.Vec{at(a, hw), at(c, hw), at(b, hw)}},
		)
	}
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		m.Triangles = append(m.Triangles,
			Triangle{V: [3]r3.Vec{at(a, -hw), at(a, hw), at(b, hw)}},
			Triangle{V: [3]r3.Vec{at(a, -hw), at(b, hw), at(b, -hw)}},
		)
	}
	return m, nil
}
