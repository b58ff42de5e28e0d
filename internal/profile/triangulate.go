package profile

import (
	"errors"
	"math"
)

// ErrTriangulate is returned when ear clipping cannot make progress, which
// happens for self-intersecting outlines.
var ErrTriangulate = errors.New("profile: polygon cannot be triangulated")

// Triangulate splits the polygon into triangles by ear clipping. The result
// indexes into p.CCW(); every triangle is counter-clockwise.
func (p Polygon) Triangulate() (Polygon, [][3]int, error) {
	poly := dropCollinear(p.CCW())
	if err := poly.Validate(); err != nil {
		return nil, nil, err
	}

	idx := make([]int, len(poly))
	for i := range idx {
		idx[i] = i
	}

	var tris [][3]int
	for len(idx) > 3 {
		clipped := false
		for i := range idx {
			a := idx[(i+len(idx)-1)%len(idx)]
			b := idx[i]
			c := idx[(i+1)%len(idx)]
			if !isEar(poly, idx, a, b, c) {
				continue
			}
			tris = append(tris, [3]int{a, b, c})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, nil, ErrTriangulate
		}
	}
	tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	return poly, tris, nil
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func isEar(poly Polygon, idx []int, a, b, c int) bool {
	pa, pb, pc := poly[a], poly[b], poly[c]
	if cross(pa, pb, pc) <= 1e-15 {
		return false // reflex or degenerate
	}
	for _, k := range idx {
		if k == a || k == b || k == c {
			continue
		}
		if insideTriangle(poly[k], pa, pb, pc) {
			return false
		}
	}
	return true
}

func insideTriangle(p, a, b, c Point) bool {
	return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
}

func dropCollinear(p Polygon) Polygon {
	out := make(Polygon, 0, len(p))
	for i, v := range p {
		prev := p[(i+len(p)-1)%len(p)]
		next := p[(i+1)%len(p)]
		if math.Abs(cross(prev, v, next)) < 1e-14 {
			continue
		}
		out = append(out, v)
	}
	return out
}
