package beam

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexiusacademia/timbertrace/internal/mesh"
)

// Post is a vertical column standing on its local origin.
type Post struct {
	Frame
	Width  float64 // local X (m)
	Depth  float64 // local Y (m)
	Height float64 // local Z (m)
}

// NewPost returns a 0.1 x 0.1 x 2.2 m post.
func NewPost() *Post {
	return &Post{Width: 0.1, Depth: 0.1, Height: 2.2}
}

var postLoci = map[Face][]Locus{
	Top: {point("0", "0", "height")},
}

func (p *Post) Kind() Kind { return KindPost }

func (p *Post) morphology() []field {
	return []field{
		{"width", &p.Width},
		{"depth", &p.Depth},
		{"height", &p.Height},
	}
}

func (p *Post) Parameters() Parameters {
	return collect(&p.Frame, p.morphology())
}

func (p *Post) SetParameters(values map[string]float64) {
	assign(values, p.Frame.fields(), p.morphology())
}

func (p *Post) Bounds() map[string]Bound {
	return withPositionBounds(map[string]Bound{
		"width":  {0.05, 0.3},
		"depth":  {0.05, 0.3},
		"height": {1, 5},
	})
}

// Constraints defines only the top face: the center of the top end.
func (p *Post) Constraints(face Face) ([]Locus, error) {
	local := LocalFace(face, p.RotationZ)
	if loci, ok := postLoci[local]; ok {
		return append([]Locus(nil), loci...), nil
	}
	return nil, notImplemented(KindPost, face, local)
}

func (p *Post) Inequalities() []Inequality { return nil }

func (p *Post) Model() (*mesh.Mesh, error) {
	hw, hd := p.Width/2, p.Depth/2
	m := mesh.Box("post", r3.Vec{X: -hw, Y: -hd}, r3.Vec{X: hw, Y: hd, Z: p.Height})
	return m.Transform(p.Frame.ToGlobal), nil
}

func (p *Post) Clone() Beam {
	c := *p
	return &c
}
