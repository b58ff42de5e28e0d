package beam

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexiusacademia/timbertrace/internal/mesh"
)

// Purlin is a horizontal beam whose length runs along local Y. Its local
// origin is the center of the bottom face.
type Purlin struct {
	Frame
	Length float64 // local Y (m)
	Width  float64 // local X (m)
	Height float64 // local Z (m)
}

// NewPurlin returns a 6 m purlin with a 0.12 x 0.16 m section.
func NewPurlin() *Purlin {
	return &Purlin{Length: 6, Width: 0.12, Height: 0.16}
}

var (
	alongLength = between("-length/2", "length/2")
	upHeight    = between("0", "height")

	purlinLoci = map[Face][]Locus{
		Top:    {line("0", "slack_0", "height", alongLength)},
		Bottom: {line("0", "slack_0", "0", alongLength)},
		Right:  {plane("width/2", "slack_0", "slack_1", alongLength, upHeight)},
		Left:   {plane("-width/2", "slack_0", "slack_1", alongLength, upHeight)},
		Front:  {point("0", "length/2", "height/2")},
		Back:   {point("0", "-length/2", "height/2")},
	}
)

func (p *Purlin) Kind() Kind { return KindPurlin }

func (p *Purlin) morphology() []field {
	return []field{
		{"length", &p.Length},
		{"width", &p.Width},
		{"height", &p.Height},
	}
}

func (p *Purlin) Parameters() Parameters {
	return collect(&p.Frame, p.morphology())
}

func (p *Purlin) SetParameters(values map[string]float64) {
	assign(values, p.Frame.fields(), p.morphology())
}

func (p *Purlin) Bounds() map[string]Bound {
	return withPositionBounds(map[string]Bound{
		"length": {1, 15},
		"width":  {0.08, 0.3},
		"height": {0.1, 0.4},
	})
}

// Constraints defines all six faces: center lines on top and bottom, the
// side planes and the end points.
func (p *Purlin) Constraints(face Face) ([]Locus, error) {
	local := LocalFace(face, p.RotationZ)
	if loci, ok := purlinLoci[local]; ok {
		return append([]Locus(nil), loci...), nil
	}
	return nil, notImplemented(KindPurlin, face, local)
}

func (p *Purlin) Inequalities() []Inequality { return nil }

func (p *Purlin) Model() (*mesh.Mesh, error) {
	hw, hl := p.Width/2, p.Length/2
	m := mesh.Box("purlin", r3.Vec{X: -hw, Y: -hl}, r3.Vec{X: hw, Y: hl, Z: p.Height})
	return m.Transform(p.Frame.ToGlobal), nil
}

func (p *Purlin) Clone() Beam {
	c := *p
	return &c
}
