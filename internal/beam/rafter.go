package beam

import (
	"fmt"

	"github.com/alexiusacademia/timbertrace/internal/expr"
	"github.com/alexiusacademia/timbertrace/internal/mesh"
	"github.com/alexiusacademia/timbertrace/internal/profile"
)

// Rafter is a sloped beam running from the ridge (local origin) down along
// local +X. Its top edge follows z = -steepness*x and its underside carries
// three bearing notches: foot, middle and ridge.
//
// Steepness is the roof slope. It is constant while solving, like the yaw,
// which keeps every notch formula affine in the unknowns.
type Rafter struct {
	Frame
	Width           float64 // local Y (m)
	Height          float64 // section depth perpendicular to the horizontal (m)
	ProjectedLength float64 // horizontal run from the ridge (m)
	Steepness       float64 // rise per unit run

	NotchXMiddle       float64 // horizontal offset of the middle notch cut (m)
	NotchMiddleDepth   float64 // m
	NotchXFoot         float64 // horizontal offset of the foot notch cut (m)
	NotchFootDepth     float64 // m
	NotchRidgeLength   float64 // horizontal length of the ridge notch (m)
	NotchRidgeCutDepth float64 // m
}

// Rafter locus indices on the bottom face and on the side faces.
const (
	NotchFoot   = 0
	NotchMiddle = 1
	NotchRidge  = 2
	RidgeEnd    = 3 // side faces only
)

// NewRafter returns a 3 m run rafter at 45°.
func NewRafter() *Rafter {
	return &Rafter{
		Width:              0.1,
		Height:             0.16,
		ProjectedLength:    3,
		Steepness:          1,
		NotchXMiddle:       1.5,
		NotchMiddleDepth:   0.05,
		NotchXFoot:         2.8,
		NotchFootDepth:     0.05,
		NotchRidgeLength:   0.08,
		NotchRidgeCutDepth: 0,
	}
}

var (
	rafterShelves = []Locus{
		line("slack_0", "0", "-steepness*notch_x_foot - height + notch_foot_depth", free),
		line("slack_0", "0", "-steepness*notch_x_middle - height + notch_middle_depth", free),
		line("slack_0", "0", "-height + notch_ridge_cut_depth", free),
	}
	rafterCuts = []Locus{
		plane("notch_x_foot", "slack_0", "slack_1", free, free),
		plane("notch_x_middle", "slack_0", "slack_1", free, free),
		plane("notch_ridge_length", "slack_0", "slack_1", free, free),
		plane("0", "slack_0", "slack_1", free, free),
	}
	rafterRules = []Inequality{
		rule("notch_middle_depth", "0.7*height"),
		rule("notch_foot_depth", "0.7*height"),
		rule("notch_ridge_length + 0.1", "notch_x_middle - notch_middle_depth/steepness"),
		rule("notch_x_middle + 0.1", "notch_x_foot - notch_foot_depth/steepness"),
		rule("notch_x_foot + 0.1", "projected_length"),
	}
)

func rule(lhs, rhs string) Inequality {
	return Inequality{LHS: expr.MustParse(lhs), RHS: expr.MustParse(rhs)}
}

func (r *Rafter) Kind() Kind { return KindRafter }

func (r *Rafter) morphology() []field {
	return []field{
		{"width", &r.Width},
		{"height", &r.Height},
		{"projected_length", &r.ProjectedLength},
		{"notch_x_middle", &r.NotchXMiddle},
		{"notch_middle_depth", &r.NotchMiddleDepth},
		{"notch_x_foot", &r.NotchXFoot},
		{"notch_foot_depth", &r.NotchFootDepth},
		{"notch_ridge_length", &r.NotchRidgeLength},
		{"notch_ridge_cut_depth", &r.NotchRidgeCutDepth},
	}
}

func (r *Rafter) constants() []field {
	return []field{{"steepness", &r.Steepness}}
}

func (r *Rafter) Parameters() Parameters {
	return collect(&r.Frame, r.morphology(), r.constants()...)
}

func (r *Rafter) SetParameters(values map[string]float64) {
	assign(values, r.Frame.fields(), r.morphology(), r.constants())
}

// Bounds keeps notch depths non-negative: a negative depth would turn the
// notch into a bump.
func (r *Rafter) Bounds() map[string]Bound {
	return withPositionBounds(map[string]Bound{
		"width":                 {0.05, 0.2},
		"height":                {0.1, 0.3},
		"projected_length":      {1, 10},
		"steepness":             {0.5, 2},
		"notch_x_middle":        {0.5, 9},
		"notch_x_foot":          {0.5, 9},
		"notch_ridge_length":    {0.05, 0.5},
		"notch_middle_depth":    {0, 0.2},
		"notch_foot_depth":      {0, 0.2},
		"notch_ridge_cut_depth": {0, 0.1},
	})
}

// Constraints returns the bottom shelves [foot, middle, ridge] and the
// vertical side planes [foot cut, middle cut, ridge notch cut, ridge end].
// Both side faces share the planes: a plane through the rafter's axis is
// reachable from either side.
func (r *Rafter) Constraints(face Face) ([]Locus, error) {
	local := LocalFace(face, r.RotationZ)
	switch local {
	case Bottom:
		return append([]Locus(nil), rafterShelves...), nil
	case Left, Right:
		return append([]Locus(nil), rafterCuts...), nil
	}
	return nil, notImplemented(KindRafter, face, local)
}

func (r *Rafter) Inequalities() []Inequality {
	return append([]Inequality(nil), rafterRules...)
}

// Profile returns the side outline in the local XZ plane (profile Y is local
// Z) with the three notches cut out of the underside.
func (r *Rafter) Profile() profile.Polygon {
	l, m, h := r.ProjectedLength, r.Steepness, r.Height
	bottom := func(x float64) float64 { return -m*x - h }
	backX := func(z float64) float64 { return (-h - z) / m }

	zFoot := bottom(r.NotchXFoot)
	zMiddle := bottom(r.NotchXMiddle)
	shelfFoot := zFoot + r.NotchFootDepth
	shelfMiddle := zMiddle + r.NotchMiddleDepth
	shelfRidge := -h + r.NotchRidgeCutDepth

	return profile.Polygon{
		{X: 0, Y: 0},
		{X: l, Y: -m * l},
		{X: l, Y: bottom(l)},
		{X: r.NotchXFoot, Y: zFoot},
		{X: r.NotchXFoot, Y: shelfFoot},
		{X: backX(shelfFoot), Y: shelfFoot},
		{X: r.NotchXMiddle, Y: zMiddle},
		{X: r.NotchXMiddle, Y: shelfMiddle},
		{X: backX(shelfMiddle), Y: shelfMiddle},
		{X: r.NotchRidgeLength, Y: bottom(r.NotchRidgeLength)},
		{X: r.NotchRidgeLength, Y: shelfRidge},
		{X: 0, Y: shelfRidge},
	}
}

func (r *Rafter) Model() (*mesh.Mesh, error) {
	outline := r.Profile()
	if err := outline.Validate(); err != nil {
		return nil, fmt.Errorf("rafter profile: %w", err)
	}
	m, err := mesh.ExtrudeXZ("rafter", outline, r.Width)
	if err != nil {
		return nil, fmt.Errorf("rafter profile: %w", err)
	}
	return m.Transform(r.Frame.ToGlobal), nil
}

func (r *Rafter) Clone() Beam {
	c := *r
	return &c
}
