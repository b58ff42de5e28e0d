// Package beam defines the timber beam types of a purlin roof and the
// symbolic contact loci the solver glues them together with.
//
// Every beam has a constant yaw (rotation_z), a position (x, y, z) and a
// type specific set of morphology parameters. Loci are written in the
// unrotated local frame as affine formulas over the beam's own parameters
// and slack tokens, so the same formulas serve numeric inspection and the
// optimization problem.
package beam

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexiusacademia/timbertrace/internal/expr"
	"github.com/alexiusacademia/timbertrace/internal/mesh"
)

// Pose parameter names.
const (
	ParamRotationZ = "rotation_z"
	ParamX         = "x"
	ParamY         = "y"
	ParamZ         = "z"
)

// PoseKeys lists the pose parameters in canonical order.
var PoseKeys = []string{ParamRotationZ, ParamX, ParamY, ParamZ}

// PositionKeys lists the position parameters, which are optimization
// unknowns. rotation_z is not.
var PositionKeys = []string{ParamX, ParamY, ParamZ}

var (
	// ErrFaceNotImplemented is returned when a beam type defines no locus on
	// the requested face.
	ErrFaceNotImplemented = errors.New("face not implemented")

	// ErrLocusIndex is returned for a locus index outside the face's list.
	ErrLocusIndex = errors.New("locus index out of range")
)

// Beam is the contract every beam type implements.
type Beam interface {
	Kind() Kind
	// Parameters returns the current state. Values always contains the pose
	// keys and every morphology key.
	Parameters() Parameters
	// SetParameters updates the named parameters. Unknown names are ignored.
	SetParameters(values map[string]float64)
	// Bounds returns the static box of every bounded parameter.
	Bounds() map[string]Bound
	// Constraints returns the loci on a world face.
	Constraints(face Face) ([]Locus, error)
	// Inequalities returns affine safety rules LHS <= RHS.
	Inequalities() []Inequality
	// Model builds the beam's mesh in the world frame.
	Model() (*mesh.Mesh, error)
	Clone() Beam
}

// Parameters is a snapshot of a beam's state.
type Parameters struct {
	Values     map[string]float64
	Morphology []string
	Pose       []string
}

// Bound is a closed interval.
type Bound struct {
	Min float64
	Max float64
}

// Range returns Max - Min.
func (b Bound) Range() float64 { return b.Max - b.Min }

// Clamp returns v clipped into the bound.
func (b Bound) Clamp(v float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, v))
}

// Contains reports whether v lies in the bound within tol.
func (b Bound) Contains(v, tol float64) bool {
	return v >= b.Min-tol && v <= b.Max+tol
}

// SlackRange limits one slack of a locus. A nil side is unbounded.
type SlackRange struct {
	Min expr.Expr
	Max expr.Expr
}

// Locus is a point (0 slacks), line (1) or plane (2) on a beam surface, given
// as three local-frame coordinate formulas.
type Locus struct {
	X, Y, Z     expr.Expr
	Slacks      int
	SlackBounds []SlackRange // empty or one entry per slack
}

// Coords returns the X, Y and Z formulas.
func (l Locus) Coords() [3]expr.Expr {
	return [3]expr.Expr{l.X, l.Y, l.Z}
}

// Shape names the locus by its slack count.
func (l Locus) Shape() string {
	switch l.Slacks {
	case 0:
		return "point"
	case 1:
		return "line"
	case 2:
		return "plane"
	}
	return fmt.Sprintf("%d-slack locus", l.Slacks)
}

func (l Locus) String() string {
	return fmt.Sprintf("%s (%s, %s, %s)", l.Shape(), l.X, l.Y, l.Z)
}

// Inequality is the affine rule LHS <= RHS.
type Inequality struct {
	LHS expr.Expr
	RHS expr.Expr
}

func (q Inequality) String() string {
	return q.LHS.String() + " <= " + q.RHS.String()
}

// Frame is the pose shared by all beam types.
type Frame struct {
	RotationZ float64 // yaw in radians, constant while solving
	X         float64 // m
	Y         float64 // m
	Z         float64 // m
}

// Position returns the frame origin.
func (f Frame) Position() r3.Vec {
	return r3.Vec{X: f.X, Y: f.Y, Z: f.Z}
}

// ToGlobal maps a local point into the world frame.
func (f Frame) ToGlobal(local r3.Vec) r3.Vec {
	return r3.Add(Rotation(f.RotationZ).MulVec(local), f.Position())
}

func (f *Frame) fields() []field {
	return []field{
		{ParamRotationZ, &f.RotationZ},
		{ParamX, &f.X},
		{ParamY, &f.Y},
		{ParamZ, &f.Z},
	}
}

// FrameOf reads the pose of any beam.
func FrameOf(b Beam) Frame {
	v := b.Parameters().Values
	return Frame{RotationZ: v[ParamRotationZ], X: v[ParamX], Y: v[ParamY], Z: v[ParamZ]}
}

// Rotation returns the yaw matrix [[c -s 0] [s c 0] [0 0 1]]. Entries within
// 1e-12 of zero are snapped so cardinal rotations are exact.
func Rotation(theta float64) *r3.Mat {
	c, s := snap(math.Cos(theta)), snap(math.Sin(theta))
	return r3.NewMat([]float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

func snap(v float64) float64 {
	if math.Abs(v) < 1e-12 {
		return 0
	}
	return v
}

// field binds a parameter name to the struct field holding it.
type field struct {
	name string
	ptr  *float64
}

func collect(frame *Frame, morphology []field, constants ...field) Parameters {
	p := Parameters{
		Values:     make(map[string]float64, 4+len(morphology)+len(constants)),
		Morphology: make([]string, 0, len(morphology)),
		Pose:       slices.Clone(PoseKeys),
	}
	for _, f := range frame.fields() {
		p.Values[f.name] = *f.ptr
	}
	for _, f := range morphology {
		p.Values[f.name] = *f.ptr
		p.Morphology = append(p.Morphology, f.name)
	}
	for _, f := range constants {
		p.Values[f.name] = *f.ptr
	}
	return p
}

func assign(values map[string]float64, groups ...[]field) {
	for _, group := range groups {
		for _, f := range group {
			if v, ok := values[f.name]; ok {
				*f.ptr = v
			}
		}
	}
}

func withPositionBounds(m map[string]Bound) map[string]Bound {
	m[ParamX] = Bound{-50, 50}
	m[ParamY] = Bound{-50, 50}
	m[ParamZ] = Bound{0, 20}
	return m
}

func notImplemented(k Kind, world, local Face) error {
	return fmt.Errorf("%s: world face %s (local %s): %w", k, world, local, ErrFaceNotImplemented)
}

// locus helpers; formulas are package constants, so parse failures are bugs.

func point(x, y, z string) Locus {
	return Locus{X: expr.MustParse(x), Y: expr.MustParse(y), Z: expr.MustParse(z)}
}

func line(x, y, z string, s0 SlackRange) Locus {
	l := point(x, y, z)
	l.Slacks = 1
	l.SlackBounds = []SlackRange{s0}
	return l
}

func plane(x, y, z string, s0, s1 SlackRange) Locus {
	l := point(x, y, z)
	l.Slacks = 2
	l.SlackBounds = []SlackRange{s0, s1}
	return l
}

func between(min, max string) SlackRange {
	var r SlackRange
	if min != "" {
		r.Min = expr.MustParse(min)
	}
	if max != "" {
		r.Max = expr.MustParse(max)
	}
	return r
}

var free = SlackRange{}

// LocusAt returns a single locus of a world face.
func LocusAt(b Beam, face Face, index int) (Locus, error) {
	loci, err := b.Constraints(face)
	if err != nil {
		return Locus{}, err
	}
	if index < 0 || index >= len(loci) {
		return Locus{}, fmt.Errorf("%s: face %s has %d loci, got index %d: %w",
			b.Kind(), face, len(loci), index, ErrLocusIndex)
	}
	return loci[index], nil
}

// LocalPoint evaluates a locus numerically in the beam's local frame.
// slacks must hold one value per slack of the locus.
func LocalPoint(b Beam, l Locus, slacks ...float64) (r3.Vec, error) {
	if len(slacks) != l.Slacks {
		return r3.Vec{}, fmt.Errorf("locus %s needs %d slacks, got %d", l.Shape(), l.Slacks, len(slacks))
	}
	env := expr.Env{Values: b.Parameters().Values, SlackValues: make(map[string]float64, len(slacks))}
	for i, s := range slacks {
		env.SlackValues[expr.SlackName(i)] = s
	}
	var out [3]float64
	for i, c := range l.Coords() {
		v, err := expr.Evaluate(c, env)
		if err != nil {
			return r3.Vec{}, err
		}
		out[i] = v
	}
	return r3.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
}

// GlobalPoint evaluates a locus numerically in the world frame.
func GlobalPoint(b Beam, l Locus, slacks ...float64) (r3.Vec, error) {
	p, err := LocalPoint(b, l, slacks...)
	if err != nil {
		return r3.Vec{}, err
	}
	return FrameOf(b).ToGlobal(p), nil
}

// CheckBounds returns an error listing every parameter outside its bound by
// more than tol.
func CheckBounds(b Beam, tol float64) error {
	values := b.Parameters().Values
	var bad []string
	for name, bound := range b.Bounds() {
		v, ok := values[name]
		if ok && !bound.Contains(v, tol) {
			bad = append(bad, fmt.Sprintf("%s=%.4g not in [%g, %g]", name, v, bound.Min, bound.Max))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return fmt.Errorf("%s: %s", b.Kind(), strings.Join(bad, "; "))
}
