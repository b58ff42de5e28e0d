// Package solver assembles beams and their topology into a single convex
// quadratic program and solves it for a consistent structure.
//
// Every beam contributes its position and morphology as unknowns. Each
// contact evaluates both loci with their own fresh slack unknowns, rotates
// them by the constant yaw, translates them by the position unknowns and
// ties the two global points together. The objective keeps every unknown
// close to its initial value.
package solver

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/alexiusacademia/timbertrace/internal/beam"
	"github.com/alexiusacademia/timbertrace/internal/expr"
	"github.com/alexiusacademia/timbertrace/internal/qp"
)

// Result is a solved structure. Beams are fresh clones; the input beams are
// never modified.
type Result struct {
	Beams      []beam.Beam
	Status     qp.Status
	Objective  float64
	Iterations int
	Residuals  []Residual
	History    []qp.Iteration

	Variables    int
	Equalities   int
	Inequalities int
}

// Residual is the global gap of one contact after solving.
type Residual struct {
	GroupedContact
	PointI r3.Vec
	PointJ r3.Vec
	Gap    float64
}

// MaxGap returns the largest contact gap.
func (r *Result) MaxGap() float64 {
	var m float64
	for _, res := range r.Residuals {
		m = max(m, res.Gap)
	}
	return m
}

// unknowns of one beam.
type beamVars struct {
	values map[string]float64
	vars   map[string]expr.Var
	order  []string
}

type contactVars struct {
	GroupedContact
	locusI, locusJ beam.Locus
	slackI, slackJ []expr.Var
}

type builder struct {
	cfg      Config
	beams    []beam.Beam
	problem  *qp.Problem
	vars     []beamVars
	contacts []contactVars
}

// Solve computes the minimum weighted deviation assembly that satisfies the
// topology. Configuration errors wrap ErrConfiguration, formula errors
// surface as returned by the evaluator and a non-optimal backend status is
// returned as *SolverError.
func Solve(beams []beam.Beam, topo Topology, cfg Config) (*Result, error) {
	return SolveContext(context.Background(), beams, topo, cfg)
}

// SolveContext is Solve with cancellation: when ctx is done the backend
// stops at its next iteration and ctx's error is returned.
func SolveContext(ctx context.Context, beams []beam.Beam, topo Topology, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger

	b := &builder{cfg: cfg, beams: beams, problem: &qp.Problem{}}
	b.addUnknowns()
	if err := b.addContacts(topo); err != nil {
		return nil, err
	}
	if err := b.addIdentities(topo.Identities); err != nil {
		return nil, err
	}
	if err := b.addInequalities(); err != nil {
		return nil, err
	}
	b.addBounds()
	if err := b.addAnchors(topo.Anchors); err != nil {
		return nil, err
	}

	log.Debug().
		Int("beams", len(beams)).
		Int("contacts", len(b.contacts)).
		Int("variables", b.problem.NumVars()).
		Int("equalities", len(b.problem.Eq)).
		Int("inequalities", len(b.problem.Ineq)).
		Str("mode", cfg.Mode.String()).
		Msg("problem assembled")

	sol, err := qp.SolveContext(ctx, b.problem, cfg.QP)
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	if sol.Status != qp.StatusOptimal {
		log.Warn().Str("status", string(sol.Status)).Str("reason", sol.Message).Msg("solve failed")
		return nil, &SolverError{Status: string(sol.Status), Message: sol.Message}
	}

	res := &Result{
		Beams:        b.extract(sol.X),
		Status:       sol.Status,
		Objective:    sol.Objective,
		Iterations:   sol.Iterations,
		History:      sol.History,
		Variables:    b.problem.NumVars(),
		Equalities:   len(b.problem.Eq),
		Inequalities: len(b.problem.Ineq),
	}
	res.Residuals, err = b.residuals(res.Beams, sol.X)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Float64("objective", res.Objective).
		Int("iterations", res.Iterations).
		Float64("max_gap", res.MaxGap()).
		Msg("solved")
	return res, nil
}

func (b *builder) addUnknowns() {
	for _, bm := range b.beams {
		params := bm.Parameters()
		bv := beamVars{values: params.Values, vars: make(map[string]expr.Var)}
		for _, name := range beam.PositionKeys {
			bv.vars[name] = expr.Var(b.problem.AddVariable(b.cfg.PositionWeight, params.Values[name]))
			bv.order = append(bv.order, name)
		}
		for _, name := range params.Morphology {
			bv.vars[name] = expr.Var(b.problem.AddVariable(b.cfg.MorphologyWeight, params.Values[name]))
			bv.order = append(bv.order, name)
		}
		b.vars = append(b.vars, bv)
	}
}

func (b *builder) checkIndex(i int, what string) error {
	if i < 0 || i >= len(b.beams) {
		return configErrorf("%s references beam %d of %d", what, i, len(b.beams))
	}
	return nil
}

func (b *builder) addContacts(topo Topology) error {
	for _, gc := range topo.AllContacts() {
		what := fmt.Sprintf("contact %s#%d", gc.Group, gc.Index)
		if err := b.checkIndex(gc.I, what); err != nil {
			return err
		}
		if err := b.checkIndex(gc.J, what); err != nil {
			return err
		}
		li, err := beam.LocusAt(b.beams[gc.I], gc.FaceI, gc.LocusI)
		if err != nil {
			return configErrorf("%s: %w", what, err)
		}
		lj, err := beam.LocusAt(b.beams[gc.J], gc.FaceJ, gc.LocusJ)
		if err != nil {
			return configErrorf("%s: %w", what, err)
		}

		cv := contactVars{GroupedContact: gc, locusI: li, locusJ: lj}
		pi, slackI, err := b.globalPoint(gc.I, li, what)
		if err != nil {
			return err
		}
		pj, slackJ, err := b.globalPoint(gc.J, lj, what)
		if err != nil {
			return err
		}
		cv.slackI, cv.slackJ = slackI, slackJ

		for k, axis := range []string{"x", "y", "z"} {
			diff := pi[k].Minus(pj[k])
			label := fmt.Sprintf("%s %s", what, axis)
			if b.cfg.Mode == Soft {
				v := expr.Var(b.problem.AddVariable(b.cfg.ViolationWeight, 0))
				diff = diff.Minus(expr.Term(v))
			}
			b.problem.AddEq(coefficients(diff), -diff.Const, label)
		}
		b.contacts = append(b.contacts, cv)
	}
	return nil
}

// globalPoint creates the slack unknowns of one side of a contact and
// returns the locus as affine world coordinates.
func (b *builder) globalPoint(i int, l beam.Locus, what string) ([3]expr.Linear, []expr.Var, error) {
	var out [3]expr.Linear
	bv := b.vars[i]

	slacks := make([]expr.Var, l.Slacks)
	env := expr.Env{Values: bv.values, Vars: bv.vars, Slacks: make(map[string]expr.Var, l.Slacks)}
	for s := range slacks {
		slacks[s] = expr.Var(b.problem.AddVariable(b.cfg.SlackWeight, 0))
		env.Slacks[expr.SlackName(s)] = slacks[s]
	}

	for s, r := range l.SlackBounds {
		if s >= len(slacks) {
			break
		}
		slack := expr.Term(slacks[s])
		label := fmt.Sprintf("%s beam %d slack %d", what, i, s)
		if r.Min != nil {
			lo, err := expr.EvaluateLinear(r.Min, env)
			if err != nil {
				return out, nil, err
			}
			// lo - slack <= 0
			d := lo.Minus(slack)
			b.problem.AddLE(coefficients(d), -d.Const, label+" (min)")
		}
		if r.Max != nil {
			hi, err := expr.EvaluateLinear(r.Max, env)
			if err != nil {
				return out, nil, err
			}
			d := slack.Minus(hi)
			b.problem.AddLE(coefficients(d), -d.Const, label+" (max)")
		}
	}

	var local [3]expr.Linear
	for k, c := range l.Coords() {
		v, err := expr.EvaluateLinear(c, env)
		if err != nil {
			return out, nil, err
		}
		local[k] = v
	}

	rot := beam.Rotation(bv.values[beam.ParamRotationZ])
	for k, name := range beam.PositionKeys {
		out[k] = expr.Term(bv.vars[name])
		for j := 0; j < 3; j++ {
			if c := rot.At(k, j); c != 0 {
				out[k] = out[k].Plus(local[j].Scale(c))
			}
		}
	}
	return out, slacks, nil
}

func (b *builder) addIdentities(pairs []IdentityPair) error {
	for n, p := range pairs {
		what := fmt.Sprintf("identity pair #%d", n)
		if err := b.checkIndex(p.I, what); err != nil {
			return err
		}
		if err := b.checkIndex(p.J, what); err != nil {
			return err
		}
		mi := b.beams[p.I].Parameters().Morphology
		mj := b.beams[p.J].Parameters().Morphology
		if !sameKeys(mi, mj) {
			return configErrorf("%s: beam %d (%s) and beam %d (%s) have different morphology",
				what, p.I, b.beams[p.I].Kind(), p.J, b.beams[p.J].Kind())
		}
		for _, key := range mi {
			b.problem.AddEq(map[int]float64{
				int(b.vars[p.I].vars[key]): 1,
				int(b.vars[p.J].vars[key]): -1,
			}, 0, fmt.Sprintf("%s %s", what, key))
		}
	}
	return nil
}

func (b *builder) addInequalities() error {
	for i, bm := range b.beams {
		env := expr.Env{Values: b.vars[i].values, Vars: b.vars[i].vars}
		for _, q := range bm.Inequalities() {
			lhs, err := expr.EvaluateLinear(q.LHS, env)
			if err != nil {
				return err
			}
			rhs, err := expr.EvaluateLinear(q.RHS, env)
			if err != nil {
				return err
			}
			d := lhs.Minus(rhs)
			b.problem.AddLE(coefficients(d), -d.Const, fmt.Sprintf("beam %d: %s", i, q))
		}
	}
	return nil
}

func (b *builder) addBounds() {
	for i, bm := range b.beams {
		bounds := bm.Bounds()
		for _, name := range b.vars[i].order {
			if bd, ok := bounds[name]; ok {
				b.problem.AddBounds(int(b.vars[i].vars[name]), bd.Min, bd.Max, fmt.Sprintf("beam %d %s", i, name))
			}
		}
	}
}

func (b *builder) addAnchors(anchors []Anchor) error {
	for _, a := range anchors {
		if err := b.checkIndex(a.Beam, "anchor"); err != nil {
			return err
		}
		bv := b.vars[a.Beam]
		for _, name := range a.Params {
			v, ok := bv.vars[name]
			if !ok {
				return configErrorf("anchor on beam %d: %q is not an unknown of a %s", a.Beam, name, b.beams[a.Beam].Kind())
			}
			b.problem.AddEq(map[int]float64{int(v): 1}, bv.values[name], fmt.Sprintf("anchor beam %d %s", a.Beam, name))
		}
	}
	return nil
}

func (b *builder) extract(x []float64) []beam.Beam {
	out := make([]beam.Beam, len(b.beams))
	for i, bm := range b.beams {
		c := bm.Clone()
		values := make(map[string]float64, len(b.vars[i].vars))
		for name, v := range b.vars[i].vars {
			values[name] = x[v]
		}
		c.SetParameters(values)
		out[i] = c
	}
	return out
}

func (b *builder) residuals(solved []beam.Beam, x []float64) ([]Residual, error) {
	out := make([]Residual, 0, len(b.contacts))
	for _, cv := range b.contacts {
		pi, err := beam.GlobalPoint(solved[cv.I], cv.locusI, values(cv.slackI, x)...)
		if err != nil {
			return nil, err
		}
		pj, err := beam.GlobalPoint(solved[cv.J], cv.locusJ, values(cv.slackJ, x)...)
		if err != nil {
			return nil, err
		}
		out = append(out, Residual{
			GroupedContact: cv.GroupedContact,
			PointI:         pi,
			PointJ:         pj,
			Gap:            r3.Norm(r3.Sub(pi, pj)),
		})
	}
	return out, nil
}

// Deviation evaluates the position and morphology part of the objective for
// a candidate assembly against the initial beams.
func Deviation(initial, candidate []beam.Beam, cfg Config) float64 {
	var f float64
	for i := range initial {
		p0 := initial[i].Parameters()
		p1 := candidate[i].Parameters().Values
		for _, name := range beam.PositionKeys {
			d := p1[name] - p0.Values[name]
			f += cfg.PositionWeight * d * d
		}
		for _, name := range p0.Morphology {
			d := p1[name] - p0.Values[name]
			f += cfg.MorphologyWeight * d * d
		}
	}
	return f
}

func values(vars []expr.Var, x []float64) []float64 {
	out := make([]float64, len(vars))
	for i, v := range vars {
		out[i] = x[v]
	}
	return out
}

func coefficients(l expr.Linear) map[int]float64 {
	out := make(map[int]float64, len(l.Coef))
	for v, c := range l.Coef {
		if c != 0 {
			out[int(v)] = c
		}
	}
	return out
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := slices.Sorted(slices.Values(a)), slices.Sorted(slices.Values(b))
	return slices.Equal(sa, sb)
}

// CloneAll deep copies a beam slice.
func CloneAll(beams []beam.Beam) []beam.Beam {
	out := make([]beam.Beam, len(beams))
	for i, b := range beams {
		out[i] = b.Clone()
	}
	return out
}

// Snapshot returns the parameter values of every beam.
func Snapshot(beams []beam.Beam) []map[string]float64 {
	out := make([]map[string]float64, len(beams))
	for i, b := range beams {
		out[i] = maps.Clone(b.Parameters().Values)
	}
	return out
}
