package qp

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Solve minimizes the problem.
//
// Variables are rescaled as x = c + D z with D = diag(1/√w), which turns the
// objective into ‖z‖². The equalities are eliminated through the null space
// of the equalities, z = z0 + N u with z0 the minimum norm solution, and the
// inequalities are handled by a Mehrotra predictor-corrector interior point
// method on u.
//
// A malformed problem returns ErrInvalidProblem; infeasibility and solver
// breakdown are reported through Solution.Status.
func Solve(p *Problem, s Settings) (*Solution, error) {
	return SolveContext(context.Background(), p, s)
}

// SolveContext is Solve with cancellation. ctx is checked before the
// elimination and at every interior point iteration; when it is done its
// error is returned.
func SolveContext(ctx context.Context, p *Problem, s Settings) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s = s.withDefaults()

	n := p.NumVars()
	sol := &Solution{Status: StatusOptimal}
	if n == 0 {
		return sol, nil
	}

	d := make([]float64, n)
	for i, w := range p.Weights {
		d[i] = 1 / math.Sqrt(w)
	}

	ns, err := eliminate(p, d, s.FeasibilityTolerance)
	sol.Rank, sol.Reduced = ns.rank, ns.k
	if err != nil {
		sol.Status, sol.Message = statusOf(err), err.Error()
		return sol, nil
	}

	g, h, err := reduceInequalities(p, d, ns, s.FeasibilityTolerance)
	if err != nil {
		sol.Status, sol.Message = statusOf(err), err.Error()
		return sol, nil
	}

	// Gradient of ½‖z0 + N u‖² at u = 0.
	grad := make([]float64, ns.k)
	if ns.k > 0 {
		grad = mulTVec(ns.basis, ns.z0)
	}

	u := make([]float64, ns.k)
	if ns.k > 0 {
		if g == nil {
			floats.ScaleTo(u, -1, grad)
		} else {
			r := interiorPoint(ctx, g, h, grad, s)
			if r.err != nil {
				return nil, r.err
			}
			u = r.u
			sol.Status, sol.Message = r.status, r.message
			sol.Iterations, sol.History = len(r.history), r.history
		}
	}

	z := append([]float64(nil), ns.z0...)
	if ns.k > 0 {
		floats.Add(z, mulVec(ns.basis, u))
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = p.Targets[i] + d[i]*z[i]
	}
	sol.X = x
	sol.Objective = p.Objective(x)
	return sol, nil
}

type infeasibleError struct{ msg string }

func (e *infeasibleError) Error() string { return e.msg }

func statusOf(err error) Status {
	if _, ok := err.(*infeasibleError); ok {
		return StatusInfeasible
	}
	return StatusNumericalError
}

// nullSpace parametrizes the solutions of the scaled equality system.
type nullSpace struct {
	z0    []float64
	basis *mat.Dense // n×k with orthonormal columns, nil if k == 0
	k     int
	rank  int
}

// eliminate parametrizes {z : A D z = b}. Rank and consistency are decided
// on the unscaled system with unit norm rows, never on A D.
func eliminate(p *Problem, d []float64, feasTol float64) (nullSpace, error) {
	n, m := len(d), len(p.Eq)
	ns := nullSpace{z0: make([]float64, n)}
	if m == 0 {
		ns.k = n
		ns.basis = mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			ns.basis.Set(i, i, 1)
		}
		return ns, nil
	}

	a := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	for r, row := range p.Eq {
		scale := 1.0
		if norm := row.norm(); norm > 0 {
			scale = 1 / norm
		}
		b[r] = (row.RHS - row.dot(p.Targets)) * scale
		for j, c := range row.Coef {
			a.Set(r, j, c*scale)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return ns, fmt.Errorf("equality system: SVD did not converge")
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	if len(values) > 0 && values[0] > 0 {
		cut := 1e-10 * values[0] * float64(max(m, n))
		for _, sv := range values {
			if sv > cut {
				ns.rank++
			}
		}
	}

	// Minimum norm step y = x - c in unscaled coordinates.
	y := make([]float64, n)
	for i := 0; i < ns.rank; i++ {
		coef := mat.Dot(u.ColView(i), mat.NewVecDense(m, b)) / values[i]
		for j := 0; j < n; j++ {
			y[j] += coef * v.At(j, i)
		}
	}

	resid := mulVec(a, y)
	floats.Sub(resid, b)
	worst := floats.Norm(resid, math.Inf(1))
	if worst > feasTol*(1+floats.Norm(b, math.Inf(1))) {
		row := floats.MaxIdx(absAll(resid))
		return ns, &infeasibleError{fmt.Sprintf("inconsistent equalities: residual %.3g at %q", worst, p.Eq[row].Label)}
	}

	for j := range y {
		ns.z0[j] = y[j] / d[j]
	}
	ns.k = n - ns.rank
	if ns.k == 0 {
		return ns, nil
	}

	// The null space of A D is D⁻¹ times the null space of A.
	scaled := mat.NewDense(n, ns.k, nil)
	for j := 0; j < n; j++ {
		for c := 0; c < ns.k; c++ {
			scaled.Set(j, c, v.At(j, ns.rank+c)/d[j])
		}
	}
	var qr mat.QR
	qr.Factorize(scaled)
	var q mat.Dense
	qr.QTo(&q)
	ns.basis = mat.DenseCopyOf(q.Slice(0, n, 0, ns.k))

	// Keep z0 orthogonal to the null space.
	floats.Sub(ns.z0, mulVec(ns.basis, mulTVec(ns.basis, ns.z0)))
	return ns, nil
}

// reduceInequalities maps G x <= h onto the null space coordinates and
// normalizes every row. Rows that vanish in the reduced space are checked
// and dropped. A nil matrix means no inequality remains.
func reduceInequalities(p *Problem, d []float64, ns nullSpace, feasTol float64) (*mat.Dense, []float64, error) {
	var rows [][]float64
	var rhs []float64
	for _, row := range p.Ineq {
		hv := row.RHS - row.dot(p.Targets)
		gv := make([]float64, ns.k)
		for i, c := range row.Coef {
			cd := c * d[i]
			hv -= cd * ns.z0[i]
			for j := 0; j < ns.k; j++ {
				gv[j] += cd * ns.basis.At(i, j)
			}
		}
		norm := floats.Norm(gv, 2)
		if norm < 1e-12 {
			if hv < -feasTol*(1+math.Abs(row.RHS)) {
				return nil, nil, &infeasibleError{fmt.Sprintf("inequality %q violated by %.3g on the equality manifold", row.Label, -hv)}
			}
			continue
		}
		floats.Scale(1/norm, gv)
		rows = append(rows, gv)
		rhs = append(rhs, hv/norm)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	g := mat.NewDense(len(rows), ns.k, nil)
	for i, r := range rows {
		g.SetRow(i, r)
	}
	return g, rhs, nil
}

type ipmResult struct {
	u       []float64
	status  Status
	message string
	history []Iteration
	err     error
}

// interiorPoint solves min ½uᵀu + gradᵀu s.t. G u <= h.
func interiorPoint(ctx context.Context, g *mat.Dense, h, grad []float64, s Settings) ipmResult {
	m, k := g.Dims()

	u := make([]float64, k)
	floats.ScaleTo(u, -1, grad)
	slack := make([]float64, m)
	lam := make([]float64, m)
	gu := mulVec(g, u)
	for i := range slack {
		slack[i] = math.Max(h[i]-gu[i], 1)
		lam[i] = 1
	}

	hNorm := floats.Norm(h, math.Inf(1))
	gNorm := floats.Norm(grad, math.Inf(1))
	res := ipmResult{status: StatusMaxIterations}

	var rp, rd []float64
	residuals := func() (float64, float64, float64) {
		rp = mulVec(g, u)
		for i := range rp {
			rp[i] += slack[i] - h[i]
		}
		rd = mulTVec(g, lam)
		floats.Add(rd, u)
		floats.Add(rd, grad)
		return floats.Norm(rp, math.Inf(1)), floats.Norm(rd, math.Inf(1)), floats.Dot(slack, lam) / float64(m)
	}
	primalOK := func(pr float64) bool { return pr <= s.FeasibilityTolerance*(1+hNorm) }
	breakdown := func(pr float64, why string) {
		if primalOK(pr) {
			res.status = StatusNumericalError
		} else {
			res.status = StatusInfeasible
		}
		res.message = why
	}

	for iter := 1; iter <= s.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			res.err = err
			return res
		}
		pr, du, mu := residuals()
		if pr <= s.Tolerance*(1+hNorm) && du <= s.Tolerance*(1+gNorm) && mu <= s.Tolerance {
			res.status = StatusOptimal
			break
		}
		if math.IsNaN(pr) || math.IsNaN(du) || math.IsNaN(mu) {
			breakdown(pr, "iterate is not finite")
			break
		}

		w := make([]float64, m)
		scaled := mat.NewDense(m, k, nil)
		for i := range w {
			w[i] = lam[i] / slack[i]
			sw := math.Sqrt(w[i])
			for j := 0; j < k; j++ {
				scaled.Set(i, j, sw*g.At(i, j))
			}
		}
		var kkt mat.SymDense
		kkt.SymOuterK(1, scaled.T())
		for j := 0; j < k; j++ {
			kkt.SetSym(j, j, kkt.At(j, j)+1)
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(&kkt); !ok {
			breakdown(pr, fmt.Sprintf("normal equations not positive definite at iteration %d", iter))
			break
		}

		newton := func(rc []float64) (dx, dl, ds []float64, err error) {
			t := make([]float64, m)
			for i := range t {
				t[i] = w[i]*rp[i] - rc[i]/slack[i]
			}
			rhs := mulTVec(g, t)
			floats.Add(rhs, rd)
			floats.Scale(-1, rhs)

			var sol mat.VecDense
			if err := chol.SolveVecTo(&sol, mat.NewVecDense(k, rhs)); err != nil {
				return nil, nil, nil, err
			}
			dx = append([]float64(nil), sol.RawVector().Data...)

			gdx := mulVec(g, dx)
			dl = make([]float64, m)
			ds = make([]float64, m)
			for i := range dl {
				dl[i] = w[i]*(gdx[i]+rp[i]) - rc[i]/slack[i]
				ds[i] = -(rc[i] + slack[i]*dl[i]) / lam[i]
			}
			return dx, dl, ds, nil
		}

		// Predictor.
		rc := make([]float64, m)
		floats.MulTo(rc, slack, lam)
		_, dlAff, dsAff, err := newton(rc)
		if err != nil {
			breakdown(pr, err.Error())
			break
		}
		aAff := math.Min(1, math.Min(maxStep(slack, dsAff), maxStep(lam, dlAff)))
		var muAff float64
		for i := range slack {
			muAff += (slack[i] + aAff*dsAff[i]) * (lam[i] + aAff*dlAff[i])
		}
		muAff /= float64(m)
		sigma := math.Pow(muAff/mu, 3)

		// Corrector.
		for i := range rc {
			rc[i] = slack[i]*lam[i] + dsAff[i]*dlAff[i] - sigma*mu
		}
		dx, dl, ds, err := newton(rc)
		if err != nil {
			breakdown(pr, err.Error())
			break
		}
		step := math.Min(1, 0.99*math.Min(maxStep(slack, ds), maxStep(lam, dl)))

		floats.AddScaled(u, step, dx)
		floats.AddScaled(slack, step, ds)
		floats.AddScaled(lam, step, dl)
		res.history = append(res.history, Iteration{Iter: iter, Mu: mu, Primal: pr, Dual: du, Step: step})

		if step < 1e-12 {
			pr, _, _ = residuals()
			breakdown(pr, fmt.Sprintf("step length collapsed at iteration %d", iter))
			break
		}
	}

	if res.status == StatusMaxIterations {
		pr, _, _ := residuals()
		if !primalOK(pr) {
			res.status = StatusInfeasible
			res.message = fmt.Sprintf("primal residual %.3g after %d iterations", pr, s.MaxIterations)
		} else {
			res.message = fmt.Sprintf("no convergence after %d iterations", s.MaxIterations)
		}
	}
	res.u = u
	return res
}

// maxStep returns the largest α with v + α dv >= 0.
func maxStep(v, dv []float64) float64 {
	a := math.Inf(1)
	for i := range v {
		if dv[i] < 0 {
			a = math.Min(a, -v[i]/dv[i])
		}
	}
	return a
}

func mulVec(a mat.Matrix, x []float64) []float64 {
	r, c := a.Dims()
	var out mat.VecDense
	out.MulVec(a, mat.NewVecDense(c, x))
	res := make([]float64, r)
	copy(res, out.RawVector().Data)
	return res
}

func mulTVec(a mat.Matrix, x []float64) []float64 {
	return mulVec(a.T(), x)
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}
