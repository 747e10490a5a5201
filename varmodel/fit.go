// SPDX-License-Identifier: MIT

package varmodel

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvconn/signal"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Fitter estimates VAR models from multitrial data.
//
// Implementations must be deterministic (same input → bit-identical model) and
// safe for concurrent use: the sliding-window pipeline calls them from several
// goroutines at once.
type Fitter interface {
	// Fit pools all trials of x into one model.
	Fit(x *signal.Array3, order int, delta float64) (*Model, error)

	// FitPerClass fits one model per distinct label, each on the trials that
	// carry that label.
	FitPerClass(x *signal.Array3, labels signal.Labels, order int, delta float64) (map[signal.Label]*Model, error)
}

// Tuner picks a regularization value for x. Fitters that can tune δ
// implement it; callers test for it with a type assertion.
type Tuner interface {
	Tune(x *signal.Array3, order int) (float64, error)
}

// Defaults (single source of truth).
const (
	// DefaultMaxCondition bounds the condition number of the regularized normal
	// matrix; beyond it the fit fails with ErrIllConditioned.
	DefaultMaxCondition = 1e12

	// DefaultFolds is the number of cross-validation folds used by Tune.
	DefaultFolds = 5

	// DefaultLogDeltaMin and DefaultLogDeltaMax bound the δ search (log10 scale).
	DefaultLogDeltaMin = -4.0
	DefaultLogDeltaMax = 4.0

	// DefaultTuneIterations is the number of golden-section steps used by Tune.
	DefaultTuneIterations = 24
)

// Options configures LeastSquares.
//
// Fields:
//   - MaxCondition: upper bound on cond(XᵀX + δ²I); <= 0 disables the check.
//   - Folds: cross-validation folds for Tune (>= 2).
//   - LogDeltaMin: lower search bound for log10(δ).
//   - LogDeltaMax: upper search bound for log10(δ).
//   - TuneIterations: golden-section iterations for Tune.
type Options struct {
	MaxCondition   float64
	Folds          int
	LogDeltaMin    float64
	LogDeltaMax    float64
	TuneIterations int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxCondition:   DefaultMaxCondition,
		Folds:          DefaultFolds,
		LogDeltaMin:    DefaultLogDeltaMin,
		LogDeltaMax:    DefaultLogDeltaMax,
		TuneIterations: DefaultTuneIterations,
	}
}

// LeastSquares is the default Fitter: ridge-regularized least squares pooled
// over trials. It is stateless apart from its Options and therefore safe for
// concurrent use.
type LeastSquares struct {
	Options Options
}

var (
	_ Fitter = (*LeastSquares)(nil)
	_ Tuner  = (*LeastSquares)(nil)
)

// NewLeastSquares returns a LeastSquares fitter with DefaultOptions.
func NewLeastSquares() *LeastSquares {
	return &LeastSquares{Options: DefaultOptions()}
}

// Fit estimates a VAR(order) model from all trials of x.
//
// Algorithm:
//  1. Build the design X = [x[n−1] … x[n−P]] and target Y = x[n] over all trials.
//  2. Solve (XᵀX + δ²I) B = XᵀY by Cholesky; Coef = Bᵀ.
//  3. Cov = sample covariance of the residuals Y − XB.
//
// Errors:
//   - ErrBadOrder, ErrBadDelta on invalid parameters.
//   - ErrTooFewSamples if a trial is not longer than order or fewer than two
//     regression rows remain.
//   - ErrIllConditioned if the normal matrix cannot be factorized or exceeds
//     Options.MaxCondition.
func (ls *LeastSquares) Fit(x *signal.Array3, order int, delta float64) (*Model, error) {
	if x == nil {
		return nil, signal.ErrNilArray
	}
	if order < 1 {
		return nil, ErrBadOrder
	}
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil, ErrBadDelta
	}
	X, Y, err := regression(x, order)
	if err != nil {
		return nil, err
	}
	rows, _ := Y.Dims()
	if rows < 2 {
		return nil, fmt.Errorf("%d regression rows: %w", rows, ErrTooFewSamples)
	}

	B, err := ls.solve(X, Y, delta)
	if err != nil {
		return nil, err
	}

	var resid mat.Dense
	resid.Mul(X, B)
	resid.Sub(Y, &resid)
	m := x.Channels()
	cov := mat.NewSymDense(m, nil)
	stat.CovarianceMatrix(cov, &resid, nil)

	return &Model{Coef: mat.DenseCopyOf(B.T()), Cov: cov}, nil
}

// solve returns B = (XᵀX + δ²I)⁻¹ XᵀY.
func (ls *LeastSquares) solve(X, Y *mat.Dense, delta float64) (*mat.Dense, error) {
	var xtx mat.SymDense
	xtx.SymOuterK(1, X.T())
	d2 := delta * delta
	if d2 > 0 {
		k := xtx.SymmetricDim()
		for i := 0; i < k; i++ {
			xtx.SetSym(i, i, xtx.At(i, i)+d2)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, ErrIllConditioned
	}
	if limit := ls.Options.MaxCondition; limit > 0 {
		if c := chol.Cond(); math.IsInf(c, 0) || math.IsNaN(c) || c > limit {
			return nil, fmt.Errorf("condition number %.3g: %w", c, ErrIllConditioned)
		}
	}

	var xty, B mat.Dense
	xty.Mul(X.T(), Y)
	if err := chol.SolveTo(&B, &xty); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrIllConditioned)
	}

	return &B, nil
}

// FitPerClass fits one model per distinct label. The returned map has exactly
// the keys labels.Classes().
func (ls *LeastSquares) FitPerClass(x *signal.Array3, labels signal.Labels, order int, delta float64) (map[signal.Label]*Model, error) {
	if x == nil {
		return nil, signal.ErrNilArray
	}
	if len(labels) == 0 {
		return nil, ErrNoClass
	}
	if err := labels.Validate(x.TrialCount()); err != nil {
		return nil, err
	}
	out := make(map[signal.Label]*Model)
	for _, c := range labels.Classes() {
		sub, err := x.Trials(labels.Indices(c))
		if err != nil {
			return nil, err
		}
		mdl, err := ls.Fit(sub, order, delta)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", c, err)
		}
		out[c] = mdl
	}

	return out, nil
}
