// SPDX-License-Identifier: MIT

package varmodel

import (
	"fmt"

	"github.com/katalvlaran/lvconn/signal"
	"gonum.org/v1/gonum/mat"
)

// Model is a fitted VAR process: coefficients and noise covariance together.
//
// Fields:
//   - Coef: M×(M·P) matrix [A_1 | … | A_P]; block k occupies columns [k·M, (k+1)·M).
//   - Cov: M×M residual (noise) covariance.
//
// A Model is never mutated after it is returned by a fitter, so it may be
// shared between goroutines.
type Model struct {
	Coef *mat.Dense
	Cov  *mat.SymDense
}

// NewModel validates shapes and wraps coef and cov into a Model.
func NewModel(coef *mat.Dense, cov *mat.SymDense) (*Model, error) {
	if coef == nil || cov == nil {
		return nil, ErrDimensionMismatch
	}
	m, mp := coef.Dims()
	if m == 0 || mp%m != 0 || mp == 0 {
		return nil, fmt.Errorf("coef %dx%d: %w", m, mp, ErrDimensionMismatch)
	}
	if cov.SymmetricDim() != m {
		return nil, fmt.Errorf("cov %d for %d channels: %w", cov.SymmetricDim(), m, ErrDimensionMismatch)
	}

	return &Model{Coef: coef, Cov: cov}, nil
}

// Channels returns M.
func (mdl *Model) Channels() int {
	m, _ := mdl.Coef.Dims()

	return m
}

// Order returns P.
func (mdl *Model) Order() int {
	m, mp := mdl.Coef.Dims()

	return mp / m
}

// Lag returns a copy of A_k for k in [1, P].
func (mdl *Model) Lag(k int) (*mat.Dense, error) {
	m, p := mdl.Channels(), mdl.Order()
	if k < 1 || k > p {
		return nil, fmt.Errorf("lag %d of order %d: %w", k, p, ErrBadOrder)
	}

	return mat.DenseCopyOf(mdl.Coef.Slice(0, m, (k-1)*m, k*m)), nil
}

// Predict returns the one-step-ahead prediction of x. The first P samples of
// every trial have no full history and are left at zero.
func (mdl *Model) Predict(x *signal.Array3) (*signal.Array3, error) {
	n, m, t := x.Dims()
	if m != mdl.Channels() {
		return nil, fmt.Errorf("data has %d channels, model %d: %w", m, mdl.Channels(), ErrDimensionMismatch)
	}
	out, err := signal.NewArray3(n, m, t)
	if err != nil {
		return nil, err
	}
	p := mdl.Order()
	for tr := 0; tr < t; tr++ {
		for s := p; s < n; s++ {
			for i := 0; i < m; i++ {
				var acc float64
				for k := 1; k <= p; k++ {
					for j := 0; j < m; j++ {
						v, _ := x.At(s-k, j, tr)
						acc += mdl.Coef.At(i, (k-1)*m+j) * v
					}
				}
				_ = out.Set(s, i, tr, acc)
			}
		}
	}

	return out, nil
}

// Residuals returns e[n] = x[n] − Σ A_k x[n−k] for n ≥ P, stacked over trials
// into a (T·(N−P))×M matrix (trial-major, same row order as the regression).
func (mdl *Model) Residuals(x *signal.Array3) (*mat.Dense, error) {
	if x.Channels() != mdl.Channels() {
		return nil, fmt.Errorf("data has %d channels, model %d: %w", x.Channels(), mdl.Channels(), ErrDimensionMismatch)
	}
	X, Y, err := regression(x, mdl.Order())
	if err != nil {
		return nil, err
	}
	var e mat.Dense
	e.Mul(X, mdl.Coef.T())
	e.Sub(Y, &e)

	return &e, nil
}

// regression builds the design X ((T·(N−P))×(M·P)) and target Y ((T·(N−P))×M):
// row r of trial t and sample n (n ≥ P) holds Y = x[n] and
// X = [x[n−1] | x[n−2] | … | x[n−P]].
func regression(x *signal.Array3, p int) (X, Y *mat.Dense, err error) {
	if p < 1 {
		return nil, nil, ErrBadOrder
	}
	n, m, t := x.Dims()
	if n <= p {
		return nil, nil, fmt.Errorf("%d samples for order %d: %w", n, p, ErrTooFewSamples)
	}
	rows := t * (n - p)
	X = mat.NewDense(rows, m*p, nil)
	Y = mat.NewDense(rows, m, nil)
	r := 0
	for tr := 0; tr < t; tr++ {
		for s := p; s < n; s++ {
			for j := 0; j < m; j++ {
				v, _ := x.At(s, j, tr)
				Y.Set(r, j, v)
				for k := 1; k <= p; k++ {
					lag, _ := x.At(s-k, j, tr)
					X.Set(r, (k-1)*m+j, lag)
				}
			}
			r++
		}
	}

	return X, Y, nil
}
