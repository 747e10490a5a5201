// SPDX-License-Identifier: MIT

// Package ica separates mixed observations into statistically independent
// components with symmetric FastICA (tanh contrast).
//
// Convention: observations are rows. For data X (n×k) the result satisfies
//
//	S = (X − mean) · Unmixing,   X − mean ≈ S · Mixing
//
// so Unmixing is k×k (columns are spatial filters) and Mixing = Unmixing⁻¹.
package ica

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrTooFewObservations indicates fewer rows than needed for a covariance.
	ErrTooFewObservations = errors.New("ica: too few observations")

	// ErrRankDeficient indicates a (near) zero-variance direction in the data,
	// which makes whitening impossible.
	ErrRankDeficient = errors.New("ica: data covariance is rank deficient")

	// ErrNotConverged indicates the fixed-point iteration hit MaxIter. FastICA
	// still returns the last estimate alongside it.
	ErrNotConverged = errors.New("ica: fixed-point iteration did not converge")
)

// Defaults.
const (
	DefaultMaxIter = 400
	DefaultTol     = 1e-7
	DefaultSeed    = 1
	// minEigen is the relative eigenvalue floor used to detect rank deficiency.
	minEigen = 1e-12
)

// Options configures FastICA.
//
// Fields:
//   - MaxIter: fixed-point iteration limit.
//   - Tol: convergence threshold on max |1 − |⟨w_new, w_old⟩||.
//   - Seed: seed of the random initial rotation (runs are reproducible).
type Options struct {
	MaxIter int
	Tol     float64
	Seed    uint64
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{MaxIter: DefaultMaxIter, Tol: DefaultTol, Seed: DefaultSeed}
}

// Result holds the estimated transforms.
type Result struct {
	Mixing     *mat.Dense // k×k
	Unmixing   *mat.Dense // k×k
	Iterations int
}

// FastICA estimates k independent components from x (n×k).
// When the iteration limit is reached the last estimate is returned together
// with ErrNotConverged.
//
// Algorithm:
//  1. Center columns; whiten with K = E·diag(λ^−½) from the covariance eigensystem.
//  2. Start from a seeded random rotation W and iterate
//     W ← E[g(Z Wᵀ)ᵀ Z]/n − diag(E[g'(Z Wᵀ)]) W,  g = tanh,
//     followed by symmetric decorrelation W ← (W Wᵀ)^−½ W.
//  3. Unmixing = K Wᵀ, Mixing = Unmixing⁻¹.
func FastICA(x mat.Matrix, opts Options) (*Result, error) {
	n, k := x.Dims()
	if n < 2 || n <= k {
		return nil, fmt.Errorf("%d observations for %d signals: %w", n, k, ErrTooFewObservations)
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultMaxIter
	}
	if opts.Tol <= 0 {
		opts.Tol = DefaultTol
	}

	z, white, err := whiten(x)
	if err != nil {
		return nil, err
	}

	w := randomRotation(k, opts.Seed)
	if err := decorrelate(w); err != nil {
		return nil, err
	}

	var (
		proj  mat.Dense
		gz    = mat.NewDense(n, k, nil)
		next  mat.Dense
		iters int
		done  bool
	)
	gprime := make([]float64, k)
	for iters = 1; iters <= opts.MaxIter; iters++ {
		proj.Mul(z, w.T())
		for j := range gprime {
			gprime[j] = 0
		}
		for i := 0; i < n; i++ {
			for j := 0; j < k; j++ {
				g := math.Tanh(proj.At(i, j))
				gz.Set(i, j, g)
				gprime[j] += 1 - g*g
			}
		}
		floats.Scale(1/float64(n), gprime)

		next.Mul(gz.T(), z)
		next.Scale(1/float64(n), &next)
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				next.Set(i, j, next.At(i, j)-gprime[i]*w.At(i, j))
			}
		}
		if err := decorrelate(&next); err != nil {
			return nil, err
		}

		var lim float64
		for i := 0; i < k; i++ {
			d := math.Abs(math.Abs(floats.Dot(next.RawRowView(i), w.RawRowView(i))) - 1)
			lim = math.Max(lim, d)
		}
		w.Copy(&next)
		if lim < opts.Tol {
			done = true
			break
		}
	}
	unmix := mat.NewDense(k, k, nil)
	unmix.Mul(white, w.T())
	mix := mat.NewDense(k, k, nil)
	if err := mix.Inverse(unmix); err != nil {
		return nil, fmt.Errorf("unmixing inverse: %v: %w", err, ErrRankDeficient)
	}

	res := &Result{Mixing: mix, Unmixing: unmix, Iterations: iters}
	if !done {
		res.Iterations = opts.MaxIter
		return res, fmt.Errorf("after %d iterations: %w", opts.MaxIter, ErrNotConverged)
	}

	return res, nil
}

// whiten centers x and returns Z = Xc·K with cov(Z) = I, together with K.
func whiten(x mat.Matrix) (z, white *mat.Dense, err error) {
	n, k := x.Dims()
	xc := mat.DenseCopyOf(x)
	col := make([]float64, n)
	for j := 0; j < k; j++ {
		mat.Col(col, j, xc)
		mu := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			xc.Set(i, j, col[i]-mu)
		}
	}

	cov := mat.NewSymDense(k, nil)
	stat.CovarianceMatrix(cov, xc, nil)
	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return nil, nil, ErrRankDeficient
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	top := floats.Max(vals)
	if top <= 0 {
		return nil, nil, ErrRankDeficient
	}
	white = mat.NewDense(k, k, nil)
	for j, v := range vals {
		if v <= minEigen*top {
			return nil, nil, fmt.Errorf("eigenvalue %.3g: %w", v, ErrRankDeficient)
		}
		s := 1 / math.Sqrt(v)
		for i := 0; i < k; i++ {
			white.Set(i, j, vecs.At(i, j)*s)
		}
	}
	z = mat.NewDense(n, k, nil)
	z.Mul(xc, white)

	return z, white, nil
}

// decorrelate replaces w with (W Wᵀ)^−½ W in place.
func decorrelate(w *mat.Dense) error {
	k, _ := w.Dims()
	var wwt mat.SymDense
	wwt.SymOuterK(1, w)
	var eig mat.EigenSym
	if ok := eig.Factorize(&wwt, true); !ok {
		return ErrRankDeficient
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	scaled := mat.NewDense(k, k, nil)
	for j, v := range vals {
		if v <= 0 {
			return ErrRankDeficient
		}
		s := 1 / math.Sqrt(v)
		for i := 0; i < k; i++ {
			scaled.Set(i, j, vecs.At(i, j)*s)
		}
	}
	var invSqrt, out mat.Dense
	invSqrt.Mul(scaled, vecs.T())
	out.Mul(&invSqrt, w)
	w.Copy(&out)

	return nil
}

// randomRotation returns a seeded k×k Gaussian matrix.
func randomRotation(k int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	data := make([]float64, k*k)
	for i := range data {
		data[i] = rng.NormFloat64()
	}

	return mat.NewDense(k, k, data)
}
