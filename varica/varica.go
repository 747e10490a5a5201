// SPDX-License-Identifier: MIT

// Package varica implements MVARICA, the joint source separation + VAR fit
// used as the full decomposition step of the pipeline.
//
// Algorithm Outline:
//  1. PCA on the trial-concatenated data; keep K components chosen by a
//     retained-variance fraction or a fixed count (Reduction).
//  2. Fit a VAR model to the reduced data (δ fixed or tuned).
//  3. Run ICA on the VAR residuals; the independent residual directions define
//     the sources.
//  4. Rotate the VAR coefficients and the noise covariance into source space and
//     compose the PCA and ICA transforms into the final mixing/unmixing pair.
//
// Shapes (row-vector convention, activations = data · Unmixing):
//
//	Unmixing: channels × K      Mixing: K × channels
package varica

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/lvconn/ica"
	"github.com/katalvlaran/lvconn/signal"
	"github.com/katalvlaran/lvconn/varmodel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrBadReduction indicates an unusable dimensionality-reduction target.
	ErrBadReduction = errors.New("varica: invalid dimensionality reduction")

	// ErrPCAFailed indicates the principal component analysis did not succeed.
	ErrPCAFailed = errors.New("varica: principal component analysis failed")

	// ErrNoTuner indicates automatic regularization with a fitter that does not
	// implement varmodel.Tuner.
	ErrNoTuner = errors.New("varica: fitter cannot tune regularization")
)

// Reduction selects how many principal components survive. Exactly one field
// is meaningful:
//   - RetainVariance in (0, 1): keep the fewest components explaining at least
//     that fraction of the total variance.
//   - NumComponents >= 1: keep exactly that many components.
type Reduction struct {
	RetainVariance float64
	NumComponents  int
}

// ReductionFrom maps one configured threshold onto the two mutually exclusive
// modes: v < 1 selects retained-variance mode, v >= 1 a fixed count (int(v)).
func ReductionFrom(v float64) Reduction {
	if v < 1 {
		return Reduction{RetainVariance: v}
	}

	return Reduction{NumComponents: int(v)}
}

// ByVariance reports whether r is in retained-variance mode.
func (r Reduction) ByVariance() bool { return r.NumComponents == 0 }

func (r Reduction) validate() error {
	switch {
	case r.NumComponents < 0:
		return ErrBadReduction
	case r.NumComponents == 0 && (r.RetainVariance <= 0 || r.RetainVariance >= 1 || math.IsNaN(r.RetainVariance)):
		return ErrBadReduction
	case r.NumComponents > 0 && r.RetainVariance != 0:
		return ErrBadReduction
	}

	return nil
}

// Regularization is the δ passed to the VAR fit. With Auto set, δ is tuned by
// the fitter (it must implement varmodel.Tuner) and Delta is ignored.
type Regularization struct {
	Delta float64
	Auto  bool
}

// Result is the outcome of a decomposition.
type Result struct {
	Mixing   *mat.Dense      // K × channels
	Unmixing *mat.Dense      // channels × K
	Model    *varmodel.Model // VAR model of the K sources
	Delta    float64         // δ actually used (tuned when Auto)
}

// Separator is the source separation service consumed by the workspace.
type Separator interface {
	Separate(ctx context.Context, x *signal.Array3, order int, red Reduction, reg Regularization) (*Result, error)
}

// MVARICA is the default Separator.
type MVARICA struct {
	Fitter varmodel.Fitter
	ICA    ica.Options
}

var _ Separator = (*MVARICA)(nil)

// New returns an MVARICA using fit (varmodel.NewLeastSquares when nil) and
// default ICA options.
func New(fit varmodel.Fitter) *MVARICA {
	if fit == nil {
		fit = varmodel.NewLeastSquares()
	}

	return &MVARICA{Fitter: fit, ICA: ica.DefaultOptions()}
}

// Separate runs MVARICA on x. ctx is checked between stages.
func (v *MVARICA) Separate(ctx context.Context, x *signal.Array3, order int, red Reduction, reg Regularization) (*Result, error) {
	if x == nil {
		return nil, signal.ErrNilArray
	}
	if err := red.validate(); err != nil {
		return nil, err
	}

	// Stage 1: PCA reduction.
	c, err := principalComponents(x, red)
	if err != nil {
		return nil, err
	}
	r, err := x.Project(c)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: VAR on reduced data.
	delta := reg.Delta
	if reg.Auto {
		tuner, ok := v.Fitter.(varmodel.Tuner)
		if !ok {
			return nil, fmt.Errorf("%T: %w", v.Fitter, ErrNoTuner)
		}
		if delta, err = tuner.Tune(r, order); err != nil {
			return nil, err
		}
	}
	mdl, err := v.Fitter.Fit(r, order, delta)
	if err != nil {
		return nil, err
	}
	resid, err := mdl.Residuals(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: ICA on residuals. Gaussian residual directions never settle, so a
	// non-converged rotation is still a valid decorrelating transform.
	sep, err := ica.FastICA(resid, v.ICA)
	if err != nil && !errors.Is(err, ica.ErrNotConverged) {
		return nil, err
	}

	// Stage 4: source-space model and composed transforms.
	src, err := rotate(mdl, resid, sep.Unmixing, sep.Mixing)
	if err != nil {
		return nil, err
	}
	var unmix, mix mat.Dense
	unmix.Mul(c, sep.Unmixing)
	mix.Mul(sep.Mixing, c.T())

	return &Result{Mixing: &mix, Unmixing: &unmix, Model: src, Delta: delta}, nil
}

// principalComponents returns the channels×K projection onto the leading
// principal directions of the trial-concatenated data.
func principalComponents(x *signal.Array3, red Reduction) (*mat.Dense, error) {
	var pc stat.PC
	if ok := pc.PrincipalComponents(x.Concat(), nil); !ok {
		return nil, ErrPCAFailed
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)
	m, kmax := vecs.Dims()

	k := red.NumComponents
	if red.ByVariance() {
		var total float64
		for _, v := range vars {
			total += v
		}
		if total <= 0 {
			return nil, ErrPCAFailed
		}
		var acc float64
		for k = 0; k < len(vars); {
			acc += vars[k]
			k++
			if acc/total >= red.RetainVariance {
				break
			}
		}
	}
	if k < 1 || k > kmax {
		return nil, fmt.Errorf("%d components of %d: %w", k, kmax, ErrBadReduction)
	}

	return mat.DenseCopyOf(vecs.Slice(0, m, 0, k)), nil
}

// rotate expresses the reduced-space model in source space:
// A_k' = Uᵀ A_k Mᵀ for every lag and C' = cov(E·U).
func rotate(mdl *varmodel.Model, resid, u, m *mat.Dense) (*varmodel.Model, error) {
	k, p := mdl.Channels(), mdl.Order()
	coef := mat.NewDense(k, k*p, nil)
	for lag := 1; lag <= p; lag++ {
		a, err := mdl.Lag(lag)
		if err != nil {
			return nil, err
		}
		var tmp, rot mat.Dense
		tmp.Mul(u.T(), a)
		rot.Mul(&tmp, m.T())
		coef.Slice(0, k, (lag-1)*k, lag*k).(*mat.Dense).Copy(&rot)
	}

	var e mat.Dense
	e.Mul(resid, u)
	cov := mat.NewSymDense(k, nil)
	stat.CovarianceMatrix(cov, &e, nil)

	return varmodel.NewModel(coef, cov)
}
