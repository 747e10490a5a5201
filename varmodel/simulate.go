// SPDX-License-Identifier: MIT

package varmodel

import (
	"fmt"
	"math/rand/v2"

	"github.com/katalvlaran/lvconn/signal"
	"gonum.org/v1/gonum/mat"
)

// DefaultBurnIn is the number of discarded start-up samples per trial.
const DefaultBurnIn = 100

// Simulate draws `trials` independent realizations of length `samples` from
// mdl, driven by Gaussian noise with covariance mdl.Cov. The generator is
// seeded with seed, so equal seeds give bit-identical arrays.
//
// Errors:
//   - signal.ErrBadShape for non-positive sizes.
//   - ErrIllConditioned if mdl.Cov is not positive definite.
func Simulate(mdl *Model, samples, trials int, seed uint64) (*signal.Array3, error) {
	if mdl == nil {
		return nil, ErrDimensionMismatch
	}
	m, p := mdl.Channels(), mdl.Order()
	out, err := signal.NewArray3(samples, m, trials)
	if err != nil {
		return nil, err
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(mdl.Cov); !ok {
		return nil, fmt.Errorf("noise covariance: %w", ErrIllConditioned)
	}
	var L mat.TriDense
	chol.LTo(&L)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	total := samples + DefaultBurnIn
	z := make([]float64, m)
	for tr := 0; tr < trials; tr++ {
		hist := make([][]float64, total)
		for s := 0; s < total; s++ {
			for i := range z {
				z[i] = rng.NormFloat64()
			}
			cur := make([]float64, m)
			for i := 0; i < m; i++ {
				var acc float64
				for j := 0; j <= i; j++ {
					acc += L.At(i, j) * z[j]
				}
				for k := 1; k <= p && s-k >= 0; k++ {
					prev := hist[s-k]
					for j := 0; j < m; j++ {
						acc += mdl.Coef.At(i, (k-1)*m+j) * prev[j]
					}
				}
				cur[i] = acc
			}
			hist[s] = cur
			if s >= DefaultBurnIn {
				for i, v := range cur {
					_ = out.Set(s-DefaultBurnIn, i, tr, v)
				}
			}
		}
	}

	return out, nil
}
