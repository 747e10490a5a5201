package ica_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/katalvlaran/lvconn/ica"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// sources returns n samples of two independent non-Gaussian signals:
// a uniform noise and a sawtooth.
func sources(n int) *mat.Dense {
	rng := rand.New(rand.NewPCG(3, 4))
	s := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		s.Set(i, 0, rng.Float64()*2-1)
		s.Set(i, 1, math.Mod(float64(i)*0.07, 1)*2-1)
	}

	return s
}

// TestFastICA_RecoversSources mixes two sources and expects every estimated
// component to correlate almost perfectly with exactly one source.
func TestFastICA_RecoversSources(t *testing.T) {
	const n = 2000
	s := sources(n)
	a := mat.NewDense(2, 2, []float64{1, 0.6, 0.4, 1})
	var x mat.Dense
	x.Mul(s, a)

	res, err := ica.FastICA(&x, ica.DefaultOptions())
	require.NoError(t, err)

	var est mat.Dense
	est.Mul(&x, res.Unmixing)
	for j := 0; j < 2; j++ {
		comp := mat.Col(nil, j, &est)
		best := 0.0
		for k := 0; k < 2; k++ {
			c := math.Abs(stat.Correlation(comp, mat.Col(nil, k, s), nil))
			best = math.Max(best, c)
		}
		assert.Greater(t, best, 0.98, "component %d", j)
	}

	// Mixing is the inverse of Unmixing
	var id mat.Dense
	id.Mul(res.Unmixing, res.Mixing)
	assert.True(t, mat.EqualApprox(&id, mat.NewDiagDense(2, []float64{1, 1}), 1e-9))
}

func TestFastICA_Deterministic(t *testing.T) {
	s := sources(500)
	a, err := ica.FastICA(s, ica.DefaultOptions())
	require.NoError(t, err)
	b, err := ica.FastICA(s, ica.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, mat.Equal(a.Unmixing, b.Unmixing))
}

func TestFastICA_Errors(t *testing.T) {
	_, err := ica.FastICA(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), ica.DefaultOptions())
	assert.ErrorIs(t, err, ica.ErrTooFewObservations)

	// two identical columns ⇒ singular covariance
	dup := mat.NewDense(50, 2, nil)
	for i := 0; i < 50; i++ {
		v := math.Sin(float64(i))
		dup.Set(i, 0, v)
		dup.Set(i, 1, v)
	}
	_, err = ica.FastICA(dup, ica.DefaultOptions())
	assert.ErrorIs(t, err, ica.ErrRankDeficient)
}

func TestFastICA_NotConvergedKeepsEstimate(t *testing.T) {
	opts := ica.DefaultOptions()
	opts.MaxIter = 1
	opts.Tol = 1e-300
	res, err := ica.FastICA(sources(300), opts)
	assert.ErrorIs(t, err, ica.ErrNotConverged)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Iterations)
}
