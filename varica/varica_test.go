package varica_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/lvconn/signal"
	"github.com/katalvlaran/lvconn/varica"
	"github.com/katalvlaran/lvconn/varmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// mixedRecording simulates a 3-source VAR(2) process and mixes it onto 4 channels.
func mixedRecording(t *testing.T) *signal.Array3 {
	t.Helper()
	coef := mat.NewDense(3, 6, []float64{
		0.6, 0.0, 0.0, -0.3, 0.0, 0.0,
		0.4, 0.5, 0.0, 0.0, -0.2, 0.0,
		0.0, 0.3, 0.4, 0.0, 0.0, -0.1,
	})
	cov := mat.NewSymDense(3, []float64{1, 0, 0, 0, 0.5, 0, 0, 0, 2})
	src, err := varmodel.NewModel(coef, cov)
	require.NoError(t, err)
	s, err := varmodel.Simulate(src, 400, 5, 42)
	require.NoError(t, err)

	mix := mat.NewDense(3, 4, []float64{
		1.0, 0.5, 0.2, 0.1,
		0.3, 1.0, 0.4, 0.2,
		0.1, 0.2, 1.0, 0.6,
	})
	x, err := s.Project(mix)
	require.NoError(t, err)
	require.Equal(t, 4, x.Channels())

	return x
}

func TestReductionFrom(t *testing.T) {
	r := varica.ReductionFrom(0.99)
	assert.True(t, r.ByVariance())
	assert.Equal(t, 0.99, r.RetainVariance)
	assert.Zero(t, r.NumComponents)

	r = varica.ReductionFrom(10)
	assert.False(t, r.ByVariance())
	assert.Equal(t, 10, r.NumComponents)
	assert.Zero(t, r.RetainVariance)
}

// TestMVARICA_Shapes checks the transform shapes and that Unmixing·Mixing is
// the identity in component space.
func TestMVARICA_Shapes(t *testing.T) {
	x := mixedRecording(t)
	sep := varica.New(nil)

	res, err := sep.Separate(context.Background(), x, 2, varica.Reduction{NumComponents: 3}, varica.Regularization{Delta: 0.1})
	require.NoError(t, err)

	r, c := res.Unmixing.Dims()
	assert.Equal(t, []int{4, 3}, []int{r, c})
	r, c = res.Mixing.Dims()
	assert.Equal(t, []int{3, 4}, []int{r, c})
	assert.Equal(t, 3, res.Model.Channels())
	assert.Equal(t, 2, res.Model.Order())
	assert.Equal(t, 0.1, res.Delta)

	var id mat.Dense
	id.Mul(res.Mixing, res.Unmixing)
	assert.True(t, mat.EqualApprox(&id, mat.NewDiagDense(3, []float64{1, 1, 1}), 1e-8))
}

func TestMVARICA_RetainVariance(t *testing.T) {
	x := mixedRecording(t)
	res, err := varica.New(nil).Separate(context.Background(), x, 2, varica.ReductionFrom(0.999999), varica.Regularization{})
	require.NoError(t, err)
	_, k := res.Unmixing.Dims()
	// three sources on four channels: the fourth direction carries no variance
	assert.Equal(t, 3, k)
}

func TestMVARICA_AutoRegularization(t *testing.T) {
	x := mixedRecording(t)
	fit := varmodel.NewLeastSquares()
	fit.Options.TuneIterations = 8
	res, err := varica.New(fit).Separate(context.Background(), x, 2, varica.Reduction{NumComponents: 3}, varica.Regularization{Auto: true})
	require.NoError(t, err)
	assert.Greater(t, res.Delta, 0.0)
}

func TestMVARICA_Errors(t *testing.T) {
	x := mixedRecording(t)
	sep := varica.New(nil)
	ctx := context.Background()

	_, err := sep.Separate(ctx, x, 2, varica.Reduction{NumComponents: 9}, varica.Regularization{})
	assert.ErrorIs(t, err, varica.ErrBadReduction)
	_, err = sep.Separate(ctx, x, 2, varica.Reduction{}, varica.Regularization{})
	assert.ErrorIs(t, err, varica.ErrBadReduction)
	_, err = sep.Separate(ctx, nil, 2, varica.Reduction{NumComponents: 2}, varica.Regularization{})
	assert.ErrorIs(t, err, signal.ErrNilArray)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = sep.Separate(canceled, x, 2, varica.Reduction{NumComponents: 3}, varica.Regularization{})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = sep.Separate(ctx, x, 500, varica.Reduction{NumComponents: 3}, varica.Regularization{})
	assert.ErrorIs(t, err, varmodel.ErrTooFewSamples)
}

// noTune is a Fitter without Tune.
type noTune struct{ varmodel.Fitter }

func TestMVARICA_AutoNeedsTuner(t *testing.T) {
	x := mixedRecording(t)
	sep := varica.New(noTune{varmodel.NewLeastSquares()})
	_, err := sep.Separate(context.Background(), x, 2, varica.Reduction{NumComponents: 3}, varica.Regularization{Auto: true})
	assert.ErrorIs(t, err, varica.ErrNoTuner)
}
