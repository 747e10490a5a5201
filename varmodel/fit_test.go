package varmodel_test

import (
	"testing"

	"github.com/katalvlaran/lvconn/signal"
	"github.com/katalvlaran/lvconn/varmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// groundTruth is a stable 2-channel VAR(2) where channel 0 drives channel 1.
func groundTruth(t *testing.T) *varmodel.Model {
	t.Helper()
	coef := mat.NewDense(2, 4, []float64{
		0.5, 0.0, -0.2, 0.0,
		0.4, 0.3, 0.0, -0.1,
	})
	cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	mdl, err := varmodel.NewModel(coef, cov)
	require.NoError(t, err)

	return mdl
}

func TestNewModel_Shapes(t *testing.T) {
	_, err := varmodel.NewModel(mat.NewDense(2, 3, nil), mat.NewSymDense(2, nil))
	assert.ErrorIs(t, err, varmodel.ErrDimensionMismatch)
	_, err = varmodel.NewModel(mat.NewDense(2, 4, nil), mat.NewSymDense(3, nil))
	assert.ErrorIs(t, err, varmodel.ErrDimensionMismatch)

	mdl := groundTruth(t)
	assert.Equal(t, 2, mdl.Channels())
	assert.Equal(t, 2, mdl.Order())
	a2, err := mdl.Lag(2)
	require.NoError(t, err)
	assert.Equal(t, -0.2, a2.At(0, 0))
	_, err = mdl.Lag(3)
	assert.ErrorIs(t, err, varmodel.ErrBadOrder)
}

// TestLeastSquares_RecoversCoefficients fits simulated data and expects the
// estimated coefficients close to the generating ones.
func TestLeastSquares_RecoversCoefficients(t *testing.T) {
	truth := groundTruth(t)
	x, err := varmodel.Simulate(truth, 500, 10, 7)
	require.NoError(t, err)

	fit := varmodel.NewLeastSquares()
	mdl, err := fit.Fit(x, 2, 0)
	require.NoError(t, err)
	r, c := mdl.Coef.Dims()
	require.Equal(t, []int{2, 4}, []int{r, c})
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.InDelta(t, truth.Coef.At(i, j), mdl.Coef.At(i, j), 0.06, "coef[%d,%d]", i, j)
		}
	}
	assert.InDelta(t, 1.0, mdl.Cov.At(0, 0), 0.1)
	assert.InDelta(t, 0.0, mdl.Cov.At(0, 1), 0.1)

	// identical input ⇒ bit-identical model
	again, err := fit.Fit(x, 2, 0)
	require.NoError(t, err)
	assert.True(t, mat.Equal(mdl.Coef, again.Coef))
	assert.True(t, mat.Equal(mdl.Cov, again.Cov))
}

func TestLeastSquares_RegularizationShrinks(t *testing.T) {
	x, err := varmodel.Simulate(groundTruth(t), 200, 2, 3)
	require.NoError(t, err)
	fit := varmodel.NewLeastSquares()
	plain, err := fit.Fit(x, 2, 0)
	require.NoError(t, err)
	ridge, err := fit.Fit(x, 2, 100)
	require.NoError(t, err)
	assert.Less(t, mat.Norm(ridge.Coef, 2), mat.Norm(plain.Coef, 2))
}

func TestLeastSquares_Errors(t *testing.T) {
	fit := varmodel.NewLeastSquares()
	x, err := signal.NewArray3(3, 2, 1)
	require.NoError(t, err)

	_, err = fit.Fit(x, 0, 0)
	assert.ErrorIs(t, err, varmodel.ErrBadOrder)
	_, err = fit.Fit(x, 1, -1)
	assert.ErrorIs(t, err, varmodel.ErrBadDelta)
	_, err = fit.Fit(x, 3, 0)
	assert.ErrorIs(t, err, varmodel.ErrTooFewSamples)
	_, err = fit.Fit(nil, 1, 0)
	assert.ErrorIs(t, err, signal.ErrNilArray)

	// all-zero data has a singular normal matrix without regularization
	zeros, err := signal.NewArray3(50, 2, 2)
	require.NoError(t, err)
	_, err = fit.Fit(zeros, 2, 0)
	assert.ErrorIs(t, err, varmodel.ErrIllConditioned)
}

// TestLeastSquares_FitPerClass checks the key set equals the distinct labels
// and each class model equals a pooled fit on that class's trials.
func TestLeastSquares_FitPerClass(t *testing.T) {
	x, err := varmodel.Simulate(groundTruth(t), 120, 4, 11)
	require.NoError(t, err)
	labels := signal.LabelsOf("b", "a", "b", "a")
	fit := varmodel.NewLeastSquares()

	models, err := fit.FitPerClass(x, labels, 2, 0.5)
	require.NoError(t, err)
	require.Len(t, models, 2)
	require.Contains(t, models, signal.Label("a"))
	require.Contains(t, models, signal.Label("b"))

	sub, err := x.Trials([]int{1, 3})
	require.NoError(t, err)
	direct, err := fit.Fit(sub, 2, 0.5)
	require.NoError(t, err)
	assert.True(t, mat.Equal(direct.Coef, models["a"].Coef))

	_, err = fit.FitPerClass(x, nil, 2, 0)
	assert.ErrorIs(t, err, varmodel.ErrNoClass)
	_, err = fit.FitPerClass(x, signal.LabelsOf("a"), 2, 0)
	assert.ErrorIs(t, err, signal.ErrLabelMismatch)
}

func TestModel_ResidualsAndPredict(t *testing.T) {
	truth := groundTruth(t)
	x, err := varmodel.Simulate(truth, 60, 3, 5)
	require.NoError(t, err)

	res, err := truth.Residuals(x)
	require.NoError(t, err)
	r, c := res.Dims()
	assert.Equal(t, 3*(60-2), r)
	assert.Equal(t, 2, c)

	pred, err := truth.Predict(x)
	require.NoError(t, err)
	// residual row 0 is trial 0, sample 2
	xv, _ := x.At(2, 1, 0)
	pv, _ := pred.At(2, 1, 0)
	assert.InDelta(t, xv-pv, res.At(0, 1), 1e-12)

	other, err := signal.NewArray3(10, 3, 1)
	require.NoError(t, err)
	_, err = truth.Residuals(other)
	assert.ErrorIs(t, err, varmodel.ErrDimensionMismatch)
}

func TestLeastSquares_Tune(t *testing.T) {
	x, err := varmodel.Simulate(groundTruth(t), 150, 6, 21)
	require.NoError(t, err)
	fit := varmodel.NewLeastSquares()
	fit.Options.TuneIterations = 12

	delta, err := fit.Tune(x, 2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, delta, 1e-4)
	assert.LessOrEqual(t, delta, 1e4)

	// single trial is split into pseudo-trials
	single, err := x.Trials([]int{0})
	require.NoError(t, err)
	_, err = fit.Tune(single, 2)
	assert.NoError(t, err)

	short, err := x.Window(0, 10)
	require.NoError(t, err)
	one, err := short.Trials([]int{0})
	require.NoError(t, err)
	_, err = fit.Tune(one, 2)
	assert.ErrorIs(t, err, varmodel.ErrTooFewSamples)
}

func TestSimulate_Deterministic(t *testing.T) {
	a, err := varmodel.Simulate(groundTruth(t), 40, 2, 99)
	require.NoError(t, err)
	b, err := varmodel.Simulate(groundTruth(t), 40, 2, 99)
	require.NoError(t, err)
	c, err := varmodel.Simulate(groundTruth(t), 40, 2, 100)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
