package workspace_test

import (
	"context"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/katalvlaran/lvconn/signal"
	"github.com/katalvlaran/lvconn/topo"
	"github.com/katalvlaran/lvconn/varica"
	"github.com/katalvlaran/lvconn/varmodel"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// simulated draws a 2-channel VAR(2) process in which channel 0 drives channel 1.
func simulated(tb testing.TB, samples, trials int, seed uint64) *signal.Array3 {
	tb.Helper()
	mdl, err := varmodel.NewModel(
		mat.NewDense(2, 4, []float64{
			0.5, 0.0, -0.2, 0.0,
			0.4, 0.3, 0.0, -0.1,
		}),
		mat.NewSymDense(2, []float64{1, 0, 0, 1}),
	)
	require.NoError(tb, err)
	x, err := varmodel.Simulate(mdl, samples, trials, seed)
	require.NoError(tb, err)

	return x
}

func identity(m int) *mat.Dense {
	d := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		d.Set(i, i, 1)
	}

	return d
}

// recordingSeparator records its arguments and returns an identity
// decomposition with a model fitted by least squares. Auto regularization
// resolves to tunedDelta.
type recordingSeparator struct {
	mu         sync.Mutex
	calls      int
	red        varica.Reduction
	reg        varica.Regularization
	err        error
	tunedDelta float64
}

func (s *recordingSeparator) Separate(_ context.Context, x *signal.Array3, order int, red varica.Reduction, reg varica.Regularization) (*varica.Result, error) {
	s.mu.Lock()
	s.calls++
	s.red, s.reg = red, reg
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	delta := reg.Delta
	if reg.Auto {
		delta = s.tunedDelta
	}
	mdl, err := varmodel.NewLeastSquares().Fit(x, order, delta)
	if err != nil {
		return nil, err
	}
	m := x.Channels()

	return &varica.Result{Mixing: identity(m), Unmixing: identity(m), Model: mdl, Delta: delta}, nil
}

func (s *recordingSeparator) last() (varica.Reduction, varica.Regularization, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.red, s.reg, s.calls
}

// failingFitter delegates to least squares for the first `ok` fits and fails
// afterwards.
type failingFitter struct {
	ok    int32
	calls atomic.Int32
	inner *varmodel.LeastSquares
}

func newFailingFitter(ok int32) *failingFitter {
	return &failingFitter{ok: ok, inner: varmodel.NewLeastSquares()}
}

func (f *failingFitter) Fit(x *signal.Array3, order int, delta float64) (*varmodel.Model, error) {
	if f.calls.Add(1) > f.ok {
		return nil, varmodel.ErrIllConditioned
	}

	return f.inner.Fit(x, order, delta)
}

func (f *failingFitter) FitPerClass(x *signal.Array3, labels signal.Labels, order int, delta float64) (map[signal.Label]*varmodel.Model, error) {
	if f.calls.Add(1) > f.ok {
		return nil, varmodel.ErrIllConditioned
	}

	return f.inner.FitPerClass(x, labels, order, delta)
}

// recordingRenderer records what it is asked to draw.
type recordingRenderer struct {
	maps   []*topo.Map
	ranges []topo.Range
}

func (r *recordingRenderer) Render(w io.Writer, maps []*topo.Map, ranges []topo.Range) error {
	r.maps, r.ranges = maps, ranges
	_, err := w.Write([]byte("ok"))

	return err
}

// headLocations returns n sensors spread over the upper hemisphere.
func headLocations(n int) []topo.Location {
	locs := make([]topo.Location, n)
	for i := range locs {
		a := float64(i) * 2.399963 // golden angle
		z := 1 - float64(i)/float64(n)
		r := math.Sqrt(1 - z*z)
		locs[i] = topo.Location{Label: string(rune('A' + i)), X: r * math.Cos(a), Y: r * math.Sin(a), Z: z}
	}

	return locs
}

// simulatedChannels spreads the 2-channel process over m channels.
func simulatedChannels(tb testing.TB, m int) *signal.Array3 {
	tb.Helper()
	spread := mat.NewDense(2, m, nil)
	for j := 0; j < m; j++ {
		spread.Set(0, j, 1/float64(j+1))
		spread.Set(1, j, float64(j%2))
	}
	x, err := simulated(tb, 100, 2, 7).Project(spread)
	require.NoError(tb, err)

	return x
}
