package workspace_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/katalvlaran/lvconn/connectivity"
	"github.com/katalvlaran/lvconn/workspace"
	"github.com/stretchr/testify/require"
)

// TestConcurrentQueriesAndSetData mixes SetData/FitModel writers with
// Connectivity readers; readers may only ever see a complete model or none.
func TestConcurrentQueriesAndSetData(t *testing.T) {
	ctx := context.Background()
	ws := workspace.New(2, workspace.WithRegularization(0.1), workspace.WithNFFT(8))
	require.NoError(t, ws.SetUnmixing(identity(2)))
	require.NoError(t, ws.SetData(simulated(t, 120, 2, 1), nil))
	require.NoError(t, ws.FitModel(ctx))

	const rounds = 20
	var wg sync.WaitGroup
	wg.Add(2 * rounds)
	for i := 0; i < rounds; i++ {
		go func(seed uint64) {
			defer wg.Done()
			x := simulated(t, 120, 2, seed)
			if err := ws.SetData(x, nil); err != nil {
				t.Error(err)
				return
			}
			// another writer may replace the activations mid-fit
			if err := ws.FitModel(ctx); err != nil && !errors.Is(err, workspace.ErrPrecondition) {
				t.Error(err)
			}
		}(uint64(i + 2))

		go func() {
			defer wg.Done()
			res, err := ws.Connectivity(connectivity.PDC)
			if err != nil {
				if !errors.Is(err, workspace.ErrPrecondition) {
					t.Error(err)
				}
				return
			}
			s, ok := res.Value()
			if !ok {
				t.Error("expected a single spectrum")
				return
			}
			if m, nfft := s.Dims(); m != 2 || nfft != 8 {
				t.Errorf("unexpected dims %d×%d", m, nfft)
			}
		}()
	}
	wg.Wait()
}

// TestConcurrentTFConnectivity runs several sliding-window calls at once on
// the same workspace.
func TestConcurrentTFConnectivity(t *testing.T) {
	ctx := context.Background()
	ws := workspace.New(2, workspace.WithRegularization(0.1), workspace.WithNFFT(8), workspace.WithParallelism(2))
	require.NoError(t, ws.SetUnmixing(identity(2)))
	require.NoError(t, ws.SetData(simulated(t, 400, 2, 1), nil))

	results := make([]workspace.Classed[*connectivity.TFSpectrum], 4)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ws.TFConnectivity(ctx, connectivity.DTF, 100, 50)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = res
		}()
	}
	wg.Wait()

	first, ok := results[0].Value()
	require.True(t, ok)
	for _, r := range results[1:] {
		other, ok := r.Value()
		require.True(t, ok)
		for w := 0; w < 6; w++ {
			a, err := first.Window(w)
			require.NoError(t, err)
			b, err := other.Window(w)
			require.NoError(t, err)
			require.True(t, a.Equal(b))
		}
	}
}
