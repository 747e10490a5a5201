package workspace_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/lvconn/connectivity"
	"github.com/katalvlaran/lvconn/varmodel"
	"github.com/katalvlaran/lvconn/workspace"
	"gonum.org/v1/gonum/mat"
)

// ExampleWorkspace walks a workspace from raw data to a connectivity spectrum.
func ExampleWorkspace() {
	mdl, _ := varmodel.NewModel(
		mat.NewDense(2, 2, []float64{0.5, 0, 0.4, 0.3}),
		mat.NewSymDense(2, []float64{1, 0, 0, 1}),
	)
	x, _ := varmodel.Simulate(mdl, 200, 4, 42)

	ws := workspace.New(1, workspace.WithRegularization(0), workspace.WithNFFT(16))
	fmt.Println(ws.Stage())

	_ = ws.SetData(x, nil)
	_ = ws.SetUnmixing(mat.NewDense(2, 2, []float64{1, 0, 0, 1}))
	fmt.Println(ws.Stage())

	_ = ws.FitModel(context.Background())
	fmt.Println(ws.Stage())

	res, _ := ws.Connectivity(connectivity.PDC)
	s, _ := res.Value()
	m, nfft := s.Dims()
	fmt.Println(m, nfft)
	// Output:
	// empty
	// activations-available
	// connectivity-ready
	// 2 16
}

// ExampleWorkspace_TFConnectivity evaluates DTF over sliding windows.
func ExampleWorkspace_TFConnectivity() {
	mdl, _ := varmodel.NewModel(
		mat.NewDense(2, 2, []float64{0.5, 0, 0.4, 0.3}),
		mat.NewSymDense(2, []float64{1, 0, 0, 1}),
	)
	x, _ := varmodel.Simulate(mdl, 500, 3, 7)

	ws := workspace.New(1, workspace.WithRegularization(0.01), workspace.WithNFFT(8))
	_ = ws.SetUnmixing(mat.NewDense(2, 2, []float64{1, 0, 0, 1}))
	_ = ws.SetData(x, nil)

	res, _ := ws.TFConnectivity(context.Background(), connectivity.DTF, 100, 50)
	tf, _ := res.Value()
	m, windows, nfft := tf.Dims()
	fmt.Println(m, windows, nfft)
	// Output:
	// 2 8 8
}
