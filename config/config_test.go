package config_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/lvconn/config"
	"github.com/katalvlaran/lvconn/connectivity"
	"github.com/katalvlaran/lvconn/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.DefaultOrder, cfg.Order)
	assert.Nil(t, cfg.Delta)
	assert.Equal(t, workspace.DefaultNFFT, cfg.NFFT)
	m, err := cfg.MeasureValue()
	require.NoError(t, err)
	assert.Equal(t, connectivity.DDTF, m)
}

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte(`
order: 3
delta: 0.25
nfft: 64
measure: PDC
window:
  length: 100
  step: 10
locations:
  - {label: Cz, x: 0, y: 0, z: 1}
  - {label: T7, x: -1, y: 0, z: 0}
`))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Order)
	require.NotNil(t, cfg.Delta)
	assert.Equal(t, 0.25, *cfg.Delta)
	assert.Equal(t, 64, cfg.NFFT)
	assert.Equal(t, workspace.DefaultReduceDim, cfg.ReduceDim, "unset keys keep defaults")
	assert.Equal(t, config.WindowConfig{Length: 100, Step: 10}, cfg.Window)
	require.Len(t, cfg.Locations, 2)
	assert.Equal(t, "T7", cfg.Locations[1].Label)

	empty, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), empty)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"order":    "order: 0",
		"delta":    "delta: -1",
		"nfft":     "nfft: 0",
		"reduce":   "reduce_dim: 0",
		"parallel": "parallelism: -2",
		"window":   "window: {length: 10, step: 0}",
		"measure":  "measure: nope",
		"location": "locations: [{label: bad, x: 0, y: 0, z: 0}]",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc))
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}

	_, err := config.Parse([]byte("colour: red"))
	assert.Error(t, err, "unknown keys are rejected")
	_, err = config.Parse([]byte("measure: pdc"))
	assert.ErrorIs(t, err, connectivity.ErrUnknownMeasure)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lvconn.yaml")
	delta := 0.5
	cfg := config.Default()
	cfg.Delta = &delta
	cfg.Parallelism = 2
	require.NoError(t, cfg.Save(path))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	def, err := config.LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), def)
}

func TestOptions(t *testing.T) {
	delta := 0.0
	cfg := config.Default()
	cfg.Delta = &delta
	cfg.NFFT = 16
	ws := workspace.New(cfg.Order, cfg.Options()...)
	assert.Equal(t, 16, ws.NFFT())
	d, known := ws.Regularization()
	assert.True(t, known)
	assert.Zero(t, d)

	cfg.Delta = nil
	ws = workspace.New(1, cfg.Options()...)
	_, known = ws.Regularization()
	assert.False(t, known)
	require.NoError(t, ws.SetUnmixing(mat.NewDense(1, 1, []float64{1})))
	assert.ErrorIs(t, ws.FitModel(context.Background()), workspace.ErrPrecondition)
}
