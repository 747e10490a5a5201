// SPDX-License-Identifier: MIT

package workspace

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/katalvlaran/lvconn/connectivity"
	"github.com/katalvlaran/lvconn/signal"
	"github.com/katalvlaran/lvconn/topo"
	"github.com/katalvlaran/lvconn/varmodel"
	"gonum.org/v1/gonum/mat"
)

// Stage is the lifecycle position of a Workspace.
type Stage int

const (
	StageEmpty                Stage = iota // no data
	StageDataLoaded                        // data, no activations
	StageActivationsAvailable              // activations, no model
	StageConnectivityReady                 // model(s) and connectivity model(s)
)

func (s Stage) String() string {
	switch s {
	case StageEmpty:
		return "empty"
	case StageDataLoaded:
		return "data-loaded"
	case StageActivationsAvailable:
		return "activations-available"
	case StageConnectivityReady:
		return "connectivity-ready"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Workspace is the pipeline orchestrator. Create it with New.
type Workspace struct {
	mu    sync.RWMutex
	id    uuid.UUID
	order int
	opts  options
	log   *slog.Logger

	data        *signal.Array3
	labels      signal.Labels
	mixing      *mat.Dense // K × channels
	unmixing    *mat.Dense // channels × K
	activations *signal.Array3

	models Classed[*varmodel.Model]
	conn   Classed[connectivity.Evaluator]

	delta      float64
	deltaKnown bool

	mapsLocated bool
	mixMaps     []*topo.Map
	unmixMaps   []*topo.Map
}

// New returns an empty Workspace fitting VAR models of the given order.
// Panics if order < 1.
func New(order int, opts ...Option) *Workspace {
	if order < 1 {
		panic(panicOrderInvalid)
	}
	o := gatherOptions(opts)
	id := uuid.New()

	return &Workspace{
		id:         id,
		order:      order,
		opts:       o,
		log:        o.logger.With("component", "workspace", "workspace_id", id.String()),
		delta:      o.delta,
		deltaKnown: !o.autoDelta,
	}
}

// ID returns the workspace identifier used in log records.
func (w *Workspace) ID() uuid.UUID { return w.id }

// Order returns the VAR model order.
func (w *Workspace) Order() int { return w.order }

// NFFT returns the number of frequency bins.
func (w *Workspace) NFFT() int { return w.opts.nfft }

// Stage returns the current lifecycle stage.
func (w *Workspace) Stage() Stage {
	w.mu.RLock()
	defer w.mu.RUnlock()

	switch {
	case w.data == nil:
		return StageEmpty
	case !w.conn.IsZero():
		return StageConnectivityReady
	case w.activations != nil:
		return StageActivationsAvailable
	default:
		return StageDataLoaded
	}
}

// SetData stores x and its optional per-trial labels (nil or empty for none).
//
// It clears every VAR and connectivity model. When an unmixing transform
// exists the activations are recomputed from x, otherwise they are cleared.
// x is not copied and must not be modified afterwards.
//
// Errors:
//   - signal.ErrNilArray:  x == nil.
//   - ErrLabelMismatch:    len(labels) differs from the trial count.
//   - ErrDimensionMismatch: x has a channel count the unmixing transform cannot project.
func (w *Workspace) SetData(x *signal.Array3, labels signal.Labels) error {
	if x == nil {
		return fmt.Errorf("workspace: SetData: %w", signal.ErrNilArray)
	}
	if len(labels) == 0 {
		labels = nil
	}
	if err := labels.Validate(x.TrialCount()); err != nil {
		return fmt.Errorf("workspace: SetData: %w: %w", ErrLabelMismatch, err)
	}
	labels = labels.Clone()

	w.mu.Lock()
	defer w.mu.Unlock()

	var act *signal.Array3
	if w.unmixing != nil {
		if r, _ := w.unmixing.Dims(); r != x.Channels() {
			return fmt.Errorf("workspace: SetData: %d channels, unmixing expects %d: %w", x.Channels(), r, ErrDimensionMismatch)
		}
		var err error
		if act, err = x.Project(w.unmixing); err != nil {
			return fmt.Errorf("workspace: SetData: %w: %w", ErrDimensionMismatch, err)
		}
	}

	w.data, w.labels, w.activations = x, labels, act
	w.models, w.conn = Classed[*varmodel.Model]{}, Classed[connectivity.Evaluator]{}

	n, m, t := x.Dims()
	w.log.Info("data set", "samples", n, "channels", m, "trials", t,
		"classes", len(labels.Classes()), "reprojected", act != nil)

	return nil
}

// SetUnmixing installs an externally computed unmixing transform u
// (channels × components). The mixing transform becomes its least-squares
// pseudo-inverse. Activations are recomputed when data is present; models and
// cached scalp maps are cleared.
func (w *Workspace) SetUnmixing(u *mat.Dense) error {
	if u == nil {
		return fmt.Errorf("workspace: SetUnmixing: nil transform: %w", ErrDimensionMismatch)
	}
	r, k := u.Dims()
	if k > r {
		return fmt.Errorf("workspace: SetUnmixing: %d components from %d channels: %w", k, r, ErrDimensionMismatch)
	}
	unmix := mat.DenseCopyOf(u)
	eye := mat.NewDiagDense(r, nil)
	for i := 0; i < r; i++ {
		eye.SetDiag(i, 1)
	}
	var mix mat.Dense
	if err := mix.Solve(unmix, eye); err != nil {
		return fmt.Errorf("workspace: SetUnmixing: pseudo-inverse: %w: %w", ErrComputation, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var act *signal.Array3
	if w.data != nil {
		if w.data.Channels() != r {
			return fmt.Errorf("workspace: SetUnmixing: %d rows for %d channels: %w", r, w.data.Channels(), ErrDimensionMismatch)
		}
		var err error
		if act, err = w.data.Project(unmix); err != nil {
			return fmt.Errorf("workspace: SetUnmixing: %w: %w", ErrDimensionMismatch, err)
		}
	}

	w.mixing, w.unmixing, w.activations = &mix, unmix, act
	w.models, w.conn = Classed[*varmodel.Model]{}, Classed[connectivity.Evaluator]{}
	w.mixMaps, w.unmixMaps = nil, nil
	w.log.Info("unmixing set", "channels", r, "components", k)

	return nil
}

// Data returns the current data and labels (nil when unset).
func (w *Workspace) Data() (*signal.Array3, signal.Labels) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.data, w.labels.Clone()
}

// Activations returns the projected data, or nil.
func (w *Workspace) Activations() *signal.Array3 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.activations
}

// Transforms returns copies of the mixing (K × channels) and unmixing
// (channels × K) matrices; both are nil before a decomposition.
func (w *Workspace) Transforms() (mixing, unmixing *mat.Dense) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.unmixing == nil {
		return nil, nil
	}

	return mat.DenseCopyOf(w.mixing), mat.DenseCopyOf(w.unmixing)
}

// Models returns the fitted VAR model(s); the zero Classed before any fit.
func (w *Workspace) Models() Classed[*varmodel.Model] {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.models
}

// Regularization returns δ and whether it is known (fixed or already tuned).
func (w *Workspace) Regularization() (delta float64, known bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.delta, w.deltaKnown
}
