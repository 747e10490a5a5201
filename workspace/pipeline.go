// SPDX-License-Identifier: MIT

package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/lvconn/connectivity"
	"github.com/katalvlaran/lvconn/signal"
	"github.com/katalvlaran/lvconn/varica"
	"github.com/katalvlaran/lvconn/varmodel"
)

// Decompose runs the source separator (MVARICA by default) on the data.
//
// Implementation:
//   - Stage 1: snapshot data and δ under the read lock; fail with
//     ErrPrecondition when no data is set.
//   - Stage 2: separate with the configured reduction target; δ is tuned by the
//     separator while still unknown.
//   - Stage 3: build one connectivity model and project the data.
//   - Stage 4: commit transforms, activations, pooled model, connectivity
//     model and δ; drop cached scalp maps.
//
// Class labels are ignored: the result is always a single pooled model.
func (w *Workspace) Decompose(ctx context.Context) error {
	w.mu.RLock()
	x, delta, known := w.data, w.delta, w.deltaKnown
	w.mu.RUnlock()
	if x == nil {
		return fmt.Errorf("workspace: Decompose: no data: %w", ErrPrecondition)
	}

	red := varica.ReductionFrom(w.opts.reduceDim)
	res, err := w.opts.separator.Separate(ctx, x, w.order, red, varica.Regularization{Delta: delta, Auto: !known})
	if err != nil {
		return fmt.Errorf("workspace: Decompose: %w: %w", ErrComputation, err)
	}
	ev, err := w.opts.build(res.Model, w.opts.nfft)
	if err != nil {
		return fmt.Errorf("workspace: Decompose: connectivity: %w: %w", ErrComputation, err)
	}
	act, err := x.Project(res.Unmixing)
	if err != nil {
		return fmt.Errorf("workspace: Decompose: %w: %w", ErrComputation, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.data != x {
		return fmt.Errorf("workspace: Decompose: data replaced during decomposition: %w", ErrPrecondition)
	}
	w.mixing, w.unmixing, w.activations = res.Mixing, res.Unmixing, act
	w.models = Single(res.Model)
	w.conn = Single(ev)
	w.delta, w.deltaKnown = res.Delta, true
	w.mixMaps, w.unmixMaps = nil, nil

	_, k := res.Unmixing.Dims()
	w.log.Info("decomposition done", "components", k, "delta", res.Delta,
		"variance_mode", red.ByVariance(), "tuned", !known)

	return nil
}

// FitModel fits VAR model(s) to the activations and builds the matching
// connectivity model(s): one pooled model without labels, one per sorted
// distinct label otherwise.
//
// Errors:
//   - ErrPrecondition: no activations, or δ unknown and the fitter cannot tune.
//   - ErrComputation:  fitting or building failed.
func (w *Workspace) FitModel(ctx context.Context) error {
	w.mu.RLock()
	act, labels := w.activations, w.labels
	w.mu.RUnlock()
	if act == nil {
		return fmt.Errorf("workspace: FitModel: no activations: %w", ErrPrecondition)
	}

	delta, err := w.regularization(act)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	models, err := w.fit(act, labels, delta)
	if err != nil {
		return fmt.Errorf("workspace: FitModel: %w", err)
	}
	conn, err := w.build(models)
	if err != nil {
		return fmt.Errorf("workspace: FitModel: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.activations != act {
		return fmt.Errorf("workspace: FitModel: activations replaced during fit: %w", ErrPrecondition)
	}
	w.models, w.conn = models, conn
	w.log.Info("model fitted", "per_class", models.IsPerClass(), "models", models.Len(), "delta", delta)

	return nil
}

// Connectivity evaluates measure m on the current connectivity model(s).
// The result has the same variant and keys as the models.
func (w *Workspace) Connectivity(m connectivity.Measure) (Classed[*connectivity.Spectrum], error) {
	conn, err := w.connectivity()
	if err != nil {
		return Classed[*connectivity.Spectrum]{}, err
	}
	if !m.Valid() {
		return Classed[*connectivity.Spectrum]{}, fmt.Errorf("workspace: Connectivity: %v: %w", m, ErrUnsupportedMeasure)
	}

	return evaluate(conn, m)
}

// ConnectivityByName is Connectivity with the measure given by its short name
// ("PDC", "dDTF", ...).
func (w *Workspace) ConnectivityByName(name string) (Classed[*connectivity.Spectrum], error) {
	conn, err := w.connectivity()
	if err != nil {
		return Classed[*connectivity.Spectrum]{}, err
	}
	m, err := connectivity.ParseMeasure(name)
	if err != nil {
		return Classed[*connectivity.Spectrum]{}, fmt.Errorf("workspace: Connectivity: %w: %w", ErrUnsupportedMeasure, err)
	}

	return evaluate(conn, m)
}

func (w *Workspace) connectivity() (Classed[connectivity.Evaluator], error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn.IsZero() {
		return w.conn, fmt.Errorf("workspace: Connectivity: no connectivity model: %w", ErrPrecondition)
	}

	return w.conn, nil
}

func evaluate(conn Classed[connectivity.Evaluator], m connectivity.Measure) (Classed[*connectivity.Spectrum], error) {
	out, err := Apply(conn, func(_ signal.Label, ev connectivity.Evaluator) (*connectivity.Spectrum, error) {
		return ev.Evaluate(m)
	})
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, connectivity.ErrUnknownMeasure):
		return out, fmt.Errorf("workspace: Connectivity: %w: %w", ErrUnsupportedMeasure, err)
	default:
		return out, fmt.Errorf("workspace: Connectivity: %w: %w", ErrComputation, err)
	}
}

// regularization returns the known δ or tunes it on x and records it.
func (w *Workspace) regularization(x *signal.Array3) (float64, error) {
	w.mu.RLock()
	delta, known := w.delta, w.deltaKnown
	w.mu.RUnlock()
	if known {
		return delta, nil
	}

	tuner, ok := w.opts.fitter.(varmodel.Tuner)
	if !ok {
		return 0, fmt.Errorf("workspace: regularization unset and %T cannot tune it: %w", w.opts.fitter, ErrPrecondition)
	}
	delta, err := tuner.Tune(x, w.order)
	if err != nil {
		return 0, fmt.Errorf("workspace: tune regularization: %w: %w", ErrComputation, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.deltaKnown {
		// a concurrent fit or decomposition got there first
		return w.delta, nil
	}
	w.delta, w.deltaKnown = delta, true
	w.log.Info("regularization tuned", "delta", delta)

	return delta, nil
}

// fit runs the fitter on x, pooled or per class.
func (w *Workspace) fit(x *signal.Array3, labels signal.Labels, delta float64) (Classed[*varmodel.Model], error) {
	if labels == nil {
		mdl, err := w.opts.fitter.Fit(x, w.order, delta)
		if err != nil {
			return Classed[*varmodel.Model]{}, fmt.Errorf("%w: %w", ErrComputation, err)
		}
		return Single(mdl), nil
	}

	per, err := w.opts.fitter.FitPerClass(x, labels, w.order, delta)
	if err != nil {
		return Classed[*varmodel.Model]{}, fmt.Errorf("%w: %w", ErrComputation, err)
	}
	if len(per) != len(labels.Classes()) {
		return Classed[*varmodel.Model]{}, fmt.Errorf("%d models for %d classes: %w", len(per), len(labels.Classes()), ErrComputation)
	}

	return PerClass(per), nil
}

// build constructs one connectivity model per VAR model.
func (w *Workspace) build(models Classed[*varmodel.Model]) (Classed[connectivity.Evaluator], error) {
	conn, err := Apply(models, func(_ signal.Label, mdl *varmodel.Model) (connectivity.Evaluator, error) {
		return w.opts.build(mdl, w.opts.nfft)
	})
	if err != nil {
		return conn, fmt.Errorf("connectivity: %w: %w", ErrComputation, err)
	}

	return conn, nil
}
