// SPDX-License-Identifier: MIT

package workspace

import (
	"context"
	"fmt"

	"github.com/katalvlaran/lvconn/connectivity"
	"github.com/katalvlaran/lvconn/signal"
	"golang.org/x/sync/errgroup"
)

// WindowStarts returns the start offsets of the sliding windows over n
// samples: Nstep = (n − length) / step windows starting at 0, step, 2·step, …
// Samples after the last full window are not covered. Returns nil when no
// window fits or the arguments are non-positive.
func WindowStarts(n, length, step int) []int {
	if length <= 0 || step <= 0 || n < length {
		return nil
	}
	count := (n - length) / step
	if count == 0 {
		return nil
	}
	starts := make([]int, count)
	for i := range starts {
		starts[i] = i * step
	}

	return starts
}

// TFConnectivity computes measure m over sliding windows of the activations.
//
// Implementation:
//   - Stage 1: snapshot activations and labels; validate window and measure.
//   - Stage 2: make sure δ is known (tuned once on the full activations).
//   - Stage 3: for every window i (start WindowStarts[i]) fit a fresh model,
//     pooled or per class with the full-data labels, build a fresh
//     connectivity model, evaluate m and write slot i of the result.
//     Windows run on a pool bounded by WithParallelism.
//
// The result has shape (M, M, Nstep, nfft) per variant entry. With Nstep == 0
// it is empty and no model is fitted. Any window failure aborts the call and
// no result is returned.
//
// Errors:
//   - ErrPrecondition:       no activations.
//   - ErrBadWindow:          winLen <= 0, winStep <= 0 or winLen > samples.
//   - ErrUnsupportedMeasure: m is not a known measure.
//   - ErrComputation:        a window fit or evaluation failed.
func (w *Workspace) TFConnectivity(ctx context.Context, m connectivity.Measure, winLen, winStep int) (Classed[*connectivity.TFSpectrum], error) {
	var none Classed[*connectivity.TFSpectrum]

	// Stage 1: snapshot and validation.
	w.mu.RLock()
	act, labels := w.activations, w.labels
	w.mu.RUnlock()
	if act == nil {
		return none, fmt.Errorf("workspace: TFConnectivity: no activations: %w", ErrPrecondition)
	}
	n, comps, _ := act.Dims()
	if winLen <= 0 || winStep <= 0 || winLen > n {
		return none, fmt.Errorf("workspace: TFConnectivity: length %d step %d over %d samples: %w", winLen, winStep, n, ErrBadWindow)
	}
	if !m.Valid() {
		return none, fmt.Errorf("workspace: TFConnectivity: %v: %w", m, ErrUnsupportedMeasure)
	}

	starts := WindowStarts(n, winLen, winStep)
	out := w.allocTF(labels, comps, len(starts))
	if len(starts) == 0 {
		return out, nil
	}

	// Stage 2: regularization.
	delta, err := w.regularization(act)
	if err != nil {
		return none, err
	}

	// Stage 3: windows.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.parallelism)
	for i, start := range starts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			spec, err := w.window(act, labels, delta, m, start, winLen)
			if err != nil {
				return fmt.Errorf("workspace: TFConnectivity: window %d (start %d): %w", i, start, err)
			}

			return spec.Each(func(l signal.Label, s *connectivity.Spectrum) error {
				dst, ok := out.Value()
				if out.IsPerClass() {
					dst, ok = out.Get(l)
				}
				if !ok {
					return fmt.Errorf("workspace: TFConnectivity: window %d: unexpected class %q: %w", i, l, ErrComputation)
				}

				return dst.SetWindow(i, s)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return none, err
	}
	w.log.Debug("tf connectivity done", "measure", m.String(), "windows", len(starts),
		"length", winLen, "step", winStep, "per_class", out.IsPerClass())

	return out, nil
}

// window fits and evaluates one window.
func (w *Workspace) window(act *signal.Array3, labels signal.Labels, delta float64, m connectivity.Measure, start, length int) (Classed[*connectivity.Spectrum], error) {
	win, err := act.Window(start, length)
	if err != nil {
		return Classed[*connectivity.Spectrum]{}, fmt.Errorf("%w: %w", ErrComputation, err)
	}
	models, err := w.fit(win, labels, delta)
	if err != nil {
		return Classed[*connectivity.Spectrum]{}, err
	}
	conn, err := w.build(models)
	if err != nil {
		return Classed[*connectivity.Spectrum]{}, err
	}

	return evaluate(conn, m)
}

// allocTF allocates the (possibly per-class) result arrays.
func (w *Workspace) allocTF(labels signal.Labels, comps, windows int) Classed[*connectivity.TFSpectrum] {
	if labels == nil {
		return Single(connectivity.NewTFSpectrum(comps, windows, w.opts.nfft))
	}
	per := make(map[signal.Label]*connectivity.TFSpectrum)
	for _, l := range labels.Classes() {
		per[l] = connectivity.NewTFSpectrum(comps, windows, w.opts.nfft)
	}

	return PerClass(per)
}
