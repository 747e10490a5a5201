// SPDX-License-Identifier: MIT

// Package workspace orchestrates the connectivity pipeline:
//
//	data ─► [Decompose: PCA + VAR + ICA] ─► unmixing ─► activations
//	                                                       │
//	                      [FitModel: VAR, pooled or per class]
//	                                                       │
//	                      connectivity model(s) ─► Connectivity(measure)
//	activations ─► sliding windows ─► fresh fit per window ─► TFConnectivity
//
// A Workspace owns the raw data, the mixing/unmixing transforms, the
// activations, the VAR model(s) and the connectivity model(s), and keeps them
// consistent:
//
//   - SetData replaces the data, clears every model and re-projects the
//     activations when an unmixing transform exists.
//   - Decompose always produces one pooled model, even with class labels.
//   - FitModel produces one model per distinct label when labels are present;
//     models and connectivity models always share the same variant (Classed)
//     and the same sorted keys.
//   - No failed operation leaves partially updated state: results are computed
//     first and committed afterwards in one step.
//
// Lifecycle (Stage):
//
//	StageEmpty ─SetData─► StageDataLoaded ─Decompose/SetUnmixing─► StageActivationsAvailable
//	                                                                     │
//	                                  StageConnectivityReady ◄─FitModel──┘
//
// Decompose jumps directly to StageConnectivityReady: its model is fitted and
// its connectivity model built in the same commit.
//
// Concurrency: every method is safe for concurrent use. Transitions take the
// write lock only to commit; queries take the read lock. TFConnectivity fits
// its windows on a bounded worker pool and writes disjoint slots of the result.
//
// Errors:
//
//	ErrPrecondition         - a required upstream artifact is missing.
//	ErrUnsupportedMeasure   - measure outside connectivity.Measures().
//	ErrComputation          - separator, fitter or builder failed (cause kept).
//	ErrRenderingUnavailable - no renderer injected.
//	ErrBadWindow            - invalid window length or step.
//	ErrLabelMismatch        - label count differs from trial count.
//	ErrDimensionMismatch    - incompatible channel counts.
package workspace
