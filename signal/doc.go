// SPDX-License-Identifier: MIT

// Package signal holds the multichannel recordings the connectivity pipeline
// works on.
//
// What lives here:
//
//   - Array3: a dense samples×channels×trials array of float64 values, stored
//     row-major in one flat buffer (offset = (n*M + m)*T + t).
//   - Labels: optional per-trial class labels with a deterministic (sorted)
//     class order.
//   - Projection of the channel axis through an unmixing matrix, windowing
//     along the sample axis and trial selection.
//
// Arrays handed to the pipeline are treated as immutable: every operation in
// this package that changes shape or content returns a fresh copy.
//
// Usage:
//
//	x, err := signal.FromTrials(trials) // trials[t][n][m]
//	if err != nil { ... }
//	win, err := x.Window(100, 200)      // samples [100, 300)
//	act, err := x.Project(unmixing)     // channels → components
//
// Complexity:
//
//   - At/Set: O(1); Window/Trials: O(size of result); Project: O(N·M·K·T).
package signal
