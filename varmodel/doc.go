// SPDX-License-Identifier: MIT

// Package varmodel fits vector autoregressive (VAR) models to multitrial data.
//
// A VAR model of order P describes each sample of an M-channel process as a
// linear combination of the P previous samples plus white noise:
//
//	x[n] = Σ_{k=1..P} A_k · x[n-k] + e[n],   cov(e) = C
//
// The coefficients are stored side by side in one M×(M·P) matrix
// Coef = [A_1 | A_2 | … | A_P] and the noise covariance C travels with them in
// the same Model value.
//
// ✨ Key features:
//   - ridge-regularized least squares pooled over trials (δ² on the diagonal)
//   - per-class fitting keyed by sorted trial labels
//   - cross-validated tuning of δ (LeastSquares.Tune)
//   - simulation of synthetic VAR processes (Simulate)
//
// ⚙️ Usage:
//
//	fit := varmodel.NewLeastSquares()
//	model, err := fit.Fit(x, 5, 0.1) // order 5, δ = 0.1
//
// Performance:
//
//   - Time:   O(N·T·(M·P)² + (M·P)³)
//   - Memory: O(N·T·M·P)
package varmodel
