// SPDX-License-Identifier: MIT

// Package connectivity derives frequency-domain connectivity measures from a
// fitted VAR model.
//
// Given Coef = [B_1 | … | B_P] and noise covariance C, the model is evaluated
// on nfft frequency bins of a (2·nfft − 1)-point DFT:
//
//	A(f) = I − Σ_k B_k · exp(−2πi·f·k / (2·nfft − 1))
//	H(f) = A(f)⁻¹
//	S(f) = H(f) · C · H(f)ᴴ
//	G(f) = A(f)ᴴ · C⁻¹ · A(f)
//
// Every other measure (coherence, partial coherence, PDC and DTF families) is a
// normalization of one of those four. See Measure for the full list.
//
// A Model precomputes A and H once and is immutable afterwards, so Evaluate may
// be called concurrently and always returns identical results for the same
// measure.
//
// Layout:
//
//	Spectrum:   (M, M, nfft)            offset = (i*M + j)*nfft + f
//	TFSpectrum: (M, M, windows, nfft)   offset = ((i*M + j)*W + w)*nfft + f
//
// Complexity:
//
//   - New:      O(M²·nfft·log nfft + nfft·M³)
//   - Evaluate: O(nfft·M³) for S/G based measures, O(nfft·M²) otherwise.
package connectivity
