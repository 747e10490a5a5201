// SPDX-License-Identifier: MIT

package connectivity

import "errors"

var (
	// ErrUnknownMeasure indicates a measure name outside the supported set.
	ErrUnknownMeasure = errors.New("connectivity: unknown measure")

	// ErrBadNFFT indicates a non-positive number of frequency bins.
	ErrBadNFFT = errors.New("connectivity: nfft must be positive")

	// ErrSingular indicates A(f) or the noise covariance could not be inverted.
	ErrSingular = errors.New("connectivity: singular matrix")

	// ErrNilModel indicates a nil VAR model.
	ErrNilModel = errors.New("connectivity: nil model")

	// ErrOutOfRange indicates an index outside a spectrum's bounds.
	ErrOutOfRange = errors.New("connectivity: index out of range")

	// ErrDimensionMismatch indicates a spectrum of the wrong shape.
	ErrDimensionMismatch = errors.New("connectivity: dimension mismatch")
)
