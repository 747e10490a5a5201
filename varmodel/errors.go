// SPDX-License-Identifier: MIT

package varmodel

import "errors"

var (
	// ErrBadOrder indicates a model order < 1.
	ErrBadOrder = errors.New("varmodel: model order must be >= 1")

	// ErrBadDelta indicates a negative or non-finite regularization value.
	ErrBadDelta = errors.New("varmodel: regularization must be finite and >= 0")

	// ErrTooFewSamples indicates the data cannot support the requested order
	// (each trial needs more than P samples).
	ErrTooFewSamples = errors.New("varmodel: too few samples for model order")

	// ErrIllConditioned indicates the regularized normal equations could not be
	// factorized (singular or numerically indefinite design).
	ErrIllConditioned = errors.New("varmodel: ill-conditioned least-squares problem")

	// ErrNoClass indicates per-class fitting was requested without labels.
	ErrNoClass = errors.New("varmodel: no class labels")

	// ErrDimensionMismatch indicates data whose channel count differs from the model.
	ErrDimensionMismatch = errors.New("varmodel: dimension mismatch")
)
