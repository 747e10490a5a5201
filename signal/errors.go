// SPDX-License-Identifier: MIT

package signal

import "errors"

// Every message is prefixed with "signal: ...". Wrap with fmt.Errorf("ctx: %w", ErrX)
// when context is needed; callers match with errors.Is.
var (
	// ErrBadShape is returned when a requested shape has a non-positive axis
	// or the input is ragged (trials/samples of different lengths).
	ErrBadShape = errors.New("signal: invalid shape")

	// ErrOutOfRange indicates a sample, channel or trial index outside bounds.
	ErrOutOfRange = errors.New("signal: index out of range")

	// ErrDimensionMismatch indicates incompatible operands, e.g. a projection
	// matrix whose row count differs from the channel count.
	ErrDimensionMismatch = errors.New("signal: dimension mismatch")

	// ErrNilArray indicates a nil *Array3 was passed where data is required.
	ErrNilArray = errors.New("signal: nil array")

	// ErrLabelMismatch indicates the number of labels differs from the number
	// of trials.
	ErrLabelMismatch = errors.New("signal: label count does not match trial count")
)
