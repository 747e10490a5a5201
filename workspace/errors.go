// SPDX-License-Identifier: MIT

package workspace

import "errors"

// Sentinel errors. Wrapped errors keep the collaborator's cause as a second
// %w, so both errors.Is(err, ErrComputation) and errors.Is(err, cause) hold.
var (
	// ErrPrecondition indicates an operation was called before the artifact it
	// depends on exists (data, activations, model, decomposition, locations).
	ErrPrecondition = errors.New("workspace: precondition not met")

	// ErrUnsupportedMeasure indicates a measure the connectivity model does not
	// provide.
	ErrUnsupportedMeasure = errors.New("workspace: unsupported connectivity measure")

	// ErrComputation wraps failures of the separator, fitter or connectivity
	// builder.
	ErrComputation = errors.New("workspace: computation failed")

	// ErrRenderingUnavailable indicates a plot was requested without an
	// injected renderer.
	ErrRenderingUnavailable = errors.New("workspace: rendering unavailable")

	// ErrBadWindow indicates a non-positive window length or step, or a window
	// longer than the data.
	ErrBadWindow = errors.New("workspace: invalid window")

	// ErrLabelMismatch indicates a label count that disagrees with the trial
	// count.
	ErrLabelMismatch = errors.New("workspace: label count does not match trials")

	// ErrDimensionMismatch indicates data, unmixing transform or sensor
	// locations with incompatible channel counts.
	ErrDimensionMismatch = errors.New("workspace: dimension mismatch")
)
