// SPDX-License-Identifier: MIT

// Package signal - Array3 storage (row-major) & safe accessors.
//
// Purpose:
//   - Keep a cache-friendly flat buffer with the explicit index formula
//     (n*M + m)*T + t, so one sample of one channel across all trials is contiguous.
//   - Guarantee safety at the public surface: At/Set return errors instead of panicking.
//   - Produce copies (Window, Trials, Project) so arrays owned by a pipeline are never
//     mutated behind its back.

package signal

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// error context tags
const (
	ctxAt      = "At"
	ctxSet     = "Set"
	ctxWindow  = "Window"
	ctxTrials  = "Trials"
	ctxProject = "Project"
)

// arrayErrorf wraps a sentinel with Array3 method context and coordinates.
func arrayErrorf(method string, n, m, t int, err error) error {
	return fmt.Errorf("Array3.%s(%d,%d,%d): %w", method, n, m, t, err)
}

// Array3 is a samples×channels×trials array.
//   - n, m, t hold the axis lengths.
//   - data is a flat buffer of length n*m*t, offset = (i*m + j)*t + k.
type Array3 struct {
	n, m, t int
	data    []float64
}

// NewArray3 creates a zero-filled array of shape (samples, channels, trials).
//
// Errors:
//   - ErrBadShape if any axis is non-positive.
//
// Complexity: O(samples·channels·trials).
func NewArray3(samples, channels, trials int) (*Array3, error) {
	if samples <= 0 || channels <= 0 || trials <= 0 {
		return nil, ErrBadShape
	}

	return &Array3{
		n:    samples,
		m:    channels,
		t:    trials,
		data: make([]float64, samples*channels*trials),
	}, nil
}

// FromTrials builds an array from trial-major nested slices indexed
// trials[t][n][m]. All trials must share the same sample count and all samples
// the same channel count.
//
// Complexity: O(N·M·T).
func FromTrials(trials [][][]float64) (*Array3, error) {
	if len(trials) == 0 || len(trials[0]) == 0 || len(trials[0][0]) == 0 {
		return nil, ErrBadShape
	}
	n, m := len(trials[0]), len(trials[0][0])
	a, err := NewArray3(n, m, len(trials))
	if err != nil {
		return nil, err
	}
	for k, trial := range trials {
		if len(trial) != n {
			return nil, fmt.Errorf("trial %d has %d samples, want %d: %w", k, len(trial), n, ErrBadShape)
		}
		for i, sample := range trial {
			if len(sample) != m {
				return nil, fmt.Errorf("trial %d sample %d has %d channels, want %d: %w", k, i, len(sample), m, ErrBadShape)
			}
			for j, v := range sample {
				a.data[(i*m+j)*a.t+k] = v
			}
		}
	}

	return a, nil
}

// AtLeast3D normalizes a row-major buffer of 1, 2 or 3 dimensions into an Array3.
//
// Shape rules (same as the classic "atleast_3d"):
//   - (N)       → (1, N, 1)
//   - (N, M)    → (N, M, 1)
//   - (N, M, T) → unchanged
//
// The buffer is copied; len(data) must equal the product of shape.
func AtLeast3D(data []float64, shape ...int) (*Array3, error) {
	var n, m, t int
	switch len(shape) {
	case 1:
		n, m, t = 1, shape[0], 1
	case 2:
		n, m, t = shape[0], shape[1], 1
	case 3:
		n, m, t = shape[0], shape[1], shape[2]
	default:
		return nil, ErrBadShape
	}
	a, err := NewArray3(n, m, t)
	if err != nil {
		return nil, err
	}
	if len(data) != len(a.data) {
		return nil, fmt.Errorf("buffer length %d for shape %v: %w", len(data), shape, ErrBadShape)
	}
	copy(a.data, data)

	return a, nil
}

// Dims returns (samples, channels, trials).
func (a *Array3) Dims() (samples, channels, trials int) { return a.n, a.m, a.t }

// Samples returns the length of the sample axis.
func (a *Array3) Samples() int { return a.n }

// Channels returns the length of the channel axis.
func (a *Array3) Channels() int { return a.m }

// TrialCount returns the length of the trial axis.
func (a *Array3) TrialCount() int { return a.t }

func (a *Array3) offset(n, m, t int) int { return (n*a.m+m)*a.t + t }

func (a *Array3) inBounds(n, m, t int) bool {
	return n >= 0 && n < a.n && m >= 0 && m < a.m && t >= 0 && t < a.t
}

// At returns the value at (sample, channel, trial).
func (a *Array3) At(n, m, t int) (float64, error) {
	if !a.inBounds(n, m, t) {
		return 0, arrayErrorf(ctxAt, n, m, t, ErrOutOfRange)
	}

	return a.data[a.offset(n, m, t)], nil
}

// Set assigns v at (sample, channel, trial).
func (a *Array3) Set(n, m, t int, v float64) error {
	if !a.inBounds(n, m, t) {
		return arrayErrorf(ctxSet, n, m, t, ErrOutOfRange)
	}
	a.data[a.offset(n, m, t)] = v

	return nil
}

// Clone returns a deep copy.
func (a *Array3) Clone() *Array3 {
	buf := make([]float64, len(a.data))
	copy(buf, a.data)

	return &Array3{n: a.n, m: a.m, t: a.t, data: buf}
}

// Equal reports whether b has the same shape and bit-identical contents.
func (a *Array3) Equal(b *Array3) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.n != b.n || a.m != b.m || a.t != b.t {
		return false
	}
	for i, v := range a.data {
		if b.data[i] != v {
			return false
		}
	}

	return true
}

// Window copies the samples [start, start+length) of every channel and trial.
// Because the sample axis is outermost the window is one contiguous block.
//
// Errors:
//   - ErrOutOfRange if the window does not fit inside the sample axis.
func (a *Array3) Window(start, length int) (*Array3, error) {
	if length <= 0 || start < 0 || start+length > a.n {
		return nil, arrayErrorf(ctxWindow, start, length, 0, ErrOutOfRange)
	}
	stride := a.m * a.t
	buf := make([]float64, length*stride)
	copy(buf, a.data[start*stride:(start+length)*stride])

	return &Array3{n: length, m: a.m, t: a.t, data: buf}, nil
}

// Trials copies the trials listed in idx, in that order.
func (a *Array3) Trials(idx []int) (*Array3, error) {
	if len(idx) == 0 {
		return nil, arrayErrorf(ctxTrials, 0, 0, 0, ErrBadShape)
	}
	for _, k := range idx {
		if k < 0 || k >= a.t {
			return nil, arrayErrorf(ctxTrials, 0, 0, k, ErrOutOfRange)
		}
	}
	out := &Array3{n: a.n, m: a.m, t: len(idx), data: make([]float64, a.n*a.m*len(idx))}
	for i := 0; i < a.n; i++ {
		for j := 0; j < a.m; j++ {
			src := (i*a.m + j) * a.t
			dst := (i*a.m + j) * out.t
			for k, tr := range idx {
				out.data[dst+k] = a.data[src+tr]
			}
		}
	}

	return out, nil
}

// JoinTrials concatenates arrays along the trial axis. All parts must share
// sample and channel counts.
func JoinTrials(parts ...*Array3) (*Array3, error) {
	if len(parts) == 0 || parts[0] == nil {
		return nil, ErrNilArray
	}
	n, m := parts[0].n, parts[0].m
	total := 0
	for _, p := range parts {
		if p == nil {
			return nil, ErrNilArray
		}
		if p.n != n || p.m != m {
			return nil, ErrDimensionMismatch
		}
		total += p.t
	}
	out := &Array3{n: n, m: m, t: total, data: make([]float64, n*m*total)}
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			dst := (i*m + j) * total
			for _, p := range parts {
				src := (i*m + j) * p.t
				copy(out.data[dst:dst+p.t], p.data[src:src+p.t])
				dst += p.t
			}
		}
	}

	return out, nil
}

// Project maps the channel axis through u (channels × components):
//
//	out[n, k, t] = Σ_m a[n, m, t] · u[m, k]
//
// Each output value is accumulated in channel order, so projecting a window
// gives bit-identical results to windowing a projection.
func (a *Array3) Project(u mat.Matrix) (*Array3, error) {
	r, k := u.Dims()
	if r != a.m {
		return nil, arrayErrorf(ctxProject, a.n, r, k, ErrDimensionMismatch)
	}
	out := &Array3{n: a.n, m: k, t: a.t, data: make([]float64, a.n*k*a.t)}
	for i := 0; i < a.n; i++ {
		for tr := 0; tr < a.t; tr++ {
			for c := 0; c < k; c++ {
				var s float64
				for j := 0; j < a.m; j++ {
					s += a.data[(i*a.m+j)*a.t+tr] * u.At(j, c)
				}
				out.data[(i*k+c)*a.t+tr] = s
			}
		}
	}

	return out, nil
}

// Trial returns trial t as an N×M matrix (rows are samples).
func (a *Array3) Trial(t int) (*mat.Dense, error) {
	if t < 0 || t >= a.t {
		return nil, arrayErrorf(ctxTrials, 0, 0, t, ErrOutOfRange)
	}
	d := mat.NewDense(a.n, a.m, nil)
	for i := 0; i < a.n; i++ {
		for j := 0; j < a.m; j++ {
			d.Set(i, j, a.data[a.offset(i, j, t)])
		}
	}

	return d, nil
}

// Concat stacks all trials on top of each other into an (N·T)×M matrix:
// rows [t·N, (t+1)·N) hold trial t.
func (a *Array3) Concat() *mat.Dense {
	d := mat.NewDense(a.n*a.t, a.m, nil)
	for tr := 0; tr < a.t; tr++ {
		for i := 0; i < a.n; i++ {
			for j := 0; j < a.m; j++ {
				d.Set(tr*a.n+i, j, a.data[a.offset(i, j, tr)])
			}
		}
	}

	return d
}

// String implements fmt.Stringer with a compact shape summary.
func (a *Array3) String() string {
	return fmt.Sprintf("Array3(samples=%d, channels=%d, trials=%d)", a.n, a.m, a.t)
}
