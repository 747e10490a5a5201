// SPDX-License-Identifier: MIT

package connectivity

import (
	"fmt"
	"math/cmplx"
)

// Spectrum is an M×M×nfft complex array: one value per (target i, source j,
// frequency bin f).
type Spectrum struct {
	m, nfft int
	data    []complex128
}

// NewSpectrum allocates a zero Spectrum. Zero dimensions are allowed and yield
// an empty spectrum.
func NewSpectrum(m, nfft int) *Spectrum {
	if m < 0 || nfft < 0 {
		panic(fmt.Sprintf("connectivity: NewSpectrum(%d, %d): negative dimension", m, nfft))
	}

	return &Spectrum{m: m, nfft: nfft, data: make([]complex128, m*m*nfft)}
}

// Dims returns (M, nfft).
func (s *Spectrum) Dims() (m, nfft int) { return s.m, s.nfft }

func (s *Spectrum) offset(i, j, f int) (int, error) {
	if i < 0 || i >= s.m || j < 0 || j >= s.m || f < 0 || f >= s.nfft {
		return 0, fmt.Errorf("(%d,%d,%d) in (%d,%d,%d): %w", i, j, f, s.m, s.m, s.nfft, ErrOutOfRange)
	}

	return (i*s.m+j)*s.nfft + f, nil
}

// At returns the value at (i, j, f).
func (s *Spectrum) At(i, j, f int) (complex128, error) {
	off, err := s.offset(i, j, f)
	if err != nil {
		return 0, err
	}

	return s.data[off], nil
}

// Set assigns the value at (i, j, f).
func (s *Spectrum) Set(i, j, f int, v complex128) error {
	off, err := s.offset(i, j, f)
	if err != nil {
		return err
	}
	s.data[off] = v

	return nil
}

// Series returns a copy of the nfft values of pair (i, j).
func (s *Spectrum) Series(i, j int) ([]complex128, error) {
	off, err := s.offset(i, j, 0)
	if err != nil {
		return nil, err
	}

	return append([]complex128(nil), s.data[off:off+s.nfft]...), nil
}

// Magnitude returns |Series(i, j)|.
func (s *Spectrum) Magnitude(i, j int) ([]float64, error) {
	ser, err := s.Series(i, j)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(ser))
	for f, v := range ser {
		out[f] = cmplx.Abs(v)
	}

	return out, nil
}

// Equal reports whether s and o have equal shapes and identical values.
func (s *Spectrum) Equal(o *Spectrum) bool {
	if s.m != o.m || s.nfft != o.nfft {
		return false
	}
	for k, v := range s.data {
		if o.data[k] != v {
			return false
		}
	}

	return true
}

// TFSpectrum is an M×M×W×nfft complex array holding one Spectrum per
// sliding window.
type TFSpectrum struct {
	m, windows, nfft int
	data             []complex128
}

// NewTFSpectrum allocates a zero TFSpectrum; windows may be zero.
func NewTFSpectrum(m, windows, nfft int) *TFSpectrum {
	if m < 0 || windows < 0 || nfft < 0 {
		panic(fmt.Sprintf("connectivity: NewTFSpectrum(%d, %d, %d): negative dimension", m, windows, nfft))
	}

	return &TFSpectrum{m: m, windows: windows, nfft: nfft, data: make([]complex128, m*m*windows*nfft)}
}

// Dims returns (M, windows, nfft).
func (s *TFSpectrum) Dims() (m, windows, nfft int) { return s.m, s.windows, s.nfft }

func (s *TFSpectrum) offset(i, j, w, f int) (int, error) {
	if i < 0 || i >= s.m || j < 0 || j >= s.m || w < 0 || w >= s.windows || f < 0 || f >= s.nfft {
		return 0, fmt.Errorf("(%d,%d,%d,%d) in (%d,%d,%d,%d): %w",
			i, j, w, f, s.m, s.m, s.windows, s.nfft, ErrOutOfRange)
	}

	return ((i*s.m+j)*s.windows+w)*s.nfft + f, nil
}

// At returns the value at (i, j, window w, f).
func (s *TFSpectrum) At(i, j, w, f int) (complex128, error) {
	off, err := s.offset(i, j, w, f)
	if err != nil {
		return 0, err
	}

	return s.data[off], nil
}

// SetWindow writes sp into window slot w. Distinct slots touch disjoint
// memory, so different goroutines may fill different windows concurrently.
func (s *TFSpectrum) SetWindow(w int, sp *Spectrum) error {
	if w < 0 || w >= s.windows {
		return fmt.Errorf("window %d of %d: %w", w, s.windows, ErrOutOfRange)
	}
	if sp.m != s.m || sp.nfft != s.nfft {
		return fmt.Errorf("spectrum (%d,%d) into (%d,%d): %w", sp.m, sp.nfft, s.m, s.nfft, ErrDimensionMismatch)
	}
	for i := 0; i < s.m; i++ {
		for j := 0; j < s.m; j++ {
			src := (i*s.m + j) * s.nfft
			dst := ((i*s.m+j)*s.windows + w) * s.nfft
			copy(s.data[dst:dst+s.nfft], sp.data[src:src+s.nfft])
		}
	}

	return nil
}

// Window returns a copy of window slot w as a Spectrum.
func (s *TFSpectrum) Window(w int) (*Spectrum, error) {
	if w < 0 || w >= s.windows {
		return nil, fmt.Errorf("window %d of %d: %w", w, s.windows, ErrOutOfRange)
	}
	out := NewSpectrum(s.m, s.nfft)
	for i := 0; i < s.m; i++ {
		for j := 0; j < s.m; j++ {
			src := ((i*s.m+j)*s.windows + w) * s.nfft
			dst := (i*s.m + j) * s.nfft
			copy(out.data[dst:dst+s.nfft], s.data[src:src+s.nfft])
		}
	}

	return out, nil
}
