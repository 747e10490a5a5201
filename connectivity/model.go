// SPDX-License-Identifier: MIT

package connectivity

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/katalvlaran/lvconn/varmodel"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// Evaluator computes connectivity spectra from a fixed model.
type Evaluator interface {
	Evaluate(m Measure) (*Spectrum, error)
}

// Builder constructs an Evaluator for a VAR model and a number of frequency
// bins. New is the default Builder.
type Builder func(mdl *varmodel.Model, nfft int) (Evaluator, error)

// Build is New with the Builder signature.
func Build(mdl *varmodel.Model, nfft int) (Evaluator, error) { return New(mdl, nfft) }

var _ Builder = Build

// Model evaluates connectivity measures of one VAR model.
type Model struct {
	m, nfft int
	a, h    [][]complex128 // per frequency bin, M×M row-major
	c, cinv []float64      // M×M row-major
}

var _ Evaluator = (*Model)(nil)

// New precomputes A(f), H(f), C and C⁻¹ for mdl on nfft frequency bins.
//
// Errors:
//   - ErrNilModel: mdl == nil.
//   - ErrBadNFFT:  nfft < 1.
//   - ErrSingular: C or some A(f) is not invertible.
func New(mdl *varmodel.Model, nfft int) (*Model, error) {
	if mdl == nil {
		return nil, ErrNilModel
	}
	if nfft < 1 {
		return nil, fmt.Errorf("nfft=%d: %w", nfft, ErrBadNFFT)
	}
	m, p := mdl.Channels(), mdl.Order()

	cm := &Model{m: m, nfft: nfft, c: make([]float64, m*m)}
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			cm.c[i*m+j] = mdl.Cov.At(i, j)
		}
	}
	var cinv mat.Dense
	if err := cinv.Inverse(mdl.Cov); err != nil {
		return nil, fmt.Errorf("noise covariance: %v: %w", err, ErrSingular)
	}
	cm.cinv = make([]float64, m*m)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			cm.cinv[i*m+j] = cinv.At(i, j)
		}
	}

	// A(f) = I − DFT_{2nfft−1}(b_ij[k]) with b_ij[k] = B_k[i,j], k = 1..P.
	// Lags beyond the DFT length fold onto their residue, matching the direct sum.
	n := 2*nfft - 1
	fft := fourier.NewCmplxFFT(n)
	seq := make([]complex128, n)
	coef := make([]complex128, n)
	cm.a = make([][]complex128, nfft)
	for f := range cm.a {
		cm.a[f] = make([]complex128, m*m)
	}
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			for k := range seq {
				seq[k] = 0
			}
			for k := 1; k <= p; k++ {
				seq[k%n] += complex(mdl.Coef.At(i, (k-1)*m+j), 0)
			}
			coef = fft.Coefficients(coef, seq)
			for f := 0; f < nfft; f++ {
				v := -coef[f]
				if i == j {
					v += 1
				}
				cm.a[f][i*m+j] = v
			}
		}
	}

	cm.h = make([][]complex128, nfft)
	for f := range cm.h {
		inv, err := cinverse(cm.a[f], m)
		if err != nil {
			return nil, fmt.Errorf("A(f=%d): %w", f, err)
		}
		cm.h[f] = inv
	}

	return cm, nil
}

// Dims returns (M, nfft).
func (cm *Model) Dims() (m, nfft int) { return cm.m, cm.nfft }

// Frequencies returns the frequency of every bin for sampling rate fs.
func (cm *Model) Frequencies(fs float64) []float64 {
	out := make([]float64, cm.nfft)
	n := float64(2*cm.nfft - 1)
	for f := range out {
		out[f] = float64(f) * fs / n
	}

	return out
}

// Evaluate returns measure ms as a fresh Spectrum. Real-valued measures have a
// zero imaginary part.
func (cm *Model) Evaluate(ms Measure) (*Spectrum, error) {
	m, nfft := cm.m, cm.nfft
	out := NewSpectrum(m, nfft)
	put := func(f int, v []complex128) {
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				out.data[(i*m+j)*nfft+f] = v[i*m+j]
			}
		}
	}
	putReal := func(f int, v []float64) {
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				out.data[(i*m+j)*nfft+f] = complex(v[i*m+j], 0)
			}
		}
	}
	buf := make([]float64, m*m)

	switch ms {
	case Coefficients:
		for f := 0; f < nfft; f++ {
			put(f, cm.a[f])
		}

	case Transfer:
		for f := 0; f < nfft; f++ {
			put(f, cm.h[f])
		}

	case CrossSpectrum:
		for f := 0; f < nfft; f++ {
			put(f, cm.spectrum(f))
		}

	case LogSpectrum, AbsSpectrum, Phase:
		for f := 0; f < nfft; f++ {
			s := cm.spectrum(f)
			for k, v := range s {
				switch ms {
				case LogSpectrum:
					buf[k] = math.Log(cmplx.Abs(v))
				case AbsSpectrum:
					buf[k] = cmplx.Abs(v)
				default:
					buf[k] = cmplx.Phase(v)
				}
			}
			putReal(f, buf)
		}

	case InverseSpectrum:
		for f := 0; f < nfft; f++ {
			put(f, cm.inverseSpectrum(f))
		}

	case Coherence:
		for f := 0; f < nfft; f++ {
			put(f, diagNormalize(cm.spectrum(f), m))
		}

	case PartialCoherence:
		for f := 0; f < nfft; f++ {
			put(f, diagNormalize(cm.inverseSpectrum(f), m))
		}

	case PDC, GPDC:
		for f := 0; f < nfft; f++ {
			a := cm.a[f]
			for j := 0; j < m; j++ {
				var den float64
				for k := 0; k < m; k++ {
					den += sq(a[k*m+j]) / cm.weight(ms == GPDC, k)
				}
				den = math.Sqrt(den)
				for i := 0; i < m; i++ {
					buf[i*m+j] = cmplx.Abs(a[i*m+j]) / math.Sqrt(cm.weight(ms == GPDC, i)) / den
				}
			}
			putReal(f, buf)
		}

	case FFPDC:
		den := make([]float64, m)
		for f := 0; f < nfft; f++ {
			for k := 0; k < m; k++ {
				for j := 0; j < m; j++ {
					den[j] += sq(cm.a[f][k*m+j])
				}
			}
		}
		for f := 0; f < nfft; f++ {
			for i := 0; i < m; i++ {
				for j := 0; j < m; j++ {
					buf[i*m+j] = cmplx.Abs(cm.a[f][i*m+j]) * float64(nfft) / math.Sqrt(den[j])
				}
			}
			putReal(f, buf)
		}

	case PDCF:
		for f := 0; f < nfft; f++ {
			a := cm.a[f]
			for j := 0; j < m; j++ {
				// a_jᴴ C⁻¹ a_j
				var q complex128
				for r := 0; r < m; r++ {
					for c := 0; c < m; c++ {
						q += cmplx.Conj(a[r*m+j]) * complex(cm.cinv[r*m+c], 0) * a[c*m+j]
					}
				}
				den := math.Sqrt(real(q))
				for i := 0; i < m; i++ {
					buf[i*m+j] = cmplx.Abs(a[i*m+j]) / den
				}
			}
			putReal(f, buf)
		}

	case DTF, GDTF:
		for f := 0; f < nfft; f++ {
			copy(buf, cm.directedTransfer(f, ms == GDTF))
			putReal(f, buf)
		}

	case FFDTF:
		for f, v := range cm.fullFrequencyDTF() {
			putReal(f, v)
		}

	case DDTF:
		ff := cm.fullFrequencyDTF()
		for f := 0; f < nfft; f++ {
			pc := diagNormalize(cm.inverseSpectrum(f), m)
			for k := range buf {
				buf[k] = cmplx.Abs(pc[k]) * ff[f][k]
			}
			putReal(f, buf)
		}

	default:
		return nil, fmt.Errorf("%v: %w", ms, ErrUnknownMeasure)
	}

	return out, nil
}

// spectrum returns S(f) = H C Hᴴ.
func (cm *Model) spectrum(f int) []complex128 {
	m := cm.m
	hc := cmul(cm.h[f], realToComplex(cm.c), m)

	return cmul(hc, conjTranspose(cm.h[f], m), m)
}

// inverseSpectrum returns G(f) = Aᴴ C⁻¹ A.
func (cm *Model) inverseSpectrum(f int) []complex128 {
	m := cm.m
	ac := cmul(conjTranspose(cm.a[f], m), realToComplex(cm.cinv), m)

	return cmul(ac, cm.a[f], m)
}

// weight returns C_kk for generalized measures and 1 otherwise.
func (cm *Model) weight(generalized bool, k int) float64 {
	if !generalized {
		return 1
	}

	return cm.c[k*cm.m+k]
}

// directedTransfer returns DTF (or GDTF) at bin f:
// |√w_j H_ij| / √(Σ_k w_k |H_ik|²), w = 1 or diag(C).
func (cm *Model) directedTransfer(f int, generalized bool) []float64 {
	m, h := cm.m, cm.h[f]
	out := make([]float64, m*m)
	for i := 0; i < m; i++ {
		var den float64
		for k := 0; k < m; k++ {
			den += cm.weight(generalized, k) * sq(h[i*m+k])
		}
		den = math.Sqrt(den)
		for j := 0; j < m; j++ {
			out[i*m+j] = cmplx.Abs(h[i*m+j]) * math.Sqrt(cm.weight(generalized, j)) / den
		}
	}

	return out
}

// fullFrequencyDTF returns ffDTF for every bin: the row norm is taken over all
// frequencies at once.
func (cm *Model) fullFrequencyDTF() [][]float64 {
	m, nfft := cm.m, cm.nfft
	den := make([]float64, m)
	for f := 0; f < nfft; f++ {
		for i := 0; i < m; i++ {
			for k := 0; k < m; k++ {
				den[i] += sq(cm.h[f][i*m+k])
			}
		}
	}
	out := make([][]float64, nfft)
	for f := range out {
		out[f] = make([]float64, m*m)
		for i := 0; i < m; i++ {
			d := math.Sqrt(den[i])
			for j := 0; j < m; j++ {
				out[f][i*m+j] = cmplx.Abs(cm.h[f][i*m+j]) * float64(nfft) / d
			}
		}
	}

	return out
}

// diagNormalize returns X_ij / √(X_ii X_jj).
func diagNormalize(x []complex128, m int) []complex128 {
	out := make([]complex128, m*m)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			out[i*m+j] = x[i*m+j] / cmplx.Sqrt(x[i*m+i]*x[j*m+j])
		}
	}

	return out
}

// cinverse inverts the m×m complex matrix x through its real 2m×2m embedding
// [[Re, −Im], [Im, Re]].
func cinverse(x []complex128, m int) ([]complex128, error) {
	emb := mat.NewDense(2*m, 2*m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			re, im := real(x[i*m+j]), imag(x[i*m+j])
			emb.Set(i, j, re)
			emb.Set(i, j+m, -im)
			emb.Set(i+m, j, im)
			emb.Set(i+m, j+m, re)
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(emb); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSingular)
	}
	out := make([]complex128, m*m)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			out[i*m+j] = complex(inv.At(i, j), inv.At(i+m, j))
		}
	}

	return out, nil
}

func cmul(a, b []complex128, m int) []complex128 {
	out := make([]complex128, m*m)
	for i := 0; i < m; i++ {
		for k := 0; k < m; k++ {
			aik := a[i*m+k]
			if aik == 0 {
				continue
			}
			for j := 0; j < m; j++ {
				out[i*m+j] += aik * b[k*m+j]
			}
		}
	}

	return out
}

func conjTranspose(a []complex128, m int) []complex128 {
	out := make([]complex128, m*m)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			out[j*m+i] = cmplx.Conj(a[i*m+j])
		}
	}

	return out
}

func realToComplex(x []float64) []complex128 {
	out := make([]complex128, len(x))
	for k, v := range x {
		out[k] = complex(v, 0)
	}

	return out
}

func sq(v complex128) float64 { return real(v)*real(v) + imag(v)*imag(v) }
