// SPDX-License-Identifier: MIT

package workspace

import (
	"log/slog"
	"math"
	"runtime"

	"github.com/katalvlaran/lvconn/connectivity"
	"github.com/katalvlaran/lvconn/topo"
	"github.com/katalvlaran/lvconn/varica"
	"github.com/katalvlaran/lvconn/varmodel"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultReduceDim keeps the principal components explaining 99% of the
	// variance before source separation.
	DefaultReduceDim = 0.99

	// DefaultNFFT is the number of frequency bins of every connectivity result.
	DefaultNFFT = 512
)

// ---------- Internal panic messages ----------

const (
	panicOrderInvalid       = "workspace: New: model order must be >= 1"
	panicDeltaInvalid       = "workspace: WithRegularization: delta must be finite, non-negative"
	panicReduceDimInvalid   = "workspace: WithReduceDim: value must be finite and > 0"
	panicNFFTInvalid        = "workspace: WithNFFT: nfft must be >= 1"
	panicParallelismInvalid = "workspace: WithParallelism: n must be >= 1"
	panicNilCollaborator    = "workspace: nil collaborator"
)

// Option configures a Workspace at construction.
// Constructors panic only on nonsensical values (programmer error).
type Option func(*options)

type options struct {
	delta     float64 // fixed δ when !autoDelta
	autoDelta bool    // tune δ on first use

	reduceDim   float64 // < 1: retained variance; >= 1: component count
	nfft        int
	locations   []topo.Location
	parallelism int

	fitter    varmodel.Fitter
	separator varica.Separator // nil ⇒ varica.New(fitter)
	build     connectivity.Builder
	mapper    topo.Mapper
	renderer  topo.Renderer // nil ⇒ ErrRenderingUnavailable
	logger    *slog.Logger
}

func defaultOptions() options {
	return options{
		autoDelta:   true,
		reduceDim:   DefaultReduceDim,
		nfft:        DefaultNFFT,
		parallelism: runtime.GOMAXPROCS(0),
		fitter:      varmodel.NewLeastSquares(),
		build:       connectivity.Build,
		mapper:      topo.NewTopoplot(topo.DefaultResolution),
	}
}

// WithRegularization fixes the VAR ridge parameter δ. Without it δ is tuned
// automatically the first time a fit needs it and then reused.
func WithRegularization(delta float64) Option {
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		panic(panicDeltaInvalid)
	}

	return func(o *options) {
		o.delta = delta
		o.autoDelta = false
	}
}

// WithReduceDim sets the dimensionality-reduction target of Decompose:
// v < 1 keeps the components explaining that fraction of variance, v >= 1
// keeps int(v) components.
func WithReduceDim(v float64) Option {
	if !(v > 0) || math.IsInf(v, 0) {
		panic(panicReduceDimInvalid)
	}

	return func(o *options) { o.reduceDim = v }
}

// WithNFFT sets the number of frequency bins.
func WithNFFT(nfft int) Option {
	if nfft < 1 {
		panic(panicNFFTInvalid)
	}

	return func(o *options) { o.nfft = nfft }
}

// WithLocations sets the sensor locations used for scalp maps, one per
// channel of the data.
func WithLocations(locs []topo.Location) Option {
	cp := append([]topo.Location(nil), locs...)

	return func(o *options) { o.locations = cp }
}

// WithParallelism bounds the number of windows fitted concurrently by
// TFConnectivity. Default: runtime.GOMAXPROCS(0).
func WithParallelism(n int) Option {
	if n < 1 {
		panic(panicParallelismInvalid)
	}

	return func(o *options) { o.parallelism = n }
}

// WithFitter replaces the VAR fitter used by FitModel and TFConnectivity.
// The default separator is rebuilt around it unless WithSeparator is given.
func WithFitter(f varmodel.Fitter) Option {
	if f == nil {
		panic(panicNilCollaborator)
	}

	return func(o *options) { o.fitter = f }
}

// WithSeparator replaces the source separator used by Decompose.
func WithSeparator(s varica.Separator) Option {
	if s == nil {
		panic(panicNilCollaborator)
	}

	return func(o *options) { o.separator = s }
}

// WithConnectivity replaces the connectivity model builder.
func WithConnectivity(b connectivity.Builder) Option {
	if b == nil {
		panic(panicNilCollaborator)
	}

	return func(o *options) { o.build = b }
}

// WithMapper replaces the scalp-map interpolator.
func WithMapper(m topo.Mapper) Option {
	if m == nil {
		panic(panicNilCollaborator)
	}

	return func(o *options) { o.mapper = m }
}

// WithRenderer injects the plot renderer. Without one PlotComponents fails
// with ErrRenderingUnavailable.
func WithRenderer(r topo.Renderer) Option {
	if r == nil {
		panic(panicNilCollaborator)
	}

	return func(o *options) { o.renderer = r }
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic(panicNilCollaborator)
	}

	return func(o *options) { o.logger = l }
}

// gatherOptions applies opts over the defaults.
func gatherOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.separator == nil {
		o.separator = varica.New(o.fitter)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o
}
