// SPDX-License-Identifier: MIT

// Command lvconn demonstrates the connectivity pipeline end to end.
//
// It simulates a three-source VAR(2) process in which source 0 drives
// source 1 and source 1 drives source 2, mixes the sources onto a ring of
// scalp sensors, and then runs SetData, Decompose and TFConnectivity on a
// Workspace. For every class and window it prints the strongest directed
// interaction, averaged over frequency. With -png the component scalp maps are
// written as one PNG image.
//
// Usage:
//
//	lvconn [-config lvconn.yaml] [-samples 1000] [-trials 20] [-channels 6]
//	       [-classes] [-seed 1] [-png maps.png] [-v]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/cmplx"
	"os"
	"os/signal"
	"syscall"

	"github.com/katalvlaran/lvconn/config"
	"github.com/katalvlaran/lvconn/connectivity"
	lvsignal "github.com/katalvlaran/lvconn/signal"
	"github.com/katalvlaran/lvconn/topo"
	"github.com/katalvlaran/lvconn/varmodel"
	"github.com/katalvlaran/lvconn/workspace"
	"gonum.org/v1/gonum/mat"
)

const sources = 3

// demo holds the command-line settings.
type demo struct {
	configPath string
	samples    int
	trials     int
	channels   int
	classes    bool
	seed       uint64
	pngPath    string
	verbose    bool
}

func main() {
	var d demo
	flag.StringVar(&d.configPath, "config", "", "YAML config file (default: built-in defaults)")
	flag.IntVar(&d.samples, "samples", 1000, "samples per trial")
	flag.IntVar(&d.trials, "trials", 20, "number of trials")
	flag.IntVar(&d.channels, "channels", 6, "number of simulated sensors (>= 3)")
	flag.BoolVar(&d.classes, "classes", false, "label trials alternately as two classes")
	flag.Uint64Var(&d.seed, "seed", 1, "random seed")
	flag.StringVar(&d.pngPath, "png", "", "write component scalp maps to this PNG file")
	flag.BoolVar(&d.verbose, "v", false, "debug logging")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, d, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "lvconn: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, d demo, out io.Writer) error {
	if d.channels < sources {
		return fmt.Errorf("need at least %d channels, got %d", sources, d.channels)
	}
	cfg, err := config.LoadOrDefault(d.configPath)
	if err != nil {
		return err
	}
	measure, err := cfg.MeasureValue()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if d.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	x, labels, err := simulate(d)
	if err != nil {
		return err
	}

	locs := cfg.Locations
	if len(locs) == 0 {
		locs = ring(d.channels)
	}
	if len(locs) != d.channels {
		return fmt.Errorf("config has %d locations for %d channels", len(locs), d.channels)
	}

	opts := append(cfg.Options(),
		workspace.WithLocations(locs),
		workspace.WithLogger(logger),
	)
	if d.pngPath != "" {
		opts = append(opts, workspace.WithRenderer(topo.PlotRenderer{Cols: 2 * sources}))
	}
	ws := workspace.New(cfg.Order, opts...)

	if err := ws.SetData(x, labels); err != nil {
		return err
	}
	if err := ws.Decompose(ctx); err != nil {
		return err
	}
	delta, _ := ws.Regularization()
	mixing, _ := ws.Transforms()
	comps, _ := mixing.Dims()
	fmt.Fprintf(out, "workspace %s: %d components, order %d, delta %.4g\n", ws.ID(), comps, ws.Order(), delta)

	res, err := ws.TFConnectivity(ctx, measure, cfg.Window.Length, cfg.Window.Step)
	if err != nil {
		return err
	}
	if err := res.Each(func(l lvsignal.Label, tf *connectivity.TFSpectrum) error {
		return report(out, l, measure, tf)
	}); err != nil {
		return err
	}

	if d.pngPath == "" {
		return nil
	}
	f, err := os.Create(d.pngPath)
	if err != nil {
		return err
	}
	if err := ws.PlotComponents(f, 95); err != nil {
		return errors.Join(err, f.Close())
	}

	return f.Close()
}

// simulate draws the source process and mixes it onto d.channels sensors.
func simulate(d demo) (*lvsignal.Array3, lvsignal.Labels, error) {
	mdl, err := varmodel.NewModel(
		mat.NewDense(sources, 2*sources, []float64{
			0.6, 0, 0, -0.3, 0, 0,
			0.5, 0.4, 0, 0, -0.2, 0,
			0, 0.5, 0.3, 0, 0, -0.1,
		}),
		mat.NewSymDense(sources, []float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		}),
	)
	if err != nil {
		return nil, nil, err
	}
	src, err := varmodel.Simulate(mdl, d.samples, d.trials, d.seed)
	if err != nil {
		return nil, nil, err
	}

	// each source peaks at its own sensor and decays around the ring
	mix := mat.NewDense(sources, d.channels, nil)
	for s := 0; s < sources; s++ {
		centre := s * d.channels / sources
		for c := 0; c < d.channels; c++ {
			dist := math.Abs(float64(c - centre))
			dist = math.Min(dist, float64(d.channels)-dist)
			mix.Set(s, c, math.Exp(-dist))
		}
	}
	x, err := src.Project(mix)
	if err != nil {
		return nil, nil, err
	}

	if !d.classes {
		return x, nil, nil
	}
	labels := make(lvsignal.Labels, d.trials)
	for t := range labels {
		labels[t] = "odd"
		if t%2 == 0 {
			labels[t] = "even"
		}
	}

	return x, labels, nil
}

// ring places n sensors evenly on a circle above the equator.
func ring(n int) []topo.Location {
	locs := make([]topo.Location, n)
	for i := range locs {
		phi := 2 * math.Pi * float64(i) / float64(n)
		locs[i] = topo.Location{
			Label: fmt.Sprintf("S%d", i),
			X:     0.8 * math.Cos(phi),
			Y:     0.8 * math.Sin(phi),
			Z:     0.6,
		}
	}

	return locs
}

// report prints, per window, the off-diagonal pair with the largest
// frequency-averaged magnitude.
func report(out io.Writer, l lvsignal.Label, m connectivity.Measure, tf *connectivity.TFSpectrum) error {
	name := string(l)
	if name == "" {
		name = "all"
	}
	comps, windows, nfft := tf.Dims()
	fmt.Fprintf(out, "%s %s: %d windows × %d bins\n", name, m, windows, nfft)
	for w := 0; w < windows; w++ {
		best, bi, bj := -1.0, 0, 0
		for i := 0; i < comps; i++ {
			for j := 0; j < comps; j++ {
				if i == j {
					continue
				}
				var sum float64
				for f := 0; f < nfft; f++ {
					v, err := tf.At(i, j, w, f)
					if err != nil {
						return err
					}
					sum += cmplx.Abs(v)
				}
				if mean := sum / float64(nfft); mean > best {
					best, bi, bj = mean, i, j
				}
			}
		}
		fmt.Fprintf(out, "  window %3d: %d -> %d  %.3f\n", w, bj, bi, best)
	}

	return nil
}
