// SPDX-License-Identifier: MIT

package workspace

import (
	"fmt"
	"io"

	"github.com/katalvlaran/lvconn/topo"
	"gonum.org/v1/gonum/mat"
)

// PreparePlots computes and caches the scalp maps of the mixing rows and/or
// unmixing columns. Cached maps are reused until the next decomposition or
// SetUnmixing.
//
// Errors:
//   - ErrPrecondition:      no sensor locations, or no transforms yet.
//   - ErrDimensionMismatch: location count differs from the channel count.
//   - ErrComputation:       the mapper failed.
func (w *Workspace) PreparePlots(mixing, unmixing bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.preparePlots(mixing, unmixing)
}

func (w *Workspace) preparePlots(mixing, unmixing bool) error {
	locs := w.opts.locations
	if len(locs) == 0 {
		return fmt.Errorf("workspace: PreparePlots: no sensor locations: %w", ErrPrecondition)
	}
	if w.unmixing == nil {
		return fmt.Errorf("workspace: PreparePlots: no decomposition: %w", ErrPrecondition)
	}
	channels, k := w.unmixing.Dims()
	if len(locs) != channels {
		return fmt.Errorf("workspace: PreparePlots: %d locations for %d channels: %w", len(locs), channels, ErrDimensionMismatch)
	}
	if !w.mapsLocated {
		if err := w.opts.mapper.SetLocations(locs); err != nil {
			return fmt.Errorf("workspace: PreparePlots: %w: %w", ErrComputation, err)
		}
		w.mapsLocated = true
	}

	if mixing && w.mixMaps == nil {
		maps, err := w.componentMaps("mixing", k, func(c int) []float64 { return mat.Row(nil, c, w.mixing) })
		if err != nil {
			return err
		}
		w.mixMaps = maps
	}
	if unmixing && w.unmixMaps == nil {
		maps, err := w.componentMaps("unmixing", k, func(c int) []float64 { return mat.Col(nil, c, w.unmixing) })
		if err != nil {
			return err
		}
		w.unmixMaps = maps
	}

	return nil
}

func (w *Workspace) componentMaps(kind string, k int, weights func(int) []float64) ([]*topo.Map, error) {
	maps := make([]*topo.Map, k)
	for c := range maps {
		m, err := w.opts.mapper.ComputeMap(weights(c))
		if err != nil {
			return nil, fmt.Errorf("workspace: PreparePlots: %s %d: %w: %w", kind, c, ErrComputation, err)
		}
		m.Title = fmt.Sprintf("%s %d", kind, c)
		maps[c] = m
	}
	w.log.Debug("scalp maps computed", "kind", kind, "components", k)

	return maps, nil
}

// Maps returns the cached scalp maps (nil slices when not prepared).
func (w *Workspace) Maps() (mixing, unmixing []*topo.Map) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return append([]*topo.Map(nil), w.mixMaps...), append([]*topo.Map(nil), w.unmixMaps...)
}

// PlotComponents renders the unmixing and mixing map of every component, in
// pairs, to out. A globalScale in (0, 100] scales all unmixing maps to
// ±(globalScale-th percentile of |unmixing map values|) and all mixing maps to
// the same percentile of the mixing maps; 0 scales each map on its own.
func (w *Workspace) PlotComponents(out io.Writer, globalScale float64) error {
	if w.opts.renderer == nil {
		return fmt.Errorf("workspace: PlotComponents: %w", ErrRenderingUnavailable)
	}

	w.mu.Lock()
	if err := w.preparePlots(true, true); err != nil {
		w.mu.Unlock()
		return err
	}
	unmixMaps := append([]*topo.Map(nil), w.unmixMaps...)
	mixMaps := append([]*topo.Map(nil), w.mixMaps...)
	w.mu.Unlock()

	maps := make([]*topo.Map, 0, 2*len(unmixMaps))
	for c := range unmixMaps {
		maps = append(maps, unmixMaps[c], mixMaps[c])
	}

	var ranges []topo.Range
	if globalScale != 0 {
		urng, err := topo.GlobalRange(unmixMaps, globalScale)
		if err != nil {
			return fmt.Errorf("workspace: PlotComponents: unmixing: %w", err)
		}
		mrng, err := topo.GlobalRange(mixMaps, globalScale)
		if err != nil {
			return fmt.Errorf("workspace: PlotComponents: mixing: %w", err)
		}
		ranges = make([]topo.Range, 0, len(maps))
		for range unmixMaps {
			ranges = append(ranges, urng, mrng)
		}
	}
	if err := w.opts.renderer.Render(out, maps, ranges); err != nil {
		return fmt.Errorf("workspace: PlotComponents: %w", err)
	}

	return nil
}
