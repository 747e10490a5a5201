// SPDX-License-Identifier: MIT

package topo

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	// ErrNoMaps indicates a render call without maps.
	ErrNoMaps = errors.New("topo: nothing to render")

	// ErrBadPercentile indicates a global scale outside (0, 100].
	ErrBadPercentile = errors.New("topo: percentile must be in (0, 100]")

	// ErrRangeCount indicates a range slice whose length differs from the
	// number of maps.
	ErrRangeCount = errors.New("topo: range count does not match map count")
)

// Range is a colour range. The zero Range lets a map use its own extent.
type Range struct {
	Min, Max float64
}

// IsZero reports whether r is the per-map default.
func (r Range) IsZero() bool { return r.Min == 0 && r.Max == 0 }

// GlobalRange returns the symmetric range [−v, v] where v is the given
// percentile of |value| over every finite grid value of maps.
func GlobalRange(maps []*Map, percentile float64) (Range, error) {
	if !(percentile > 0 && percentile <= 100) {
		return Range{}, fmt.Errorf("%g: %w", percentile, ErrBadPercentile)
	}
	var abs []float64
	for _, m := range maps {
		for _, v := range m.Values {
			if !math.IsNaN(v) {
				abs = append(abs, math.Abs(v))
			}
		}
	}
	if len(abs) == 0 {
		return Range{}, ErrNoMaps
	}
	sort.Float64s(abs)
	v := stat.Quantile(percentile/100, stat.Empirical, abs, nil)

	return Range{Min: -v, Max: v}, nil
}

// Renderer draws a set of maps to w. ranges holds one colour range per map;
// nil scales every map on its own.
type Renderer interface {
	Render(w io.Writer, maps []*Map, ranges []Range) error
}

// PlotRenderer renders maps as a PNG grid of heat maps.
//
// Fields:
//   - Cols: tiles per row (<= 0 ⇒ ⌈√len(maps)⌉).
//   - TileSize: edge length of one tile (0 ⇒ 2 inches).
type PlotRenderer struct {
	Cols     int
	TileSize vg.Length
}

var _ Renderer = PlotRenderer{}

// Render lays the maps out row by row and writes a PNG image.
func (pr PlotRenderer) Render(w io.Writer, maps []*Map, ranges []Range) error {
	if len(maps) == 0 {
		return ErrNoMaps
	}
	if ranges != nil && len(ranges) != len(maps) {
		return fmt.Errorf("%d ranges for %d maps: %w", len(ranges), len(maps), ErrRangeCount)
	}
	cols := pr.Cols
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(len(maps)))))
	}
	rows := (len(maps) + cols - 1) / cols
	size := pr.TileSize
	if size == 0 {
		size = 2 * vg.Inch
	}

	plots := make([][]*plot.Plot, rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, cols)
		for c := range plots[r] {
			k := r*cols + c
			if k >= len(maps) {
				blank := plot.New()
				blank.HideAxes()
				plots[r][c] = blank
				continue
			}
			var rng Range
			if ranges != nil {
				rng = ranges[k]
			}
			plots[r][c] = heatPlot(maps[k], rng)
		}
	}

	img := vgimg.New(vg.Length(cols)*size, vg.Length(rows)*size)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: rows, Cols: cols, PadX: vg.Millimeter, PadY: vg.Millimeter}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c, p := range plots[r] {
			p.Draw(canvases[r][c])
		}
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("topo: write png: %w", err)
	}

	return nil
}

func heatPlot(m *Map, rng Range) *plot.Plot {
	lo, hi := rng.Min, rng.Max
	if rng.IsZero() {
		lo, hi = m.Extent()
		if v := math.Max(math.Abs(lo), math.Abs(hi)); v > 0 {
			lo, hi = -v, v
		} else {
			lo, hi = -1, 1
		}
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(lo)
	cmap.SetMax(hi)
	hm := plotter.NewHeatMap(grid{m}, cmap.Palette(255))
	hm.Min, hm.Max = lo, hi
	hm.NaN = color.Transparent
	hm.Underflow = hm.Palette.Colors()[0]
	hm.Overflow = hm.Palette.Colors()[len(hm.Palette.Colors())-1]

	p := plot.New()
	p.Title.Text = m.Title
	p.Add(hm)
	p.HideAxes()

	return p
}

// grid adapts a Map to plotter.GridXYZ.
type grid struct{ m *Map }

func (g grid) Dims() (c, r int)   { return g.m.Res, g.m.Res }
func (g grid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g grid) X(c int) float64    { return g.m.Coord(c) }
func (g grid) Y(r int) float64    { return g.m.Coord(r) }
