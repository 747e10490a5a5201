// SPDX-License-Identifier: MIT

// Package topo turns per-channel weights into 2-D scalp maps.
//
// Sensor positions are given in 3-D (any radius) and projected onto the plane
// with an azimuthal equidistant projection centred on the vertex (+Z): a sensor
// at polar angle θ lands at radius θ/π, so the equator lies on the circle of
// radius 0.5 ("head radius"). Weights are interpolated on a res×res grid with
// multiquadric radial basis functions; grid cells outside the head are NaN.
package topo

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoLocations indicates a map was requested before any sensor locations
	// were set.
	ErrNoLocations = errors.New("topo: no sensor locations")

	// ErrBadLocation indicates a sensor at the origin or with non-finite
	// coordinates.
	ErrBadLocation = errors.New("topo: invalid sensor location")

	// ErrWeightCount indicates a weight vector whose length differs from the
	// number of sensors.
	ErrWeightCount = errors.New("topo: weight count does not match sensor count")

	// ErrSingular indicates coincident sensors made the interpolation system
	// singular.
	ErrSingular = errors.New("topo: interpolation system is singular")
)

// Defaults.
const (
	DefaultResolution = 64
	HeadRadius        = 0.5

	// rbfShape is the multiquadric shape parameter ε in √(d² + ε²).
	rbfShape = 0.1
	// rbfRidge is added to the interpolation matrix diagonal.
	rbfRidge = 1e-9
)

// Location is one sensor position in 3-D space.
type Location struct {
	Label string  `yaml:"label"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
}

// Project returns the 2-D position of l (see package doc).
func (l Location) Project() (x, y float64, err error) {
	norm := math.Sqrt(l.X*l.X + l.Y*l.Y + l.Z*l.Z)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return 0, 0, fmt.Errorf("%q: %w", l.Label, ErrBadLocation)
	}
	theta := math.Acos(math.Max(-1, math.Min(1, l.Z/norm)))
	r := theta / math.Pi
	phi := math.Atan2(l.Y, l.X)

	return r * math.Cos(phi), r * math.Sin(phi), nil
}

// Map is one interpolated scalp map.
type Map struct {
	Title  string
	Res    int
	Radius float64   // grid covers [-Radius, Radius]²
	Values []float64 // Res×Res row-major; row r is y, column c is x; NaN outside the head
}

// At returns the grid value at row r, column c.
func (m *Map) At(r, c int) float64 { return m.Values[r*m.Res+c] }

// Coord returns the plane coordinate of grid index i (row or column).
func (m *Map) Coord(i int) float64 {
	step := 2 * m.Radius / float64(m.Res)

	return -m.Radius + (float64(i)+0.5)*step
}

// Extent returns the minimum and maximum of the finite values.
func (m *Map) Extent() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range m.Values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	return lo, hi
}

// Mapper computes scalp maps from per-sensor weights.
type Mapper interface {
	SetLocations(locs []Location) error
	ComputeMap(weights []float64) (*Map, error)
}

// Topoplot is the default Mapper. SetLocations factorizes the interpolation
// system once; ComputeMap then only solves and evaluates. A Topoplot is not
// safe for concurrent SetLocations, but ComputeMap may run concurrently.
type Topoplot struct {
	res    int
	radius float64
	px, py []float64
	lu     *mat.LU
	// basis holds φ(|g − p_k|) for every inside-head grid cell g, one row per cell.
	basis  *mat.Dense
	inside []int
}

var _ Mapper = (*Topoplot)(nil)

// NewTopoplot returns a Topoplot with a res×res grid. Panics if res < 2.
func NewTopoplot(res int) *Topoplot {
	if res < 2 {
		panic(fmt.Sprintf("topo: resolution %d < 2", res))
	}

	return &Topoplot{res: res}
}

// Resolution returns the grid size.
func (tp *Topoplot) Resolution() int { return tp.res }

// SetLocations projects locs and prepares the interpolation.
func (tp *Topoplot) SetLocations(locs []Location) error {
	n := len(locs)
	if n == 0 {
		return ErrNoLocations
	}
	px, py := make([]float64, n), make([]float64, n)
	radius := HeadRadius
	for i, l := range locs {
		x, y, err := l.Project()
		if err != nil {
			return err
		}
		px[i], py[i] = x, y
		radius = math.Max(radius, math.Hypot(x, y))
	}

	phi := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			phi.Set(i, j, multiquadric(math.Hypot(px[i]-px[j], py[i]-py[j])))
		}
		phi.Set(i, i, phi.At(i, i)+rbfRidge)
	}
	var lu mat.LU
	lu.Factorize(phi)
	if lu.Det() == 0 {
		return ErrSingular
	}

	var inside []int
	m := &Map{Res: tp.res, Radius: radius}
	for r := 0; r < tp.res; r++ {
		for c := 0; c < tp.res; c++ {
			if math.Hypot(m.Coord(c), m.Coord(r)) <= radius {
				inside = append(inside, r*tp.res+c)
			}
		}
	}
	basis := mat.NewDense(len(inside), n, nil)
	for k, cell := range inside {
		gx, gy := m.Coord(cell%tp.res), m.Coord(cell/tp.res)
		for j := 0; j < n; j++ {
			basis.Set(k, j, multiquadric(math.Hypot(gx-px[j], gy-py[j])))
		}
	}

	tp.px, tp.py, tp.radius = px, py, radius
	tp.lu, tp.basis, tp.inside = &lu, basis, inside

	return nil
}

// Positions returns copies of the projected sensor coordinates.
func (tp *Topoplot) Positions() (x, y []float64) {
	return append([]float64(nil), tp.px...), append([]float64(nil), tp.py...)
}

// ComputeMap interpolates weights (one per sensor) onto the grid.
func (tp *Topoplot) ComputeMap(weights []float64) (*Map, error) {
	if tp.lu == nil {
		return nil, ErrNoLocations
	}
	if len(weights) != len(tp.px) {
		return nil, fmt.Errorf("%d weights for %d sensors: %w", len(weights), len(tp.px), ErrWeightCount)
	}

	var coef mat.VecDense
	if err := tp.lu.SolveVecTo(&coef, false, mat.NewVecDense(len(weights), append([]float64(nil), weights...))); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSingular)
	}
	var vals mat.VecDense
	vals.MulVec(tp.basis, &coef)

	m := &Map{Res: tp.res, Radius: tp.radius, Values: make([]float64, tp.res*tp.res)}
	floats.AddConst(math.NaN(), m.Values)
	for k, cell := range tp.inside {
		m.Values[cell] = vals.AtVec(k)
	}

	return m, nil
}

func multiquadric(d float64) float64 { return math.Sqrt(d*d + rbfShape*rbfShape) }
