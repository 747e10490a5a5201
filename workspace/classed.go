// SPDX-License-Identifier: MIT

package workspace

import (
	"maps"
	"slices"

	"github.com/katalvlaran/lvconn/signal"
)

// Classed holds either one value (Single) or one value per class label
// (PerClass). The zero Classed holds nothing; IsZero reports it.
//
// Per-class keys are kept in sorted order so iteration is deterministic.
type Classed[T any] struct {
	single   T
	perClass map[signal.Label]T
	classes  []signal.Label
	set      bool
}

// Single wraps one value.
func Single[T any](v T) Classed[T] {
	return Classed[T]{single: v, set: true}
}

// PerClass wraps a label-keyed mapping. The map is copied.
func PerClass[T any](m map[signal.Label]T) Classed[T] {
	cp := maps.Clone(m)
	if cp == nil {
		cp = map[signal.Label]T{}
	}
	classes := slices.Sorted(maps.Keys(cp))

	return Classed[T]{perClass: cp, classes: classes, set: true}
}

// IsZero reports whether c holds nothing.
func (c Classed[T]) IsZero() bool { return !c.set }

// IsPerClass reports whether c is the per-class variant.
func (c Classed[T]) IsPerClass() bool { return c.set && c.perClass != nil }

// Value returns the single value; ok is false for per-class or zero values.
func (c Classed[T]) Value() (v T, ok bool) {
	if !c.set || c.perClass != nil {
		return v, false
	}

	return c.single, true
}

// Get returns the value of class l; ok is false when c is not per-class or
// has no such class.
func (c Classed[T]) Get(l signal.Label) (v T, ok bool) {
	if c.perClass == nil {
		return v, false
	}
	v, ok = c.perClass[l]

	return v, ok
}

// Classes returns the sorted class labels (nil unless per-class).
func (c Classed[T]) Classes() []signal.Label { return slices.Clone(c.classes) }

// Len returns the number of held values.
func (c Classed[T]) Len() int {
	switch {
	case !c.set:
		return 0
	case c.perClass != nil:
		return len(c.perClass)
	default:
		return 1
	}
}

// Each calls fn for every held value in class order. The label is empty for
// the single variant. Iteration stops at the first error.
func (c Classed[T]) Each(fn func(signal.Label, T) error) error {
	if c.perClass == nil {
		if !c.set {
			return nil
		}
		return fn("", c.single)
	}
	for _, l := range c.classes {
		if err := fn(l, c.perClass[l]); err != nil {
			return err
		}
	}

	return nil
}

// Apply maps every value of c through fn, keeping the variant and the keys.
// On error nothing is returned.
func Apply[T, U any](c Classed[T], fn func(signal.Label, T) (U, error)) (Classed[U], error) {
	if !c.set {
		return Classed[U]{}, nil
	}
	if c.perClass == nil {
		v, err := fn("", c.single)
		if err != nil {
			return Classed[U]{}, err
		}
		return Single(v), nil
	}
	out := make(map[signal.Label]U, len(c.perClass))
	for _, l := range c.classes {
		v, err := fn(l, c.perClass[l])
		if err != nil {
			return Classed[U]{}, err
		}
		out[l] = v
	}

	return PerClass(out), nil
}
