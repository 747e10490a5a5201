// SPDX-License-Identifier: MIT

package signal

import (
	"fmt"
	"sort"
)

// Label tags a trial with its condition (class).
type Label string

// Labels holds one Label per trial, aligned with the trial axis of an Array3.
// A nil Labels means "no classes": every consumer then works on pooled data.
type Labels []Label

// Classes returns the distinct labels in ascending order.
// This order is the iteration order of every per-class result in the pipeline.
func (l Labels) Classes() []Label {
	seen := make(map[Label]struct{}, len(l))
	out := make([]Label, 0, len(l))
	for _, c := range l {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Indices returns the trial indices carrying label c, in trial order.
func (l Labels) Indices(c Label) []int {
	var idx []int
	for i, v := range l {
		if v == c {
			idx = append(idx, i)
		}
	}

	return idx
}

// Clone returns an independent copy (nil stays nil).
func (l Labels) Clone() Labels {
	if l == nil {
		return nil
	}
	out := make(Labels, len(l))
	copy(out, l)

	return out
}

// Validate checks that l is either nil or has exactly one label per trial.
func (l Labels) Validate(trials int) error {
	if l == nil || len(l) == trials {
		return nil
	}

	return fmt.Errorf("%d labels for %d trials: %w", len(l), trials, ErrLabelMismatch)
}

// LabelsOf converts a list of strings into Labels.
func LabelsOf(names ...string) Labels {
	out := make(Labels, len(names))
	for i, s := range names {
		out[i] = Label(s)
	}

	return out
}
