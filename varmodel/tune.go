// SPDX-License-Identifier: MIT

package varmodel

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvconn/signal"
)

// invPhi is 1/φ, the golden-section shrink factor.
var invPhi = (math.Sqrt(5) - 1) / 2

// Tune selects δ by k-fold cross-validation.
//
// Algorithm:
//  1. Split the data into folds by trial (trial i → fold i mod k). A single-trial
//     recording is first cut into k contiguous pseudo-trials.
//  2. For a candidate δ, fit on k−1 folds, measure the mean squared one-step
//     prediction error on the held-out fold, average over folds.
//  3. Golden-section search over log10(δ) in [LogDeltaMin, LogDeltaMax].
//
// Candidates whose fit fails (e.g. ill-conditioned at tiny δ) score +Inf so the
// search moves towards stronger regularization; if every evaluated candidate
// fails, the last fit error is returned.
func (ls *LeastSquares) Tune(x *signal.Array3, order int) (float64, error) {
	if x == nil {
		return 0, signal.ErrNilArray
	}
	if order < 1 {
		return 0, ErrBadOrder
	}
	o := ls.Options
	folds := o.Folds
	if folds < 2 {
		folds = DefaultFolds
	}
	data, err := foldable(x, order, folds)
	if err != nil {
		return 0, err
	}
	if data.TrialCount() < folds {
		folds = data.TrialCount()
	}
	assign := make([][]int, folds)
	for i := 0; i < data.TrialCount(); i++ {
		assign[i%folds] = append(assign[i%folds], i)
	}

	var lastErr error
	score := func(logDelta float64) float64 {
		e, err := ls.cvError(data, assign, order, math.Pow(10, logDelta))
		if err != nil {
			lastErr = err
			return math.Inf(1)
		}
		return e
	}

	a, b := o.LogDeltaMin, o.LogDeltaMax
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := score(c), score(d)
	iters := o.TuneIterations
	if iters <= 0 {
		iters = DefaultTuneIterations
	}
	for i := 0; i < iters; i++ {
		if fc <= fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = score(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = score(d)
		}
	}
	if math.IsInf(fc, 1) && math.IsInf(fd, 1) {
		return 0, fmt.Errorf("no admissible regularization: %w", lastErr)
	}

	return math.Pow(10, (a+b)/2), nil
}

// cvError returns the fold-averaged mean squared prediction error for delta.
func (ls *LeastSquares) cvError(x *signal.Array3, folds [][]int, order int, delta float64) (float64, error) {
	var total float64
	for f, test := range folds {
		var train []int
		for g, idx := range folds {
			if g != f {
				train = append(train, idx...)
			}
		}
		trainX, err := x.Trials(train)
		if err != nil {
			return 0, err
		}
		testX, err := x.Trials(test)
		if err != nil {
			return 0, err
		}
		mdl, err := ls.Fit(trainX, order, delta)
		if err != nil {
			return 0, err
		}
		resid, err := mdl.Residuals(testX)
		if err != nil {
			return 0, err
		}
		r, c := resid.Dims()
		var ss float64
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				v := resid.At(i, j)
				ss += v * v
			}
		}
		total += ss / float64(r*c)
	}

	return total / float64(len(folds)), nil
}

// foldable returns x unchanged when it has at least two trials; otherwise the
// single trial is cut into k contiguous pseudo-trials.
func foldable(x *signal.Array3, order, k int) (*signal.Array3, error) {
	if x.TrialCount() >= 2 {
		return x, nil
	}
	seg := x.Samples() / k
	if seg <= order+1 {
		return nil, fmt.Errorf("%d samples cannot form %d folds at order %d: %w", x.Samples(), k, order, ErrTooFewSamples)
	}
	parts := make([]*signal.Array3, k)
	for i := range parts {
		w, err := x.Window(i*seg, seg)
		if err != nil {
			return nil, err
		}
		parts[i] = w
	}

	return signal.JoinTrials(parts...)
}
