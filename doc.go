// SPDX-License-Identifier: MIT

// Package lvconn estimates directed, frequency-resolved connectivity between
// the sources of a multichannel recording (EEG, MEG and similar).
//
// A recording is a 3-D array of samples × channels × trials. The pipeline
// separates it into sources with MVARICA, fits a vector autoregressive (VAR)
// model to the source activations and evaluates spectral measures such as
// PDC, DTF and coherence from the fitted model:
//
//	data ─► PCA ─► VAR fit ─► ICA of residuals ─► unmixing ─► activations
//	activations ─► VAR model(s) ─► connectivity model ─► measure[i][j][f]
//
// Time-varying connectivity is obtained by refitting the VAR model on sliding
// windows of the activations.
//
// Packages:
//
//	signal/       - 3-D sample arrays and per-trial class labels
//	varmodel/     - VAR models: regularized least-squares fit, tuning, simulation
//	ica/          - FastICA for the residual decomposition
//	varica/       - MVARICA source separation
//	connectivity/ - spectral connectivity measures from a VAR model
//	topo/         - sensor projections, scalp maps and their rendering
//	workspace/    - the stateful pipeline orchestrator
//	config/       - YAML configuration for a workspace
//	cmd/lvconn    - command-line demo on simulated data
//
// Quick start:
//
//	ws := workspace.New(5, workspace.WithNFFT(256))
//	_ = ws.SetData(x, labels)
//	_ = ws.Decompose(ctx)
//	pdc, _ := ws.Connectivity(connectivity.PDC)
//	tf, _ := ws.TFConnectivity(ctx, connectivity.DDTF, 200, 20)
package lvconn
