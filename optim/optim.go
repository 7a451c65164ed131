// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config represents the base configuration for optimizers.
type Config = optim.Config

// Options configures an optimizer selected by name.
type Options = optim.Options

// ErrUnknownOptimizer is returned by New for an unsupported name.
var ErrUnknownOptimizer = optim.ErrUnknownOptimizer

// New creates the optimizer called name ("sgd" or "adam").
func New(name string, g *graph.Graph, params []graph.NodeID, opts Options) (Optimizer, error) {
	return optim.New(name, g, params, opts)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(g, g.Trainables(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(g *graph.Graph, params []graph.NodeID, config SGDConfig) *SGD {
	return optim.NewSGD(g, params, config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(g, g.Trainables(), optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	})
func NewAdam(g *graph.Graph, params []graph.NodeID, config AdamConfig) *Adam {
	return optim.NewAdam(g, params, config)
}
