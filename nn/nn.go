// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/nn"
	"github.com/born-ml/miniflow/internal/tensor"
)

// Module interface defines the common interface for all layer builders.
type Module = nn.Module

// Parameter represents a trainable Source node and its initial value.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and initial value.
func NewParameter(name string, init *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, init)
}

// Nodes returns the graph nodes of bound parameters.
func Nodes(params []*Parameter) []graph.NodeID {
	return nn.Nodes(params)
}

// Feed returns a feed of the current values of bound parameters.
func Feed(params []*Parameter) graph.Feed {
	return nn.Feed(params)
}

// Initialization

// Initializer draws the initial value of a parameter.
type Initializer = nn.Initializer

// Xavier draws from U(-a, a) with a = sqrt(6 / (fanIn + fanOut)).
func Xavier(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor {
	return nn.Xavier(shape, fanIn, fanOut, rng)
}

// Randn draws from the standard normal distribution.
func Randn(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor {
	return nn.Randn(shape, fanIn, fanOut, rng)
}

// Zeros returns zeros.
func Zeros(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor {
	return nn.Zeros(shape, fanIn, fanOut, rng)
}

// Ones returns ones.
func Ones(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor {
	return nn.Ones(shape, fanIn, fanOut, rng)
}

// InitializerByName returns the initializer called name.
func InitializerByName(name string) (Initializer, error) {
	return nn.InitializerByName(name)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer.
//
// Example:
//
//	layer := nn.NewLinear("hidden", 13, 10, nn.Xavier, rng)
func NewLinear(name string, inFeatures, outFeatures int, weightInit Initializer, rng *rand.Rand) *Linear {
	return nn.NewLinear(name, inFeatures, outFeatures, weightInit, rng)
}

// Activations

// Sigmoid represents the logistic activation function.
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a new Sigmoid activation layer.
func NewSigmoid() *Sigmoid {
	return nn.NewSigmoid()
}

// Loss functions

// MSELoss adds a mean squared error node comparing predictions to targets.
func MSELoss(g *graph.Graph, targets, predictions graph.NodeID) (graph.NodeID, error) {
	return nn.MSELoss(g, targets, predictions)
}

// Containers

// Sequential applies modules in order.
type Sequential = nn.Sequential

// NewSequential creates a new sequential container.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear("l1", 13, 10, nn.Randn, rng),
//	    nn.NewSigmoid(),
//	    nn.NewLinear("l2", 10, 1, nn.Randn, rng),
//	)
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// NewRegressor builds Linear(features → hidden) → Sigmoid → Linear(hidden → 1).
func NewRegressor(features, hidden int, rng *rand.Rand) *Sequential {
	return nn.NewRegressor(features, hidden, rng)
}

// Regression is a model wired into a graph with its inputs and MSE cost.
type Regression = nn.Regression

// NewRegression adds feature and target inputs, the model and a cost to g.
func NewRegression(g *graph.Graph, model Module) (*Regression, error) {
	return nn.NewRegression(g, model)
}
