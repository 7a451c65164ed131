// Package optim implements optimization algorithms for the trainable nodes of
// a computation graph.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers read ∂cost/∂node from the graph's last backward pass and write
// the new parameter values back through Graph.UpdateTrainables, so a step
// either updates every parameter or none.
//
// Example usage:
//
//	optimizer := optim.NewSGD(g, g.Trainables(), optim.SGDConfig{
//	    LR: 0.005,
//	})
//
//	for step := range steps {
//	    g.Refresh(graph.Feed{x: batchX, y: batchY})
//	    loss, _ := g.Forward(order)
//	    g.Backward(order)
//	    optimizer.Step()
//	}
package optim

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/miniflow/internal/graph"
)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update the trainable nodes of a graph from the gradients of
// the last backward pass to minimize the cost.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - GetLR: Get current learning rate (for monitoring/scheduling)
//   - SetLR: Change the learning rate
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// It must follow a Backward over the current parameter values; the
	// gradients are consumed, so calling Step twice without a new forward
	// and backward pass fails with graph.ErrStaleGradient.
	Step() error

	// GetLR returns the current learning rate.
	//
	// Useful for monitoring and learning rate scheduling.
	GetLR() float64

	// SetLR updates the learning rate.
	SetLR(lr float64)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// Options configures an optimizer selected by name.
// Zero fields take the chosen optimizer's defaults.
type Options struct {
	LR       float64
	Momentum float64    // SGD only
	Betas    [2]float64 // Adam only
	Eps      float64    // Adam only
}

// ErrUnknownOptimizer is returned by New for an unsupported name.
var ErrUnknownOptimizer = errors.New("unknown optimizer")

// New creates the optimizer registered under name ("sgd" or "adam") for the
// given parameters of g.
func New(name string, g *graph.Graph, params []graph.NodeID, opts Options) (Optimizer, error) {
	switch strings.ToLower(name) {
	case "", "sgd":
		return NewSGD(g, params, SGDConfig{LR: opts.LR, Momentum: opts.Momentum}), nil
	case "adam":
		return NewAdam(g, params, AdamConfig{LR: opts.LR, Betas: opts.Betas, Eps: opts.Eps}), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: sgd, adam)", ErrUnknownOptimizer, name)
	}
}
