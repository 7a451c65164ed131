// Package nn implements neural network building blocks on top of the
// computation graph.
//
// This package provides building blocks for constructing networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable Source nodes with their initial values
//   - Linear: Fully connected layer
//   - Sigmoid: Logistic activation
//   - MSELoss: Mean squared error cost
//   - Sequential: Container for stacking layers
//
// Modules do not compute anything themselves: Forward adds their nodes to a
// graph, and the graph's scheduler and executor do the evaluation.
package nn

import (
	"github.com/born-ml/miniflow/internal/graph"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Add the module's nodes to a graph
//   - Parameters: Return all trainable parameters
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear("l1", 13, 10, nn.Randn, rng),
//	    nn.NewSigmoid(),
//	    nn.NewLinear("l2", 10, 1, nn.Randn, rng),
//	)
type Module interface {
	// Forward adds the module's nodes to g, consuming input, and returns the
	// node holding the module's output.
	//
	// Calling Forward again reuses the same parameter nodes, so the module's
	// weights are shared between both applications.
	Forward(g *graph.Graph, input graph.NodeID) (graph.NodeID, error)

	// Parameters returns all trainable parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter
}
