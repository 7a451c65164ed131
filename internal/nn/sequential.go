package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/miniflow/internal/graph"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output node becomes the next module's input, creating a
// sequential pipeline of transformations.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear("l1", 13, 10, nn.Randn, rng),
//	    nn.NewSigmoid(),
//	    nn.NewLinear("l2", 10, 1, nn.Randn, rng),
//	)
//
//	out, err := model.Forward(g, x)
//
// This is equivalent to:
//
//	h1, _ := linear1.Forward(g, x)
//	h2, _ := sigmoid.Forward(g, h1)
//	out, _ := linear2.Forward(g, h2)
type Sequential struct {
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{
		modules: modules,
	}
}

// Forward applies all modules in sequence and returns the last output node.
func (s *Sequential) Forward(g *graph.Graph, input graph.NodeID) (graph.NodeID, error) {
	output := input
	for i, module := range s.modules {
		var err error
		if output, err = module.Forward(g, output); err != nil {
			return 0, fmt.Errorf("sequential module %d: %w", i, err)
		}
	}
	return output, nil
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Add appends a module to the end of the sequence.
func (s *Sequential) Add(module Module) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at index i.
// Panics if index is out of bounds.
func (s *Sequential) Module(i int) Module {
	if i < 0 || i >= len(s.modules) {
		panic(fmt.Sprintf("Sequential.Module: index %d out of bounds [0, %d)", i, len(s.modules)))
	}
	return s.modules[i]
}

// NewRegressor builds the one-hidden-layer regression network
//
//	Linear(features → hidden) → Sigmoid → Linear(hidden → 1)
//
// with standard-normal weights and zero biases.
func NewRegressor(features, hidden int, rng *rand.Rand) *Sequential {
	return NewSequential(
		NewLinear("l1", features, hidden, Randn, rng),
		NewSigmoid(),
		NewLinear("l2", hidden, 1, Randn, rng),
	)
}

// Regression is a model wired into a graph with its inputs and cost:
//
//	Cost = mse(Y, model(X))
type Regression struct {
	Graph  *graph.Graph
	X      graph.NodeID // Features, [m k]
	Y      graph.NodeID // Targets, [m]
	Output graph.NodeID
	Cost   graph.NodeID
	Params []*Parameter
}

// NewRegression adds feature and target Sources named "X" and "y" to g, the
// model's nodes, and an MSE cost.
func NewRegression(g *graph.Graph, model Module) (*Regression, error) {
	x := g.Source("X")
	y := g.Source("y")

	out, err := model.Forward(g, x)
	if err != nil {
		return nil, err
	}
	cost, err := MSELoss(g, y, out)
	if err != nil {
		return nil, err
	}

	return &Regression{
		Graph:  g,
		X:      x,
		Y:      y,
		Output: out,
		Cost:   cost,
		Params: model.Parameters(),
	}, nil
}
