package nn

import (
	"fmt"

	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// A parameter is a trainable Source node of a graph. It is created unbound
// with its initial value and becomes a node the first time a module adds it
// to a graph.
//
// Example:
//
//	weight := nn.NewParameter("l1.weight", nn.Randn(tensor.Shape{13, 10}, 13, 10, rng))
//
//	w, err := weight.Bind(g)   // Source node, trainable, holding the initial value
//	grad, err := g.Gradient(w) // After a backward pass
type Parameter struct {
	name string         // Parameter name (e.g., "l1.weight")
	init *tensor.Tensor // Initial value
	g    *graph.Graph   // Graph the parameter is bound to, nil before Bind
	node graph.NodeID
}

// NewParameter creates a new trainable parameter with an initial value.
func NewParameter(name string, init *tensor.Tensor) *Parameter {
	return &Parameter{
		name: name,
		init: init,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Init returns the initial value.
func (p *Parameter) Init() *tensor.Tensor {
	return p.init
}

// Bind adds the parameter to g as a named trainable Source holding its
// initial value. Binding again to the same graph returns the existing node.
func (p *Parameter) Bind(g *graph.Graph) (graph.NodeID, error) {
	if p.g == g {
		return p.node, nil
	}
	if p.g != nil {
		return 0, fmt.Errorf("parameter %q is already bound to another graph", p.name)
	}

	id := g.Source(p.name)
	if err := g.SetTrainable(id); err != nil {
		return 0, fmt.Errorf("bind %q: %w", p.name, err)
	}
	if err := g.SetValue(id, p.init); err != nil {
		return 0, fmt.Errorf("bind %q: %w", p.name, err)
	}

	p.g, p.node = g, id
	return id, nil
}

// Node returns the parameter's node and whether it is bound.
func (p *Parameter) Node() (graph.NodeID, bool) {
	return p.node, p.g != nil
}

// Value returns the current value: the node's value once bound, the initial
// value before.
func (p *Parameter) Value() *tensor.Tensor {
	if p.g == nil {
		return p.init
	}
	return p.g.Value(p.node)
}

// Nodes returns the nodes of the bound parameters, in order.
func Nodes(params []*Parameter) []graph.NodeID {
	ids := make([]graph.NodeID, 0, len(params))
	for _, p := range params {
		if id, ok := p.Node(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Feed returns the current values of the bound parameters as a feed, for
// rescheduling a graph without resetting what training has learned.
func Feed(params []*Parameter) graph.Feed {
	feed := make(graph.Feed, len(params))
	for _, p := range params {
		if id, ok := p.Node(); ok {
			feed[id] = p.Value()
		}
	}
	return feed
}
