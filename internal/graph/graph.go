package graph

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/miniflow/internal/tensor"
)

// Graph is an arena of computation nodes addressed by NodeID.
//
// Nodes are appended by Construct and never removed. Because a node can only
// name existing nodes as inputs, every graph built through this API is
// acyclic; the scheduler still checks for cycles.
//
// Example:
//
//	g := graph.New()
//	x, w, b := g.Source("x"), g.Source("w"), g.Source("b")
//	y := g.Sigmoid(g.Linear(x, w, b))
//
//	order, err := g.Schedule(graph.Feed{x: xv, w: wv, b: bv})
//	out, err := g.Forward(order)
type Graph struct {
	nodes []node

	// version changes whenever a Source value is assigned. Forward and
	// Backward record the version they ran against so that gradients computed
	// for older values are never applied.
	version        uint64
	forwardVersion uint64
	evaluated      bool

	grads       []gradRecord // Reallocated by every Backward
	gradVersion uint64
	hasGrads    bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make([]node, 0, 16)}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Construct appends a node of the given kind with the given ordered inputs and
// registers it as a consumer of each input.
//
// Errors:
//   - ErrUnknownKind if kind is not registered
//   - ErrUnknownNode if an input does not exist
//   - ErrArityMismatch if the kind does not accept len(inputs) inputs
func (g *Graph) Construct(kind Kind, inputs ...NodeID) (NodeID, error) {
	rule, ok := lookup(kind)
	if !ok {
		return 0, errors.Wrapf(ErrUnknownKind, "construct kind %d", kind)
	}
	for _, in := range inputs {
		if !g.valid(in) {
			return 0, errors.Wrapf(ErrUnknownNode, "construct %s: input %d", rule.Name, in)
		}
	}
	if !rule.Arity(len(inputs)) {
		return 0, errors.Wrapf(ErrArityMismatch, "%s does not accept %d inputs", rule.Name, len(inputs))
	}

	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{
		kind:   kind,
		inputs: slices.Clone(inputs),
	})
	for _, in := range inputs {
		g.nodes[in].consumers = append(g.nodes[in].consumers, id)
	}
	return id, nil
}

// mustConstruct is Construct for the typed helpers, where a failure means
// the caller passed a handle from another graph or broke the kind's arity.
func (g *Graph) mustConstruct(kind Kind, inputs ...NodeID) NodeID {
	id, err := g.Construct(kind, inputs...)
	if err != nil {
		panic(err)
	}
	return id
}

// Source adds a graph input whose value is supplied by a Feed.
func (g *Graph) Source(name string) NodeID {
	id := g.mustConstruct(KindSource)
	g.nodes[id].name = name
	return id
}

// Linear adds a node computing x·w + b.
func (g *Graph) Linear(x, w, b NodeID) NodeID {
	return g.mustConstruct(KindLinear, x, w, b)
}

// Sigmoid adds a node computing the element-wise logistic function.
func (g *Graph) Sigmoid(x NodeID) NodeID {
	return g.mustConstruct(KindSigmoid, x)
}

// MSE adds a mean-squared-error cost node comparing ground truth y with
// prediction a. It is meant to be the graph's sink.
func (g *Graph) MSE(y, a NodeID) NodeID {
	return g.mustConstruct(KindMSE, y, a)
}

// Add adds a node summing two or more inputs.
func (g *Graph) Add(inputs ...NodeID) NodeID {
	return g.mustConstruct(KindAdd, inputs...)
}

// WeightedSum adds a node computing Σ xs[i]·ws[i] + b.
// Panics if xs and ws differ in length or are empty.
func (g *Graph) WeightedSum(xs, ws []NodeID, b NodeID) NodeID {
	if len(xs) != len(ws) || len(xs) == 0 {
		panic(errors.Wrapf(ErrArityMismatch, "weighted sum needs matching inputs and weights, got %d and %d", len(xs), len(ws)))
	}
	inputs := make([]NodeID, 0, 2*len(xs)+1)
	inputs = append(inputs, xs...)
	inputs = append(inputs, ws...)
	inputs = append(inputs, b)
	return g.mustConstruct(KindWeightedSum, inputs...)
}

// SetName names a node for logs and error messages.
func (g *Graph) SetName(id NodeID, name string) error {
	if !g.valid(id) {
		return errors.Wrapf(ErrUnknownNode, "set name %d", id)
	}
	g.nodes[id].name = name
	return nil
}

// Name returns the node's name, or "" for unnamed or unknown nodes.
func (g *Graph) Name(id NodeID) string {
	if !g.valid(id) {
		return ""
	}
	return g.nodes[id].name
}

// Kind returns the node's kind.
func (g *Graph) Kind(id NodeID) (Kind, error) {
	if !g.valid(id) {
		return 0, errors.Wrapf(ErrUnknownNode, "kind %d", id)
	}
	return g.nodes[id].kind, nil
}

// Inputs returns a copy of the node's ordered inputs.
func (g *Graph) Inputs(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	return slices.Clone(g.nodes[id].inputs)
}

// Consumers returns a copy of the nodes that list id as an input, one entry
// per occurrence.
func (g *Graph) Consumers(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	return slices.Clone(g.nodes[id].consumers)
}

// SetTrainable marks a Source node as a parameter updated by gradient steps.
func (g *Graph) SetTrainable(id NodeID) error {
	if !g.valid(id) {
		return errors.Wrapf(ErrUnknownNode, "set trainable %d", id)
	}
	n := &g.nodes[id]
	if n.kind != KindSource {
		return errors.Wrapf(ErrNotTrainable, "%s is a %s node, only sources can be trainable", n.label(id), n.kind)
	}
	n.trainable = true
	return nil
}

// Trainables returns the trainable nodes in ascending id order.
func (g *Graph) Trainables() []NodeID {
	var out []NodeID
	for i := range g.nodes {
		if g.nodes[i].trainable {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// Sources returns the Source nodes in ascending id order.
func (g *Graph) Sources() []NodeID {
	var out []NodeID
	for i := range g.nodes {
		if g.nodes[i].kind == KindSource {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// IsTrainable reports whether id is a trainable node.
func (g *Graph) IsTrainable(id NodeID) bool {
	return g.valid(id) && g.nodes[id].trainable
}

// Value returns the node's current value, or nil if it has none.
func (g *Graph) Value(id NodeID) *tensor.Tensor {
	if !g.valid(id) {
		return nil
	}
	return g.nodes[id].value
}

// SetValue assigns the value of a Source node outside of scheduling, for
// example to initialise parameters.
func (g *Graph) SetValue(id NodeID, value *tensor.Tensor) error {
	if err := g.checkSource(id, value); err != nil {
		return err
	}
	g.nodes[id].value = value
	g.version++
	return nil
}

// String returns a node's label: its quoted name, or its id and kind.
func (g *Graph) String(id NodeID) string {
	if !g.valid(id) {
		return "<nil>"
	}
	return g.nodes[id].label(id)
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// checkSource verifies that id is a Source node and value is usable.
func (g *Graph) checkSource(id NodeID, value *tensor.Tensor) error {
	if !g.valid(id) {
		return errors.Wrapf(ErrUnknownSource, "node %d does not exist", id)
	}
	n := &g.nodes[id]
	if n.kind != KindSource {
		return errors.Wrapf(ErrUnknownSource, "%s is a %s node", n.label(id), n.kind)
	}
	if value == nil {
		return errors.Wrapf(ErrMissingValue, "source %s", n.label(id))
	}
	return nil
}
