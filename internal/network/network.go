// Package network builds a computation graph from a config.Model.
//
// Nodes are created in dependency order, so a node may reference nodes
// declared after it. Reference cycles are reported as graph.ErrCycleDetected.
package network

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/born-ml/miniflow/internal/config"
	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/nn"
	"github.com/born-ml/miniflow/internal/tensor"
)

// NoNode marks a missing feature or target input.
const NoNode graph.NodeID = -1

// ErrUnknownReference is returned when a node references an undeclared name.
var ErrUnknownReference = errors.New("unknown node reference")

// Network is a graph built from a configuration.
type Network struct {
	Graph    *graph.Graph
	Features graph.NodeID   // Input fed with the dataset features, or NoNode
	Targets  graph.NodeID   // Input fed with the dataset targets, or NoNode
	Cost     graph.NodeID   // Last declared node that no other node references
	Params   []graph.NodeID // Trainable inputs in ascending id order

	nodes map[string]graph.NodeID
}

// Node returns the graph node built for a declared name.
func (n *Network) Node(name string) (graph.NodeID, bool) {
	id, ok := n.nodes[name]
	return id, ok
}

// Build constructs the graph described by model.
//
// numFeatures is the width of the dataset features. It is used to size dense
// layers fed, directly or through width-preserving nodes, by the features
// input. Shaped inputs and dense layers draw their initial values from rng.
func Build(model *config.Model, numFeatures int, rng *rand.Rand) (*Network, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if len(model.Nodes) == 0 {
		return nil, fmt.Errorf("configuration declares no nodes")
	}

	order, err := resolve(model.Nodes)
	if err != nil {
		return nil, err
	}

	b := &builder{
		g:           graph.New(),
		rng:         rng,
		numFeatures: numFeatures,
		ids:         make(map[string]graph.NodeID, len(model.Nodes)),
		widths:      make(map[string]int, len(model.Nodes)),
		net:         &Network{Features: NoNode, Targets: NoNode},
	}
	for _, node := range order {
		if err := b.build(node); err != nil {
			return nil, fmt.Errorf("%s %q: %w", node.Kind, node.Name, err)
		}
	}

	net := b.net
	net.Graph = b.g
	net.nodes = b.ids
	net.Params = b.g.Trainables()
	net.Cost = b.ids[sink(model.Nodes).Name]
	return net, nil
}

// resolve orders the nodes so that every node follows its references, using a
// depth-first search in declaration order.
func resolve(nodes []*config.Node) ([]*config.Node, error) {
	byName := make(map[string]*config.Node, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(nodes))
	order := make([]*config.Node, 0, len(nodes))
	var path []string

	var visit func(n *config.Node) error
	visit = func(n *config.Node) error {
		switch state[n.Name] {
		case done:
			return nil
		case visiting:
			start := slices.Index(path, n.Name)
			return fmt.Errorf("%w: %v", graph.ErrCycleDetected, append(path[start:], n.Name))
		}

		state[n.Name] = visiting
		path = append(path, n.Name)
		for _, dep := range n.Dependencies() {
			next, ok := byName[dep]
			if !ok {
				return fmt.Errorf("%s %q: %w %q", n.Kind, n.Name, ErrUnknownReference, dep)
			}
			if err := visit(next); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[n.Name] = done
		order = append(order, n)
		return nil
	}

	for _, n := range nodes {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// sink returns the last declared node that is not referenced.
func sink(nodes []*config.Node) *config.Node {
	referenced := make(map[string]bool)
	for _, n := range nodes {
		for _, dep := range n.Dependencies() {
			referenced[dep] = true
		}
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		if !referenced[nodes[i].Name] {
			return nodes[i]
		}
	}
	// Unreachable for acyclic references.
	return nodes[len(nodes)-1]
}

type builder struct {
	g           *graph.Graph
	rng         *rand.Rand
	numFeatures int
	ids         map[string]graph.NodeID
	widths      map[string]int // Output columns, 0 if unknown
	net         *Network
}

func (b *builder) build(n *config.Node) error {
	if n.Kind == config.KindInput {
		return b.buildInput(n)
	}

	var (
		id    graph.NodeID
		width int
		err   error
	)
	switch n.Kind {
	case config.KindLinear:
		id, err = b.construct(graph.KindLinear, n, "input", "weights", "bias")
		width = b.maxWidth(n.Ref("weights"))

	case config.KindDense:
		id, width, err = b.buildDense(n)

	case config.KindSigmoid:
		id, err = b.construct(graph.KindSigmoid, n, "input")
		width = b.maxWidth(n.Ref("input"))

	case config.KindAdd:
		id, err = b.construct(graph.KindAdd, n, "inputs")
		width = b.maxWidth(n.Ref("inputs"))

	case config.KindWeightedSum:
		if len(n.Ref("inputs")) != len(n.Ref("weights")) {
			return fmt.Errorf("%d inputs for %d weights", len(n.Ref("inputs")), len(n.Ref("weights")))
		}
		id, err = b.construct(graph.KindWeightedSum, n, "inputs", "weights", "bias")
		width = b.maxWidth(n.Dependencies())

	case config.KindMSE:
		id, err = b.construct(graph.KindMSE, n, "y", "a")
		width = 1

	default:
		return fmt.Errorf("unsupported node kind")
	}
	if err != nil {
		return err
	}

	b.ids[n.Name] = id
	b.widths[n.Name] = width
	return b.g.SetName(id, n.Name)
}

// construct adds a node whose inputs are the references under roles, in order.
func (b *builder) construct(kind graph.Kind, n *config.Node, roles ...string) (graph.NodeID, error) {
	var inputs []graph.NodeID
	for _, role := range roles {
		names := n.Ref(role)
		if len(names) == 0 {
			return 0, fmt.Errorf("missing %s", role)
		}
		for _, name := range names {
			inputs = append(inputs, b.ids[name])
		}
	}
	return b.g.Construct(kind, inputs...)
}

func (b *builder) buildDense(n *config.Node) (graph.NodeID, int, error) {
	refs := n.Ref("input")
	if len(refs) == 0 {
		return 0, 0, fmt.Errorf("missing input")
	}
	input := refs[0]
	inFeatures := b.widths[input]
	if inFeatures <= 0 {
		return 0, 0, fmt.Errorf("cannot infer the width of input %q", input)
	}

	initFn, err := initializer(n.Init, "xavier")
	if err != nil {
		return 0, 0, err
	}

	layer := nn.NewLinear(n.Name, inFeatures, n.Units, initFn, b.rng)
	id, err := layer.Forward(b.g, b.ids[input])
	if err != nil {
		return 0, 0, err
	}
	return id, n.Units, nil
}

func (b *builder) buildInput(n *config.Node) error {
	var (
		id    graph.NodeID
		width int
	)
	switch {
	case n.Feed == config.FeedFeatures:
		if b.net.Features != NoNode {
			return fmt.Errorf("features are already fed to %s", b.g.String(b.net.Features))
		}
		id = b.g.Source(n.Name)
		b.net.Features = id
		width = b.numFeatures

	case n.Feed == config.FeedTargets:
		if b.net.Targets != NoNode {
			return fmt.Errorf("targets are already fed to %s", b.g.String(b.net.Targets))
		}
		id = b.g.Source(n.Name)
		b.net.Targets = id
		width = 1

	default:
		value, err := b.inputValue(n)
		if err != nil {
			return err
		}
		id, err = b.bindValue(n, value)
		if err != nil {
			return err
		}
		width = 1
		if value.Rank() > 0 {
			width = value.Shape()[value.Rank()-1]
		}
	}

	b.ids[n.Name] = id
	b.widths[n.Name] = width
	return nil
}

// inputValue returns the literal value of an input or draws it from its
// initializer.
func (b *builder) inputValue(n *config.Node) (*tensor.Tensor, error) {
	if n.Value != nil {
		shape := tensor.Shape(append([]int{}, n.Value.Shape...))
		return tensor.FromSlice(n.Value.Data, shape)
	}

	shape := tensor.Shape(n.Shape)
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	initFn, err := initializer(n.Init, "randn")
	if err != nil {
		return nil, err
	}
	fanIn, fanOut := shape[0], shape[len(shape)-1]
	return initFn(shape.Clone(), fanIn, fanOut, b.rng), nil
}

// bindValue adds a Source holding value. Trainable inputs become parameters.
func (b *builder) bindValue(n *config.Node, value *tensor.Tensor) (graph.NodeID, error) {
	if n.Trainable {
		return nn.NewParameter(n.Name, value).Bind(b.g)
	}
	id := b.g.Source(n.Name)
	if err := b.g.SetValue(id, value); err != nil {
		return 0, err
	}
	return id, nil
}

func (b *builder) maxWidth(names []string) int {
	width := 0
	for _, name := range names {
		width = max(width, b.widths[name])
	}
	return width
}

func initializer(name, fallback string) (nn.Initializer, error) {
	if name == "" {
		name = fallback
	}
	return nn.InitializerByName(name)
}
