// Package config defines the format-agnostic description of a training run:
// the dataset, the training hyperparameters and the computation graph.
package config

import (
	"fmt"
	"slices"
)

// Model is the unified representation of a configuration, independent of the
// file format it was loaded from.
type Model struct {
	Dataset  *Dataset
	Training *Training
	Nodes    []*Node // In declaration order
}

// Dataset describes the CSV file to train on.
type Dataset struct {
	Path      string
	Target    string   // Empty selects the last column
	Features  []string // Empty selects every column except the target
	Normalize bool
}

// Training holds the hyperparameters of a run.
type Training struct {
	Epochs       int
	BatchSize    int // 0 trains on the whole shuffled dataset every epoch
	LearningRate float64
	Optimizer    string // "sgd" or "adam"
	Momentum     float64
	Seed         int64
	Reschedule   bool // Schedule every step instead of refreshing the order
}

// DefaultTraining returns the hyperparameters used when a configuration has
// no training block.
func DefaultTraining() *Training {
	return &Training{
		Epochs:       1000,
		LearningRate: 1e-2,
		Optimizer:    "sgd",
		Seed:         1,
	}
}

// NodeKind names the block type that declared a node.
type NodeKind string

// Node kinds.
const (
	KindInput       NodeKind = "input"
	KindLinear      NodeKind = "linear"
	KindDense       NodeKind = "dense"
	KindSigmoid     NodeKind = "sigmoid"
	KindAdd         NodeKind = "add"
	KindWeightedSum NodeKind = "weighted_sum"
	KindMSE         NodeKind = "mse"
)

// Feed roles bind an input to a dataset column set.
const (
	FeedFeatures = "features"
	FeedTargets  = "targets"
)

// Ref is a named group of references from one node to others, e.g. the
// "weights" of a weighted_sum.
type Ref struct {
	Role  string
	Names []string
}

// Literal is a constant tensor value written in a configuration.
type Literal struct {
	Shape []int
	Data  []float64
}

// Node is one declared graph node.
type Node struct {
	Kind NodeKind
	Name string
	Refs []Ref // In the order the node kind consumes them

	// Input nodes. Exactly one of Feed, Value and Shape is set.
	Feed      string
	Value     *Literal
	Shape     []int
	Init      string // Initializer for Shape
	Trainable bool

	// Dense nodes.
	Units int
}

// Ref returns the names referenced under role, or nil.
func (n *Node) Ref(role string) []string {
	for _, r := range n.Refs {
		if r.Role == role {
			return r.Names
		}
	}
	return nil
}

// Dependencies returns every referenced name in consumption order.
func (n *Node) Dependencies() []string {
	var out []string
	for _, r := range n.Refs {
		out = append(out, r.Names...)
	}
	return out
}

// Validate checks that node names are unique and input nodes are well formed.
// It does not resolve references.
func (m *Model) Validate() error {
	seen := make(map[string]NodeKind, len(m.Nodes))
	for _, n := range m.Nodes {
		if n.Name == "" {
			return fmt.Errorf("%s node without a name", n.Kind)
		}
		if kind, ok := seen[n.Name]; ok {
			return fmt.Errorf("%s %q is already declared as a %s node", n.Kind, n.Name, kind)
		}
		seen[n.Name] = n.Kind

		switch n.Kind {
		case KindInput:
			if err := validateInput(n); err != nil {
				return err
			}
		case KindDense:
			if n.Units <= 0 {
				return fmt.Errorf("dense %q: units must be positive, got %d", n.Name, n.Units)
			}
		}
	}
	return nil
}

func validateInput(n *Node) error {
	set := 0
	if n.Feed != "" {
		set++
		if !slices.Contains([]string{FeedFeatures, FeedTargets}, n.Feed) {
			return fmt.Errorf("input %q: feed must be %q or %q, got %q", n.Name, FeedFeatures, FeedTargets, n.Feed)
		}
		if n.Trainable {
			return fmt.Errorf("input %q: fed inputs cannot be trainable", n.Name)
		}
	}
	if n.Value != nil {
		set++
	}
	if len(n.Shape) > 0 {
		set++
		for _, d := range n.Shape {
			if d <= 0 {
				return fmt.Errorf("input %q: shape %v has a non-positive dimension", n.Name, n.Shape)
			}
		}
	}
	if set != 1 {
		return fmt.Errorf("input %q: exactly one of feed, value and shape must be set", n.Name)
	}
	return nil
}
