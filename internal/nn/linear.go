package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x·W + b
// where:
//   - x is the input with shape [batch_size, in_features] (or [in_features])
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output with shape [batch_size, out_features]
//
// Biases are initialized to zeros.
//
// Example:
//
//	layer := nn.NewLinear("hidden", 13, 10, nn.Xavier, rng)
//	out, err := layer.Forward(g, x) // Linear node, shape [m 10] for x of shape [m 13]
type Linear struct {
	name        string
	inFeatures  int
	outFeatures int
	weight      *Parameter // [in_features, out_features]
	bias        *Parameter // [out_features]
}

// NewLinear creates a new Linear layer whose weights are drawn by weightInit.
//
// Parameter names are "<name>.weight" and "<name>.bias".
func NewLinear(name string, inFeatures, outFeatures int, weightInit Initializer, rng *rand.Rand) *Linear {
	weightShape := tensor.Shape{inFeatures, outFeatures}
	biasShape := tensor.Shape{outFeatures}

	return &Linear{
		name:        name,
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter(name+".weight", weightInit(weightShape, inFeatures, outFeatures, rng)),
		bias:        NewParameter(name+".bias", Zeros(biasShape, inFeatures, outFeatures, rng)),
	}
}

// Forward adds a Linear node computing input·W + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear) Forward(g *graph.Graph, input graph.NodeID) (graph.NodeID, error) {
	w, err := l.weight.Bind(g)
	if err != nil {
		return 0, fmt.Errorf("linear %q: %w", l.name, err)
	}
	b, err := l.bias.Bind(g)
	if err != nil {
		return 0, fmt.Errorf("linear %q: %w", l.name, err)
	}

	out, err := g.Construct(graph.KindLinear, input, w, b)
	if err != nil {
		return 0, fmt.Errorf("linear %q: %w", l.name, err)
	}
	if err := g.SetName(out, l.name); err != nil {
		return 0, err
	}
	return out, nil
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}
