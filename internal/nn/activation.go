package nn

import (
	"github.com/born-ml/miniflow/internal/graph"
)

// Sigmoid is a sigmoid activation module.
//
// Applies the element-wise function: σ(x) = 1 / (1 + exp(-x))
//
// Output range is (0, 1).
//
// Example:
//
//	sigmoid := nn.NewSigmoid()
//	out, err := sigmoid.Forward(g, hidden)
type Sigmoid struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

// Forward adds a Sigmoid node consuming input.
func (s *Sigmoid) Forward(g *graph.Graph, input graph.NodeID) (graph.NodeID, error) {
	return g.Construct(graph.KindSigmoid, input)
}

// Parameters returns an empty slice (Sigmoid has no trainable parameters).
func (s *Sigmoid) Parameters() []*Parameter {
	return nil
}
