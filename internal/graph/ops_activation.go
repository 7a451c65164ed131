package graph

import (
	"math"

	"github.com/born-ml/miniflow/internal/tensor"
)

// sigmoidRule applies the logistic function σ(x) = 1 / (1 + e^-x) element-wise.
//
// Backward uses the forward output s instead of recomputing it:
//
//	dL/dx = G ⊙ s ⊙ (1 - s)
var sigmoidRule = Rule{
	Name:     "sigmoid",
	Arity:    exactly(1),
	Forward:  sigmoidForward,
	Backward: sigmoidBackward,
}

// Sigmoid evaluates the logistic function without overflowing e^-x for
// large negative x.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func sigmoidForward(in []*tensor.Tensor) (*tensor.Tensor, error) {
	return in[0].Apply(Sigmoid), nil
}

func sigmoidBackward(_ []*tensor.Tensor, output, upstream *tensor.Tensor) ([]*tensor.Tensor, error) {
	local := output.Apply(func(s float64) float64 { return s * (1 - s) })
	grad, err := upstream.Mul(local)
	if err != nil {
		return nil, shapeError("sigmoid", err)
	}
	return []*tensor.Tensor{grad}, nil
}

// addRule sums two or more inputs with broadcasting. Each input receives the
// upstream gradient summed back to its own shape.
var addRule = Rule{
	Name:     "add",
	Arity:    atLeast(2),
	Forward:  addForward,
	Backward: addBackward,
}

func addForward(in []*tensor.Tensor) (*tensor.Tensor, error) {
	out := in[0]
	for _, t := range in[1:] {
		var err error
		if out, err = out.Add(t); err != nil {
			return nil, shapeError("add", err)
		}
	}
	return out, nil
}

func addBackward(in []*tensor.Tensor, _, upstream *tensor.Tensor) ([]*tensor.Tensor, error) {
	grads := make([]*tensor.Tensor, len(in))
	for i, t := range in {
		g, err := upstream.SumTo(t.Shape())
		if err != nil {
			return nil, shapeError("add", err)
		}
		grads[i] = g
	}
	return grads, nil
}
