package graph

import (
	"github.com/pkg/errors"

	"github.com/born-ml/miniflow/internal/tensor"
)

// mseRule computes the mean squared error between ground truth y and
// prediction a:
//
//	C = (1/m) Σ (y - a)²
//
// Both inputs are flattened to columns first, so y of shape [m] and a of
// shape [m 1] compare element by element instead of broadcasting to [m m].
// m is the element count.
//
// Backward pass:
//   - dC/dy =  (2/m)(y - a)
//   - dC/da = -(2/m)(y - a)
var mseRule = Rule{
	Name:     "mse",
	Arity:    exactly(2),
	Forward:  mseForward,
	Backward: mseBackward,
}

func mseDiff(y, a *tensor.Tensor) (*tensor.Tensor, error) {
	if y.NumElements() != a.NumElements() {
		return nil, shapeError("mse", errors.Errorf("%v ground truth values for %v predictions", y.Shape(), a.Shape()))
	}
	diff, err := y.Column().Sub(a.Column())
	if err != nil {
		return nil, shapeError("mse", err)
	}
	return diff, nil
}

func mseForward(in []*tensor.Tensor) (*tensor.Tensor, error) {
	diff, err := mseDiff(in[0], in[1])
	if err != nil {
		return nil, err
	}
	sq, err := diff.Mul(diff)
	if err != nil {
		return nil, shapeError("mse", err)
	}
	return tensor.Scalar(sq.Mean()), nil
}

func mseBackward(in []*tensor.Tensor, _, upstream *tensor.Tensor) ([]*tensor.Tensor, error) {
	y, a := in[0], in[1]
	diff, err := mseDiff(y, a)
	if err != nil {
		return nil, err
	}

	scale := 2 / float64(diff.NumElements()) * upstream.Sum()

	dy, err := diff.Scale(scale).Reshape(y.Shape())
	if err != nil {
		return nil, shapeError("mse", err)
	}
	da, err := diff.Scale(-scale).Reshape(a.Shape())
	if err != nil {
		return nil, shapeError("mse", err)
	}
	return []*tensor.Tensor{dy, da}, nil
}
