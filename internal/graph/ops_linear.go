package graph

import (
	"github.com/pkg/errors"

	"github.com/born-ml/miniflow/internal/tensor"
)

// linearRule computes output = X·W + b.
//
// X is a vector [k] or a batch [m k], W is a matrix [k n] and b broadcasts to
// the product's shape, typically [n].
//
// Backward pass:
//   - dL/dX = G·Wᵀ
//   - dL/dW = Xᵀ·G
//   - dL/db = G summed over the broadcast dimensions
//
// A vector X is treated as a single-row batch so the same formulas apply.
var linearRule = Rule{
	Name:     "linear",
	Arity:    exactly(3),
	Forward:  linearForward,
	Backward: linearBackward,
}

func linearForward(in []*tensor.Tensor) (*tensor.Tensor, error) {
	x, w, b := in[0], in[1], in[2]
	if x.Rank() == 0 {
		return nil, shapeError("linear", errors.Errorf("input must be a vector or matrix, got scalar"))
	}
	if w.Rank() != 2 {
		return nil, shapeError("linear", errors.Errorf("weights must be a matrix, got shape %v", w.Shape()))
	}

	xw, err := x.MatMul(w)
	if err != nil {
		return nil, shapeError("linear", err)
	}
	out, err := xw.Add(b)
	if err != nil {
		return nil, shapeError("linear", err)
	}
	if !out.Shape().Equal(xw.Shape()) {
		return nil, shapeError("linear", errors.Errorf("bias shape %v does not broadcast to %v", b.Shape(), xw.Shape()))
	}
	return out, nil
}

func linearBackward(in []*tensor.Tensor, _, upstream *tensor.Tensor) ([]*tensor.Tensor, error) {
	x, w, b := in[0], in[1], in[2]
	x2 := x.AsMatrix()
	g2 := upstream.AsMatrix()

	dx2, err := g2.MatMul(w.Transpose())
	if err != nil {
		return nil, shapeError("linear", err)
	}
	dx, err := dx2.Reshape(x.Shape())
	if err != nil {
		return nil, shapeError("linear", err)
	}

	dw, err := x2.Transpose().MatMul(g2)
	if err != nil {
		return nil, shapeError("linear", err)
	}

	db, err := upstream.SumTo(b.Shape())
	if err != nil {
		return nil, shapeError("linear", err)
	}
	return []*tensor.Tensor{dx, dw, db}, nil
}

// weightedSumRule is the scalar form of a linear node:
//
//	output = x1·w1 + x2·w2 + ... + xk·wk + b
//
// Inputs are ordered x1..xk, w1..wk, b. Each operand may be a scalar or any
// tensor broadcasting to the output shape.
//
// Backward pass:
//   - dL/dxi = G·wi
//   - dL/dwi = G·xi
//   - dL/db  = G
//
// each summed back to the operand's shape.
var weightedSumRule = Rule{
	Name:     "weighted_sum",
	Arity:    func(n int) bool { return n >= 3 && n%2 == 1 },
	Forward:  weightedSumForward,
	Backward: weightedSumBackward,
}

func weightedSumForward(in []*tensor.Tensor) (*tensor.Tensor, error) {
	k := (len(in) - 1) / 2
	var total *tensor.Tensor
	for i := 0; i < k; i++ {
		term, err := in[i].Mul(in[k+i])
		if err != nil {
			return nil, shapeError("weighted_sum", err)
		}
		if total == nil {
			total = term
			continue
		}
		if total, err = total.Add(term); err != nil {
			return nil, shapeError("weighted_sum", err)
		}
	}

	out, err := total.Add(in[2*k])
	if err != nil {
		return nil, shapeError("weighted_sum", err)
	}
	return out, nil
}

func weightedSumBackward(in []*tensor.Tensor, _, upstream *tensor.Tensor) ([]*tensor.Tensor, error) {
	k := (len(in) - 1) / 2
	grads := make([]*tensor.Tensor, len(in))

	for i := 0; i < k; i++ {
		x, w := in[i], in[k+i]

		gx, err := upstream.Mul(w)
		if err != nil {
			return nil, shapeError("weighted_sum", err)
		}
		if grads[i], err = gx.SumTo(x.Shape()); err != nil {
			return nil, shapeError("weighted_sum", err)
		}

		gw, err := upstream.Mul(x)
		if err != nil {
			return nil, shapeError("weighted_sum", err)
		}
		if grads[k+i], err = gw.SumTo(w.Shape()); err != nil {
			return nil, shapeError("weighted_sum", err)
		}
	}

	db, err := upstream.SumTo(in[2*k].Shape())
	if err != nil {
		return nil, shapeError("weighted_sum", err)
	}
	grads[2*k] = db
	return grads, nil
}
