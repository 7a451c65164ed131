// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/miniflow/internal/tensor"
)

// Tensor is an immutable rank 0-2 float64 tensor.
type Tensor = tensor.Tensor

// Shape is the list of dimensions of a tensor.
type Shape = tensor.Shape

// MaxRank is the highest supported rank.
const MaxRank = tensor.MaxRank

// ErrShapeMismatch is returned for operands with incompatible shapes.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// Scalar creates a rank-0 tensor.
func Scalar(v float64) *Tensor {
	return tensor.Scalar(v)
}

// Vector creates a rank-1 tensor. Panics if values is empty.
func Vector(values ...float64) *Tensor {
	return tensor.Vector(values...)
}

// FromSlice creates a tensor from row-major data.
//
// Example:
//
//	m, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromRows creates a matrix from equally sized rows.
func FromRows(rows [][]float64) (*Tensor, error) {
	return tensor.FromRows(rows)
}

// FromDense creates a matrix from a gonum matrix. The data is copied.
func FromDense(m mat.Matrix) *Tensor {
	return tensor.FromDense(m)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// Randn creates a tensor of standard normal samples.
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	return tensor.Randn(shape, rng)
}

// Uniform creates a tensor of samples drawn uniformly from [lo, hi).
func Uniform(shape Shape, lo, hi float64, rng *rand.Rand) *Tensor {
	return tensor.Uniform(shape, lo, hi, rng)
}
