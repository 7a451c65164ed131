package tensor

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Scalar creates a rank-0 tensor.
func Scalar(v float64) *Tensor {
	return newTensor(Shape{}, mat.NewDense(1, 1, []float64{v}))
}

// Vector creates a rank-1 tensor from a slice. The slice is copied.
// Panics if values is empty.
func Vector(values ...float64) *Tensor {
	t, err := FromSlice(values, Shape{len(values)})
	if err != nil {
		panic(err)
	}
	return t
}

// FromSlice creates a tensor from row-major data.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}

	rows, cols := shape.dims()
	buf := make([]float64, len(data))
	copy(buf, data)
	return newTensor(shape.Clone(), mat.NewDense(rows, cols, buf)), nil
}

// FromRows creates a matrix from a slice of equally sized rows.
func FromRows(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: matrix must have at least one row and one column", ErrShapeMismatch)
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return FromSlice(data, Shape{len(rows), cols})
}

// FromDense creates a matrix tensor from any gonum matrix. The data is copied.
func FromDense(m mat.Matrix) *Tensor {
	rows, cols := m.Dims()
	return newTensor(Shape{rows, cols}, mat.DenseCopyOf(m))
}

// Zeros creates a tensor filled with zeros.
// Panics if the shape is invalid.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
func Zeros(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	rows, cols := shape.dims()
	return newTensor(shape.Clone(), mat.NewDense(rows, cols, nil))
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full(tensor.Shape{3, 3}, 3.14)
func Full(shape Shape, value float64) *Tensor {
	t := Zeros(shape)
	rows, cols := t.data.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			t.data.Set(i, j, value)
		}
	}
	return t
}

// ZerosLike creates a zero tensor with the same shape as t.
func ZerosLike(t *Tensor) *Tensor {
	return Zeros(t.shape)
}

// OnesLike creates a tensor of ones with the same shape as t.
func OnesLike(t *Tensor) *Tensor {
	return Ones(t.shape)
}

// Randn creates a tensor with values drawn from the standard normal distribution.
// Note: Uses math/rand (not crypto/rand) - appropriate for ML/statistical purposes.
//
// Example:
//
//	rng := rand.New(rand.NewSource(1))
//	w := tensor.Randn(tensor.Shape{13, 10}, rng)
func Randn(shape Shape, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	rows, cols := t.data.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			t.data.Set(i, j, rng.NormFloat64())
		}
	}
	return t
}

// Uniform creates a tensor with values drawn uniformly from [lo, hi).
func Uniform(shape Shape, lo, hi float64, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	rows, cols := t.data.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			t.data.Set(i, j, lo+rng.Float64()*(hi-lo))
		}
	}
	return t
}
