// Package tensor implements the immutable numeric arrays that flow between
// MiniFlow graph nodes.
//
// A Tensor is a float64 array of rank 0 (scalar), 1 (vector) or 2 (matrix)
// stored in a gonum dense matrix. Vectors are stored as a single row and
// scalars as a 1×1 matrix, so matrix products and broadcasting follow NumPy
// semantics for these ranks.
//
// Every operation returns a new Tensor. Receivers and arguments are never
// modified, which lets graph nodes publish their values without copying.
package tensor

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Tensor is an immutable float64 array of rank 0, 1 or 2.
//
// Example:
//
//	x, _ := tensor.FromRows([][]float64{{-1, -2}, {-1, -2}})
//	w, _ := tensor.FromRows([][]float64{{2, -3}, {2, -3}})
//	xw, _ := x.MatMul(w)
type Tensor struct {
	shape Shape
	data  *mat.Dense // rows×cols storage, see Shape.dims
}

// newTensor wraps dense storage. The caller hands over ownership of data.
func newTensor(shape Shape, data *mat.Dense) *Tensor {
	return &Tensor{shape: shape, data: data}
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape.Clone()
}

// Rank returns the number of dimensions (0 for scalars).
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Data returns a row-major copy of the tensor's elements.
func (t *Tensor) Data() []float64 {
	rows, cols := t.data.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		out = append(out, t.data.RawRowView(i)...)
	}
	return out
}

// Item returns the value of a single-element tensor.
// Panics if the tensor holds more than one element.
func (t *Tensor) Item() float64 {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() only works for single-element tensors, got shape %v", t.shape))
	}
	return t.data.At(0, 0)
}

// At returns the element at the given indices.
// Panics if the number of indices does not match the rank or an index is out of bounds.
//
// Example:
//
//	m := tensor.Zeros(tensor.Shape{3, 4})
//	value := m.At(1, 2) // Row 1, column 2
func (t *Tensor) At(indices ...int) float64 {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
	}

	switch len(indices) {
	case 0:
		return t.data.At(0, 0)
	case 1:
		return t.data.At(0, indices[0])
	default:
		return t.data.At(indices[0], indices[1])
	}
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	return newTensor(t.shape.Clone(), mat.DenseCopyOf(t.data))
}

// Dense returns a copy of the tensor's storage as a gonum matrix.
// Vectors come back as 1×n and scalars as 1×1.
func (t *Tensor) Dense() *mat.Dense {
	return mat.DenseCopyOf(t.data)
}

// Equal reports whether both tensors have the same shape and identical elements.
func (t *Tensor) Equal(other *Tensor) bool {
	if other == nil || !t.shape.Equal(other.shape) {
		return false
	}
	return mat.Equal(t.data, other.data)
}

// AllClose reports whether both tensors have the same shape and every pair of
// elements differs by at most tol (absolute or relative).
func (t *Tensor) AllClose(other *Tensor, tol float64) bool {
	if other == nil || !t.shape.Equal(other.shape) {
		return false
	}
	return mat.EqualApprox(t.data, other.data, tol)
}

// String renders the tensor for logs and test failures.
func (t *Tensor) String() string {
	if len(t.shape) == 0 {
		return fmt.Sprintf("%g", t.data.At(0, 0))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v", mat.Formatted(t.data, mat.Squeeze()))
	return fmt.Sprintf("Tensor%v%s", []int(t.shape), strings.ReplaceAll(sb.String(), "\n", " "))
}
