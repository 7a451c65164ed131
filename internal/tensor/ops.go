package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Add performs element-wise addition with broadcasting.
func (t *Tensor) Add(other *Tensor) (*Tensor, error) {
	if t.shape.Equal(other.shape) {
		var out mat.Dense
		out.Add(t.data, other.data)
		return newTensor(t.shape.Clone(), &out), nil
	}
	return t.broadcast(other, func(a, b float64) float64 { return a + b })
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor) Sub(other *Tensor) (*Tensor, error) {
	if t.shape.Equal(other.shape) {
		var out mat.Dense
		out.Sub(t.data, other.data)
		return newTensor(t.shape.Clone(), &out), nil
	}
	return t.broadcast(other, func(a, b float64) float64 { return a - b })
}

// Mul performs element-wise (Hadamard) multiplication with broadcasting.
func (t *Tensor) Mul(other *Tensor) (*Tensor, error) {
	if t.shape.Equal(other.shape) {
		var out mat.Dense
		out.MulElem(t.data, other.data)
		return newTensor(t.shape.Clone(), &out), nil
	}
	return t.broadcast(other, func(a, b float64) float64 { return a * b })
}

// broadcast applies fn element-wise after broadcasting both operands to a common shape.
func (t *Tensor) broadcast(other *Tensor, fn func(a, b float64) float64) (*Tensor, error) {
	shape, _, err := BroadcastShapes(t.shape, other.shape)
	if err != nil {
		return nil, err
	}

	rows, cols := shape.dims()
	aRows, aCols := t.data.Dims()
	bRows, bCols := other.data.Dims()

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			a := t.data.At(broadcastIndex(i, aRows), broadcastIndex(j, aCols))
			b := other.data.At(broadcastIndex(i, bRows), broadcastIndex(j, bCols))
			out.Set(i, j, fn(a, b))
		}
	}
	return newTensor(shape, out), nil
}

// broadcastIndex maps an output index onto an operand dimension of size n.
func broadcastIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	return i
}

// MatMul computes the dot product of two tensors with NumPy np.dot semantics:
//
//	[m k] · [k n] → [m n]
//	[k]   · [k n] → [n]
//	[m k] · [k]   → [m]
//	[k]   · [k]   → scalar
//
// A scalar operand multiplies element-wise.
func (t *Tensor) MatMul(other *Tensor) (*Tensor, error) {
	if t.Rank() == 0 || other.Rank() == 0 {
		return t.Mul(other)
	}

	inner := t.shape[len(t.shape)-1]
	otherInner := other.shape[0]
	if inner != otherInner {
		return nil, fmt.Errorf("%w: cannot multiply %v by %v (inner dimensions %d vs %d)",
			ErrShapeMismatch, t.shape, other.shape, inner, otherInner)
	}

	var out mat.Dense
	switch {
	case t.Rank() == 2 && other.Rank() == 2:
		out.Mul(t.data, other.data)
		return newTensor(Shape{t.shape[0], other.shape[1]}, &out), nil
	case t.Rank() == 1 && other.Rank() == 2:
		out.Mul(t.data, other.data)
		return newTensor(Shape{other.shape[1]}, &out), nil
	case t.Rank() == 2 && other.Rank() == 1:
		out.Mul(t.data, other.data.T())
		// m×1 column back to row storage for a vector.
		return newTensor(Shape{t.shape[0]}, mat.NewDense(1, t.shape[0], mat.Col(nil, 0, &out))), nil
	default:
		out.Mul(t.data, other.data.T())
		return newTensor(Shape{}, &out), nil
	}
}

// Scale multiplies every element by f.
func (t *Tensor) Scale(f float64) *Tensor {
	var out mat.Dense
	out.Scale(f, t.data)
	return newTensor(t.shape.Clone(), &out)
}

// Apply returns a tensor with fn applied to every element.
func (t *Tensor) Apply(fn func(float64) float64) *Tensor {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return fn(v) }, t.data)
	return newTensor(t.shape.Clone(), &out)
}

// Exp computes e^x element-wise.
func (t *Tensor) Exp() *Tensor {
	return t.Apply(math.Exp)
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	return mat.Sum(t.data)
}

// Mean returns the arithmetic mean of all elements.
func (t *Tensor) Mean() float64 {
	return t.Sum() / float64(t.NumElements())
}

// SumTo reduces t to shape by summing over the dimensions that broadcasting expanded.
//
// It is the adjoint of broadcasting: if b was broadcast to t's shape in a forward
// operation, t.SumTo(b.Shape()) is the gradient that flows back to b.
//
// Example:
//
//	g := tensor.Ones(tensor.Shape{4, 3})
//	db, _ := g.SumTo(tensor.Shape{3}) // [4 4 4]
func (t *Tensor) SumTo(shape Shape) (*Tensor, error) {
	if t.shape.Equal(shape) {
		return t, nil
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	broadcast, _, err := BroadcastShapes(shape, t.shape)
	if err != nil || !broadcast.Equal(t.shape) {
		return nil, fmt.Errorf("%w: cannot reduce %v to %v", ErrShapeMismatch, t.shape, shape)
	}

	rows, cols := shape.dims()
	srcRows, srcCols := t.data.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < srcRows; i++ {
		for j := 0; j < srcCols; j++ {
			ti, tj := broadcastIndex(i, rows), broadcastIndex(j, cols)
			out.Set(ti, tj, out.At(ti, tj)+t.data.At(i, j))
		}
	}
	return newTensor(shape.Clone(), out), nil
}

// Transpose swaps the axes of a matrix.
// Scalars and vectors are returned unchanged, as in NumPy.
func (t *Tensor) Transpose() *Tensor {
	if t.Rank() < 2 {
		return t
	}
	return newTensor(Shape{t.shape[1], t.shape[0]}, mat.DenseCopyOf(t.data.T()))
}

// Reshape returns a tensor with the same elements in a new shape.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if shape.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("%w: cannot reshape %v (%d elements) to %v (%d elements)",
			ErrShapeMismatch, t.shape, t.NumElements(), shape, shape.NumElements())
	}
	return FromSlice(t.Data(), shape)
}

// AsMatrix returns t as a rank-2 tensor: scalars become [1 1] and vectors [1 n].
func (t *Tensor) AsMatrix() *Tensor {
	rows, cols := t.shape.dims()
	return newTensor(Shape{rows, cols}, t.data)
}

// Column returns all elements as an [n 1] column, like NumPy reshape(-1, 1).
func (t *Tensor) Column() *Tensor {
	n := t.NumElements()
	return newTensor(Shape{n, 1}, mat.NewDense(n, 1, t.Data()))
}
