// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the immutable float64 tensors that flow through
// MiniFlow graphs.
//
// # Overview
//
// Tensors have rank 0 (scalar), 1 (vector) or 2 (matrix) and are backed by
// gonum matrices. Every operation returns a new tensor.
//
// # Basic Usage
//
//	x, _ := tensor.FromRows([][]float64{{1, 2}, {3, 4}})
//	w := tensor.Vector(0.5, -1)
//
//	y, _ := x.Mul(w)      // Broadcast over rows: [[0.5 -2] [1.5 -4]]
//	z, _ := x.MatMul(w)   // Matrix-vector product: [-1.5 -2.5]
//	s := z.Sum()          // -4
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting restricted to rank 2:
// shapes are right-aligned and size-1 dimensions stretch. SumTo reduces a
// broadcast result back to an operand's shape, which is how gradients of
// broadcast operands are formed.
package tensor
