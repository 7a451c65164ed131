// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides computation graphs with automatic differentiation.
//
// A graph is built from Source nodes and operation nodes (Linear, Sigmoid,
// Add, WeightedSum, MSE). Schedule orders the nodes reachable from a feed with
// Kahn's algorithm, Forward evaluates them, Backward propagates gradients in
// reverse order and ApplyGradientStep performs one gradient descent update.
//
// Example:
//
//	g := graph.New()
//	x, y := g.Source("x"), g.Source("y")
//	w, b := g.Source("w"), g.Source("b")
//	_ = g.SetTrainable(w)
//	_ = g.SetTrainable(b)
//	cost := g.MSE(y, g.Linear(x, w, b))
//
//	order, err := g.Schedule(graph.Feed{x: xv, y: yv, w: wv, b: bv})
//	for range 100 {
//	    _, err = g.Forward(order)
//	    err = g.Backward(order)
//	    err = g.ApplyGradientStep(g.Trainables(), 0.01)
//	}
//
// Custom node kinds are added with Register.
package graph

import (
	"github.com/born-ml/miniflow/internal/graph"
)

// Graph is an arena of computation nodes.
type Graph = graph.Graph

// NodeID identifies a node within its graph.
type NodeID = graph.NodeID

// Kind identifies a node's operation.
type Kind = graph.Kind

// Rule defines a node kind's arity and forward and backward functions.
type Rule = graph.Rule

// Feed maps Source nodes to their values.
type Feed = graph.Feed

// Order is a topological evaluation order.
type Order = graph.Order

// UpdateFunc computes a trainable node's new value from its gradient.
type UpdateFunc = graph.UpdateFunc

// ShapeError reports operands a node kind cannot combine.
type ShapeError = graph.ShapeError

// Built-in node kinds.
const (
	KindSource      = graph.KindSource
	KindLinear      = graph.KindLinear
	KindSigmoid     = graph.KindSigmoid
	KindMSE         = graph.KindMSE
	KindAdd         = graph.KindAdd
	KindWeightedSum = graph.KindWeightedSum
)

// Errors returned by graph operations. Match them with errors.Is.
var (
	ErrCycleDetected   = graph.ErrCycleDetected
	ErrUnknownSource   = graph.ErrUnknownSource
	ErrArityMismatch   = graph.ErrArityMismatch
	ErrMissingForward  = graph.ErrMissingForward
	ErrMissingBackward = graph.ErrMissingBackward
	ErrUnknownNode     = graph.ErrUnknownNode
	ErrUnknownKind     = graph.ErrUnknownKind
	ErrMissingValue    = graph.ErrMissingValue
	ErrEmptyOrder      = graph.ErrEmptyOrder
	ErrNotEvaluated    = graph.ErrNotEvaluated
	ErrNotTrainable    = graph.ErrNotTrainable
	ErrStaleGradient   = graph.ErrStaleGradient
)

// New creates an empty graph.
func New() *Graph {
	return graph.New()
}

// Register adds a node kind and returns its Kind.
func Register(rule Rule) (Kind, error) {
	return graph.Register(rule)
}

// MustRegister is like Register but panics on error.
func MustRegister(rule Rule) Kind {
	return graph.MustRegister(rule)
}

// KindByName returns the registered kind called name.
func KindByName(name string) (Kind, bool) {
	return graph.KindByName(name)
}
