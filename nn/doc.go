// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides layer builders that add nodes to a MiniFlow graph.
//
// # Overview
//
// This package contains:
//   - Layers: Linear
//   - Activations: Sigmoid
//   - Loss functions: MSELoss
//   - Utilities: Sequential, Module interface, Parameter
//   - Initialization: Xavier, Randn, Zeros, Ones
//
// # Basic Usage
//
//	rng := rand.New(rand.NewSource(1))
//	model := nn.NewSequential(
//	    nn.NewLinear("l1", 13, 10, nn.Randn, rng),
//	    nn.NewSigmoid(),
//	    nn.NewLinear("l2", 10, 1, nn.Randn, rng),
//	)
//
//	g := graph.New()
//	reg, err := nn.NewRegression(g, model)
//
//	feed := nn.Feed(reg.Params)
//	feed[reg.X] = x
//	feed[reg.Y] = y
//	order, err := g.Schedule(feed)
//
// # Parameters
//
// A Parameter is bound to a trainable Source node the first time a module
// is applied to a graph. Applying the same module again reuses its nodes, so
// weights are shared.
package nn
