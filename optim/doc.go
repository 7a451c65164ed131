// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training MiniFlow graphs.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// Optimizers update trainable Source nodes from the gradients of the last
// Backward pass. Each Step consumes those gradients, so the graph must be
// evaluated again before the next Step.
//
// # Training Loop Pattern
//
//	optimizer := optim.NewSGD(g, g.Trainables(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//
//	for range numEpochs {
//	    // 1. Supply the next batch
//	    err := g.Refresh(graph.Feed{x: batchX, y: batchY})
//
//	    // 2. Forward pass
//	    loss, err := g.Forward(order)
//
//	    // 3. Backward pass
//	    err = g.Backward(order)
//
//	    // 4. Update parameters
//	    err = optimizer.Step()
//	}
package optim
