// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/miniflow/graph"
	"github.com/born-ml/miniflow/nn"
)

// TestModuleInterface verifies that concrete types implement Module interface.
func TestModuleInterface(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name   string
		module nn.Module
		params int
	}{
		{name: "Linear", module: nn.NewLinear("fc", 10, 5, nn.Xavier, rng), params: 2},
		{name: "Sigmoid", module: nn.NewSigmoid(), params: 0},
		{name: "Sequential", module: nn.NewRegressor(10, 5, rng), params: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			x := g.Source("x")
			if _, err := tt.module.Forward(g, x); err != nil {
				t.Fatalf("Forward failed: %v", err)
			}

			if got := len(tt.module.Parameters()); got != tt.params {
				t.Errorf("Parameters() returned %d parameters, want %d", got, tt.params)
			}
			if got := len(g.Trainables()); got != tt.params {
				t.Errorf("graph has %d trainable nodes, want %d", got, tt.params)
			}
		})
	}
}
