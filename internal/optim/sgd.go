package optim

import (
	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Without momentum a step is exactly Graph.ApplyGradientStep.
//
// Example:
//
//	optimizer := optim.NewSGD(g, g.Trainables(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	g          *graph.Graph
	params     []graph.NodeID
	lr         float64
	momentum   float64
	velocities map[graph.NodeID]*tensor.Tensor
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer for the given trainable nodes of g.
//
// Example:
//
//	sgd := optim.NewSGD(g, g.Trainables(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(g *graph.Graph, params []graph.NodeID, config SGDConfig) *SGD {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		g:          g,
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[graph.NodeID]*tensor.Tensor),
	}
}

// Step performs a single optimization step.
//
// Applies gradient descent update to all parameters:
//   - Without momentum: param -= lr * grad
//   - With momentum: velocity = momentum * velocity + grad, param -= lr * velocity
//
// Velocities are committed only when every parameter was updated.
func (s *SGD) Step() error {
	if s.momentum == 0 {
		return s.g.ApplyGradientStep(s.params, s.lr)
	}

	next := make(map[graph.NodeID]*tensor.Tensor, len(s.params))
	err := s.g.UpdateTrainables(s.params, func(id graph.NodeID, value, grad *tensor.Tensor) (*tensor.Tensor, error) {
		velocity, ok := s.velocities[id]
		if !ok {
			velocity = tensor.ZerosLike(value)
		}

		// velocity = momentum * velocity + grad
		velocity, err := velocity.Scale(s.momentum).Add(grad)
		if err != nil {
			return nil, err
		}
		next[id] = velocity

		// param -= lr * velocity
		return value.Sub(velocity.Scale(s.lr))
	})
	if err != nil {
		return err
	}

	for id, v := range next {
		s.velocities[id] = v
	}
	return nil
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// Velocity returns the momentum buffer of a parameter, or nil before its
// first update.
func (s *SGD) Velocity(id graph.NodeID) *tensor.Tensor {
	return s.velocities[id]
}
