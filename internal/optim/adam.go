package optim

import (
	"math"

	"github.com/born-ml/miniflow/internal/graph"
	"github.com/born-ml/miniflow/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	optimizer := optim.NewAdam(g, g.Trainables(), optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam struct {
	g      *graph.Graph
	params []graph.NodeID
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int                        // Timestep for bias correction
	m      map[graph.NodeID][]float64 // First moment estimates
	v      map[graph.NodeID][]float64 // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(g *graph.Graph, params []graph.NodeID, config AdamConfig) *Adam {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		g:      g,
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[graph.NodeID][]float64),
		v:      make(map[graph.NodeID][]float64),
	}
}

// Step performs a single optimization step using Adam algorithm.
//
// Applies Adam update to all parameters:
//  1. Update biased first moment estimate
//  2. Update biased second moment estimate
//  3. Compute bias-corrected moment estimates
//  4. Update parameters
//
// The timestep and moments advance only if every parameter was updated.
func (a *Adam) Step() error {
	t := a.t + 1

	// bias_correction1 = 1 - beta1^t
	// bias_correction2 = 1 - beta2^t
	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(t))

	nextM := make(map[graph.NodeID][]float64, len(a.params))
	nextV := make(map[graph.NodeID][]float64, len(a.params))

	err := a.g.UpdateTrainables(a.params, func(id graph.NodeID, value, grad *tensor.Tensor) (*tensor.Tensor, error) {
		gradData := grad.Data()
		paramData := value.Data()

		m := make([]float64, len(paramData))
		v := make([]float64, len(paramData))
		copy(m, a.m[id])
		copy(v, a.v[id])

		for i := range paramData {
			g := gradData[i]
			m[i] = a.beta1*m[i] + (1.0-a.beta1)*g
			v[i] = a.beta2*v[i] + (1.0-a.beta2)*g*g

			mHat := m[i] / biasCorrection1
			vHat := v[i] / biasCorrection2
			paramData[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}

		nextM[id], nextV[id] = m, v
		return tensor.FromSlice(paramData, value.Shape())
	})
	if err != nil {
		return err
	}

	a.t = t
	for id := range nextM {
		a.m[id], a.v[id] = nextM[id], nextV[id]
	}
	return nil
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
//
// Useful for monitoring optimizer state.
func (a *Adam) GetTimestep() int {
	return a.t
}
