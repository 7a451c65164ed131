package nn

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/born-ml/miniflow/internal/tensor"
)

// Initializer creates the initial value of a parameter.
//
// fanIn and fanOut are the number of input and output units of the layer
// owning the parameter.
type Initializer func(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This initialization helps maintain variance of activations across layers.
func Xavier(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) *tensor.Tensor {
	// Xavier/Glorot bound: sqrt(6 / (fan_in + fan_out))
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.Uniform(shape, -bound, bound, rng)
}

// Randn draws every value from the standard normal distribution N(0, 1).
func Randn(shape tensor.Shape, _, _ int, rng *rand.Rand) *tensor.Tensor {
	return tensor.Randn(shape, rng)
}

// Zeros creates a tensor filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros(shape tensor.Shape, _, _ int, _ *rand.Rand) *tensor.Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape tensor.Shape, _, _ int, _ *rand.Rand) *tensor.Tensor {
	return tensor.Ones(shape)
}

// InitializerByName returns the initializer called name: "xavier", "randn",
// "zeros" or "ones".
func InitializerByName(name string) (Initializer, error) {
	switch strings.ToLower(name) {
	case "xavier", "glorot":
		return Xavier, nil
	case "randn", "normal":
		return Randn, nil
	case "zeros":
		return Zeros, nil
	case "ones":
		return Ones, nil
	default:
		return nil, fmt.Errorf("unknown initializer %q (supported: xavier, randn, zeros, ones)", name)
	}
}
