package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/holocron/internal/tensor"
)

// KaimingNormal initializes a weight tensor from N(0, 2/fanIn).
//
// This is the He initialization used for ReLU networks (fan_in mode).
// rng must not be nil; pass a seeded source for reproducible weights.
func KaimingNormal(fanIn int, shape tensor.Shape, rng *rand.Rand) *tensor.Tensor {
	std := math.Sqrt(2.0 / float64(fanIn))
	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		data[i] = rng.NormFloat64() * std
	}
	return t
}

// Xavier (Glorot) uniform initialization: U(-sqrt(6/(fanIn+fanOut)), +sqrt(...)).
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) *tensor.Tensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		data[i] = (rng.Float64()*2.0 - 1.0) * bound
	}
	return t
}

// Zeros creates a tensor filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros(shape tensor.Shape) *tensor.Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones (batch-norm scale init).
func Ones(shape tensor.Shape) *tensor.Tensor {
	return tensor.Full(shape, 1)
}
