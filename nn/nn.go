// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/holocron/internal/nn"
	"github.com/born-ml/holocron/internal/tensor"
)

// Parameter represents a trainable parameter.
type Parameter = nn.Parameter

// Module is anything that exposes trainable parameters.
type Module = nn.Module

// NewParameter creates a new trainable parameter around an initialized tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// CountParameters returns the total number of scalar weights in params.
func CountParameters(params []*Parameter) int {
	return nn.CountParameters(params)
}

// ZeroGrad clears the gradient of every parameter.
func ZeroGrad(params []*Parameter) {
	nn.ZeroGrad(params)
}

// KaimingNormal initializes a weight tensor from N(0, 2/fanIn).
func KaimingNormal(fanIn int, shape tensor.Shape, rng *rand.Rand) *tensor.Tensor {
	return nn.KaimingNormal(fanIn, shape, rng)
}

// Xavier initializes a weight tensor from the Glorot uniform distribution.
func Xavier(fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand) *tensor.Tensor {
	return nn.Xavier(fanIn, fanOut, shape, rng)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape tensor.Shape) *tensor.Tensor {
	return nn.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape tensor.Shape) *tensor.Tensor {
	return nn.Ones(shape)
}
