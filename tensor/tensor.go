// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// Tensor is a dense float64 tensor.
type Tensor = tensor.Tensor

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// Backend computes out-of-place tensor operations.
type Backend = tensor.Backend

// ErrShapeMismatch is returned when two tensors' shapes differ.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// ZerosLike creates a zero-filled tensor with t's shape.
func ZerosLike(t *Tensor) *Tensor {
	return tensor.ZerosLike(t)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// FromSlice creates a tensor from a copy of data.
//
// Example:
//
//	t, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Scalar creates a 1-element tensor.
func Scalar(v float64) *Tensor {
	return tensor.Scalar(v)
}
