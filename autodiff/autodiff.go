// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff computes the gradients the optimizers consume.
//
// It implements reverse-mode automatic differentiation with a gradient tape
// and wraps any backend to add recording.
//
// Example:
//
//	import (
//	    "github.com/born-ml/holocron/autodiff"
//	    "github.com/born-ml/holocron/backend/cpu"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    backend.Tape().StartRecording()
//
//	    loss := backend.Sum(backend.Mul(w.Tensor(), w.Tensor()))
//	    grads, err := autodiff.Backward(loss, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    _ = autodiff.SetGrads([]*nn.Parameter{w}, grads)
//	}
package autodiff

import (
	"github.com/born-ml/holocron/internal/autodiff"
	"github.com/born-ml/holocron/internal/nn"
	"github.com/born-ml/holocron/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// ErrNoOperations is returned by Backward when nothing was recorded.
var ErrNoOperations = autodiff.ErrNoOperations

// Backward computes gradients via backpropagation.
func Backward[B BackwardCapable](out *tensor.Tensor, backend B) (map[*tensor.Tensor]*tensor.Tensor, error) {
	return autodiff.Backward(out, backend)
}

// SetGrads hands each parameter a copy of its gradient from grads.
func SetGrads(params []*nn.Parameter, grads map[*tensor.Tensor]*tensor.Tensor) error {
	return autodiff.SetGrads(params, grads)
}
