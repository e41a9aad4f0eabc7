// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides trainable parameters and their initializers.
//
// # Overview
//
// A Parameter is a named tensor plus an optional gradient. The host
// framework computes gradients and hands them over with SetGrad; optimizers
// read them during Step and update the tensor in place.
//
// # Basic Usage
//
//	rng := rand.New(rand.NewSource(0))
//	w := nn.NewParameter("fc.weight", nn.Xavier(512, 10, tensor.Shape{10, 512}, rng))
//	b := nn.NewParameter("fc.bias", nn.Zeros(tensor.Shape{10}))
//
//	// after the backward pass
//	if err := w.SetGrad(gradW); err != nil {
//	    log.Fatal(err)
//	}
package nn
