// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float64 tensors that optimizer state
// and parameters are stored in.
//
// # Overview
//
// Tensors are row-major, contiguous and always own their data. Shapes are
// validated on creation; in-place kernels (Scale, AddScaled, Lerp) are backed
// by gonum.
//
// # Basic Usage
//
//	w, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g := tensor.Full(tensor.Shape{2, 2}, 0.1)
//	w.AddScaled(-0.01, g)
//	fmt.Println(w.Norm())
package tensor
