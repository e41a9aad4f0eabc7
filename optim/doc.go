// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides layer-wise adaptive optimizers for training neural
// networks.
//
// # Overview
//
// This package contains:
//   - Lars, Lamb: layer-wise trust-ratio scaling for large-batch training
//   - RAdam, RaLars: variance-rectified Adam, optionally with a trust ratio
//   - TAdam: Adam with a Student-t first moment, robust to outlier gradients
//   - AdaBelief: Adam with a second moment tracking the gradient's deviation
//   - SGD, Adam: the baselines the variants are measured against
//   - Lookahead and OneCycle, which wrap any of the above
//   - State dicts and .holo checkpoint files
//
// All variants share one step driver (Optimizer) and one hyperparameter
// bundle (Config). The update rule is selected once at construction.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/holocron/models"
//	    "github.com/born-ml/holocron/optim"
//	)
//
//	func main() {
//	    model, _ := models.New("pyconv_resnet50", models.BuildOptions{})
//
//	    cfg := optim.Defaults(optim.Lamb)
//	    cfg.WeightDecay = 0.01
//	    optimizer, err := optim.NewLamb(model.Parameters(), cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    for step := range numSteps {
//	        optimizer.ZeroGrad()
//	        backward(model) // host framework calls SetGrad on each parameter
//	        if err := optimizer.Step(); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// # Weight Decay
//
// Each variant has a default weight-decay policy. Lamb, RaLars and AdaBelief
// shrink the weights directly (decoupled); SGD, Adam, Lars, RAdam and TAdam
// add weight_decay*p to the gradient (coupled). Config.WeightDecayMode
// overrides the default.
//
// # Errors
//
// Every error matches ErrInvalidArgument and one of ErrConfiguration,
// ErrShapeMismatch or ErrStateCorruption:
//
//	if errors.Is(err, optim.ErrShapeMismatch) {
//	    var serr *optim.ShapeError
//	    errors.As(err, &serr)
//	    log.Printf("parameter %s: got %v, want %v", serr.Param, serr.Got, serr.Want)
//	}
//
// # Checkpoints
//
//	if err := optimizer.Save("lamb.holo"); err != nil {
//	    log.Fatal(err)
//	}
//	// later, over the same parameter list:
//	if err := optimizer.Load("lamb.holo"); err != nil {
//	    log.Fatal(err)
//	}
package optim
