// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models provides the PyConvResNet parameter sets.
//
// Only trainable parameters are materialized; forward passes belong to the
// host framework.
//
//	model, err := models.New("pyconvhg_resnet50", models.BuildOptions{
//	    Options: models.Options{NumClasses: 1000},
//	    Seed:    42,
//	})
package models

import (
	"github.com/born-ml/holocron/internal/models"
)

// Preset is the architecture table of one PyConvResNet.
type Preset = models.Preset

// Block selects the residual block of a stage.
type Block = models.Block

// Residual blocks.
const (
	PyBottleneck   = models.PyBottleneck
	PyHGBottleneck = models.PyHGBottleneck
)

// Options configure the network head and stem.
type Options = models.Options

// BuildOptions configure Build.
type BuildOptions = models.BuildOptions

// Model is a materialized parameter set.
type Model = models.Model

// ParamSpec describes one trainable parameter.
type ParamSpec = models.ParamSpec

// Errors.
var (
	ErrUnknownPreset   = models.ErrUnknownPreset
	ErrInvalidPreset   = models.ErrInvalidPreset
	ErrNoPretrainedURL = models.ErrNoPretrainedURL
)

// Presets returns the registered preset names.
func Presets() []string {
	return models.Presets()
}

// Lookup returns a copy of the named preset.
func Lookup(name string) (Preset, error) {
	return models.Lookup(name)
}

// Layout lists the trainable parameters of p without allocating them.
func Layout(p Preset, opts Options) ([]ParamSpec, error) {
	return models.Layout(p, opts)
}

// CountParameters returns the number of scalar weights in specs.
func CountParameters(specs []ParamSpec) int {
	return models.CountParameters(specs)
}

// Build allocates and initializes every parameter of p.
func Build(p Preset, opts BuildOptions) (*Model, error) {
	return models.Build(p, opts)
}

// New builds the named preset.
func New(name string, opts BuildOptions) (*Model, error) {
	return models.New(name, opts)
}
