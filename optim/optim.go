// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"io"

	"github.com/born-ml/holocron/internal/nn"
	"github.com/born-ml/holocron/internal/optim"
)

// Optimizer drives one update rule over an ordered set of parameters.
type Optimizer = optim.Optimizer

// Config is the hyperparameter bundle shared by all variants.
type Config = optim.Config

// Variant selects the update rule of an optimizer.
type Variant = optim.Variant

// Supported update rules.
const (
	SGD       = optim.SGD
	Adam      = optim.Adam
	Lars      = optim.Lars
	Lamb      = optim.Lamb
	RAdam     = optim.RAdam
	RaLars    = optim.RaLars
	TAdam     = optim.TAdam
	AdaBelief = optim.AdaBelief
)

// WeightDecayMode chooses how weight decay enters the update.
type WeightDecayMode = optim.WeightDecayMode

// Weight-decay policies.
const (
	DecayDefault   = optim.DecayDefault
	DecayCoupled   = optim.DecayCoupled
	DecayDecoupled = optim.DecayDecoupled
)

// State is the per-parameter optimizer state.
type State = optim.State

// StateDict is a serializable snapshot of an optimizer.
type StateDict = optim.StateDict

// UpdateRule computes the step direction of one optimizer variant.
type UpdateRule = optim.UpdateRule

// UpdateInput is everything a rule sees for one parameter in one step.
type UpdateInput = optim.UpdateInput

// StateLayout says which state tensors a rule keeps.
type StateLayout = optim.StateLayout

// MomentTracker maintains exponentially decayed gradient statistics.
type MomentTracker = optim.MomentTracker

// Errors.
var (
	ErrInvalidArgument = optim.ErrInvalidArgument
	ErrConfiguration   = optim.ErrConfiguration
	ErrShapeMismatch   = optim.ErrShapeMismatch
	ErrStateCorruption = optim.ErrStateCorruption
)

// ConfigError reports an invalid hyperparameter.
type ConfigError = optim.ConfigError

// ShapeError reports a divergence between a parameter and its gradient or state.
type ShapeError = optim.ShapeError

// StateError reports a malformed state dict.
type StateError = optim.StateError

// Lookahead wraps an optimizer with a set of slow weights.
type Lookahead = optim.Lookahead

// LookaheadState is the part of a Lookahead state dict its base optimizer does not hold.
type LookaheadState = optim.LookaheadState

// OneCycle implements the 1cycle learning-rate policy.
type OneCycle = optim.OneCycle

// OneCycleConfig configures OneCycle.
type OneCycleConfig = optim.OneCycleConfig

// LRSetter is anything whose learning rate a scheduler can drive.
type LRSetter = optim.LRSetter

// Defaults returns the published default hyperparameters for a variant.
func Defaults(v Variant) Config {
	return optim.Defaults(v)
}

// Variants lists every supported update rule.
func Variants() []Variant {
	return optim.Variants()
}

// ParseVariant maps a case-insensitive name to its Variant.
func ParseVariant(name string) (Variant, error) {
	return optim.ParseVariant(name)
}

// New creates an optimizer for the given variant.
//
// Example:
//
//	cfg := optim.Defaults(optim.RaLars)
//	cfg.LR = 0.01
//	optimizer, err := optim.New(optim.RaLars, model.Parameters(), cfg)
func New(variant Variant, params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return optim.New(variant, params, cfg)
}

// NewWithRule creates an optimizer that drives a custom update rule.
func NewWithRule(rule UpdateRule, params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return optim.NewWithRule(rule, params, cfg)
}

// NewSGD creates an SGD optimizer with optional (Nesterov) momentum.
func NewSGD(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return optim.NewSGD(params, cfg)
}

// NewAdam creates an Adam optimizer with bias correction.
func NewAdam(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return optim.NewAdam(params, cfg)
}

// NewLars creates a LARS optimizer.
func NewLars(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return optim.NewLars(params, cfg)
}

// NewLamb creates a LAMB optimizer.
func NewLamb(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return optim.NewLamb(params, cfg)
}

// NewRAdam creates a Rectified Adam optimizer.
func NewRAdam(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return optim.NewRAdam(params, cfg)
}

// NewRaLars creates a RaLars optimizer.
func NewRaLars(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return optim.NewRaLars(params, cfg)
}

// NewTAdam creates a TAdam optimizer.
func NewTAdam(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return optim.NewTAdam(params, cfg)
}

// NewAdaBelief creates an AdaBelief optimizer.
func NewAdaBelief(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return optim.NewAdaBelief(params, cfg)
}

// NewLookahead wraps base; the slow weights sync every k steps at rate alpha.
func NewLookahead(base *Optimizer, k int, alpha float64) (*Lookahead, error) {
	return optim.NewLookahead(base, k, alpha)
}

// NewOneCycle creates a one-cycle scheduler and sets the initial LR.
func NewOneCycle(opt LRSetter, cfg OneCycleConfig) (*OneCycle, error) {
	return optim.NewOneCycle(opt, cfg)
}

// BiasCorrection returns 1 - beta^step.
func BiasCorrection(step int64, beta float64) float64 {
	return optim.BiasCorrection(step, beta)
}

// TrustRatio computes the layer-wise scaling factor of the LARS family.
func TrustRatio(paramNorm, updateNorm, weightDecay, eps float64, clip *[2]float64) float64 {
	return optim.TrustRatio(paramNorm, updateNorm, weightDecay, eps, clip)
}

// WriteStateDict encodes a state dict as a .holo archive.
func WriteStateDict(w io.Writer, sd *StateDict) error {
	return optim.WriteStateDict(w, sd)
}

// ReadStateDict decodes a state dict written by WriteStateDict.
func ReadStateDict(r io.Reader) (*StateDict, error) {
	return optim.ReadStateDict(r)
}

// SaveStateDict writes a state dict to a .holo file.
func SaveStateDict(path string, sd *StateDict) error {
	return optim.SaveStateDict(path, sd)
}

// LoadStateDictFile reads a state dict from a .holo file.
func LoadStateDictFile(path string) (*StateDict, error) {
	return optim.LoadStateDictFile(path)
}
