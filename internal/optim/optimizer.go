// Package optim implements layer-wise adaptive optimization algorithms.
//
// This package provides:
//   - Optimizer: the step driver shared by every algorithm
//   - UpdateRule: one strategy per algorithm (SGD, Adam, Lars, Lamb, RAdam,
//     RaLars, TAdam, AdaBelief), selected once at construction
//   - MomentTracker, BiasCorrection, TrustRatio: the numerical building blocks
//   - StateDict / LoadStateDict and file checkpoints of optimizer state
//   - Lookahead and OneCycle, which wrap an Optimizer between steps
//
// Design inspired by PyTorch's torch.optim but adapted for Go: a step returns
// an error instead of raising, and the optimizer borrows host-owned
// parameters for the duration of Step without taking ownership.
//
// Example usage:
//
//	opt, err := optim.New(optim.Lamb, model.Parameters(), optim.Defaults(optim.Lamb))
//	if err != nil {
//	    return err
//	}
//
//	for step := range steps {
//	    opt.ZeroGrad()
//	    backward(model) // host framework sets Parameter gradients
//	    if err := opt.Step(); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"fmt"

	"github.com/born-ml/holocron/internal/nn"
	"github.com/born-ml/holocron/internal/parallel"
	"github.com/born-ml/holocron/internal/tensor"
)

// Optimizer drives one UpdateRule over a fixed, ordered set of parameters.
//
// Each Step has two phases. Accumulate consumes every available gradient,
// advances the per-parameter statistics and computes a direction. Apply
// then performs weight decay and the parameter update in place. Parameters
// without a gradient are skipped entirely: no state is created and their
// step count does not move.
//
// An Optimizer is not safe for concurrent use. Learning-rate changes must
// happen between steps.
type Optimizer struct {
	params []*nn.Parameter
	index  map[*nn.Parameter]int
	rule   UpdateRule
	cfg    Config
	decay  WeightDecayMode
	state  map[*nn.Parameter]*State
}

// New creates an optimizer for the given variant.
//
// Returns an error matching ErrConfiguration if cfg is invalid, or
// ErrInvalidArgument if params contains nil or duplicate entries.
func New(variant Variant, params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	rule, err := newRule(variant)
	if err != nil {
		return nil, err
	}
	return NewWithRule(rule, params, cfg)
}

// NewWithRule creates an optimizer that drives a caller-supplied rule.
func NewWithRule(rule UpdateRule, params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{
		index: make(map[*nn.Parameter]int, len(params)),
		rule:  rule,
		cfg:   cfg,
		decay: cfg.decayMode(rule.Variant()),
		state: make(map[*nn.Parameter]*State),
	}
	for _, p := range params {
		if err := o.AddParam(p); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// AddParam registers p after the existing parameters.
func (o *Optimizer) AddParam(p *nn.Parameter) error {
	if p == nil {
		return fmt.Errorf("%w: nil parameter at index %d", ErrInvalidArgument, len(o.params))
	}
	if _, dup := o.index[p]; dup {
		return fmt.Errorf("%w: parameter %q registered twice", ErrInvalidArgument, p.Name())
	}
	o.index[p] = len(o.params)
	o.params = append(o.params, p)
	return nil
}

// RemoveParam unregisters p and discards its state.
//
// Returns false if p was not registered.
func (o *Optimizer) RemoveParam(p *nn.Parameter) bool {
	i, ok := o.index[p]
	if !ok {
		return false
	}
	o.params = append(o.params[:i], o.params[i+1:]...)
	delete(o.index, p)
	delete(o.state, p)
	for j := i; j < len(o.params); j++ {
		o.index[o.params[j]] = j
	}
	return true
}

// update is the in-flight work for one parameter during a step.
type update struct {
	param *nn.Parameter
	grad  *tensor.Tensor
	state *State
	dir   *tensor.Tensor
}

// Step performs a single optimization step using each parameter's gradient.
//
// All gradient and state shapes are checked before anything is modified, so
// a shape error leaves parameters and state untouched.
func (o *Optimizer) Step() error {
	return o.step(func(p *nn.Parameter) *tensor.Tensor { return p.Grad() })
}

// StepWith performs a step using gradients supplied out of band.
//
// Parameters missing from grads are skipped. A gradient keyed by a
// parameter that is not registered is an error.
func (o *Optimizer) StepWith(grads map[*nn.Parameter]*tensor.Tensor) error {
	for p := range grads {
		if _, ok := o.index[p]; !ok {
			name := "<nil>"
			if p != nil {
				name = p.Name()
			}
			return fmt.Errorf("%w: gradient for unregistered parameter %q", ErrInvalidArgument, name)
		}
	}
	return o.step(func(p *nn.Parameter) *tensor.Tensor { return grads[p] })
}

func (o *Optimizer) step(gradOf func(*nn.Parameter) *tensor.Tensor) error {
	layout := o.rule.Layout(&o.cfg)

	// Validate.
	work := make([]*update, 0, len(o.params))
	for _, p := range o.params {
		grad := gradOf(p)
		if grad == nil {
			continue
		}
		if !p.Tensor().SameShape(grad) {
			return shapeError(p.Name(), "gradient", p.Shape(), grad)
		}
		if st, ok := o.state[p]; ok {
			if err := st.check(p.Name(), p.Shape(), layout); err != nil {
				return err
			}
		}
		work = append(work, &update{param: p, grad: grad})
	}

	// States are created here, sequentially, so the accumulate phase only
	// ever touches its own parameter's state.
	for _, u := range work {
		st, ok := o.state[u.param]
		if !ok {
			st = newState(u.param.Shape(), layout)
			o.rule.Init(st, u.param.Tensor(), &o.cfg)
			o.state[u.param] = st
		}
		u.state = st
	}

	// Accumulate.
	if err := parallel.For(len(work), func(i int) error {
		return o.accumulate(work[i])
	}, o.cfg.Parallel); err != nil {
		return err
	}
	if o.cfg.ZeroGradAfterStep {
		for _, u := range work {
			u.param.ZeroGrad()
		}
	}

	// Apply.
	for _, u := range work {
		o.apply(u)
	}
	return nil
}

func (o *Optimizer) accumulate(u *update) error {
	param := u.param.Tensor()
	grad := u.grad
	if o.decay == DecayCoupled && o.cfg.WeightDecay != 0 {
		grad = grad.Clone()
		grad.AddScaled(o.cfg.WeightDecay, param)
	}

	u.state.Step++
	u.dir = tensor.ZerosLike(param)
	return o.rule.Direction(&UpdateInput{
		Name:      u.param.Name(),
		Param:     param,
		Grad:      grad,
		RawGrad:   u.grad,
		State:     u.state,
		Config:    &o.cfg,
		Direction: u.dir,
	})
}

func (o *Optimizer) apply(u *update) {
	p := u.param.Tensor()
	if o.decay == DecayDecoupled && o.cfg.WeightDecay != 0 {
		p.Scale(1 - o.cfg.LR*o.cfg.WeightDecay)
	}
	p.AddScaled(-o.cfg.LR, u.dir)
}

// ZeroGrad clears gradients for all parameters.
func (o *Optimizer) ZeroGrad() {
	nn.ZeroGrad(o.params)
}

// GetLR returns the current learning rate.
func (o *Optimizer) GetLR() float64 {
	return o.cfg.LR
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training. Must not be called
// while Step is running.
func (o *Optimizer) SetLR(lr float64) error {
	if lr < 0 {
		return &ConfigError{Field: "lr", Value: lr, Reason: "must be >= 0"}
	}
	o.cfg.LR = lr
	return nil
}

// Variant returns the update rule's variant.
func (o *Optimizer) Variant() Variant {
	return o.rule.Variant()
}

// Config returns a copy of the hyperparameters.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// DecayMode returns the weight-decay policy in effect.
func (o *Optimizer) DecayMode() WeightDecayMode {
	return o.decay
}

// Params returns the registered parameters in registration order.
func (o *Optimizer) Params() []*nn.Parameter {
	out := make([]*nn.Parameter, len(o.params))
	copy(out, o.params)
	return out
}

// State returns a copy of p's state, or false if p has not been stepped yet.
func (o *Optimizer) State(p *nn.Parameter) (*State, bool) {
	st, ok := o.state[p]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

// StepCount returns how many updates p has received.
func (o *Optimizer) StepCount(p *nn.Parameter) int64 {
	if st, ok := o.state[p]; ok {
		return st.Step
	}
	return 0
}
