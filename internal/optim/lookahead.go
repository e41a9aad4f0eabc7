package optim

import (
	"fmt"
	"sort"

	"github.com/born-ml/holocron/internal/nn"
	"github.com/born-ml/holocron/internal/tensor"
)

// Lookahead wraps an optimizer with a set of slow weights.
//
// The inner optimizer takes K fast steps; then the slow weights move a
// fraction Alpha toward the fast weights and the fast weights are reset to
// them:
//
//	slow = slow + alpha * (fast - slow)
//	fast = slow
//
// Reference: "Lookahead Optimizer: k steps forward, 1 step back" (Zhang et al., 2019)
type Lookahead struct {
	base  *Optimizer
	k     int
	alpha float64
	fast  int // fast steps since the last sync
	slow  map[*nn.Parameter]*tensor.Tensor
}

// NewLookahead wraps base. k must be >= 1 and alpha in (0, 1].
func NewLookahead(base *Optimizer, k int, alpha float64) (*Lookahead, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: nil base optimizer", ErrInvalidArgument)
	}
	if k < 1 {
		return nil, &ConfigError{Field: "sync_period", Value: float64(k), Reason: "must be >= 1"}
	}
	if !(alpha > 0 && alpha <= 1) {
		return nil, &ConfigError{Field: "sync_rate", Value: alpha, Reason: "must be in (0, 1]"}
	}
	l := &Lookahead{
		base:  base,
		k:     k,
		alpha: alpha,
		slow:  make(map[*nn.Parameter]*tensor.Tensor),
	}
	for _, p := range base.Params() {
		l.slow[p] = p.Tensor().Clone()
	}
	return l, nil
}

// Step runs one fast step and synchronizes every K steps.
func (l *Lookahead) Step() error {
	if err := l.base.Step(); err != nil {
		return err
	}
	l.fast++
	if l.fast < l.k {
		return nil
	}
	l.fast = 0
	return l.sync()
}

func (l *Lookahead) sync() error {
	l.prune()
	for _, p := range l.base.Params() {
		fast := p.Tensor()
		slow, ok := l.slow[p]
		if !ok {
			// Registered after construction: its current weights become the slow copy.
			l.slow[p] = fast.Clone()
			continue
		}
		if err := fast.CheckShape(slow); err != nil {
			return shapeError(p.Name(), "slow weights", fast.Shape(), slow)
		}
		slow.Lerp(fast, l.alpha)
		if err := fast.CopyFrom(slow); err != nil {
			return err
		}
	}
	return nil
}

// ZeroGrad clears gradients of the wrapped optimizer's parameters.
func (l *Lookahead) ZeroGrad() {
	l.base.ZeroGrad()
}

// GetLR returns the inner learning rate.
func (l *Lookahead) GetLR() float64 {
	return l.base.GetLR()
}

// SetLR sets the inner learning rate.
func (l *Lookahead) SetLR(lr float64) error {
	return l.base.SetLR(lr)
}

// Base returns the wrapped optimizer.
func (l *Lookahead) Base() *Optimizer {
	return l.base
}

// RemoveParam unregisters p from the base optimizer and drops its slow weights.
func (l *Lookahead) RemoveParam(p *nn.Parameter) bool {
	delete(l.slow, p)
	return l.base.RemoveParam(p)
}

// prune drops slow weights of parameters the base optimizer no longer holds.
func (l *Lookahead) prune() {
	live := make(map[*nn.Parameter]bool, len(l.slow))
	for _, p := range l.base.Params() {
		live[p] = true
	}
	for p := range l.slow {
		if !live[p] {
			delete(l.slow, p)
		}
	}
}

// LookaheadState is the part of a Lookahead that its base optimizer does not
// hold. Slow weights are keyed by registration index.
type LookaheadState struct {
	K     int
	Alpha float64
	Fast  int // Fast steps since the last sync, in [0, K)
	Slow  map[int]*tensor.Tensor
}

// Indices returns the keys of Slow in ascending order.
func (s *LookaheadState) Indices() []int {
	idx := make([]int, 0, len(s.Slow))
	for i := range s.Slow {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// StateDict returns the base optimizer's state dict with the slow weights
// and sync counter attached.
func (l *Lookahead) StateDict() *StateDict {
	sd := l.base.StateDict()
	la := &LookaheadState{
		K:     l.k,
		Alpha: l.alpha,
		Fast:  l.fast,
		Slow:  make(map[int]*tensor.Tensor, len(l.slow)),
	}
	for i, p := range l.base.Params() {
		if slow, ok := l.slow[p]; ok {
			la.Slow[i] = slow.Clone()
		}
	}
	sd.Lookahead = la
	return sd
}

// LoadStateDict restores the base optimizer and the Lookahead state. The
// sync period and rate are taken from sd. On error nothing is changed.
func (l *Lookahead) LoadStateDict(sd *StateDict) error {
	if sd == nil {
		return &StateError{Details: "nil state dict"}
	}
	la := sd.Lookahead
	if la == nil {
		return &StateError{Key: "lookahead", Details: "state dict has no lookahead state"}
	}
	if la.K < 1 || la.Fast < 0 || la.Fast >= la.K {
		return &StateError{Key: "lookahead", Details: fmt.Sprintf("sync counter %d outside [0, %d)", la.Fast, la.K)}
	}
	if !(la.Alpha > 0 && la.Alpha <= 1) {
		return &StateError{Key: "lookahead.alpha", Details: fmt.Sprintf("%g not in (0, 1]", la.Alpha)}
	}

	params := l.base.Params()
	slow := make(map[*nn.Parameter]*tensor.Tensor, len(params))
	for _, i := range la.Indices() {
		key := fmt.Sprintf("lookahead.slow.%d", i)
		if i < 0 || i >= len(params) {
			return &StateError{Key: key, Details: fmt.Sprintf("index out of range [0, %d)", len(params))}
		}
		p := params[i]
		if err := p.Tensor().CheckShape(la.Slow[i]); err != nil {
			return &StateError{Key: key, Details: err.Error()}
		}
		slow[p] = la.Slow[i].Clone()
	}
	// Parameters without saved slow weights start from their current values.
	for _, p := range params {
		if _, ok := slow[p]; !ok {
			slow[p] = p.Tensor().Clone()
		}
	}

	if err := l.base.LoadStateDict(sd); err != nil {
		return err
	}
	l.k, l.alpha, l.fast, l.slow = la.K, la.Alpha, la.Fast, slow
	return nil
}

// Save writes the Lookahead state dict to path.
func (l *Lookahead) Save(path string) error {
	return SaveStateDict(path, l.StateDict())
}

// Load restores a Lookahead from a file written by Save.
func (l *Lookahead) Load(path string) error {
	sd, err := LoadStateDictFile(path)
	if err != nil {
		return err
	}
	return l.LoadStateDict(sd)
}
