package optim

import (
	"fmt"
	"sort"

	"github.com/born-ml/holocron/internal/nn"
)

// StateDict is a serializable snapshot of an optimizer.
//
// Per-parameter state is keyed by registration index, so a state dict can
// be loaded into a fresh optimizer built over the same parameter list.
type StateDict struct {
	Variant Variant
	Config  Config
	State   map[int]*State

	// Lookahead is set by (*Lookahead).StateDict and ignored by a plain
	// Optimizer.
	Lookahead *LookaheadState
}

// Indices returns the keys of State in ascending order.
func (sd *StateDict) Indices() []int {
	idx := make([]int, 0, len(sd.State))
	for i := range sd.State {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// StateDict returns a deep copy of the optimizer state and hyperparameters.
func (o *Optimizer) StateDict() *StateDict {
	sd := &StateDict{
		Variant: o.rule.Variant(),
		Config:  o.cfg,
		State:   make(map[int]*State, len(o.state)),
	}
	for i, p := range o.params {
		if st, ok := o.state[p]; ok {
			sd.State[i] = st.Clone()
		}
	}
	return sd
}

// LoadStateDict replaces the optimizer state and hyperparameters.
//
// The runtime-only Parallel setting of the current optimizer is kept. The
// state dict is fully validated first; on error the optimizer is unchanged
// and the error matches ErrStateCorruption.
func (o *Optimizer) LoadStateDict(sd *StateDict) error {
	if sd == nil {
		return &StateError{Details: "nil state dict"}
	}
	if sd.Variant != o.rule.Variant() {
		return &StateError{Key: "variant", Details: fmt.Sprintf("state is for %s, optimizer is %s", sd.Variant, o.rule.Variant())}
	}
	cfg := sd.Config
	cfg.Parallel = o.cfg.Parallel
	if err := cfg.Validate(); err != nil {
		return &StateError{Key: "config", Details: err.Error()}
	}

	layout := o.rule.Layout(&cfg)
	loaded := make(map[*nn.Parameter]*State, len(sd.State))
	for _, i := range sd.Indices() {
		st := sd.State[i]
		key := fmt.Sprintf("state.%d", i)
		if i < 0 || i >= len(o.params) {
			return &StateError{Key: key, Details: fmt.Sprintf("index out of range [0, %d)", len(o.params))}
		}
		if st == nil {
			return &StateError{Key: key, Details: "nil state"}
		}
		if st.Step < 0 {
			return &StateError{Key: key + ".step", Details: fmt.Sprintf("negative step %d", st.Step)}
		}
		p := o.params[i]
		if err := st.check(p.Name(), p.Shape(), layout); err != nil {
			return &StateError{Key: key, Details: err.Error()}
		}
		c := st.Clone()
		c.restrict(layout)
		loaded[p] = c
	}

	o.cfg = cfg
	o.decay = cfg.decayMode(o.rule.Variant())
	o.state = loaded
	return nil
}
