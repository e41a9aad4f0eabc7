package optim

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// State is the per-parameter optimizer state.
//
// It is created lazily on the first step that sees a gradient for the
// parameter and dropped with RemoveParam. Every tensor in it has the
// parameter's shape.
type State struct {
	Step        int64          // Updates applied so far
	ExpAvg      *tensor.Tensor // First moment, or the momentum buffer for SGD/Lars
	ExpAvgSq    *tensor.Tensor // Second moment (centered for AdaBelief), nil for SGD/Lars
	MaxExpAvgSq *tensor.Tensor // Running max of ExpAvgSq, AMSGrad only

	WeightSum  float64 // TAdam running weight sum W_t
	TrustRatio float64 // Last trust ratio applied (Lars, Lamb, RaLars)
}

func newState(shape tensor.Shape, layout StateLayout) *State {
	st := &State{}
	if layout.ExpAvg {
		st.ExpAvg = tensor.Zeros(shape)
	}
	if layout.ExpAvgSq {
		st.ExpAvgSq = tensor.Zeros(shape)
	}
	if layout.MaxExpAvgSq {
		st.MaxExpAvgSq = tensor.Zeros(shape)
	}
	return st
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	if s.ExpAvg != nil {
		c.ExpAvg = s.ExpAvg.Clone()
	}
	if s.ExpAvgSq != nil {
		c.ExpAvgSq = s.ExpAvgSq.Clone()
	}
	if s.MaxExpAvgSq != nil {
		c.MaxExpAvgSq = s.MaxExpAvgSq.Clone()
	}
	return &c
}

// restrict drops tensors the layout does not use.
func (s *State) restrict(layout StateLayout) {
	if !layout.ExpAvg {
		s.ExpAvg = nil
	}
	if !layout.ExpAvgSq {
		s.ExpAvgSq = nil
	}
	if !layout.MaxExpAvgSq {
		s.MaxExpAvgSq = nil
	}
}

// check verifies that every tensor the layout requires is present and
// shaped like the parameter.
func (s *State) check(param string, shape tensor.Shape, layout StateLayout) error {
	fields := []struct {
		name string
		need bool
		t    *tensor.Tensor
	}{
		{"exp_avg", layout.ExpAvg, s.ExpAvg},
		{"exp_avg_sq", layout.ExpAvgSq, s.ExpAvgSq},
		{"max_exp_avg_sq", layout.MaxExpAvgSq, s.MaxExpAvgSq},
	}
	for _, f := range fields {
		if !f.need {
			continue
		}
		if f.t == nil || !f.t.Shape().Equal(shape) {
			return shapeError(param, f.name, shape, f.t)
		}
	}
	return nil
}
