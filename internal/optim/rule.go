package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/holocron/internal/tensor"
)

// UpdateRule computes the step direction of one optimizer variant.
//
// The driver applies delta = -lr * direction after the rule returns, and
// handles weight decay according to the resolved WeightDecayMode. A rule is
// chosen once at construction and never re-dispatched.
type UpdateRule interface {
	// Variant identifies the rule.
	Variant() Variant

	// Layout reports which state tensors the rule keeps for cfg.
	Layout(cfg *Config) StateLayout

	// Init prepares a freshly allocated state before its first update.
	Init(st *State, param *tensor.Tensor, cfg *Config)

	// Direction updates in.State from in.Grad and writes the direction into in.Direction.
	Direction(in *UpdateInput) error
}

// StateLayout says which state tensors a rule keeps.
type StateLayout struct {
	ExpAvg      bool
	ExpAvgSq    bool
	MaxExpAvgSq bool
}

// UpdateInput is everything a rule sees for one parameter in one step.
type UpdateInput struct {
	Name      string         // Parameter name, for errors
	Param     *tensor.Tensor // Current parameter values; rules must not modify them
	Grad      *tensor.Tensor // Effective gradient (coupled decay already folded in)
	RawGrad   *tensor.Tensor // Gradient as produced by the host
	State     *State         // Per-parameter state; Step already counts this update
	Config    *Config
	Direction *tensor.Tensor // Output, same shape as Param, zero on entry
}

// newRule returns the built-in rule for v.
func newRule(v Variant) (UpdateRule, error) {
	switch v {
	case SGD:
		return sgdRule{}, nil
	case Adam:
		return adamRule{}, nil
	case Lars:
		return larsRule{}, nil
	case Lamb:
		return lambRule{}, nil
	case RAdam:
		return radamRule{}, nil
	case RaLars:
		return ralarsRule{}, nil
	case TAdam:
		return tadamRule{}, nil
	case AdaBelief:
		return adaBeliefRule{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown optimizer variant %d", ErrInvalidArgument, int(v))
	}
}

// adamDirection writes m̂ / (sqrt(v̂) + eps) into dir, scaled by factor.
//
// v is the second statistic to divide by (exp_avg_sq, or its running max).
func adamDirection(dir, m, v *tensor.Tensor, bc1, bc2, eps, factor float64) {
	d := dir.Data()
	md := m.Data()
	vd := v.Data()
	for i := range d {
		d[i] = factor * (md[i] / bc1) / (math.Sqrt(vd[i]/bc2) + eps)
	}
}

// secondMoment returns the statistic used in the denominator.
func secondMoment(st *State) *tensor.Tensor {
	if st.MaxExpAvgSq != nil {
		return st.MaxExpAvgSq
	}
	return st.ExpAvgSq
}
