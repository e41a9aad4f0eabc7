package optim

import (
	"fmt"
	"math"
	"strings"

	"github.com/born-ml/holocron/internal/parallel"
)

// Variant selects the update rule of an optimizer.
type Variant int

// Supported update rules.
const (
	SGD Variant = iota
	Adam
	Lars
	Lamb
	RAdam
	RaLars
	TAdam
	AdaBelief
)

var variantNames = [...]string{
	SGD:       "sgd",
	Adam:      "adam",
	Lars:      "lars",
	Lamb:      "lamb",
	RAdam:     "radam",
	RaLars:    "ralars",
	TAdam:     "tadam",
	AdaBelief: "adabelief",
}

// Variants lists every supported update rule in declaration order.
func Variants() []Variant {
	return []Variant{SGD, Adam, Lars, Lamb, RAdam, RaLars, TAdam, AdaBelief}
}

// String returns the lowercase variant name.
func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant maps a case-insensitive name to its Variant.
func ParseVariant(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for v, n := range variantNames {
		if n == name {
			return Variant(v), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown optimizer %q", ErrInvalidArgument, name)
}

// WeightDecayMode chooses how weight decay enters the update.
type WeightDecayMode int

const (
	// DecayDefault uses the variant's own policy (see Variant.DefaultDecay).
	DecayDefault WeightDecayMode = iota
	// DecayCoupled folds weight_decay*p into the gradient before statistics are tracked.
	DecayCoupled
	// DecayDecoupled shrinks the parameter by lr*weight_decay*p, independently of the gradient path.
	DecayDecoupled
)

// String returns the mode name.
func (m WeightDecayMode) String() string {
	switch m {
	case DecayCoupled:
		return "coupled"
	case DecayDecoupled:
		return "decoupled"
	default:
		return "default"
	}
}

// DefaultDecay returns the weight-decay policy each rule was published with.
//
// Lamb, RaLars and AdaBelief decay the weights directly; the remaining rules
// add the L2 term to the gradient.
func (v Variant) DefaultDecay() WeightDecayMode {
	switch v {
	case Lamb, RaLars, AdaBelief:
		return DecayDecoupled
	default:
		return DecayCoupled
	}
}

// Config is the hyperparameter bundle shared by all variants.
//
// Fields that a variant does not use are ignored by it but still validated.
// Zero values are meaningful (betas of 0, no weight decay), so start from
// Defaults rather than from a zero Config.
type Config struct {
	LR              float64         // Learning rate, >= 0
	Betas           [2]float64      // Moment decay rates, each in [0, 1)
	Eps             float64         // Numerical stability term, > 0
	WeightDecay     float64         // L2 / decoupled decay factor, >= 0
	WeightDecayMode WeightDecayMode // Override of the variant's decay policy

	Momentum float64 // SGD/Lars momentum, in [0, 1)
	Nesterov bool    // SGD/Lars Nesterov momentum (requires Momentum > 0)

	// TrustClip clamps the trust ratio into [TrustClip[0], TrustClip[1]]
	// for Lamb and RaLars. A zero upper bound disables clamping.
	TrustClip [2]float64

	AMSGrad bool    // Track the running max of the second moment (Adam, TAdam, AdaBelief)
	DoF     float64 // TAdam degrees of freedom; 0 means "number of elements"

	ZeroGradAfterStep bool            // Clear gradients once they have been consumed
	Parallel          parallel.Config // Fan the accumulate phase out over parameters
}

// Defaults returns the published default hyperparameters for a variant.
func Defaults(v Variant) Config {
	cfg := Config{
		LR:    1e-3,
		Betas: [2]float64{0.9, 0.999},
		Eps:   1e-8,
	}
	switch v {
	case SGD:
		cfg.LR = 0.01
	case Lars:
		cfg.LR = 0.01
	case Lamb, RaLars:
		cfg.TrustClip = [2]float64{0, 10}
	case AdaBelief:
		cfg.Eps = 1e-16
	}
	return cfg
}

// decayMode resolves the effective weight-decay policy for v.
func (c *Config) decayMode(v Variant) WeightDecayMode {
	if c.WeightDecayMode == DecayDefault {
		return v.DefaultDecay()
	}
	return c.WeightDecayMode
}

// Validate checks every hyperparameter.
//
// Returns a *ConfigError (matching ErrConfiguration) describing the first
// violated constraint.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value float64
		ok    bool
		why   string
	}{
		{"lr", c.LR, c.LR >= 0, "must be >= 0"},
		{"betas[0]", c.Betas[0], c.Betas[0] >= 0 && c.Betas[0] < 1, "must be in [0, 1)"},
		{"betas[1]", c.Betas[1], c.Betas[1] >= 0 && c.Betas[1] < 1, "must be in [0, 1)"},
		{"eps", c.Eps, c.Eps > 0, "must be > 0"},
		{"weight_decay", c.WeightDecay, c.WeightDecay >= 0, "must be >= 0"},
		{"momentum", c.Momentum, c.Momentum >= 0 && c.Momentum < 1, "must be in [0, 1)"},
		{"trust_clip[0]", c.TrustClip[0], c.TrustClip[0] >= 0, "must be >= 0"},
		{"trust_clip[1]", c.TrustClip[1], c.TrustClip[1] == 0 || c.TrustClip[1] >= c.TrustClip[0], "must be 0 or >= trust_clip[0]"},
		{"dof", c.DoF, c.DoF >= 0, "must be >= 0"},
	}
	for _, chk := range checks {
		// NaN fails every comparison above, so it is rejected too.
		if !chk.ok || math.IsInf(chk.value, 0) {
			return &ConfigError{Field: chk.field, Value: chk.value, Reason: chk.why}
		}
	}
	if c.Nesterov && c.Momentum == 0 {
		return &ConfigError{Field: "momentum", Value: c.Momentum, Reason: "nesterov requires momentum > 0"}
	}
	if c.WeightDecayMode < DecayDefault || c.WeightDecayMode > DecayDecoupled {
		return &ConfigError{Field: "weight_decay_mode", Value: float64(c.WeightDecayMode), Reason: "unknown mode"}
	}
	return nil
}

// trustClip returns the clamp range, or nil when clamping is disabled.
func (c *Config) trustClip() *[2]float64 {
	if c.TrustClip[1] == 0 {
		return nil
	}
	return &c.TrustClip
}
