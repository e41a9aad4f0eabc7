package optim

import (
	"math"
)

// LRSetter is anything whose learning rate a scheduler can drive.
type LRSetter interface {
	GetLR() float64
	SetLR(lr float64) error
}

// OneCycleConfig configures the one-cycle policy.
type OneCycleConfig struct {
	MaxLR      float64 // Peak learning rate
	TotalSteps int     // Length of the cycle in steps
	WarmupFrac float64 // Fraction of the cycle spent increasing the LR (default 0.3)
	DivFactor  float64 // Initial LR = MaxLR / DivFactor (default 25)
	FinalDiv   float64 // Final LR = initial LR / FinalDiv (default 1e4)
	Linear     bool    // Linear instead of cosine annealing
}

// OneCycle implements the 1cycle learning-rate policy: warm up from
// MaxLR/DivFactor to MaxLR, then anneal down to a much smaller final LR.
//
// Call Step once after every optimizer step.
//
// Reference: "Super-Convergence" (Smith & Topin, 2017)
type OneCycle struct {
	opt  LRSetter
	cfg  OneCycleConfig
	step int
}

// NewOneCycle creates the scheduler and sets the optimizer to the initial LR.
func NewOneCycle(opt LRSetter, cfg OneCycleConfig) (*OneCycle, error) {
	if cfg.WarmupFrac == 0 {
		cfg.WarmupFrac = 0.3
	}
	if cfg.DivFactor == 0 {
		cfg.DivFactor = 25
	}
	if cfg.FinalDiv == 0 {
		cfg.FinalDiv = 1e4
	}
	switch {
	case cfg.MaxLR < 0:
		return nil, &ConfigError{Field: "max_lr", Value: cfg.MaxLR, Reason: "must be >= 0"}
	case cfg.TotalSteps < 1:
		return nil, &ConfigError{Field: "total_steps", Value: float64(cfg.TotalSteps), Reason: "must be >= 1"}
	case cfg.WarmupFrac < 0 || cfg.WarmupFrac > 1:
		return nil, &ConfigError{Field: "warmup_frac", Value: cfg.WarmupFrac, Reason: "must be in [0, 1]"}
	case cfg.DivFactor < 1 || cfg.FinalDiv < 1:
		return nil, &ConfigError{Field: "div_factor", Value: min(cfg.DivFactor, cfg.FinalDiv), Reason: "must be >= 1"}
	}

	s := &OneCycle{opt: opt, cfg: cfg}
	if err := opt.SetLR(s.At(0)); err != nil {
		return nil, err
	}
	return s, nil
}

// Step advances the schedule and updates the optimizer's LR.
func (s *OneCycle) Step() error {
	s.step++
	return s.opt.SetLR(s.At(s.step))
}

// At returns the learning rate after step steps.
func (s *OneCycle) At(step int) float64 {
	initial := s.cfg.MaxLR / s.cfg.DivFactor
	final := initial / s.cfg.FinalDiv
	warmup := s.cfg.WarmupFrac * float64(s.cfg.TotalSteps)
	t := float64(step)

	switch {
	case t >= float64(s.cfg.TotalSteps):
		return final
	case t < warmup:
		return s.anneal(initial, s.cfg.MaxLR, t/warmup)
	default:
		return s.anneal(s.cfg.MaxLR, final, (t-warmup)/(float64(s.cfg.TotalSteps)-warmup))
	}
}

func (s *OneCycle) anneal(start, end, pct float64) float64 {
	if s.cfg.Linear {
		return start + (end-start)*pct
	}
	return end + (start-end)/2*(1+math.Cos(math.Pi*pct))
}
