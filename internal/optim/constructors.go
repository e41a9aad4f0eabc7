package optim

import "github.com/born-ml/holocron/internal/nn"

// NewSGD creates an SGD optimizer.
func NewSGD(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return New(SGD, params, cfg)
}

// NewAdam creates an Adam optimizer.
func NewAdam(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return New(Adam, params, cfg)
}

// NewLars creates a LARS optimizer.
//
// Example:
//
//	cfg := optim.Defaults(optim.Lars)
//	cfg.LR = 0.1
//	cfg.WeightDecay = 5e-4
//	opt, err := optim.NewLars(model.Parameters(), cfg)
func NewLars(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return New(Lars, params, cfg)
}

// NewLamb creates a LAMB optimizer.
func NewLamb(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return New(Lamb, params, cfg)
}

// NewRAdam creates a Rectified Adam optimizer.
func NewRAdam(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return New(RAdam, params, cfg)
}

// NewRaLars creates a RaLars optimizer (RAdam direction, LARS trust ratio).
func NewRaLars(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return New(RaLars, params, cfg)
}

// NewTAdam creates a TAdam optimizer.
func NewTAdam(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return New(TAdam, params, cfg)
}

// NewAdaBelief creates an AdaBelief optimizer.
func NewAdaBelief(params []*nn.Parameter, cfg Config) (*Optimizer, error) {
	return New(AdaBelief, params, cfg)
}
