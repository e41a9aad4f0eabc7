package optim

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// larsRule implements LARS (Layer-wise Adaptive Rate Scaling).
//
// The raw gradient is rescaled by one trust ratio per tensor:
//
//	trust = ||p|| / (||g|| + weight_decay*||p|| + eps)
//	u     = trust * (g + weight_decay*p)
//
// No moments are tracked by default; setting Config.Momentum opts into a
// heavy-ball (or Nesterov) buffer over u. Weight decay is coupled by
// default, so g + weight_decay*p is what the driver passes in as the
// effective gradient.
//
// Reference: "Large Batch Training of Convolutional Networks" (You et al., 2017)
type larsRule struct{}

func (larsRule) Variant() Variant { return Lars }

func (larsRule) Layout(cfg *Config) StateLayout {
	return StateLayout{ExpAvg: cfg.Momentum != 0}
}

func (larsRule) Init(*State, *tensor.Tensor, *Config) {}

func (larsRule) Direction(in *UpdateInput) error {
	cfg := in.Config
	trust := TrustRatioOf(in.Param, in.RawGrad, cfg.WeightDecay, cfg.Eps, cfg.trustClip())
	in.State.TrustRatio = trust

	scaled := in.Grad.Clone()
	scaled.Scale(trust)
	return momentumDirection(in.Direction, scaled, in.State, cfg)
}
