package optim

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// ralarsRule wraps the RAdam direction with a clamped LARS trust ratio.
//
// Weight decay is decoupled by default. The trust ratio is computed against
// the rectified direction, whichever regime RAdam is in.
type ralarsRule struct{}

func (ralarsRule) Variant() Variant { return RaLars }

func (ralarsRule) Layout(*Config) StateLayout {
	return StateLayout{ExpAvg: true, ExpAvgSq: true}
}

func (ralarsRule) Init(*State, *tensor.Tensor, *Config) {}

func (ralarsRule) Direction(in *UpdateInput) error {
	cfg := in.Config
	tracker := MomentTracker{Beta1: cfg.Betas[0], Beta2: cfg.Betas[1]}
	if err := tracker.Update(in.State, in.Grad); err != nil {
		return err
	}
	rectifiedDirection(in.Direction, in.State, cfg)

	trust := TrustRatioOf(in.Param, in.Direction, cfg.WeightDecay, cfg.Eps, cfg.trustClip())
	in.State.TrustRatio = trust
	in.Direction.Scale(trust)
	return nil
}
