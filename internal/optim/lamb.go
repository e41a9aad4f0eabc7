package optim

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// lambRule implements LAMB (Layer-wise Adaptive Moments for Batch training).
//
//	u     = m_hat / (sqrt(v_hat) + eps)
//	trust = clamp(||p|| / (||u|| + weight_decay*||p|| + eps), TrustClip)
//	param = param - lr * trust * u
//
// Weight decay is decoupled by default.
//
// Reference: "Large Batch Optimization for Deep Learning: Training BERT in 76 minutes" (You et al., 2019)
type lambRule struct{}

func (lambRule) Variant() Variant { return Lamb }

func (lambRule) Layout(*Config) StateLayout {
	return StateLayout{ExpAvg: true, ExpAvgSq: true}
}

func (lambRule) Init(*State, *tensor.Tensor, *Config) {}

func (lambRule) Direction(in *UpdateInput) error {
	cfg := in.Config
	st := in.State
	tracker := MomentTracker{Beta1: cfg.Betas[0], Beta2: cfg.Betas[1]}
	if err := tracker.Update(st, in.Grad); err != nil {
		return err
	}

	bc1 := BiasCorrection(st.Step, cfg.Betas[0])
	bc2 := BiasCorrection(st.Step, cfg.Betas[1])
	adamDirection(in.Direction, st.ExpAvg, st.ExpAvgSq, bc1, bc2, cfg.Eps, 1)

	trust := TrustRatioOf(in.Param, in.Direction, cfg.WeightDecay, cfg.Eps, cfg.trustClip())
	st.TrustRatio = trust
	in.Direction.Scale(trust)
	return nil
}
