package optim

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// radamRule implements Rectified Adam.
//
// Early in training the variance of the adaptive learning rate is too large
// to trust. RAdam tracks the length of the approximated simple moving
// average ρ_t and switches between two regimes:
//
//	ρ_t >  4: direction = r_t * m_hat / (sqrt(v_hat) + eps)
//	ρ_t <= 4: direction = m_hat                           (SGD with momentum)
//
// Weight decay is coupled by default.
//
// Reference: "On the Variance of the Adaptive Learning Rate and Beyond" (Liu et al., 2019)
type radamRule struct{}

func (radamRule) Variant() Variant { return RAdam }

func (radamRule) Layout(*Config) StateLayout {
	return StateLayout{ExpAvg: true, ExpAvgSq: true}
}

func (radamRule) Init(*State, *tensor.Tensor, *Config) {}

func (radamRule) Direction(in *UpdateInput) error {
	tracker := MomentTracker{Beta1: in.Config.Betas[0], Beta2: in.Config.Betas[1]}
	if err := tracker.Update(in.State, in.Grad); err != nil {
		return err
	}
	rectifiedDirection(in.Direction, in.State, in.Config)
	return nil
}

// rectifiedDirection writes the RAdam direction for the already-updated moments.
func rectifiedDirection(dir *tensor.Tensor, st *State, cfg *Config) {
	bc1 := BiasCorrection(st.Step, cfg.Betas[0])
	rect := rectify(st.Step, cfg.Betas[1])
	if rect.adaptive {
		bc2 := BiasCorrection(st.Step, cfg.Betas[1])
		adamDirection(dir, st.ExpAvg, st.ExpAvgSq, bc1, bc2, cfg.Eps, rect.factor)
		return
	}

	d := dir.Data()
	m := st.ExpAvg.Data()
	for i := range d {
		d[i] = m[i] / bc1
	}
}
