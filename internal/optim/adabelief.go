package optim

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// adaBeliefRule implements AdaBelief.
//
// The second statistic is the "belief" in the gradient: the EMA of the
// squared deviation of g from the first moment rather than of g² itself.
//
//	m' = β1*m + (1-β1)*g
//	s' = β2*s + (1-β2)*(g - m')² + eps
//	direction = m_hat / (sqrt(s_hat) + eps)
//
// Weight decay is decoupled by default.
//
// Reference: "AdaBelief Optimizer: Adapting Stepsizes by the Belief in Observed Gradients" (Zhuang et al., 2020)
type adaBeliefRule struct{}

func (adaBeliefRule) Variant() Variant { return AdaBelief }

func (adaBeliefRule) Layout(cfg *Config) StateLayout {
	return StateLayout{ExpAvg: true, ExpAvgSq: true, MaxExpAvgSq: cfg.AMSGrad}
}

func (adaBeliefRule) Init(*State, *tensor.Tensor, *Config) {}

func (adaBeliefRule) Direction(in *UpdateInput) error {
	cfg := in.Config
	st := in.State
	tracker := MomentTracker{Beta1: cfg.Betas[0], Beta2: cfg.Betas[1]}
	if err := tracker.UpdateBelief(st, in.Grad, cfg.Eps); err != nil {
		return err
	}

	bc1 := BiasCorrection(st.Step, cfg.Betas[0])
	bc2 := BiasCorrection(st.Step, cfg.Betas[1])
	adamDirection(in.Direction, st.ExpAvg, secondMoment(st), bc1, bc2, cfg.Eps, 1)
	return nil
}
