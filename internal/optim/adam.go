package optim

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// adamRule implements Adam (Adaptive Moment Estimation).
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// With AMSGrad the running maximum of v_t replaces v_t in the denominator.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type adamRule struct{}

func (adamRule) Variant() Variant { return Adam }

func (adamRule) Layout(cfg *Config) StateLayout {
	return StateLayout{ExpAvg: true, ExpAvgSq: true, MaxExpAvgSq: cfg.AMSGrad}
}

func (adamRule) Init(*State, *tensor.Tensor, *Config) {}

func (adamRule) Direction(in *UpdateInput) error {
	cfg := in.Config
	st := in.State
	tracker := MomentTracker{Beta1: cfg.Betas[0], Beta2: cfg.Betas[1]}
	if err := tracker.Update(st, in.Grad); err != nil {
		return err
	}

	bc1 := BiasCorrection(st.Step, cfg.Betas[0])
	bc2 := BiasCorrection(st.Step, cfg.Betas[1])
	adamDirection(in.Direction, st.ExpAvg, secondMoment(st), bc1, bc2, cfg.Eps, 1)
	return nil
}
