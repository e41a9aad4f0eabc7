package optim

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// tadamRule implements TAdam, Adam with a Student-t first moment.
//
// Each gradient is weighted by how plausible it is under a Student-t
// distribution centered on the current first moment:
//
//	w    = (dof + d) / (dof + Σ (g - m)² / (v + eps))   // d = number of elements
//	m'   = W/(W+w) * m + w/(W+w) * g
//	W'   = (2β1 - 1)/β1 * W + w                        // W_0 = β1/(1-β1)
//	v'   = β2 * v + (1-β2) * g²
//
// An outlier gradient has a large Mahalanobis-like score, so w is small and
// the first moment barely moves. The direction is Adam's.
//
// Reference: "TAdam: A Robust Stochastic Gradient Optimizer" (Ilboudo et al., 2020)
type tadamRule struct{}

func (tadamRule) Variant() Variant { return TAdam }

func (tadamRule) Layout(cfg *Config) StateLayout {
	return StateLayout{ExpAvg: true, ExpAvgSq: true, MaxExpAvgSq: cfg.AMSGrad}
}

func (tadamRule) Init(st *State, _ *tensor.Tensor, cfg *Config) {
	st.WeightSum = cfg.Betas[0] / (1 - cfg.Betas[0])
}

func (tadamRule) Direction(in *UpdateInput) error {
	cfg := in.Config
	st := in.State
	layout := StateLayout{ExpAvg: true, ExpAvgSq: true, MaxExpAvgSq: st.MaxExpAvgSq != nil}
	if err := st.check(in.Name, in.Grad.Shape(), layout); err != nil {
		return err
	}

	beta1, beta2 := cfg.Betas[0], cfg.Betas[1]
	g := in.Grad.Data()
	m := st.ExpAvg.Data()
	v := st.ExpAvgSq.Data()

	d := float64(len(g))
	dof := cfg.DoF
	if dof == 0 {
		dof = d
	}

	var score float64
	for i, gi := range g {
		diff := gi - m[i]
		score += diff * diff / (v[i] + cfg.Eps)
	}
	w := (dof + d) / (dof + score)

	keep := st.WeightSum / (st.WeightSum + w)
	take := w / (st.WeightSum + w)
	for i, gi := range g {
		m[i] = keep*m[i] + take*gi
		v[i] = beta2*v[i] + (1-beta2)*gi*gi
	}
	if beta1 > 0 {
		st.WeightSum = (2*beta1-1)/beta1*st.WeightSum + w
	}
	if st.MaxExpAvgSq != nil {
		st.MaxExpAvgSq.MaxInPlace(st.ExpAvgSq)
	}

	bc1 := BiasCorrection(st.Step, beta1)
	bc2 := BiasCorrection(st.Step, beta2)
	adamDirection(in.Direction, st.ExpAvg, secondMoment(st), bc1, bc2, cfg.Eps, 1)
	return nil
}
