package optim

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// MomentTracker maintains the exponentially decayed gradient statistics of
// one parameter:
//
//	exp_avg'    = β1·exp_avg    + (1-β1)·g
//	exp_avg_sq' = β2·exp_avg_sq + (1-β2)·g²
//	max'        = max(max, exp_avg_sq')   // when MaxExpAvgSq is tracked
//
// Non-finite values propagate like any other float.
type MomentTracker struct {
	Beta1 float64
	Beta2 float64
}

// Update advances st.ExpAvg, st.ExpAvgSq and, if present, st.MaxExpAvgSq with grad.
//
// Returns a *ShapeError if grad or any statistic differs in shape; nothing
// is modified in that case.
func (m MomentTracker) Update(st *State, grad *tensor.Tensor) error {
	if err := m.check(st, grad); err != nil {
		return err
	}
	g := grad.Data()
	avg := st.ExpAvg.Data()
	sq := st.ExpAvgSq.Data()
	for i, gi := range g {
		avg[i] = m.Beta1*avg[i] + (1-m.Beta1)*gi
		sq[i] = m.Beta2*sq[i] + (1-m.Beta2)*gi*gi
	}
	if st.MaxExpAvgSq != nil {
		st.MaxExpAvgSq.MaxInPlace(st.ExpAvgSq)
	}
	return nil
}

// UpdateBelief is the AdaBelief form of Update: the second statistic tracks
// the squared deviation of g from the freshly updated first moment,
//
//	s' = β2·s + (1-β2)·(g - exp_avg')² + eps
func (m MomentTracker) UpdateBelief(st *State, grad *tensor.Tensor, eps float64) error {
	if err := m.check(st, grad); err != nil {
		return err
	}
	g := grad.Data()
	avg := st.ExpAvg.Data()
	sq := st.ExpAvgSq.Data()
	for i, gi := range g {
		avg[i] = m.Beta1*avg[i] + (1-m.Beta1)*gi
		d := gi - avg[i]
		sq[i] = m.Beta2*sq[i] + (1-m.Beta2)*d*d + eps
	}
	if st.MaxExpAvgSq != nil {
		st.MaxExpAvgSq.MaxInPlace(st.ExpAvgSq)
	}
	return nil
}

// UpdateMomentum advances the heavy-ball buffer used by SGD and Lars:
//
//	buf' = μ·buf + g
func UpdateMomentum(st *State, grad *tensor.Tensor, momentum float64) error {
	if st.ExpAvg == nil || !st.ExpAvg.SameShape(grad) {
		return shapeError("", "momentum_buffer", grad.Shape(), st.ExpAvg)
	}
	st.ExpAvg.Scale(momentum)
	st.ExpAvg.AddScaled(1, grad)
	return nil
}

func (m MomentTracker) check(st *State, grad *tensor.Tensor) error {
	if grad == nil {
		return &ShapeError{What: "gradient"}
	}
	shape := grad.Shape()
	layout := StateLayout{ExpAvg: true, ExpAvgSq: true, MaxExpAvgSq: st.MaxExpAvgSq != nil}
	return st.check("", shape, layout)
}
