package tensor

import (
	"gonum.org/v1/gonum/floats"
)

// In-place kernels used by the optimizers. All of them assume the caller has
// already checked shapes; gonum panics on length mismatch.

// Scale multiplies every element of t by c.
func (t *Tensor) Scale(c float64) {
	floats.Scale(c, t.data)
}

// AddScaled computes t += alpha * s.
func (t *Tensor) AddScaled(alpha float64, s *Tensor) {
	floats.AddScaled(t.data, alpha, s.data)
}

// Lerp moves t toward s by weight: t = t + weight*(s - t).
func (t *Tensor) Lerp(s *Tensor, weight float64) {
	for i, v := range t.data {
		t.data[i] = v + weight*(s.data[i]-v)
	}
}

// MaxInPlace stores the elementwise maximum of t and s into t.
func (t *Tensor) MaxInPlace(s *Tensor) {
	for i, v := range s.data {
		if v > t.data[i] {
			t.data[i] = v
		}
	}
}

// Dot returns the inner product of a and b.
func Dot(a, b *Tensor) float64 {
	return floats.Dot(a.data, b.data)
}
