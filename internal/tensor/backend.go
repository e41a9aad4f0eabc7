package tensor

// Backend computes out-of-place tensor operations.
//
// Results are freshly allocated and inputs are never modified, so a tensor
// can appear in a recorded computation any number of times. Shape errors are
// programming errors and panic, like out-of-range slice indexing.
type Backend interface {
	// Name returns the backend name.
	Name() string

	Add(a, b *Tensor) *Tensor
	Sub(a, b *Tensor) *Tensor
	Mul(a, b *Tensor) *Tensor
	MulScalar(a *Tensor, s float64) *Tensor

	// Sum reduces a to a tensor of shape [1].
	Sum(a *Tensor) *Tensor
	// Expand broadcasts a one-element tensor to shape.
	Expand(a *Tensor, shape Shape) *Tensor

	// MatVec computes m @ v for m [r, c] and v [c].
	MatVec(m, v *Tensor) *Tensor
	// MatTVec computes m^T @ v for m [r, c] and v [r].
	MatTVec(m, v *Tensor) *Tensor
	// Outer computes the [len(a), len(b)] outer product of two vectors.
	Outer(a, b *Tensor) *Tensor
}
