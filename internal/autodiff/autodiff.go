// Package autodiff implements reverse-mode automatic differentiation with
// the decorator pattern.
//
// AutodiffBackend wraps any tensor.Backend and records every operation on a
// GradientTape; Backward then turns a scalar loss into gradients that
// SetGrads hands to the parameters an optimizer updates:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := backend.Sum(backend.Mul(w.Tensor(), w.Tensor())) // sum(w²)
//	grads, err := autodiff.Backward(loss, backend)
//	// grads[w.Tensor()] == 2w
//	err = autodiff.SetGrads(model.Parameters(), grads)
package autodiff

import (
	"github.com/born-ml/holocron/internal/autodiff/ops"
	"github.com/born-ml/holocron/internal/tensor"
)

// AutodiffBackend wraps a Backend and records operations in a GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

var _ tensor.Backend = (*AutodiffBackend[tensor.Backend])(nil)

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// GetTape returns the gradient tape (implements BackwardCapable).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.Tensor) *tensor.Tensor {
	out := b.inner.Add(x, y)
	b.tape.Record(ops.NewAddOp(x, y, out))
	return out
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.Tensor) *tensor.Tensor {
	out := b.inner.Sub(x, y)
	b.tape.Record(ops.NewSubOp(x, y, out))
	return out
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.Tensor) *tensor.Tensor {
	out := b.inner.Mul(x, y)
	b.tape.Record(ops.NewMulOp(x, y, out))
	return out
}

// MulScalar scales x by s and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.Tensor, s float64) *tensor.Tensor {
	out := b.inner.MulScalar(x, s)
	b.tape.Record(ops.NewMulScalarOp(x, out, s))
	return out
}

// Sum reduces x to shape [1] and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.Tensor) *tensor.Tensor {
	out := b.inner.Sum(x)
	b.tape.Record(ops.NewSumOp(x, out))
	return out
}

// MatVec computes m @ v and records the operation.
func (b *AutodiffBackend[B]) MatVec(m, v *tensor.Tensor) *tensor.Tensor {
	out := b.inner.MatVec(m, v)
	b.tape.Record(ops.NewMatVecOp(m, v, out))
	return out
}

// Expand is not differentiated; it only appears in backward passes.
func (b *AutodiffBackend[B]) Expand(x *tensor.Tensor, shape tensor.Shape) *tensor.Tensor {
	return b.inner.Expand(x, shape)
}

// MatTVec is not differentiated; it only appears in backward passes.
func (b *AutodiffBackend[B]) MatTVec(m, v *tensor.Tensor) *tensor.Tensor {
	return b.inner.MatTVec(m, v)
}

// Outer is not differentiated; it only appears in backward passes.
func (b *AutodiffBackend[B]) Outer(x, y *tensor.Tensor) *tensor.Tensor {
	return b.inner.Outer(x, y)
}
