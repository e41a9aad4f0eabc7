// Package cpu implements tensor.Backend on the host, with gonum kernels.
package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/holocron/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// It holds no mutable state and is safe for concurrent use.
type CPUBackend struct{}

var _ tensor.Backend = (*CPUBackend)(nil)

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Add performs element-wise addition.
func (cpu *CPUBackend) Add(a, b *tensor.Tensor) *tensor.Tensor {
	mustMatch("add", a, b)
	out := a.Clone()
	floats.Add(out.Data(), b.Data())
	return out
}

// Sub performs element-wise subtraction.
func (cpu *CPUBackend) Sub(a, b *tensor.Tensor) *tensor.Tensor {
	mustMatch("sub", a, b)
	out := a.Clone()
	floats.Sub(out.Data(), b.Data())
	return out
}

// Mul performs element-wise multiplication.
func (cpu *CPUBackend) Mul(a, b *tensor.Tensor) *tensor.Tensor {
	mustMatch("mul", a, b)
	out := a.Clone()
	floats.Mul(out.Data(), b.Data())
	return out
}

// MulScalar multiplies every element of a by s.
func (cpu *CPUBackend) MulScalar(a *tensor.Tensor, s float64) *tensor.Tensor {
	out := a.Clone()
	out.Scale(s)
	return out
}

// Sum reduces a to shape [1].
func (cpu *CPUBackend) Sum(a *tensor.Tensor) *tensor.Tensor {
	return tensor.Scalar(a.Sum())
}

// Expand broadcasts a one-element tensor to shape.
func (cpu *CPUBackend) Expand(a *tensor.Tensor, shape tensor.Shape) *tensor.Tensor {
	if a.NumElements() != 1 {
		panic(fmt.Sprintf("expand: need a single element, got shape %v", a.Shape()))
	}
	return tensor.Full(shape, a.Data()[0])
}

// MatVec computes m @ v.
func (cpu *CPUBackend) MatVec(m, v *tensor.Tensor) *tensor.Tensor {
	rows, cols := matrixDims("matvec", m)
	if v.NumElements() != cols || len(v.Shape()) != 1 {
		panic(fmt.Sprintf("matvec: shape mismatch %v @ %v", m.Shape(), v.Shape()))
	}
	out := tensor.Zeros(tensor.Shape{rows})
	dst := mat.NewVecDense(rows, out.Data())
	dst.MulVec(mat.NewDense(rows, cols, m.Data()), mat.NewVecDense(cols, v.Data()))
	return out
}

// MatTVec computes m^T @ v.
func (cpu *CPUBackend) MatTVec(m, v *tensor.Tensor) *tensor.Tensor {
	rows, cols := matrixDims("mattvec", m)
	if v.NumElements() != rows || len(v.Shape()) != 1 {
		panic(fmt.Sprintf("mattvec: shape mismatch %v^T @ %v", m.Shape(), v.Shape()))
	}
	out := tensor.Zeros(tensor.Shape{cols})
	dst := mat.NewVecDense(cols, out.Data())
	dst.MulVec(mat.NewDense(rows, cols, m.Data()).T(), mat.NewVecDense(rows, v.Data()))
	return out
}

// Outer computes the outer product a b^T of two vectors.
func (cpu *CPUBackend) Outer(a, b *tensor.Tensor) *tensor.Tensor {
	if len(a.Shape()) != 1 || len(b.Shape()) != 1 {
		panic(fmt.Sprintf("outer: need vectors, got %v and %v", a.Shape(), b.Shape()))
	}
	rows, cols := a.NumElements(), b.NumElements()
	out := tensor.Zeros(tensor.Shape{rows, cols})
	dst := mat.NewDense(rows, cols, out.Data())
	dst.Outer(1, mat.NewVecDense(rows, a.Data()), mat.NewVecDense(cols, b.Data()))
	return out
}

func mustMatch(op string, a, b *tensor.Tensor) {
	if !a.SameShape(b) {
		panic(fmt.Sprintf("%s: shape mismatch %v vs %v", op, a.Shape(), b.Shape()))
	}
}

func matrixDims(op string, m *tensor.Tensor) (int, int) {
	s := m.Shape()
	if len(s) != 2 {
		panic(fmt.Sprintf("%s: only 2D matrices supported, got %dD", op, len(s)))
	}
	return s[0], s[1]
}
