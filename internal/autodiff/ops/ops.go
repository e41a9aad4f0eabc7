package ops

import "github.com/born-ml/holocron/internal/tensor"

// AddOp represents element-wise addition: output = a + b.
type AddOp struct{ binary }

// NewAddOp creates a new AddOp.
func NewAddOp(a, b, output *tensor.Tensor) *AddOp {
	return &AddOp{newBinary(a, b, output)}
}

// Backward passes the output gradient to both inputs.
func (op *AddOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{outputGrad, outputGrad}
}

// SubOp represents element-wise subtraction: output = a - b.
type SubOp struct{ binary }

// NewSubOp creates a new SubOp.
func NewSubOp(a, b, output *tensor.Tensor) *SubOp {
	return &SubOp{newBinary(a, b, output)}
}

// Backward computes [grad, -grad].
func (op *SubOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{outputGrad, backend.MulScalar(outputGrad, -1)}
}

// MulOp represents element-wise multiplication: output = a * b.
type MulOp struct{ binary }

// NewMulOp creates a new MulOp.
func NewMulOp(a, b, output *tensor.Tensor) *MulOp {
	return &MulOp{newBinary(a, b, output)}
}

// Backward computes [grad * b, grad * a].
func (op *MulOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.Tensor{backend.Mul(outputGrad, b), backend.Mul(outputGrad, a)}
}

// MatVecOp represents a matrix-vector product: output = m @ v.
type MatVecOp struct{ binary }

// NewMatVecOp creates a new MatVecOp.
func NewMatVecOp(m, v, output *tensor.Tensor) *MatVecOp {
	return &MatVecOp{newBinary(m, v, output)}
}

// Backward computes [grad v^T, m^T grad].
func (op *MatVecOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	m, v := op.inputs[0], op.inputs[1]
	return []*tensor.Tensor{backend.Outer(outputGrad, v), backend.MatTVec(m, outputGrad)}
}

// MulScalarOp represents scaling by a constant: output = s * x.
type MulScalarOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
	scalar float64
}

// NewMulScalarOp creates a new MulScalarOp.
func NewMulScalarOp(x, output *tensor.Tensor, s float64) *MulScalarOp {
	return &MulScalarOp{inputs: []*tensor.Tensor{x}, output: output, scalar: s}
}

// Backward computes [s * grad].
func (op *MulScalarOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.MulScalar(outputGrad, op.scalar)}
}

// Inputs returns the input tensors [x].
func (op *MulScalarOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the output tensor s * x.
func (op *MulScalarOp) Output() *tensor.Tensor {
	return op.output
}

// SumOp represents a full reduction: output = sum(x), shape [1].
type SumOp struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.Tensor) *SumOp {
	return &SumOp{inputs: []*tensor.Tensor{x}, output: output}
}

// Backward broadcasts the scalar output gradient to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.Expand(outputGrad, op.inputs[0].Shape())}
}

// Inputs returns the input tensors [x].
func (op *SumOp) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the output tensor sum(x).
func (op *SumOp) Output() *tensor.Tensor {
	return op.output
}
