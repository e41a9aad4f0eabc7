// Package ops defines the differentiable operations recorded by the
// gradient tape.
//
// Each operation keeps its inputs and output from the forward pass and
// computes input gradients during the backward pass:
//   - AddOp, SubOp: gradient flows unchanged (negated for the subtrahend)
//   - MulOp: d(a*b)/da = b, d(a*b)/db = a
//   - MulScalarOp: d(s*a)/da = s
//   - SumOp: the output gradient is broadcast back to the input shape
//   - MatVecOp: d(M@v)/dM = grad v^T, d(M@v)/dv = M^T grad
package ops

import "github.com/born-ml/holocron/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// The result has one entry per input, in the order of Inputs.
	Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.Tensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.Tensor
}

// binary holds the inputs and output of a two-input operation.
type binary struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

func newBinary(a, b, output *tensor.Tensor) binary {
	return binary{inputs: []*tensor.Tensor{a, b}, output: output}
}

// Inputs returns the input tensors [a, b].
func (op *binary) Inputs() []*tensor.Tensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *binary) Output() *tensor.Tensor {
	return op.output
}
