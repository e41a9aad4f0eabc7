// Package nn provides trainable parameters and their initializers.
//
// Forward passes, convolutions and autograd belong to the host framework;
// this package only models what an optimizer needs to see of a network:
// named tensors with an optional gradient.
package nn

// Module is anything that exposes trainable parameters.
//
// Parameters must return the same slice order on every call: optimizers
// register parameters in that order and iterate them deterministically.
type Module interface {
	Parameters() []*Parameter
}

// CountParameters returns the total number of scalar weights in params.
func CountParameters(params []*Parameter) int {
	n := 0
	for _, p := range params {
		n += p.NumElements()
	}
	return n
}

// ZeroGrad clears the gradient of every parameter.
func ZeroGrad(params []*Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
