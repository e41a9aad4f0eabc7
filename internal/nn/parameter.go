package nn

import (
	"fmt"

	"github.com/born-ml/holocron/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// The host model owns the parameter. Optimizers hold a pointer to it and
// mutate its tensor in place during Step, but never replace the tensor.
//
// Example:
//
//	w := nn.NewParameter("conv1.weight", nn.KaimingNormal(fanIn, shape, rng))
//	// after a backward pass:
//	_ = w.SetGrad(grad)
type Parameter struct {
	name   string         // Parameter name (e.g., "layer1.0.conv1.weight")
	tensor *tensor.Tensor // The parameter tensor
	grad   *tensor.Tensor // Gradient, nil until the host differentiation pass sets it
}

// NewParameter creates a new trainable parameter around an initialized tensor.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Shape returns the parameter shape.
func (p *Parameter) Shape() tensor.Shape {
	return p.tensor.Shape()
}

// Grad returns the gradient tensor, or nil if none was set since the last ZeroGrad.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
//
// Returns an error if the gradient shape differs from the parameter shape.
func (p *Parameter) SetGrad(grad *tensor.Tensor) error {
	if grad == nil {
		p.grad = nil
		return nil
	}
	if err := p.tensor.CheckShape(grad); err != nil {
		return fmt.Errorf("parameter %q: gradient: %w", p.name, err)
	}
	p.grad = grad
	return nil
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// NumElements returns the number of scalar weights in the parameter.
func (p *Parameter) NumElements() int {
	return p.tensor.NumElements()
}
