package autodiff

import (
	"errors"
	"fmt"

	"github.com/born-ml/holocron/internal/nn"
	"github.com/born-ml/holocron/internal/tensor"
)

// ErrNoOperations is returned by Backward when nothing was recorded.
var ErrNoOperations = errors.New("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// Backward computes the gradient of every tensor that out depends on,
// seeding the pass with ones of out's shape. For a scalar loss these are
// the partial derivatives dLoss/dx.
//
// The tape is left as is; call Tape().Clear() before the next forward pass.
func Backward[B BackwardCapable](out *tensor.Tensor, backend B) (map[*tensor.Tensor]*tensor.Tensor, error) {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		return nil, ErrNoOperations
	}
	return tape.Backward(out, tensor.Full(out.Shape(), 1), backend), nil
}

// SetGrads hands each parameter a copy of its gradient from grads.
//
// Parameters the loss does not depend on get no gradient, so an optimizer
// step leaves them untouched.
func SetGrads(params []*nn.Parameter, grads map[*tensor.Tensor]*tensor.Tensor) error {
	for _, p := range params {
		g, ok := grads[p.Tensor()]
		if !ok {
			continue
		}
		if err := p.SetGrad(g.Clone()); err != nil {
			return fmt.Errorf("parameter %s: %w", p.Name(), err)
		}
	}
	return nil
}
