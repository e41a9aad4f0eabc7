package optim

import (
	"errors"
	"fmt"

	"github.com/born-ml/holocron/internal/tensor"
)

// Common errors.
//
// Every error returned by this package matches ErrInvalidArgument, and
// additionally one of the three category sentinels.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConfiguration   = errors.New("invalid optimizer configuration")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrStateCorruption = errors.New("corrupted optimizer state")
)

// ConfigError reports an invalid hyperparameter at construction time.
type ConfigError struct {
	Field  string  // Hyperparameter name (e.g., "betas[0]")
	Value  float64 // Offending value
	Reason string  // Constraint that was violated
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s = %g: %s", ErrConfiguration, e.Field, e.Value, e.Reason)
}

// Is matches ErrConfiguration and ErrInvalidArgument.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration || target == ErrInvalidArgument
}

// ShapeError reports a divergence between a parameter and its gradient or state.
type ShapeError struct {
	Param string       // Parameter name
	What  string       // "gradient", "exp_avg", ...
	Want  tensor.Shape // Parameter shape
	Got   tensor.Shape // Offending shape (nil when the tensor is missing)
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	prefix := ErrShapeMismatch.Error()
	if e.Param != "" {
		prefix = fmt.Sprintf("%s: parameter %q", prefix, e.Param)
	}
	if e.Got == nil {
		return fmt.Sprintf("%s: %s is missing (want %v)", prefix, e.What, e.Want)
	}
	return fmt.Sprintf("%s: %s has shape %v, want %v", prefix, e.What, e.Got, e.Want)
}

// Is matches ErrShapeMismatch, tensor.ErrShapeMismatch and ErrInvalidArgument.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShapeMismatch || target == tensor.ErrShapeMismatch || target == ErrInvalidArgument
}

// StateError reports a malformed state dict passed to LoadStateDict.
type StateError struct {
	Key     string // State key (e.g., "state.3.exp_avg")
	Details string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s: %s", ErrStateCorruption, e.Key, e.Details)
	}
	return fmt.Sprintf("%s: %s", ErrStateCorruption, e.Details)
}

// Is matches ErrStateCorruption and ErrInvalidArgument.
func (e *StateError) Is(target error) bool {
	return target == ErrStateCorruption || target == ErrInvalidArgument
}

func shapeError(param, what string, want tensor.Shape, got *tensor.Tensor) error {
	e := &ShapeError{Param: param, What: what, Want: want}
	if got != nil {
		e.Got = got.Shape()
	}
	return e
}
