// Package tensor provides the dense float64 tensor that parameters, gradients
// and optimizer statistics are stored in.
//
// The type is deliberately small: optimizers only need contiguous storage,
// a shape, and a handful of vector kernels (norms, axpy, elementwise
// products), which are delegated to gonum's floats package.
package tensor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrShapeMismatch is returned when two tensors that must agree in shape do not.
var ErrShapeMismatch = errors.New("tensor shape mismatch")

// Tensor is a contiguous row-major float64 tensor.
//
// Tensors are mutable. Data returns the backing slice, so callers can update
// values in place; this is how optimizers write to host-owned parameters.
type Tensor struct {
	shape Shape
	data  []float64
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float64, shape.NumElements()),
	}
}

// ZerosLike creates a zero tensor with the same shape as t.
func ZerosLike(t *Tensor) *Tensor {
	return Zeros(t.shape)
}

// Full creates a tensor with every element set to value.
func Full(shape Shape, value float64) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromSlice creates a tensor that owns a copy of data.
//
// Returns an error if the shape is invalid or does not hold len(data) elements.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}
	t := Zeros(shape)
	copy(t.data, data)
	return t, nil
}

// Scalar creates a 1-element tensor of shape [1].
func Scalar(v float64) *Tensor {
	return Full(Shape{1}, v)
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the backing slice.
func (t *Tensor) Data() []float64 {
	return t.data
}

// NumElements returns the number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	c := Zeros(t.shape)
	copy(c.data, t.data)
	return c
}

// SameShape reports whether t and other have identical shapes.
func (t *Tensor) SameShape(other *Tensor) bool {
	return other != nil && t.shape.Equal(other.shape)
}

// CheckShape returns an error wrapping ErrShapeMismatch when other's shape differs.
func (t *Tensor) CheckShape(other *Tensor) error {
	if other == nil {
		return fmt.Errorf("%w: expected %v, got nil tensor", ErrShapeMismatch, t.shape)
	}
	if !t.shape.Equal(other.shape) {
		return fmt.Errorf("%w: expected %v, got %v", ErrShapeMismatch, t.shape, other.shape)
	}
	return nil
}

// CopyFrom overwrites t's values with src's values.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if err := t.CheckShape(src); err != nil {
		return err
	}
	copy(t.data, src.data)
	return nil
}

// Fill sets every element to value.
func (t *Tensor) Fill(value float64) {
	for i := range t.data {
		t.data[i] = value
	}
}

// Norm returns the L2 norm over all elements.
func (t *Tensor) Norm() float64 {
	return floats.Norm(t.data, 2)
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	return floats.Sum(t.data)
}

// Equal reports whether t and other have the same shape and bit-identical values.
func (t *Tensor) Equal(other *Tensor) bool {
	return t.SameShape(other) && floats.Equal(t.data, other.data)
}

// String returns a short description for logs and error messages.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(shape=%v)", t.shape)
}
