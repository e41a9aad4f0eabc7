package cpu_test

import (
	"testing"

	"github.com/born-ml/holocron/internal/backend/cpu"
	"github.com/born-ml/holocron/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func from(t *testing.T, shape tensor.Shape, values ...float64) *tensor.Tensor {
	t.Helper()
	v, err := tensor.FromSlice(values, shape)
	require.NoError(t, err)
	return v
}

func TestCPUBackend_Elementwise(t *testing.T) {
	b := cpu.New()
	assert.Equal(t, "CPU", b.Name())

	x := from(t, tensor.Shape{3}, 1, 2, 3)
	y := from(t, tensor.Shape{3}, 4, 5, 6)

	assert.Equal(t, []float64{5, 7, 9}, b.Add(x, y).Data())
	assert.Equal(t, []float64{-3, -3, -3}, b.Sub(x, y).Data())
	assert.Equal(t, []float64{4, 10, 18}, b.Mul(x, y).Data())
	assert.Equal(t, []float64{-2, -4, -6}, b.MulScalar(x, -2).Data())

	// Inputs are never modified.
	assert.Equal(t, []float64{1, 2, 3}, x.Data())
	assert.Equal(t, []float64{4, 5, 6}, y.Data())
}

func TestCPUBackend_Reduce(t *testing.T) {
	b := cpu.New()
	s := b.Sum(from(t, tensor.Shape{2, 2}, 1, 2, 3, 4))
	assert.Equal(t, tensor.Shape{1}, s.Shape())
	assert.Equal(t, 10.0, s.Data()[0])

	e := b.Expand(s, tensor.Shape{2, 3})
	assert.Equal(t, tensor.Shape{2, 3}, e.Shape())
	assert.Equal(t, 60.0, e.Sum())

	assert.Panics(t, func() { b.Expand(from(t, tensor.Shape{2}, 1, 2), tensor.Shape{4}) })
}

func TestCPUBackend_Matrix(t *testing.T) {
	b := cpu.New()
	m := from(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

	assert.Equal(t, []float64{14, 32}, b.MatVec(m, from(t, tensor.Shape{3}, 1, 2, 3)).Data())
	assert.Equal(t, []float64{9, 12, 15}, b.MatTVec(m, from(t, tensor.Shape{2}, 1, 2)).Data())

	o := b.Outer(from(t, tensor.Shape{2}, 1, 2), from(t, tensor.Shape{3}, 1, 0, -1))
	assert.Equal(t, tensor.Shape{2, 3}, o.Shape())
	assert.Equal(t, []float64{1, 0, -1, 2, 0, -2}, o.Data())
}

func TestCPUBackend_ShapeMismatchPanics(t *testing.T) {
	b := cpu.New()
	x := from(t, tensor.Shape{2}, 1, 2)
	y := from(t, tensor.Shape{3}, 1, 2, 3)

	assert.Panics(t, func() { b.Add(x, y) })
	assert.Panics(t, func() { b.Mul(x, y) })
	assert.Panics(t, func() { b.MatVec(from(t, tensor.Shape{2, 2}, 1, 2, 3, 4), y) })
	assert.Panics(t, func() { b.MatVec(x, x) })
	assert.Panics(t, func() { b.Outer(from(t, tensor.Shape{1, 2}, 1, 2), x) })
}
