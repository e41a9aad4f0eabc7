package autodiff_test

import (
	"testing"

	"github.com/born-ml/holocron/internal/autodiff"
	"github.com/born-ml/holocron/internal/backend/cpu"
	"github.com/born-ml/holocron/internal/nn"
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

func TestAutodiffBackend_Name(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
	assert.Equal(t, "CPU", backend.Inner().Name())
}

func TestTape_Recording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	assert.False(t, tape.IsRecording())

	x := from(t, tensor.Shape{2}, 1, 2)
	backend.Add(x, x)
	assert.Equal(t, 0, tape.NumOps())

	tape.StartRecording()
	backend.Add(x, x)
	backend.Mul(x, x)
	assert.Equal(t, 2, tape.NumOps())

	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
	assert.True(t, tape.IsRecording())

	tape.StopRecording()
	assert.False(t, tape.IsRecording())
}

func TestBackward_NothingRecorded(t *testing.T) {
	backend := autodiff.New(cpu.New())
	_, err := autodiff.Backward(tensor.Scalar(1), backend)
	assert.ErrorIs(t, err, autodiff.ErrNoOperations)
}

func TestBackward_SquaredNorm(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := from(t, tensor.Shape{3}, 1, -2, 3)
	loss := backend.Sum(backend.Mul(x, x))
	assert.Equal(t, 14.0, loss.Data()[0])

	grads, err := autodiff.Backward(loss, backend)
	require.NoError(t, err)
	// x is used twice, so both branches accumulate: 2x.
	assert.Equal(t, []float64{2, -4, 6}, grads[x].Data())
	// The backward pass records nothing and restores the recording state.
	assert.Equal(t, 2, backend.Tape().NumOps())
	assert.True(t, backend.Tape().IsRecording())
}

func TestBackward_SubAndScale(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a := from(t, tensor.Shape{2}, 3, 4)
	b := from(t, tensor.Shape{2}, 1, 1)
	// loss = 0.5 * sum((a - b)^2)
	d := backend.Sub(a, b)
	loss := backend.MulScalar(backend.Sum(backend.Mul(d, d)), 0.5)
	assert.InDelta(t, 6.5, loss.Data()[0], 1e-12)

	grads, err := autodiff.Backward(loss, backend)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 3}, grads[a].Data(), 1e-12)
	assert.InDeltaSlice(t, []float64{-2, -3}, grads[b].Data(), 1e-12)
}

func TestBackward_LeastSquares(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := from(t, tensor.Shape{3, 2}, 1, 0, 0, 1, 1, 1)
	y := from(t, tensor.Shape{3}, 1, 2, 2)
	w := from(t, tensor.Shape{2}, 0, 0)
	// loss = sum((Xw - y)^2), dloss/dw = 2 X^T (Xw - y)
	r := backend.Sub(backend.MatVec(x, w), y)
	loss := backend.Sum(backend.Mul(r, r))
	assert.InDelta(t, 9.0, loss.Data()[0], 1e-12)

	grads, err := autodiff.Backward(loss, backend)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-6, -8}, grads[w].Data(), 1e-12)
	assert.Equal(t, tensor.Shape{3, 2}, grads[x].Shape())
}

func TestSetGrads(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	w := nn.NewParameter("w", from(t, tensor.Shape{2}, 1, 2))
	unused := nn.NewParameter("unused", from(t, tensor.Shape{1}, 5))
	loss := backend.Sum(backend.MulScalar(w.Tensor(), 3))

	grads, err := autodiff.Backward(loss, backend)
	require.NoError(t, err)
	require.NoError(t, autodiff.SetGrads([]*nn.Parameter{w, unused}, grads))

	require.NotNil(t, w.Grad())
	assert.Equal(t, []float64{3, 3}, w.Grad().Data())
	assert.NotSame(t, grads[w.Tensor()], w.Grad())
	assert.Nil(t, unused.Grad())
}
