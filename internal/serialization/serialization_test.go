package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/born-ml/holocron/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArchive(t *testing.T) *Archive {
	t.Helper()
	a := NewArchive(KindOptimizer)
	w, err := tensor.FromSlice([]float64{1.5, -2.25, math.Inf(1), math.SmallestNonzeroFloat64}, tensor.Shape{2, 2})
	require.NoError(t, err)
	a.Tensors["state.0.exp_avg"] = w
	a.Tensors["state.1.exp_avg"] = tensor.Full(tensor.Shape{3}, 0.1)
	a.Metadata["variant"] = "lamb"
	a.Payload = json.RawMessage(`{"step":3}`)
	return a
}

func TestWriteRead_RoundTrip(t *testing.T) {
	a := sampleArchive(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a))

	// Tensor data starts on a 64-byte boundary.
	headerSize := binary.LittleEndian.Uint64(buf.Bytes()[16:24])
	dataSize := binary.LittleEndian.Uint64(buf.Bytes()[24:32])
	dataStart := uint64(FixedHeaderSize) + headerSize
	dataStart += uint64(paddingFor(int64(dataStart)))
	assert.Zero(t, dataStart%HeaderAlignment)
	assert.Equal(t, uint64(buf.Len()), dataStart+dataSize)

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, KindOptimizer, got.Kind)
	assert.Equal(t, "lamb", got.Metadata["variant"])
	assert.JSONEq(t, `{"step":3}`, string(got.Payload))
	require.Len(t, got.Tensors, 2)
	for name, want := range a.Tensors {
		gt, err := got.Tensor(name)
		require.NoError(t, err)
		assert.True(t, want.Equal(gt), "tensor %s differs", name)
	}

	_, err = got.Tensor("missing")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opt.holo")
	require.NoError(t, WriteFile(path, sampleArchive(t)))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got.Tensors, 2)

	_, err = ReadFile(filepath.Join(t.TempDir(), "nope.holo"))
	assert.Error(t, err)
}

func TestRead_Corruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleArchive(t)))
	raw := buf.Bytes()

	t.Run("bad magic", func(t *testing.T) {
		b := bytes.Clone(raw)
		copy(b, "NOPE")
		_, err := Read(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("bad version", func(t *testing.T) {
		b := bytes.Clone(raw)
		binary.LittleEndian.PutUint32(b[4:8], 99)
		_, err := Read(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("flipped data byte", func(t *testing.T) {
		b := bytes.Clone(raw)
		b[len(b)-1] ^= 0xFF
		_, err := Read(bytes.NewReader(b))
		assert.ErrorIs(t, err, ErrChecksumMismatch)

		_, err = ReadWithOptions(bytes.NewReader(b), ReaderOptions{SkipChecksumValidation: true})
		assert.NoError(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Read(bytes.NewReader(raw[:len(raw)-8]))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "truncated")
	})

	t.Run("short fixed header", func(t *testing.T) {
		_, err := Read(bytes.NewReader(raw[:10]))
		assert.Error(t, err)
	})
}

func TestWrite_RejectsBadNames(t *testing.T) {
	a := NewArchive(KindOptimizer)
	a.Tensors["../escape"] = tensor.Zeros(tensor.Shape{1})
	err := Write(&bytes.Buffer{}, a)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid_name", verr.Type)
}

func TestValidateTensorName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"state.0.exp_avg", false},
		{"", true},
		{"a/b", true},
		{`a\b`, true},
		{"a..b", true},
		{"a\x00b", true},
		{strings.Repeat("x", MaxTensorNameLen+1), true},
	}
	for _, tt := range tests {
		err := ValidateTensorName(tt.name)
		assert.Equal(t, tt.wantErr, err != nil, "name %q", tt.name)
	}
}

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string
	}{
		{
			name: "valid",
			tensors: []TensorMeta{
				{Name: "a", Shape: []int{2}, Offset: 0, Size: 16},
				{Name: "b", Shape: []int{1}, Offset: 16, Size: 8},
			},
			dataSize: 24,
		},
		{
			name: "overlap",
			tensors: []TensorMeta{
				{Name: "a", Shape: []int{2}, Offset: 0, Size: 16},
				{Name: "b", Shape: []int{2}, Offset: 8, Size: 16},
			},
			dataSize: 32,
			wantType: "offset_overlap",
		},
		{
			name:     "out of bounds",
			tensors:  []TensorMeta{{Name: "a", Shape: []int{4}, Offset: 0, Size: 32}},
			dataSize: 16,
			wantType: "out_of_bounds",
		},
		{
			name:     "negative",
			tensors:  []TensorMeta{{Name: "a", Shape: []int{1}, Offset: -8, Size: 8}},
			dataSize: 16,
			wantType: "negative_offset",
		},
		{
			name:     "size disagrees with shape",
			tensors:  []TensorMeta{{Name: "a", Shape: []int{3}, Offset: 0, Size: 16}},
			dataSize: 32,
			wantType: "size_mismatch",
		},
		{
			name:     "zero dimension",
			tensors:  []TensorMeta{{Name: "a", Shape: []int{0}, Offset: 0, Size: 0}},
			dataSize: 0,
			wantType: "invalid_shape",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.wantType, verr.Type)
		})
	}
}

func TestValidateHeader_Duplicate(t *testing.T) {
	h := &Header{Tensors: []TensorMeta{
		{Name: "a", Shape: []int{1}, Offset: 0, Size: 8},
		{Name: "a", Shape: []int{1}, Offset: 8, Size: 8},
	}}
	var verr *ValidationError
	require.True(t, errors.As(ValidateHeader(h, 16), &verr))
	assert.Equal(t, "duplicate_name", verr.Type)
}
