package optim_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/born-ml/holocron/internal/nn"
	"github.com/born-ml/holocron/internal/optim"
	"github.com/born-ml/holocron/internal/serialization"
	"github.com/born-ml/holocron/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trained returns an optimizer over two parameters that has taken a few steps.
func trained(t *testing.T, v optim.Variant) ([]*nn.Parameter, *optim.Optimizer) {
	t.Helper()
	params := []*nn.Parameter{
		newParam(t, "w", 0.5, -1.5, 2),
		newParam(t, "b", 0.1),
	}
	cfg := optim.Defaults(v)
	cfg.WeightDecay = 0.01
	opt, err := optim.New(v, params, cfg)
	require.NoError(t, err)
	for step := range 3 {
		g := 0.1 * float64(step+1)
		setGrad(t, params[0], g, -g, 2*g)
		setGrad(t, params[1], -g)
		require.NoError(t, opt.Step())
	}
	return params, opt
}

func cloneParams(t *testing.T, params []*nn.Parameter) []*nn.Parameter {
	t.Helper()
	out := make([]*nn.Parameter, len(params))
	for i, p := range params {
		out[i] = nn.NewParameter(p.Name(), p.Tensor().Clone())
	}
	return out
}

func TestStateDict_RoundTripContinuesIdentically(t *testing.T) {
	for _, v := range optim.Variants() {
		t.Run(v.String(), func(t *testing.T) {
			params, opt := trained(t, v)
			copies := cloneParams(t, params)
			restored, err := optim.New(v, copies, optim.Defaults(v))
			require.NoError(t, err)
			require.NoError(t, restored.LoadStateDict(opt.StateDict()))
			assert.Equal(t, opt.Config(), restored.Config())

			for i := range params {
				setGrad(t, params[i], filled(params[i], 0.3)...)
				setGrad(t, copies[i], filled(copies[i], 0.3)...)
			}
			require.NoError(t, opt.Step())
			require.NoError(t, restored.Step())

			for i := range params {
				assert.True(t, params[i].Tensor().Equal(copies[i].Tensor()), "param %d", i)
				assert.Equal(t, opt.StepCount(params[i]), restored.StepCount(copies[i]))
			}
		})
	}
}

func filled(p *nn.Parameter, v float64) []float64 {
	out := make([]float64, p.NumElements())
	for i := range out {
		out[i] = v
	}
	return out
}

func TestStateDict_IsDeepCopy(t *testing.T) {
	params, opt := trained(t, optim.Adam)
	sd := opt.StateDict()
	sd.State[0].ExpAvg.Fill(42)
	sd.State[0].Step = 99

	st, ok := opt.State(params[0])
	require.True(t, ok)
	assert.NotEqual(t, 42.0, st.ExpAvg.Data()[0])
	assert.Equal(t, int64(3), st.Step)
}

func TestLoadStateDict_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(sd *optim.StateDict)
	}{
		{"variant mismatch", func(sd *optim.StateDict) { sd.Variant = optim.Lamb }},
		{"invalid config", func(sd *optim.StateDict) { sd.Config.LR = -1 }},
		{"index out of range", func(sd *optim.StateDict) { sd.State[5] = sd.State[0] }},
		{"nil state", func(sd *optim.StateDict) { sd.State[1] = nil }},
		{"negative step", func(sd *optim.StateDict) { sd.State[0].Step = -1 }},
		{"wrong shape", func(sd *optim.StateDict) { sd.State[0].ExpAvg = tensor.Zeros(tensor.Shape{2}) }},
		{"missing tensor", func(sd *optim.StateDict) { sd.State[1].ExpAvgSq = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, opt := trained(t, optim.Adam)
			before := opt.StateDict()
			sd := opt.StateDict()
			tt.mutate(sd)

			err := opt.LoadStateDict(sd)
			require.Error(t, err)
			assert.ErrorIs(t, err, optim.ErrStateCorruption)
			assert.ErrorIs(t, err, optim.ErrInvalidArgument)

			// Unchanged on error.
			assert.Equal(t, before.Config, opt.Config())
			st, ok := opt.State(params[0])
			require.True(t, ok)
			assert.True(t, before.State[0].ExpAvg.Equal(st.ExpAvg))
			assert.Equal(t, int64(3), st.Step)
		})
	}

	_, opt := trained(t, optim.Adam)
	assert.ErrorIs(t, opt.LoadStateDict(nil), optim.ErrStateCorruption)
}

func TestLoadStateDict_DropsUnusedTensors(t *testing.T) {
	params, opt := trained(t, optim.SGD)
	sd := opt.StateDict()
	sd.State[0].ExpAvg = tensor.Zeros(tensor.Shape{3})

	require.NoError(t, opt.LoadStateDict(sd))
	st, _ := opt.State(params[0])
	assert.Nil(t, st.ExpAvg)
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	for _, v := range optim.Variants() {
		t.Run(v.String(), func(t *testing.T) {
			_, opt := trained(t, v)
			sd := opt.StateDict()

			var buf bytes.Buffer
			require.NoError(t, optim.WriteStateDict(&buf, sd))
			got, err := optim.ReadStateDict(&buf)
			require.NoError(t, err)

			assert.Equal(t, sd.Variant, got.Variant)
			assert.Equal(t, sd.Config, got.Config)
			require.Equal(t, sd.Indices(), got.Indices())
			for _, i := range sd.Indices() {
				want, have := sd.State[i], got.State[i]
				assert.Equal(t, want.Step, have.Step)
				assert.Equal(t, want.WeightSum, have.WeightSum)
				assert.Equal(t, want.TrustRatio, have.TrustRatio)
				for _, pair := range [][2]*tensor.Tensor{
					{want.ExpAvg, have.ExpAvg},
					{want.ExpAvgSq, have.ExpAvgSq},
					{want.MaxExpAvgSq, have.MaxExpAvgSq},
				} {
					if pair[0] == nil {
						assert.Nil(t, pair[1])
						continue
					}
					require.NotNil(t, pair[1])
					assert.True(t, pair[0].Equal(pair[1]))
				}
			}
		})
	}
}

func TestCheckpoint_SaveLoadFile(t *testing.T) {
	params, opt := trained(t, optim.TAdam)
	path := filepath.Join(t.TempDir(), "tadam.holo")
	require.NoError(t, opt.Save(path))

	copies := cloneParams(t, params)
	restored, err := optim.NewTAdam(copies, optim.Defaults(optim.TAdam))
	require.NoError(t, err)
	require.NoError(t, restored.Load(path))

	want, _ := opt.State(params[0])
	got, ok := restored.State(copies[0])
	require.True(t, ok)
	assert.Equal(t, want.WeightSum, got.WeightSum)
	assert.True(t, want.ExpAvg.Equal(got.ExpAvg))

	assert.Error(t, restored.Load(filepath.Join(t.TempDir(), "missing.holo")))
}

func TestReadStateDict_Corruption(t *testing.T) {
	archiveWith := func(kind, payload string) *bytes.Buffer {
		a := serialization.NewArchive(kind)
		a.Payload = json.RawMessage(payload)
		a.Tensors["state.0.scalars"] = tensor.Zeros(tensor.Shape{2})
		var buf bytes.Buffer
		require.NoError(t, serialization.Write(&buf, a))
		return &buf
	}

	tests := []struct {
		name string
		data *bytes.Buffer
	}{
		{"not an archive", bytes.NewBufferString("definitely not a checkpoint")},
		{"wrong kind", archiveWith("model", `{"variant":"adam"}`)},
		{"step is not a number", archiveWith(serialization.KindOptimizer,
			`{"variant":"adam","config":{},"params":[{"index":0,"step":"three"}]}`)},
		{"unknown variant", archiveWith(serialization.KindOptimizer, `{"variant":"adagrad"}`)},
		{"unknown decay mode", archiveWith(serialization.KindOptimizer,
			`{"variant":"adam","config":{"weight_decay_mode":"sideways"}}`)},
		{"missing scalars", archiveWith(serialization.KindOptimizer,
			`{"variant":"adam","config":{},"params":[{"index":1,"step":1}]}`)},
		{"duplicate index", archiveWith(serialization.KindOptimizer,
			`{"variant":"adam","config":{},"params":[{"index":0,"step":1},{"index":0,"step":2}]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := optim.ReadStateDict(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, optim.ErrStateCorruption)
		})
	}
}

func TestWriteStateDict_Rejects(t *testing.T) {
	var buf bytes.Buffer
	err := optim.WriteStateDict(&buf, nil)
	assert.ErrorIs(t, err, optim.ErrStateCorruption)

	_, opt := trained(t, optim.Lamb)
	sd := opt.StateDict()
	sd.State[1] = nil
	err = optim.WriteStateDict(&buf, sd)
	require.Error(t, err)
	assert.ErrorIs(t, err, optim.ErrStateCorruption)

	var serr *optim.StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "state.1", serr.Key)
	assert.Zero(t, buf.Len())
}
