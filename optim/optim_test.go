// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim_test

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/holocron/nn"
	"github.com/born-ml/holocron/optim"
	"github.com/born-ml/holocron/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicAPI_AdamEndToEnd(t *testing.T) {
	w, err := tensor.FromSlice([]float64{1.0}, tensor.Shape{1})
	require.NoError(t, err)
	p := nn.NewParameter("w", w)

	cfg := optim.Defaults(optim.Adam)
	cfg.LR = 0.1
	opt, err := optim.NewAdam([]*nn.Parameter{p}, cfg)
	require.NoError(t, err)

	prev := 1.0
	for range 3 {
		opt.ZeroGrad()
		require.NoError(t, p.SetGrad(tensor.Full(tensor.Shape{1}, 0.5)))
		require.NoError(t, opt.Step())
		assert.Less(t, p.Tensor().Data()[0], prev)
		prev = p.Tensor().Data()[0]
	}
	assert.Equal(t, int64(3), opt.StepCount(p))

	path := filepath.Join(t.TempDir(), "adam.holo")
	require.NoError(t, opt.Save(path))
	sd, err := optim.LoadStateDictFile(path)
	require.NoError(t, err)
	assert.Equal(t, optim.Adam, sd.Variant)
	assert.Equal(t, int64(3), sd.State[0].Step)
}

func TestPublicAPI_Errors(t *testing.T) {
	p := nn.NewParameter("w", tensor.Zeros(tensor.Shape{2}))

	cfg := optim.Defaults(optim.Lamb)
	cfg.Betas = [2]float64{1.0, 0.9}
	_, err := optim.NewLamb([]*nn.Parameter{p}, cfg)
	var cerr *optim.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "betas[0]", cerr.Field)

	opt, err := optim.NewLamb([]*nn.Parameter{p}, optim.Defaults(optim.Lamb))
	require.NoError(t, err)
	err = opt.StepWith(map[*nn.Parameter]*tensor.Tensor{p: tensor.Zeros(tensor.Shape{3})})
	assert.ErrorIs(t, err, optim.ErrShapeMismatch)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestPublicAPI_Helpers(t *testing.T) {
	assert.InDelta(t, 0.1, optim.BiasCorrection(1, 0.9), 1e-12)
	assert.Equal(t, 1.0, optim.TrustRatio(0, 1, 0, 1e-8, nil))
	assert.Len(t, optim.Variants(), 8)

	v, err := optim.ParseVariant("RaLars")
	require.NoError(t, err)
	assert.Equal(t, optim.RaLars, v)
	assert.Equal(t, optim.DecayDecoupled, v.DefaultDecay())
}
