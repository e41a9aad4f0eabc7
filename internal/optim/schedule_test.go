package optim_test

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/holocron/internal/nn"
	"github.com/born-ml/holocron/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookahead_Sync(t *testing.T) {
	p := newParam(t, "x", 1.0)
	cfg := optim.Defaults(optim.SGD)
	cfg.LR = 0.1
	base, err := optim.NewSGD([]*nn.Parameter{p}, cfg)
	require.NoError(t, err)
	la, err := optim.NewLookahead(base, 2, 0.5)
	require.NoError(t, err)

	setGrad(t, p, 1.0)

	require.NoError(t, la.Step())
	assert.InDelta(t, 0.9, p.Tensor().Data()[0], 1e-12)

	// Fast weights reach 0.8, slow = 1 + 0.5*(0.8-1) = 0.9, fast resets to slow.
	require.NoError(t, la.Step())
	assert.InDelta(t, 0.9, p.Tensor().Data()[0], 1e-12)

	require.NoError(t, la.Step())
	require.NoError(t, la.Step())
	// Fast 0.7, slow = 0.9 + 0.5*(0.7-0.9) = 0.8.
	assert.InDelta(t, 0.8, p.Tensor().Data()[0], 1e-12)

	assert.Same(t, base, la.Base())
	require.NoError(t, la.SetLR(0.2))
	assert.Equal(t, 0.2, la.GetLR())
	la.ZeroGrad()
	assert.Nil(t, p.Grad())
}

func TestNewLookahead_Validation(t *testing.T) {
	base, err := optim.NewSGD(nil, optim.Defaults(optim.SGD))
	require.NoError(t, err)

	_, err = optim.NewLookahead(base, 0, 0.5)
	assert.ErrorIs(t, err, optim.ErrConfiguration)
	_, err = optim.NewLookahead(base, 5, 0)
	assert.ErrorIs(t, err, optim.ErrConfiguration)
	_, err = optim.NewLookahead(base, 5, 1.5)
	assert.ErrorIs(t, err, optim.ErrConfiguration)
	_, err = optim.NewLookahead(nil, 5, 0.5)
	assert.ErrorIs(t, err, optim.ErrInvalidArgument)
}

func TestLookahead_ResumeKeepsSlowWeights(t *testing.T) {
	cfg := optim.Defaults(optim.SGD)
	cfg.LR = 0.1

	p := newParam(t, "x", 1.0)
	base, err := optim.NewSGD([]*nn.Parameter{p}, cfg)
	require.NoError(t, err)
	la, err := optim.NewLookahead(base, 2, 0.5)
	require.NoError(t, err)
	for range 3 {
		setGrad(t, p, 1.0)
		require.NoError(t, la.Step())
	}
	// One fast step past the last sync: fast 0.8, slow 0.9.
	path := filepath.Join(t.TempDir(), "lookahead.holo")
	require.NoError(t, la.Save(path))

	q := nn.NewParameter("x", p.Tensor().Clone())
	base2, err := optim.NewSGD([]*nn.Parameter{q}, cfg)
	require.NoError(t, err)
	resumed, err := optim.NewLookahead(base2, 5, 0.3)
	require.NoError(t, err)
	require.NoError(t, resumed.Load(path))

	setGrad(t, p, 1.0)
	setGrad(t, q, 1.0)
	require.NoError(t, la.Step())
	require.NoError(t, resumed.Step())
	// Sync with the restored period and rate: slow = 0.9 + 0.5*(0.7-0.9).
	assert.InDelta(t, 0.8, p.Tensor().Data()[0], 1e-12)
	assert.True(t, p.Tensor().Equal(q.Tensor()))
}

func TestLookahead_LoadStateDictRejects(t *testing.T) {
	p := newParam(t, "x", 1.0, 2.0)
	base, err := optim.NewSGD([]*nn.Parameter{p}, optim.Defaults(optim.SGD))
	require.NoError(t, err)
	la, err := optim.NewLookahead(base, 3, 0.5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*optim.StateDict)
	}{
		{"plain optimizer state", func(sd *optim.StateDict) { sd.Lookahead = nil }},
		{"counter past period", func(sd *optim.StateDict) { sd.Lookahead.Fast = 3 }},
		{"bad rate", func(sd *optim.StateDict) { sd.Lookahead.Alpha = 2 }},
		{"slow index out of range", func(sd *optim.StateDict) { sd.Lookahead.Slow[4] = sd.Lookahead.Slow[0] }},
		{"slow shape", func(sd *optim.StateDict) { sd.Lookahead.Slow[0] = vec(t, 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sd := la.StateDict()
			tt.mutate(sd)
			assert.ErrorIs(t, la.LoadStateDict(sd), optim.ErrStateCorruption)
		})
	}
	assert.ErrorIs(t, la.LoadStateDict(nil), optim.ErrStateCorruption)
}

func TestLookahead_RemoveParam(t *testing.T) {
	p := newParam(t, "w", 1.0)
	q := newParam(t, "b", 2.0)
	base, err := optim.NewSGD([]*nn.Parameter{p, q}, optim.Defaults(optim.SGD))
	require.NoError(t, err)
	la, err := optim.NewLookahead(base, 1, 0.5)
	require.NoError(t, err)

	assert.True(t, la.RemoveParam(q))
	assert.False(t, la.RemoveParam(q))
	assert.Equal(t, []*nn.Parameter{p}, base.Params())

	sd := la.StateDict()
	assert.Equal(t, []int{0}, sd.Lookahead.Indices())

	setGrad(t, p, 1.0)
	require.NoError(t, la.Step())
}

func TestOneCycle_Cosine(t *testing.T) {
	opt, err := optim.NewAdam(nil, optim.Defaults(optim.Adam))
	require.NoError(t, err)
	sched, err := optim.NewOneCycle(opt, optim.OneCycleConfig{MaxLR: 1, TotalSteps: 10})
	require.NoError(t, err)

	// Warm up from 1/25 over the first 3 steps.
	assert.InDelta(t, 0.04, opt.GetLR(), 1e-12)
	assert.InDelta(t, 1.0, sched.At(3), 1e-12)
	assert.InDelta(t, 0.04/1e4, sched.At(10), 1e-15)
	assert.InDelta(t, 0.04/1e4, sched.At(50), 1e-15)

	lrs := []float64{opt.GetLR()}
	for range 10 {
		require.NoError(t, sched.Step())
		lrs = append(lrs, opt.GetLR())
	}
	for i := 1; i <= 3; i++ {
		assert.Greater(t, lrs[i], lrs[i-1], "warmup step %d", i)
	}
	for i := 4; i <= 10; i++ {
		assert.Less(t, lrs[i], lrs[i-1], "anneal step %d", i)
	}
}

func TestOneCycle_Linear(t *testing.T) {
	opt, err := optim.NewSGD(nil, optim.Defaults(optim.SGD))
	require.NoError(t, err)
	sched, err := optim.NewOneCycle(opt, optim.OneCycleConfig{MaxLR: 1, TotalSteps: 10, Linear: true})
	require.NoError(t, err)

	assert.InDelta(t, 0.04+0.96/3, sched.At(1), 1e-12)
}

func TestOneCycle_Validation(t *testing.T) {
	opt, err := optim.NewSGD(nil, optim.Defaults(optim.SGD))
	require.NoError(t, err)

	for _, cfg := range []optim.OneCycleConfig{
		{MaxLR: -1, TotalSteps: 10},
		{MaxLR: 1, TotalSteps: 0},
		{MaxLR: 1, TotalSteps: 10, WarmupFrac: 2},
		{MaxLR: 1, TotalSteps: 10, DivFactor: 0.5},
	} {
		_, err := optim.NewOneCycle(opt, cfg)
		assert.ErrorIs(t, err, optim.ErrConfiguration, "%+v", cfg)
	}
	assert.Equal(t, 0.01, opt.GetLR())
}

func TestOneCycle_DrivesLookahead(t *testing.T) {
	base, err := optim.NewSGD(nil, optim.Defaults(optim.SGD))
	require.NoError(t, err)
	la, err := optim.NewLookahead(base, 5, 0.5)
	require.NoError(t, err)

	_, err = optim.NewOneCycle(la, optim.OneCycleConfig{MaxLR: 0.5, TotalSteps: 100})
	require.NoError(t, err)
	assert.InDelta(t, 0.02, base.GetLR(), 1e-12)
}
