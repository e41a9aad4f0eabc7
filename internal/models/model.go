package models

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/born-ml/holocron/internal/nn"
	"github.com/born-ml/holocron/internal/tensor"
)

// BuildOptions configure Build.
type BuildOptions struct {
	Options

	Seed       int64        // Seed for weight initialization
	Pretrained bool         // Request published weights
	Logger     *slog.Logger // Defaults to slog.Default()
}

// Model is a materialized parameter set. It implements nn.Module.
type Model struct {
	name   string
	params []*nn.Parameter
	byName map[string]*nn.Parameter
}

var _ nn.Module = (*Model)(nil)

// Build allocates and initializes every parameter of p.
//
// Presets without a published URL fall back to default initialization when
// pretrained weights are requested, with a warning. Downloading weights is
// not supported, so a preset with a URL returns ErrNoPretrainedURL.
func Build(p Preset, opts BuildOptions) (*Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	specs, err := Layout(p, opts.Options)
	if err != nil {
		return nil, err
	}
	if opts.Pretrained {
		if p.URL != "" {
			return nil, fmt.Errorf("%w: %s: fetching %s is not supported", ErrNoPretrainedURL, p.Name, p.URL)
		}
		logger.Warn("invalid model URL, using default initialization", "arch", p.Name)
	}

	//nolint:gosec // G404: weight initialization does not need a cryptographic source
	rng := rand.New(rand.NewSource(opts.Seed))
	m := &Model{
		name:   p.Name,
		params: make([]*nn.Parameter, 0, len(specs)),
		byName: make(map[string]*nn.Parameter, len(specs)),
	}
	for _, s := range specs {
		var t *tensor.Tensor
		switch s.Init {
		case InitKaiming:
			t = nn.KaimingNormal(s.FanIn, s.Shape, rng)
		case InitXavier:
			t = nn.Xavier(s.FanIn, s.FanOut, s.Shape, rng)
		case InitOnes:
			t = nn.Ones(s.Shape)
		default:
			t = nn.Zeros(s.Shape)
		}
		param := nn.NewParameter(s.Name, t)
		m.params = append(m.params, param)
		m.byName[s.Name] = param
	}
	logger.Debug("built model", "arch", p.Name, "tensors", len(specs), "parameters", nn.CountParameters(m.params))
	return m, nil
}

// New builds the named preset.
func New(name string, opts BuildOptions) (*Model, error) {
	p, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return Build(p, opts)
}

// Name returns the preset name.
func (m *Model) Name() string {
	return m.name
}

// Parameters returns all trainable parameters in registration order.
func (m *Model) Parameters() []*nn.Parameter {
	return m.params
}

// Parameter returns the named parameter, or nil.
func (m *Model) Parameter(name string) *nn.Parameter {
	return m.byName[name]
}
