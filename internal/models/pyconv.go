// Package models describes the parameter sets of reference networks that
// the optimizers are exercised against.
//
// Only the trainable parameters are modeled: every convolution, batch-norm
// affine pair and classifier weight with its exact shape. Forward passes are
// not implemented; the host framework owns them.
package models

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"
	"sort"

	"github.com/born-ml/holocron/internal/tensor"
)

// Errors.
var (
	ErrUnknownPreset   = errors.New("unknown model preset")
	ErrInvalidPreset   = errors.New("invalid model preset")
	ErrNoPretrainedURL = errors.New("pretrained weights unavailable")
)

// Block selects the residual block of a PyConvResNet stage.
type Block int

// Residual blocks.
const (
	PyBottleneck   Block = iota // 1x1 -> PyConv -> 1x1, expansion 4
	PyHGBottleneck              // Same layout with heavy grouping, expansion 2
)

// Expansion is the ratio of a block's output channels to its planes.
func (b Block) Expansion() int {
	if b == PyHGBottleneck {
		return 2
	}
	return 4
}

// String returns the block name.
func (b Block) String() string {
	if b == PyHGBottleneck {
		return "PyHGBottleneck"
	}
	return "PyBottleneck"
}

// Preset is the architecture table of one PyConvResNet.
//
// Stage i stacks NumBlocks[i] blocks producing OutChans[i]*expansion
// channels; Groups[i] lists the group count of each pyramid level, so its
// length is the number of levels of the stage's PyConv.
type Preset struct {
	Name          string
	Block         Block
	NumBlocks     []int
	OutChans      []int
	WidthPerGroup int
	Groups        [][]int
	URL           string // Pretrained weights; empty when none are published
}

var presets = map[string]Preset{
	"pyconv_resnet50": {
		Name:          "pyconv_resnet50",
		Block:         PyBottleneck,
		NumBlocks:     []int{3, 4, 6, 3},
		OutChans:      []int{64, 128, 256, 512},
		WidthPerGroup: 64,
		Groups:        [][]int{{1, 4, 8, 16}, {1, 4, 8}, {1, 4}, {1}},
	},
	"pyconvhg_resnet50": {
		Name:          "pyconvhg_resnet50",
		Block:         PyHGBottleneck,
		NumBlocks:     []int{3, 4, 6, 3},
		OutChans:      []int{128, 256, 512, 1024},
		WidthPerGroup: 2,
		Groups:        [][]int{{32, 32, 32, 32}, {32, 64, 64}, {32, 64}, {32}},
	},
}

// Presets returns the registered preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a copy of the named preset.
func Lookup(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p.clone(), nil
}

func (p Preset) clone() Preset {
	c := p
	c.NumBlocks = append([]int(nil), p.NumBlocks...)
	c.OutChans = append([]int(nil), p.OutChans...)
	c.Groups = make([][]int, len(p.Groups))
	for i, g := range p.Groups {
		c.Groups[i] = append([]int(nil), g...)
	}
	return c
}

// Init names the initializer of a parameter.
type Init int

// Initializers.
const (
	InitKaiming Init = iota // Convolution weights
	InitXavier              // Classifier weight
	InitOnes                // Batch-norm scale
	InitZeros               // Batch-norm shift, classifier bias
)

// ParamSpec describes one trainable parameter.
type ParamSpec struct {
	Name  string
	Shape tensor.Shape
	Init  Init
	FanIn int
	// FanOut is only set for InitXavier.
	FanOut int
}

// Options configure the network head and stem.
type Options struct {
	NumClasses int // Default 10
	InChannels int // Default 3
}

func (o Options) withDefaults() Options {
	if o.NumClasses == 0 {
		o.NumClasses = 10
	}
	if o.InChannels == 0 {
		o.InChannels = 3
	}
	return o
}

const stemPlanes = 64

// Layout lists the trainable parameters of the network described by p, in
// registration order. Nothing is allocated.
func Layout(p Preset, opts Options) ([]ParamSpec, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if opts.NumClasses < 1 || opts.InChannels < 1 {
		return nil, fmt.Errorf("%w: num_classes and in_channels must be >= 1", ErrInvalidPreset)
	}

	var specs []ParamSpec
	conv := func(name string, out, in, k int) {
		specs = append(specs, ParamSpec{
			Name:  name + ".weight",
			Shape: tensor.Shape{out, in, k, k},
			Init:  InitKaiming,
			FanIn: in * k * k,
		})
	}
	bn := func(name string, c int) {
		specs = append(specs,
			ParamSpec{Name: name + ".weight", Shape: tensor.Shape{c}, Init: InitOnes},
			ParamSpec{Name: name + ".bias", Shape: tensor.Shape{c}, Init: InitZeros},
		)
	}

	// Stem: 7x7 stride-2 convolution, no pooling.
	conv("stem.conv", stemPlanes, opts.InChannels, 7)
	bn("stem.bn", stemPlanes)

	inPlanes := stemPlanes
	exp := p.Block.Expansion()
	for s, planes := range p.OutChans {
		groups := p.Groups[s]
		width := planes * p.WidthPerGroup / 64 * slices.Min(groups)
		for b := range p.NumBlocks[s] {
			prefix := fmt.Sprintf("layer%d.%d", s+1, b)
			stride := 1
			if s > 0 && b == 0 {
				stride = 2
			}

			conv(prefix+".conv1", width, inPlanes, 1)
			bn(prefix+".bn1", width)
			for lvl, level := range pyramid(width, groups) {
				conv(fmt.Sprintf("%s.pyconv.%d", prefix, lvl), level.out, width/level.groups, level.kernel)
			}
			bn(prefix+".bn2", width)
			conv(prefix+".conv3", planes*exp, width, 1)
			bn(prefix+".bn3", planes*exp)

			if stride != 1 || inPlanes != planes*exp {
				conv(prefix+".downsample.conv", planes*exp, inPlanes, 1)
				bn(prefix+".downsample.bn", planes*exp)
			}
			inPlanes = planes * exp
		}
	}

	specs = append(specs,
		ParamSpec{
			Name:   "fc.weight",
			Shape:  tensor.Shape{opts.NumClasses, inPlanes},
			Init:   InitXavier,
			FanIn:  inPlanes,
			FanOut: opts.NumClasses,
		},
		ParamSpec{Name: "fc.bias", Shape: tensor.Shape{opts.NumClasses}, Init: InitZeros},
	)
	return specs, nil
}

// CountParameters returns the number of scalar weights in specs.
func CountParameters(specs []ParamSpec) int {
	n := 0
	for _, s := range specs {
		n += s.Shape.NumElements()
	}
	return n
}

// pyramidLevel is one convolution of a PyConv layer.
type pyramidLevel struct {
	out    int
	kernel int
	groups int
}

// pyramid splits out channels across len(groups) levels with kernels
// 3, 5, 7, ... For L levels with e = floor(log2 L) and r = L - 2^e, the first
// 2r levels get out/2^(e+1) channels and the rest out/2^e.
func pyramid(out int, groups []int) []pyramidLevel {
	levels := len(groups)
	if levels == 1 {
		return []pyramidLevel{{out: out, kernel: 3, groups: groups[0]}}
	}
	e := bits.Len(uint(levels)) - 1
	rem := levels - 1<<e
	split := make([]pyramidLevel, levels)
	for i := range split {
		c := out >> e
		if i < 2*rem {
			c = out >> (e + 1)
		}
		split[i] = pyramidLevel{out: c, kernel: 3 + 2*i, groups: groups[i]}
	}
	return split
}

func (p Preset) validate() error {
	stages := len(p.OutChans)
	switch {
	case stages == 0:
		return fmt.Errorf("%w: %s has no stages", ErrInvalidPreset, p.Name)
	case len(p.NumBlocks) != stages || len(p.Groups) != stages:
		return fmt.Errorf("%w: %s: num_blocks, out_chans and groups must have the same length", ErrInvalidPreset, p.Name)
	case p.WidthPerGroup < 1:
		return fmt.Errorf("%w: %s: width_per_group must be >= 1", ErrInvalidPreset, p.Name)
	}
	for s, groups := range p.Groups {
		if len(groups) == 0 || p.NumBlocks[s] < 1 || p.OutChans[s] < 1 {
			return fmt.Errorf("%w: %s: stage %d is empty", ErrInvalidPreset, p.Name, s)
		}
		width := p.OutChans[s] * p.WidthPerGroup / 64 * slices.Min(groups)
		if width < 1 {
			return fmt.Errorf("%w: %s: stage %d has zero width", ErrInvalidPreset, p.Name, s)
		}
		for lvl, level := range pyramid(width, groups) {
			if level.groups < 1 || level.out < 1 || width%level.groups != 0 || level.out%level.groups != 0 {
				return fmt.Errorf("%w: %s: stage %d level %d: %d groups do not divide %d -> %d channels",
					ErrInvalidPreset, p.Name, s, lvl, level.groups, width, level.out)
			}
		}
	}
	return nil
}
