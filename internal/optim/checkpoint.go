package optim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/born-ml/holocron/internal/serialization"
	"github.com/born-ml/holocron/internal/tensor"
)

// configJSON is the on-disk form of Config.
type configJSON struct {
	LR                float64    `json:"lr"`
	Betas             [2]float64 `json:"betas"`
	Eps               float64    `json:"eps"`
	WeightDecay       float64    `json:"weight_decay"`
	WeightDecayMode   string     `json:"weight_decay_mode"`
	Momentum          float64    `json:"momentum"`
	Nesterov          bool       `json:"nesterov"`
	TrustClip         [2]float64 `json:"trust_clip"`
	AMSGrad           bool       `json:"amsgrad"`
	DoF               float64    `json:"dof"`
	ZeroGradAfterStep bool       `json:"zero_grad_after_step"`
}

// paramJSON records which entries exist for one parameter index.
type paramJSON struct {
	Index int   `json:"index"`
	Step  int64 `json:"step"`
}

type lookaheadJSON struct {
	K     int     `json:"k"`
	Alpha float64 `json:"alpha"`
	Fast  int     `json:"fast"`
	Slow  []int   `json:"slow"`
}

type payloadJSON struct {
	Variant   string         `json:"variant"`
	Config    configJSON     `json:"config"`
	Params    []paramJSON    `json:"params"`
	Lookahead *lookaheadJSON `json:"lookahead,omitempty"`
}

// Tensor names inside an optimizer archive.
const (
	keyExpAvg      = "exp_avg"
	keyExpAvgSq    = "exp_avg_sq"
	keyMaxExpAvgSq = "max_exp_avg_sq"
	keyScalars     = "scalars" // [WeightSum, TrustRatio]
)

func tensorKey(index int, name string) string {
	return "state." + strconv.Itoa(index) + "." + name
}

func slowKey(index int) string {
	return "lookahead.slow." + strconv.Itoa(index)
}

// WriteStateDict encodes sd as a .holo archive.
//
// The per-parameter scalars are stored as a tensor rather than in the JSON
// header so that non-finite values survive the round trip bit for bit.
func WriteStateDict(w io.Writer, sd *StateDict) error {
	if sd == nil {
		return &StateError{Details: "nil state dict"}
	}
	archive := serialization.NewArchive(serialization.KindOptimizer)
	archive.Metadata["variant"] = sd.Variant.String()

	payload := payloadJSON{
		Variant: sd.Variant.String(),
		Config: configJSON{
			LR:                sd.Config.LR,
			Betas:             sd.Config.Betas,
			Eps:               sd.Config.Eps,
			WeightDecay:       sd.Config.WeightDecay,
			WeightDecayMode:   sd.Config.WeightDecayMode.String(),
			Momentum:          sd.Config.Momentum,
			Nesterov:          sd.Config.Nesterov,
			TrustClip:         sd.Config.TrustClip,
			AMSGrad:           sd.Config.AMSGrad,
			DoF:               sd.Config.DoF,
			ZeroGradAfterStep: sd.Config.ZeroGradAfterStep,
		},
	}
	for _, i := range sd.Indices() {
		st := sd.State[i]
		if st == nil {
			return &StateError{Key: fmt.Sprintf("state.%d", i), Details: "nil state"}
		}
		payload.Params = append(payload.Params, paramJSON{Index: i, Step: st.Step})
		for name, t := range map[string]*tensor.Tensor{
			keyExpAvg:      st.ExpAvg,
			keyExpAvgSq:    st.ExpAvgSq,
			keyMaxExpAvgSq: st.MaxExpAvgSq,
		} {
			if t != nil {
				archive.Tensors[tensorKey(i, name)] = t
			}
		}
		scalars := tensor.Zeros(tensor.Shape{2})
		scalars.Data()[0] = st.WeightSum
		scalars.Data()[1] = st.TrustRatio
		archive.Tensors[tensorKey(i, keyScalars)] = scalars
	}

	if la := sd.Lookahead; la != nil {
		payload.Lookahead = &lookaheadJSON{K: la.K, Alpha: la.Alpha, Fast: la.Fast, Slow: la.Indices()}
		for i, t := range la.Slow {
			if t == nil {
				return &StateError{Key: slowKey(i), Details: "nil slow weights"}
			}
			archive.Tensors[slowKey(i)] = t
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal optimizer payload: %w", err)
	}
	archive.Payload = raw
	return serialization.Write(w, archive)
}

// ReadStateDict decodes a state dict written by WriteStateDict.
//
// Any structural problem (bad container, wrong kind, missing tensors,
// malformed step values) is reported as a *StateError.
func ReadStateDict(r io.Reader) (*StateDict, error) {
	archive, err := serialization.Read(r)
	if err != nil {
		return nil, &StateError{Details: err.Error()}
	}
	if archive.Kind != serialization.KindOptimizer {
		return nil, &StateError{Key: "kind", Details: fmt.Sprintf("archive holds %q, not optimizer state", archive.Kind)}
	}

	var payload payloadJSON
	if err := json.Unmarshal(archive.Payload, &payload); err != nil {
		return nil, &StateError{Key: "payload", Details: err.Error()}
	}
	variant, err := ParseVariant(payload.Variant)
	if err != nil {
		return nil, &StateError{Key: "variant", Details: err.Error()}
	}
	mode, err := parseDecayMode(payload.Config.WeightDecayMode)
	if err != nil {
		return nil, &StateError{Key: "config.weight_decay_mode", Details: err.Error()}
	}
	c := payload.Config
	sd := &StateDict{
		Variant: variant,
		Config: Config{
			LR:                c.LR,
			Betas:             c.Betas,
			Eps:               c.Eps,
			WeightDecay:       c.WeightDecay,
			WeightDecayMode:   mode,
			Momentum:          c.Momentum,
			Nesterov:          c.Nesterov,
			TrustClip:         c.TrustClip,
			AMSGrad:           c.AMSGrad,
			DoF:               c.DoF,
			ZeroGradAfterStep: c.ZeroGradAfterStep,
		},
		State: make(map[int]*State, len(payload.Params)),
	}

	for _, pm := range payload.Params {
		if _, dup := sd.State[pm.Index]; dup {
			return nil, &StateError{Key: fmt.Sprintf("state.%d", pm.Index), Details: "listed twice"}
		}
		st := &State{Step: pm.Step}
		st.ExpAvg = archive.Tensors[tensorKey(pm.Index, keyExpAvg)]
		st.ExpAvgSq = archive.Tensors[tensorKey(pm.Index, keyExpAvgSq)]
		st.MaxExpAvgSq = archive.Tensors[tensorKey(pm.Index, keyMaxExpAvgSq)]

		scalars, err := archive.Tensor(tensorKey(pm.Index, keyScalars))
		if err != nil {
			return nil, &StateError{Key: tensorKey(pm.Index, keyScalars), Details: err.Error()}
		}
		if scalars.NumElements() != 2 {
			return nil, &StateError{Key: tensorKey(pm.Index, keyScalars), Details: fmt.Sprintf("want 2 values, got %d", scalars.NumElements())}
		}
		st.WeightSum = scalars.Data()[0]
		st.TrustRatio = scalars.Data()[1]
		sd.State[pm.Index] = st
	}

	if la := payload.Lookahead; la != nil {
		sd.Lookahead = &LookaheadState{
			K:     la.K,
			Alpha: la.Alpha,
			Fast:  la.Fast,
			Slow:  make(map[int]*tensor.Tensor, len(la.Slow)),
		}
		for _, i := range la.Slow {
			t, err := archive.Tensor(slowKey(i))
			if err != nil {
				return nil, &StateError{Key: slowKey(i), Details: err.Error()}
			}
			sd.Lookahead.Slow[i] = t
		}
	}
	return sd, nil
}

// SaveStateDict writes sd to a .holo file.
func SaveStateDict(path string, sd *StateDict) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoints
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return WriteStateDict(file, sd)
}

// LoadStateDictFile reads a state dict from a .holo file.
func LoadStateDictFile(path string) (*StateDict, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoints
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ReadStateDict(file)
}

// Save writes the optimizer's state dict to path.
func (o *Optimizer) Save(path string) error {
	return SaveStateDict(path, o.StateDict())
}

// Load restores the optimizer's state from a file written by Save.
func (o *Optimizer) Load(path string) error {
	sd, err := LoadStateDictFile(path)
	if err != nil {
		return err
	}
	return o.LoadStateDict(sd)
}

func parseDecayMode(s string) (WeightDecayMode, error) {
	switch s {
	case "", "default":
		return DecayDefault, nil
	case "coupled":
		return DecayCoupled, nil
	case "decoupled":
		return DecayDecoupled, nil
	default:
		return 0, errors.New("unknown weight decay mode " + strconv.Quote(s))
	}
}
