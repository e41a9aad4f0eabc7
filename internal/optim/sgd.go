package optim

import (
	"github.com/born-ml/holocron/internal/tensor"
)

// sgdRule implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity                         // heavy ball
//	param = param - lr * (gradient + momentum * velocity) // Nesterov
type sgdRule struct{}

func (sgdRule) Variant() Variant { return SGD }

func (sgdRule) Layout(cfg *Config) StateLayout {
	return StateLayout{ExpAvg: cfg.Momentum != 0}
}

func (sgdRule) Init(*State, *tensor.Tensor, *Config) {}

func (sgdRule) Direction(in *UpdateInput) error {
	return momentumDirection(in.Direction, in.Grad, in.State, in.Config)
}

// momentumDirection writes the (optionally momentum-filtered) version of u
// into dir. Shared by SGD and Lars.
func momentumDirection(dir, u *tensor.Tensor, st *State, cfg *Config) error {
	if cfg.Momentum == 0 {
		return dir.CopyFrom(u)
	}
	if err := UpdateMomentum(st, u, cfg.Momentum); err != nil {
		return err
	}
	if cfg.Nesterov {
		if err := dir.CopyFrom(u); err != nil {
			return err
		}
		dir.AddScaled(cfg.Momentum, st.ExpAvg)
		return nil
	}
	return dir.CopyFrom(st.ExpAvg)
}
