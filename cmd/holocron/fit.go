package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/born-ml/holocron/internal/autodiff"
	"github.com/born-ml/holocron/internal/backend/cpu"
	"github.com/born-ml/holocron/internal/nn"
	"github.com/born-ml/holocron/internal/optim"
	"github.com/born-ml/holocron/internal/parallel"
	"github.com/born-ml/holocron/internal/tensor"
)

// fitOptions are the flags of the fit command.
type fitOptions struct {
	variant   string
	steps     int
	lr        float64
	wd        float64
	dim       int
	seed      int64
	save      string
	resume    string
	lookahead int
	oneCycle  bool
	parallel  bool
	logEvery  int
	verbose   bool
}

// quadratic is f(w, b) = 0.5 * sum_i a_i (w_i - t_i)^2 + 0.5 * (b - c)^2.
type quadratic struct {
	curvature *tensor.Tensor
	target    *tensor.Tensor
	bias      *tensor.Tensor
}

func newQuadratic(dim int, rng *rand.Rand) *quadratic {
	q := &quadratic{
		curvature: tensor.Zeros(tensor.Shape{dim}),
		target:    tensor.Zeros(tensor.Shape{dim}),
		bias:      tensor.Scalar(rng.NormFloat64()),
	}
	for i := range dim {
		// Spread the curvature over two orders of magnitude.
		q.curvature.Data()[i] = 0.1 + 10*rng.Float64()
		q.target.Data()[i] = rng.NormFloat64()
	}
	return q
}

// loss evaluates f on backend, so an autodiff backend records it.
func (q *quadratic) loss(backend tensor.Backend, w, b *tensor.Tensor) *tensor.Tensor {
	diff := backend.Sub(w, q.target)
	quad := backend.Sum(backend.Mul(diff, backend.Mul(q.curvature, diff)))
	db := backend.Sub(b, q.bias)
	return backend.MulScalar(backend.Add(quad, backend.Mul(db, db)), 0.5)
}

// gradients differentiates f at the current weights, sets the gradients of
// w and b and returns the loss.
func (q *quadratic) gradients(backend *autodiff.AutodiffBackend[*cpu.CPUBackend], w, b *nn.Parameter) (float64, error) {
	tape := backend.Tape()
	tape.Clear()
	tape.StartRecording()
	loss := q.loss(backend, w.Tensor(), b.Tensor())
	tape.StopRecording()

	grads, err := autodiff.Backward(loss, backend)
	if err != nil {
		return 0, err
	}
	return loss.Data()[0], autodiff.SetGrads([]*nn.Parameter{w, b}, grads)
}

// override copies the hyperparameter flags given on the command line into cfg.
func (o *fitOptions) override(cfg *optim.Config, set map[string]bool) {
	if set["lr"] && o.lr > 0 {
		cfg.LR = o.lr
	}
	if set["wd"] {
		cfg.WeightDecay = o.wd
	}
}

// restore loads the checkpoint named by -resume into opt, or into la when
// Lookahead is on. Hyperparameter flags given explicitly win over the saved
// values.
func (o *fitOptions) restore(opt *optim.Optimizer, la *optim.Lookahead, set map[string]bool, logger *slog.Logger) error {
	sd, err := optim.LoadStateDictFile(o.resume)
	if err != nil {
		return err
	}
	saved := sd.Config
	o.override(&sd.Config, set)
	if sd.Config.LR != saved.LR || sd.Config.WeightDecay != saved.WeightDecay {
		logger.Info("flags override saved hyperparameters",
			"lr", sd.Config.LR, "saved_lr", saved.LR,
			"weight_decay", sd.Config.WeightDecay, "saved_weight_decay", saved.WeightDecay)
	}

	switch {
	case la != nil && sd.Lookahead != nil:
		sd.Lookahead.K = o.lookahead
		sd.Lookahead.Fast = min(sd.Lookahead.Fast, o.lookahead-1)
		if err := la.LoadStateDict(sd); err != nil {
			return err
		}
		logger.Info("restored lookahead state", "k", o.lookahead, "fast_steps", sd.Lookahead.Fast)
		return nil
	case la != nil:
		logger.Warn("checkpoint has no lookahead state, slow weights start from the current weights")
	case sd.Lookahead != nil:
		logger.Warn("ignoring lookahead state in checkpoint, -lookahead is off")
	}
	return opt.LoadStateDict(sd)
}

// stepper is the part of Optimizer and Lookahead that fit drives.
type stepper interface {
	Step() error
	ZeroGrad()
	optim.LRSetter
}

func (a *app) fit(args []string) error {
	var o fitOptions
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	fs.StringVar(&o.variant, "opt", "lamb", "optimizer (see `holocron variants`)")
	fs.IntVar(&o.steps, "steps", 200, "number of optimization steps")
	fs.Float64Var(&o.lr, "lr", 0, "learning rate (0 = variant default)")
	fs.Float64Var(&o.wd, "wd", 0, "weight decay")
	fs.IntVar(&o.dim, "dim", 16, "problem dimension")
	fs.Int64Var(&o.seed, "seed", 1, "random seed")
	fs.StringVar(&o.save, "save", "", "write optimizer state to this .holo file when done")
	fs.StringVar(&o.resume, "resume", "", "load optimizer state from this .holo file first")
	fs.IntVar(&o.lookahead, "lookahead", 0, "wrap in Lookahead with this sync period (0 = off)")
	fs.BoolVar(&o.oneCycle, "onecycle", false, "drive the learning rate with the one-cycle policy")
	fs.BoolVar(&o.parallel, "parallel", false, "accumulate parameters concurrently")
	fs.IntVar(&o.logEvery, "log-every", 50, "log the loss every N steps")
	fs.BoolVar(&o.verbose, "v", false, "log every step")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	a.verbose(o.verbose)
	logger := a.logger
	if o.dim < 1 || o.steps < 0 {
		return fmt.Errorf("%w: -dim must be >= 1 and -steps >= 0", errUsage)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	variant, err := optim.ParseVariant(o.variant)
	if err != nil {
		return err
	}
	cfg := optim.Defaults(variant)
	o.override(&cfg, set)
	if o.parallel {
		cfg.Parallel = parallel.DefaultConfig()
		cfg.Parallel.MinItems = 1
	}

	//nolint:gosec // G404: synthetic problem data
	rng := rand.New(rand.NewSource(o.seed))
	problem := newQuadratic(o.dim, rng)
	w := nn.NewParameter("w", nn.Zeros(tensor.Shape{o.dim}))
	b := nn.NewParameter("b", nn.Zeros(tensor.Shape{1}))

	opt, err := optim.New(variant, []*nn.Parameter{w, b}, cfg)
	if err != nil {
		return err
	}
	var driver stepper = opt
	var la *optim.Lookahead
	if o.lookahead > 0 {
		if la, err = optim.NewLookahead(opt, o.lookahead, 0.5); err != nil {
			return err
		}
		driver = la
	}
	if o.resume != "" {
		if err := o.restore(opt, la, set, logger); err != nil {
			return fmt.Errorf("resume from %s: %w", o.resume, err)
		}
		logger.Info("resumed optimizer state", "path", o.resume, "steps", opt.StepCount(w))
	}

	var sched *optim.OneCycle
	if o.oneCycle && o.steps > 0 {
		sched, err = optim.NewOneCycle(driver, optim.OneCycleConfig{MaxLR: driver.GetLR(), TotalSteps: o.steps})
		if err != nil {
			return err
		}
	}

	logger.Info("fitting quadratic", "optimizer", variant, "dim", o.dim, "steps", o.steps,
		"lr", driver.GetLR(), "weight_decay", opt.Config().WeightDecay, "decay_mode", opt.DecayMode())

	backend := autodiff.New(cpu.New())
	var loss float64
	for step := 1; step <= o.steps; step++ {
		driver.ZeroGrad()
		if loss, err = problem.gradients(backend, w, b); err != nil {
			return err
		}
		if err := driver.Step(); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		if sched != nil {
			if err := sched.Step(); err != nil {
				return err
			}
		}
		if logger.Enabled(context.Background(), slog.LevelDebug) {
			st, _ := opt.State(w)
			logger.Debug("step", "step", step, "loss", loss, "trust_ratio", st.TrustRatio)
		}
		if o.logEvery > 0 && step%o.logEvery == 0 {
			logger.Info("progress", "step", step, "loss", loss, "lr", driver.GetLR())
		}
	}

	if o.save != "" {
		save := opt.Save
		if la != nil {
			save = la.Save
		}
		if err := save(o.save); err != nil {
			return err
		}
		logger.Info("saved optimizer state", "path", o.save)
	}
	final := problem.loss(backend.Inner(), w.Tensor(), b.Tensor()).Data()[0]
	_, err = fmt.Fprintf(a.stdout, "optimizer=%s steps=%d lr=%g loss=%.6g\n", variant, opt.StepCount(w), driver.GetLR(), final)
	return err
}
