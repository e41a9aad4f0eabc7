package main

import (
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/born-ml/holocron/internal/models"
	"github.com/born-ml/holocron/internal/nn"
)

func (a *app) pyconv(args []string) error {
	fs := flag.NewFlagSet("pyconv", flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	arch := fs.String("arch", "pyconv_resnet50", "preset: "+strings.Join(models.Presets(), ", "))
	classes := fs.Int("classes", 1000, "number of output classes")
	build := fs.Bool("build", false, "allocate and initialize the parameters")
	pretrained := fs.Bool("pretrained", false, "request published weights (implies -build)")
	detail := fs.Bool("detail", false, "list every parameter tensor")
	seed := fs.Int64("seed", 0, "initialization seed")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	a.verbose(*verbose)

	preset, err := models.Lookup(*arch)
	if err != nil {
		return err
	}
	opts := models.Options{NumClasses: *classes}
	specs, err := models.Layout(preset, opts)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "arch\t%s\n", preset.Name)
	fmt.Fprintf(tw, "block\t%s (expansion %d)\n", preset.Block, preset.Block.Expansion())
	fmt.Fprintf(tw, "tensors\t%d\n", len(specs))
	fmt.Fprintf(tw, "parameters\t%d\n", models.CountParameters(specs))
	if *detail {
		fmt.Fprintln(tw)
		for _, s := range specs {
			fmt.Fprintf(tw, "%s\t%v\n", s.Name, s.Shape)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !*build && !*pretrained {
		return nil
	}
	model, err := models.Build(preset, models.BuildOptions{
		Options:    opts,
		Seed:       *seed,
		Pretrained: *pretrained,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}
	a.logger.Info("materialized model", "arch", model.Name(), "parameters", nn.CountParameters(model.Parameters()))
	return nil
}
