// Package main provides the Holocron optimizer CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/born-ml/holocron/internal/optim"
)

const version = "v0.1.0-dev"

var errUsage = errors.New("usage")

// app carries the output streams shared by every command.
type app struct {
	stdout io.Writer
	logger *slog.Logger
	level  *slog.LevelVar // Raised to Debug by -v
}

func main() {
	level := new(slog.LevelVar)
	a := &app{
		stdout: os.Stdout,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		level:  level,
	}
	if err := a.run(os.Args[1:]); err != nil {
		a.logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func (a *app) run(args []string) error {
	if len(args) == 0 {
		usage(a.stdout)
		return nil
	}
	switch args[0] {
	case "version":
		_, err := fmt.Fprintf(a.stdout, "Holocron %s\n", version)
		return err
	case "variants":
		return listVariants(a.stdout)
	case "fit":
		return a.fit(args[1:])
	case "pyconv":
		return a.pyconv(args[1:])
	case "help", "-h", "--help":
		usage(a.stdout)
		return nil
	default:
		usage(a.stdout)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func (a *app) verbose(on bool) {
	if on {
		a.level.Set(slog.LevelDebug)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Holocron - layer-wise adaptive optimizers for Go")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  variants   List optimizers and their defaults")
	fmt.Fprintln(w, "  fit        Minimize a synthetic quadratic with any optimizer")
	fmt.Fprintln(w, "  pyconv     Report the parameter set of a PyConvResNet preset")
}

func listVariants(w io.Writer) error {
	fmt.Fprintf(w, "%-10s %-8s %-8s %-10s\n", "NAME", "LR", "EPS", "DECAY")
	for _, v := range optim.Variants() {
		cfg := optim.Defaults(v)
		if _, err := fmt.Fprintf(w, "%-10s %-8g %-8g %-10s\n", v, cfg.LR, cfg.Eps, v.DefaultDecay()); err != nil {
			return err
		}
	}
	return nil
}
