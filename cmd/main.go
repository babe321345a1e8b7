package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	pkgprofile "github.com/pkg/profile"

	"github.com/nevisdale/sn50/internal/asm"
	"github.com/nevisdale/sn50/internal/cartridge"
	"github.com/nevisdale/sn50/internal/headless"
	"github.com/nevisdale/sn50/internal/logger"
	"github.com/nevisdale/sn50/internal/player"
	"github.com/nevisdale/sn50/internal/statsview"
	"github.com/nevisdale/sn50/internal/ui"
	"github.com/nevisdale/sn50/internal/vm"
)

const (
	exitOK = iota
	exitFailure
	exitLoad
	exitTrap
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := player.DefaultConfig()

	fs := flag.NewFlagSet("sn50", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: sn50 [flags] <cartridge.sn50|program.s>")
		fs.PrintDefaults()
	}
	fs.IntVar(&cfg.Scale, "scale", cfg.Scale, "window scale, or screenshot scale when headless")
	fs.BoolVar(&cfg.Headless, "headless", false, "run without a window")
	fs.Uint64Var(&cfg.Ticks, "ticks", 0, "stop after this many ticks (headless)")
	fs.IntVar(&cfg.MaxBacklog, "max-backlog", cfg.MaxBacklog, "most ticks run to catch up with the clock, the rest are dropped")
	fs.BoolVar(&cfg.Mute, "mute", false, "no audio output")
	fs.StringVar(&cfg.RecordAudio, "record-audio", "", "write the audio to a WAV file")
	fs.StringVar(&cfg.Screenshot, "screenshot", "", "write the last frame to a PNG file (headless)")
	fs.StringVar(&cfg.RecordInput, "record-input", "", "record the input of every tick to a file")
	fs.StringVar(&cfg.ReplayInput, "replay-input", "", "replay input recorded with -record-input")
	fs.BoolVar(&cfg.Terminal, "terminal", false, "draw the frames into the terminal (headless)")
	fs.StringVar(&cfg.Profile, "profile", "", "write a cpu or mem profile to the working directory")
	fs.BoolVar(&cfg.StatsView, "statsview", false, "serve runtime statistics over HTTP")
	fs.BoolVar(&cfg.Log, "log", false, "echo the log to stderr")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitFailure
	}
	cfg.CartridgePath = fs.Arg(0)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "sn50: %s\n", err)
		return exitFailure
	}

	if cfg.Log {
		logger.SetEcho(stderr)
		defer logger.SetEcho(nil)
	}

	switch cfg.Profile {
	case "cpu":
		defer pkgprofile.Start(pkgprofile.CPUProfile, pkgprofile.ProfilePath("."), pkgprofile.NoShutdownHook).Stop()
	case "mem":
		defer pkgprofile.Start(pkgprofile.MemProfile, pkgprofile.ProfilePath("."), pkgprofile.NoShutdownHook).Stop()
	}

	if cfg.StatsView {
		srv, err := statsview.Start(statsview.DefaultAddress)
		switch {
		case errors.Is(err, statsview.ErrUnavailable):
			fmt.Fprintln(stderr, "sn50: built without statsview support, rebuild with -tags statsview")
		case err != nil:
			fmt.Fprintf(stderr, "sn50: %s\n", err)
		default:
			defer srv.Stop()
			fmt.Fprintf(stdout, "stats server available at %s\n", srv.URL())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return exitCode(play(ctx, cfg, stdout), stderr)
}

func play(ctx context.Context, cfg player.Config, stdout io.Writer) error {
	if cfg.Headless {
		return headless.Run(ctx, cfg, stdout)
	}

	u, err := ui.New(ctx, cfg)
	if err != nil {
		return err
	}
	return ui.RunUI(u)
}

// exitCode prints the diagnostic for err and picks the process exit code.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}

	var trap *vm.Trap
	if errors.As(err, &trap) {
		fmt.Fprintf(stderr, "sn50: cartridge stopped: %s\n", trap)
		logger.Tail(stderr, 8)
		return exitTrap
	}

	var loadErr *player.LoadError
	if errors.As(err, &loadErr) {
		var formatErr *cartridge.FormatError
		var asmErr *asm.Error
		switch {
		case errors.As(err, &formatErr):
			fmt.Fprintf(stderr, "sn50: %s is not a valid cartridge: %s\n", loadErr.Path, formatErr)
		case errors.As(err, &asmErr):
			fmt.Fprintf(stderr, "sn50: %s doesn't assemble: %s\n", loadErr.Path, asmErr)
		default:
			fmt.Fprintf(stderr, "sn50: %s\n", loadErr)
		}
		return exitLoad
	}

	fmt.Fprintf(stderr, "sn50: %s\n", err)
	return exitFailure
}
