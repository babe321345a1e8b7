// Package headless runs a cartridge without a window.
package headless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nevisdale/sn50/internal/logger"
	"github.com/nevisdale/sn50/internal/player"
	"github.com/nevisdale/sn50/internal/profile"
	"github.com/nevisdale/sn50/internal/scheduler"
	"github.com/nevisdale/sn50/internal/vm"
)

// Run plays cfg until one of these happens: cfg.Ticks ticks ran, the
// cartridge halted, it faulted or ctx was cancelled. With a tick limit the
// ticks run as fast as possible, otherwise in real time. The screenshot is
// written on the way out, faults included.
func Run(ctx context.Context, cfg player.Config, out io.Writer) error {
	var tty *Terminal
	var sink scheduler.VideoSink
	if cfg.Terminal {
		tty = NewTerminal(out)
		sink = tty
	}

	p, err := player.New(cfg, nil, sink)
	if err != nil {
		return err
	}
	defer p.Close()

	var runErr error
	if cfg.Ticks > 0 {
		runErr = runTicks(ctx, p, cfg.Ticks)
	} else {
		runErr = runRealTime(ctx, p)
	}
	logger.Logf("headless", "stopped after %d ticks: %s", p.Console().Ticks(), p.Console().State())

	errs := []error{runErr}
	if tty != nil {
		errs = append(errs, tty.Flush())
	}
	if cfg.Screenshot != "" {
		errs = append(errs, writeScreenshot(p, cfg.Screenshot, cfg.Scale))
	}
	errs = append(errs, p.Close())
	return errors.Join(errs...)
}

func runTicks(ctx context.Context, p *player.Player, ticks uint64) error {
	for p.Console().Ticks() < ticks {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if _, err := p.Step(); err != nil {
			return err
		}
	}
	return nil
}

func runRealTime(ctx context.Context, p *player.Player) error {
	ticker := time.NewTicker(profile.TickDuration)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if _, err := p.Advance(now.Sub(last)); err != nil {
				return err
			}
			last = now
			if p.Console().State() == vm.Halted {
				return nil
			}
		}
	}
}

func writeScreenshot(p *player.Player, path string, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("couldn't create the screenshot: %w", err)
	}
	if err := p.Console().Frame().WritePNG(f, scale); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("couldn't write the screenshot: %w", err)
	}
	logger.Logf("headless", "screenshot written to %s", path)
	return nil
}
