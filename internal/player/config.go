package player

import (
	"errors"
	"fmt"

	"github.com/nevisdale/sn50/internal/scheduler"
)

// ErrConfig is wrapped by every Validate failure.
var ErrConfig = errors.New("invalid configuration")

type Config struct {
	CartridgePath string

	Scale      int
	Headless   bool
	Ticks      uint64 // headless only, zero runs until the cartridge stops
	MaxBacklog int
	Terminal   bool

	Mute        bool
	RecordAudio string
	Screenshot  string
	RecordInput string
	ReplayInput string

	Profile   string
	StatsView bool
	Log       bool
}

func DefaultConfig() Config {
	return Config{
		Scale:      2,
		MaxBacklog: scheduler.DefaultConfig().MaxBacklog,
	}
}

func (c Config) Validate() error {
	switch {
	case c.CartridgePath == "":
		return fmt.Errorf("%w: no cartridge given", ErrConfig)
	case c.Scale < 1:
		return fmt.Errorf("%w: scale must be at least 1, got %d", ErrConfig, c.Scale)
	case c.MaxBacklog < 1:
		return fmt.Errorf("%w: max backlog must be at least 1, got %d", ErrConfig, c.MaxBacklog)
	case c.Screenshot != "" && !c.Headless:
		return fmt.Errorf("%w: -screenshot needs -headless", ErrConfig)
	case c.Terminal && !c.Headless:
		return fmt.Errorf("%w: -terminal needs -headless", ErrConfig)
	case c.Ticks != 0 && !c.Headless:
		return fmt.Errorf("%w: -ticks needs -headless", ErrConfig)
	case c.RecordInput != "" && c.ReplayInput != "":
		return fmt.Errorf("%w: -record-input and -replay-input can't be used together", ErrConfig)
	case c.RecordInput != "" && c.RecordInput == c.CartridgePath:
		return fmt.Errorf("%w: -record-input would overwrite the cartridge", ErrConfig)
	}

	switch c.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("%w: unknown profile %q, want cpu or mem", ErrConfig, c.Profile)
	}
	return nil
}

func (c Config) schedulerConfig() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.MaxBacklog = c.MaxBacklog
	return cfg
}
