package bank

import "github.com/nevisdale/sn50/internal/profile"

// Button is a bit index in InputState.Buttons.
type Button uint8

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonA
	ButtonB
	ButtonX
	ButtonY
	ButtonStart
	ButtonSelect
)

func (b Button) Mask() uint16 {
	return 1 << b
}

func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonA:
		return "a"
	case ButtonB:
		return "b"
	case ButtonX:
		return "x"
	case ButtonY:
		return "y"
	case ButtonStart:
		return "start"
	case ButtonSelect:
		return "select"
	}
	return "?"
}

const (
	AxisHorizontal = 0
	AxisVertical   = 1
)

// InputState is the input snapshot for one tick.
type InputState struct {
	Buttons uint16
	Axes    [profile.NumAxes]int8
}

func (s InputState) Pressed(b Button) bool {
	return s.Buttons&b.Mask() != 0
}

// Press returns s with b held down.
func (s InputState) Press(b Button) InputState {
	s.Buttons |= b.Mask()
	return s
}

// Input is the input latch. It is written once per tick before execution.
type Input struct {
	state InputState
}

func (in *Input) Latch(s InputState) {
	in.state = s
}

func (in *Input) State() InputState {
	return in.state
}

func (in *Input) Buttons() uint16 {
	return in.state.Buttons
}

func (in *Input) Axis(i int) (int8, error) {
	if err := checkRange(RegionAxis, i, profile.NumAxes); err != nil {
		return 0, err
	}
	return in.state.Axes[i], nil
}
