package ui

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nevisdale/sn50/internal/bank"
)

var keyButtons = map[ebiten.Key]bank.Button{
	ebiten.KeyArrowUp:    bank.ButtonUp,
	ebiten.KeyArrowDown:  bank.ButtonDown,
	ebiten.KeyArrowLeft:  bank.ButtonLeft,
	ebiten.KeyArrowRight: bank.ButtonRight,
	ebiten.KeyZ:          bank.ButtonA,
	ebiten.KeyX:          bank.ButtonB,
	ebiten.KeyA:          bank.ButtonX,
	ebiten.KeyS:          bank.ButtonY,
	ebiten.KeyEnter:      bank.ButtonStart,
	ebiten.KeyShiftRight: bank.ButtonSelect,
}

var padButtons = map[ebiten.StandardGamepadButton]bank.Button{
	ebiten.StandardGamepadButtonLeftTop:     bank.ButtonUp,
	ebiten.StandardGamepadButtonLeftBottom:  bank.ButtonDown,
	ebiten.StandardGamepadButtonLeftLeft:    bank.ButtonLeft,
	ebiten.StandardGamepadButtonLeftRight:   bank.ButtonRight,
	ebiten.StandardGamepadButtonRightBottom: bank.ButtonA,
	ebiten.StandardGamepadButtonRightRight:  bank.ButtonB,
	ebiten.StandardGamepadButtonRightLeft:   bank.ButtonX,
	ebiten.StandardGamepadButtonRightTop:    bank.ButtonY,
	ebiten.StandardGamepadButtonCenterRight: bank.ButtonStart,
	ebiten.StandardGamepadButtonCenterLeft:  bank.ButtonSelect,
}

// Poll reads the keyboard and every standard gamepad. It runs on the ebiten
// update goroutine, from inside Player.Advance.
func (ui *UI) Poll() bank.InputState {
	var in bank.InputState
	for key, b := range keyButtons {
		if ebiten.IsKeyPressed(key) {
			in = in.Press(b)
		}
	}

	ui.gamepads = ebiten.AppendGamepadIDs(ui.gamepads[:0])
	for _, id := range ui.gamepads {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		for pb, b := range padButtons {
			if ebiten.IsStandardGamepadButtonPressed(id, pb) {
				in = in.Press(b)
			}
		}
		if in.Axes == ([2]int8{}) {
			in.Axes[bank.AxisHorizontal] = axisValue(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal))
			in.Axes[bank.AxisVertical] = axisValue(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical))
		}
	}
	return in
}

// axisValue maps [-1, 1] to [-127, 127] with a small dead zone.
func axisValue(v float64) int8 {
	const deadZone = 0.1
	if v > -deadZone && v < deadZone {
		return 0
	}
	v = min(max(v, -1), 1)
	return int8(v * 127)
}
