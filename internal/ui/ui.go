package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/nevisdale/sn50/internal/audio"
	"github.com/nevisdale/sn50/internal/audio/otosink"
	"github.com/nevisdale/sn50/internal/logger"
	"github.com/nevisdale/sn50/internal/player"
	"github.com/nevisdale/sn50/internal/profile"
	"github.com/nevisdale/sn50/internal/video"
	"github.com/nevisdale/sn50/internal/vm"
)

// Tab - show debug info
// P, Space - pause
// R - one step and stop
// F5 - reload the cartridge from disk
// Esc - quit

type UI struct {
	ctx    context.Context
	player *player.Player
	screen *ebiten.Image
	frame  *video.FrameBuffer
	dirty  bool

	disasm []uint16 // sorted instruction addresses
	lines  map[uint16]string

	gamepads  []ebiten.GamepadID
	last      time.Time
	paused    bool
	showDebug bool
	trap      error
	faultImg  *ebiten.Image
	reloadErr *ebiten.Image
}

// New creates the window state and the player behind it. The UI is the
// player's input source and video sink. The window closes once ctx is done.
func New(ctx context.Context, cfg player.Config) (*UI, error) {
	ui := &UI{
		ctx:    ctx,
		screen: ebiten.NewImage(profile.ScreenWidth, profile.ScreenHeight),
	}
	p, err := player.New(cfg, ui, ui, player.WithAudioDevice(openDevice))
	if err != nil {
		return nil, err
	}
	ui.player = p
	ui.refreshDisasm()
	return ui, nil
}

// Present keeps the frame for the next Draw. The scheduler calls it from
// Update.
func (ui *UI) Present(fb *video.FrameBuffer) {
	ui.frame = fb
	ui.dirty = true
}

func openDevice() (audio.Sink, error) {
	s, err := otosink.New()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (ui *UI) refreshDisasm() {
	ui.lines = ui.player.Console().Disassemble()
	ui.disasm = ui.disasm[:0]
	for addr := range ui.lines {
		ui.disasm = append(ui.disasm, addr)
	}
	slices.Sort(ui.disasm)
	ui.Present(ui.player.Console().Frame().Clone())
	ebiten.SetWindowTitle(fmt.Sprintf("%s - SN-50", ui.player.Console().Cartridge().Title()))
}

func (ui *UI) Update() error {
	// Update runs between ticks, so stopping here never cuts one short
	if ui.ctx.Err() != nil {
		return ebiten.Termination
	}

	now := time.Now()
	elapsed := now.Sub(ui.last)
	if ui.last.IsZero() {
		elapsed = 0
	}
	ui.last = now

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		ui.showDebug = !ui.showDebug
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if err := ui.player.Reload(); err != nil {
			ui.reloadErr = banner(err.Error())
		} else {
			ui.reloadErr = nil
			ui.trap = nil
			ui.faultImg = nil
			ui.refreshDisasm()
		}
		return nil
	}

	if ui.trap != nil {
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		ui.paused = !ui.paused
	}

	var err error
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		ui.paused = true
		_, err = ui.player.Step()
	case !ui.paused:
		_, err = ui.player.Advance(elapsed)
	}

	var trap *vm.Trap
	if errors.As(err, &trap) {
		ui.trap = trap
		return nil
	}
	return err
}

func (ui *UI) Draw(screen *ebiten.Image) {
	if ui.dirty {
		ui.screen.WritePixels(ui.frame.Pix())
		ui.dirty = false
	}
	screen.DrawImage(ui.screen, nil)

	if ui.showDebug {
		ui.drawDebug(screen)
	}
	if ui.paused && ui.trap == nil {
		ebitenutil.DebugPrintAt(screen, "PAUSED", 4, profile.ScreenHeight-16)
	}
	if ui.trap != nil {
		ui.drawFault(screen)
	}
	if ui.reloadErr != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(0, float64(profile.ScreenHeight-ui.reloadErr.Bounds().Dy()))
		screen.DrawImage(ui.reloadErr, op)
	}
}

func (ui *UI) drawDebug(screen *ebiten.Image) {
	c := ui.player.Console()
	pc := c.Context().PC

	var infoStr strings.Builder
	fmt.Fprintf(&infoStr, " FPS: %0.0f TPS: %0.0f\n", ebiten.ActualFPS(), ebiten.ActualTPS())
	fmt.Fprintf(&infoStr, " CART: %s\n", c.Cartridge().Title())
	if ui.player.Replaying() {
		infoStr.WriteString(" REPLAY\n")
	}
	for _, line := range strings.Split(strings.TrimRight(c.DebugInfo(), "\n"), "\n") {
		infoStr.WriteString(" " + line + "\n")
	}
	infoStr.WriteString("\n")

	at := sort.Search(len(ui.disasm), func(i int) bool { return ui.disasm[i] >= pc })
	for i := max(0, at-7); i < min(len(ui.disasm), at+7); i++ {
		addr := ui.disasm[i]
		marker := " "
		if addr == pc {
			marker = "*"
		}
		infoStr.WriteString(marker + ui.lines[addr] + "\n")
	}

	debugScreenOffsetX := float32(profile.ScreenWidth - debugScreenWidth)
	vector.DrawFilledRect(screen, debugScreenOffsetX, 0, debugScreenWidth, profile.ScreenHeight, color.RGBA{50, 50, 50, 220}, false)
	ebitenutil.DebugPrintAt(screen, infoStr.String(), int(debugScreenOffsetX), 0)
}

func (ui *UI) drawFault(screen *ebiten.Image) {
	if ui.faultImg == nil {
		ui.faultImg = ui.faultOverlay()
	}
	if ui.faultImg == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(0, float64(profile.ScreenHeight-ui.faultImg.Bounds().Dy())/2)
	screen.DrawImage(ui.faultImg, op)
}

func (ui *UI) faultOverlay() *ebiten.Image {
	var trap *vm.Trap
	if !errors.As(ui.trap, &trap) {
		return nil
	}

	lines := []string{
		strings.ToUpper(trap.Kind.String()),
		ui.player.Console().DisassembleAt(trap.PC),
	}
	if trap.Detail != "" {
		lines = append(lines, trap.Detail)
	}
	lines = append(lines, "", "F5 reload   Esc quit", "")

	var tail strings.Builder
	logger.Tail(&tail, 4)
	lines = append(lines, strings.Split(strings.TrimRight(tail.String(), "\n"), "\n")...)

	img := textBox(lines, profile.ScreenWidth, color.RGBA{120, 0, 24, 230})
	return ebiten.NewImageFromImage(img)
}

func banner(msg string) *ebiten.Image {
	return ebiten.NewImageFromImage(textBox([]string{msg}, profile.ScreenWidth, color.RGBA{0, 0, 0, 200}))
}

const debugScreenWidth = 286

func (ui *UI) Layout(_, _ int) (int, int) {
	return profile.ScreenWidth, profile.ScreenHeight
}

// Close releases the player. It returns the trap that stopped the cartridge,
// if any, joined with close errors.
func (ui *UI) Close() error {
	return errors.Join(ui.trap, ui.player.Close())
}

// RunUI opens the window and blocks until it is closed. The returned error
// is the trap that stopped the cartridge, if one did.
func RunUI(ui *UI) error {
	scale := ui.player.Config().Scale
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(profile.ScreenWidth*scale, profile.ScreenHeight*scale)
	ebiten.SetTPS(profile.TicksPerSecond)

	err := ebiten.RunGame(ui)
	return errors.Join(err, ui.Close())
}
