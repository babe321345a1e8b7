package headless

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"golang.org/x/term"

	"github.com/nevisdale/sn50/internal/profile"
	"github.com/nevisdale/sn50/internal/video"
)

const (
	defaultTerminalWidth = 80
	maxTerminalWidth     = profile.ScreenWidth / 4
	terminalInterval     = time.Second / 20
)

// Terminal draws frames into an ANSI terminal with 24-bit colors. Each
// character cell shows two pixels stacked with the upper half block.
type Terminal struct {
	w        *bufio.Writer
	width    int
	height   int
	interval time.Duration
	last     time.Time
	pending  *video.FrameBuffer
}

// NewTerminal sizes the output to the terminal behind out. Anything that is
// not a terminal gets the default width.
func NewTerminal(out io.Writer) *Terminal {
	width := defaultTerminalWidth
	if f, ok := out.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			width = w
			// keep the aspect ratio inside the visible rows
			if byRows := (h - 1) * 2 * profile.ScreenWidth / profile.ScreenHeight; byRows < width {
				width = byRows
			}
		}
	}
	return newTerminal(out, width)
}

func newTerminal(out io.Writer, width int) *Terminal {
	width = min(max(width, 2), maxTerminalWidth)
	height := width * profile.ScreenHeight / profile.ScreenWidth
	height += height % 2
	return &Terminal{
		w:        bufio.NewWriter(out),
		width:    width,
		height:   height,
		interval: terminalInterval,
	}
}

// Present renders at most interval apart. The skipped frame is kept for
// Flush.
func (t *Terminal) Present(fb *video.FrameBuffer) {
	now := time.Now()
	if now.Sub(t.last) < t.interval {
		t.pending = fb
		return
	}
	t.last = now
	t.Render(fb)
}

// Flush renders the last skipped frame, if any.
func (t *Terminal) Flush() error {
	if t.pending == nil {
		return nil
	}
	return t.Render(t.pending)
}

func (t *Terminal) Render(fb *video.FrameBuffer) error {
	t.pending = nil
	img := fb.Image()

	t.w.WriteString("\x1b[H")
	for y := 0; y < t.height; y += 2 {
		for x := 0; x < t.width; x++ {
			sx := x * profile.ScreenWidth / t.width
			top := img.RGBAAt(sx, y*profile.ScreenHeight/t.height)
			bottom := img.RGBAAt(sx, (y+1)*profile.ScreenHeight/t.height)
			fmt.Fprintf(t.w, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		t.w.WriteString("\x1b[0m\n")
	}
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("couldn't draw to the terminal: %w", err)
	}
	return nil
}
