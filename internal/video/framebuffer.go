package video

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/nevisdale/sn50/internal/profile"
)

// FrameBuffer is one composited frame at the native resolution.
type FrameBuffer struct {
	img *image.RGBA
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		img: image.NewRGBA(image.Rect(0, 0, profile.ScreenWidth, profile.ScreenHeight)),
	}
}

// Image returns the frame. It aliases the buffer.
func (fb *FrameBuffer) Image() *image.RGBA {
	return fb.img
}

// Pix returns the RGBA bytes of the frame, row by row.
func (fb *FrameBuffer) Pix() []byte {
	return fb.img.Pix
}

// Clone returns a copy the caller can keep after the next composite.
func (fb *FrameBuffer) Clone() *FrameBuffer {
	c := NewFrameBuffer()
	copy(c.img.Pix, fb.img.Pix)
	return c
}

// WritePNG encodes the frame scaled up by an integer factor.
func (fb *FrameBuffer) WritePNG(w io.Writer, scale int) error {
	if scale < 1 {
		return fmt.Errorf("couldn't scale the frame by %d", scale)
	}

	var out image.Image = fb.img
	if scale > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, profile.ScreenWidth*scale, profile.ScreenHeight*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), fb.img, fb.img.Bounds(), draw.Src, nil)
		out = dst
	}

	if err := png.Encode(w, out); err != nil {
		return fmt.Errorf("couldn't encode the frame: %w", err)
	}
	return nil
}
