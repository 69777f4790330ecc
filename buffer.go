package rowan

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// PixelFormat identifies the pixel layout of a Buffer.
type PixelFormat uint8

const (
	FormatRGBA  PixelFormat = iota // 4 bytes per pixel, R G B A order
	FormatAlpha                    // 1 byte per pixel, coverage only
)

// BytesPerPixel returns the per-pixel byte count for the format.
func (f PixelFormat) BytesPerPixel() int {
	if f == FormatAlpha {
		return 1
	}
	return 4
}

// Buffer is an opaque rendered pixel target. Rows are padded to a 4-byte
// boundary (Stride), matching how backends pad scanlines, so SizeBytes is
// comparable with backend-side memory accounting.
type Buffer struct {
	Width  int
	Height int
	Format PixelFormat
	Stride int
	Pix    []byte
}

// alignRow rounds a row byte count up to the next 4-byte boundary.
func alignRow(n int) int {
	return (n + 3) &^ 3
}

// NewBuffer allocates a zeroed buffer of the given shape.
func NewBuffer(w, h int, format PixelFormat) *Buffer {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	stride := alignRow(w * format.BytesPerPixel())
	return &Buffer{
		Width:  w,
		Height: h,
		Format: format,
		Stride: stride,
		Pix:    make([]byte, stride*h),
	}
}

// SizeBytes returns the buffer's approximate memory footprint: row-aligned
// stride times height.
func (b *Buffer) SizeBytes() int {
	return b.Stride * b.Height
}

// Clear zeroes all pixels.
func (b *Buffer) Clear() {
	clear(b.Pix)
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	dup := &Buffer{
		Width:  b.Width,
		Height: b.Height,
		Format: b.Format,
		Stride: b.Stride,
		Pix:    make([]byte, len(b.Pix)),
	}
	copy(dup.Pix, b.Pix)
	return dup
}

// Fill sets every pixel to the given color. Alpha-format buffers take only
// the color's alpha channel.
func (b *Buffer) Fill(c Color) {
	if b.Format == FormatAlpha {
		a := clampByte(c.A)
		for y := 0; y < b.Height; y++ {
			row := b.Pix[y*b.Stride : y*b.Stride+b.Width]
			for x := range row {
				row[x] = a
			}
		}
		return
	}
	r, g, bl, a := clampByte(c.R), clampByte(c.G), clampByte(c.B), clampByte(c.A)
	for y := 0; y < b.Height; y++ {
		row := b.Pix[y*b.Stride : y*b.Stride+b.Width*4]
		for x := 0; x < len(row); x += 4 {
			row[x] = r
			row[x+1] = g
			row[x+2] = bl
			row[x+3] = a
		}
	}
}

// FillRect sets pixels inside r (clipped to the buffer) to the given color.
// RGBA buffers only.
func (b *Buffer) FillRect(r Rect, c Color) {
	if b.Format != FormatRGBA {
		return
	}
	x0, y0, x1, y1 := clipRect(r, b.Width, b.Height)
	cr, cg, cb, ca := clampByte(c.R), clampByte(c.G), clampByte(c.B), clampByte(c.A)
	for y := y0; y < y1; y++ {
		row := b.Pix[y*b.Stride:]
		for x := x0; x < x1; x++ {
			i := x * 4
			row[i] = cr
			row[i+1] = cg
			row[i+2] = cb
			row[i+3] = ca
		}
	}
}

// clipRect converts a Rect to integer pixel bounds clipped to (w, h).
func clipRect(r Rect, w, h int) (x0, y0, x1, y1 int) {
	x0 = int(math.Floor(r.X))
	y0 = int(math.Floor(r.Y))
	x1 = int(math.Ceil(r.X + r.Width))
	y1 = int(math.Ceil(r.Y + r.Height))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return
}

func clampByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(v*255 + 0.5)
}

// RGBA returns an image.RGBA view sharing the buffer's pixel memory.
// Valid only for FormatRGBA buffers; panics otherwise.
func (b *Buffer) RGBA() *image.RGBA {
	if b.Format != FormatRGBA {
		panic("rowan: RGBA view of non-RGBA buffer")
	}
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Stride,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// --- Compositing helpers (used by the renderer and transitions) ---

// blitBuffer copies src onto dst at (dx, dy) with source-over alpha
// blending, clipped to dst. Both buffers must be FormatRGBA.
func blitBuffer(dst, src *Buffer, dx, dy int) {
	if dst.Format != FormatRGBA || src.Format != FormatRGBA {
		return
	}
	for sy := 0; sy < src.Height; sy++ {
		ty := sy + dy
		if ty < 0 || ty >= dst.Height {
			continue
		}
		srow := src.Pix[sy*src.Stride:]
		drow := dst.Pix[ty*dst.Stride:]
		for sx := 0; sx < src.Width; sx++ {
			tx := sx + dx
			if tx < 0 || tx >= dst.Width {
				continue
			}
			si := sx * 4
			di := tx * 4
			sa := uint32(srow[si+3])
			if sa == 0 {
				continue
			}
			if sa == 255 {
				drow[di] = srow[si]
				drow[di+1] = srow[si+1]
				drow[di+2] = srow[si+2]
				drow[di+3] = 255
				continue
			}
			inv := 255 - sa
			drow[di] = byte((uint32(srow[si])*sa + uint32(drow[di])*inv) / 255)
			drow[di+1] = byte((uint32(srow[si+1])*sa + uint32(drow[di+1])*inv) / 255)
			drow[di+2] = byte((uint32(srow[si+2])*sa + uint32(drow[di+2])*inv) / 255)
			da := uint32(drow[di+3])
			drow[di+3] = byte(sa + da*inv/255)
		}
	}
}

// lerpBuffer writes the per-channel linear blend of a and b into dst:
// dst = a*(1-t) + b*t. All three buffers must share the same shape.
func lerpBuffer(dst, a, b *Buffer, t float64) {
	if t <= 0 {
		copy(dst.Pix, a.Pix)
		return
	}
	if t >= 1 {
		copy(dst.Pix, b.Pix)
		return
	}
	w := uint32(t*256 + 0.5)
	iw := 256 - w
	n := min(len(dst.Pix), min(len(a.Pix), len(b.Pix)))
	for i := 0; i < n; i++ {
		dst.Pix[i] = byte((uint32(a.Pix[i])*iw + uint32(b.Pix[i])*w) >> 8)
	}
}

// drawScaled draws src into the dstRect region of dst, bilinearly scaled.
// Used by the zoom transition and the adaptive-quality upscale.
func drawScaled(dst, src *Buffer, dstRect Rect) {
	if dst.Format != FormatRGBA || src.Format != FormatRGBA {
		return
	}
	x0, y0, x1, y1 := clipRect(dstRect, dst.Width, dst.Height)
	if x1 <= x0 || y1 <= y0 {
		return
	}
	xdraw.ApproxBiLinear.Scale(
		dst.RGBA(), image.Rect(x0, y0, x1, y1),
		src.RGBA(), image.Rect(0, 0, src.Width, src.Height),
		xdraw.Src, nil,
	)
}
