package vision

import (
	"fmt"
	"image"
	"image/color"
)

// LumaImage returns a grayscale view over the Y plane of desc.
// The returned image shares desc.Data; it must not outlive the frame.
func LumaImage(desc ImageDescriptor) (*image.Gray, error) {
	if desc.Format != FormatNV21 {
		return nil, fmt.Errorf("luma view of %s: %w", desc.Format, ErrInvalidFrame)
	}
	n := desc.Width * desc.Height
	if desc.Width <= 0 || desc.Height <= 0 || len(desc.Data) < n {
		return nil, ErrInvalidFrame
	}
	return &image.Gray{
		Pix:    desc.Data[:n],
		Stride: desc.Width,
		Rect:   image.Rect(0, 0, desc.Width, desc.Height),
	}, nil
}

// Upright rotates src clockwise by r so that content captured with rotation
// hint r is displayed upright. R0 returns src unchanged.
func Upright(src *image.Gray, r Rotation) *image.Gray {
	if r == R0 {
		return src
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.Gray
	if r == R180 {
		dst = image.NewGray(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewGray(image.Rect(0, 0, h, w))
	}

	for y := 0; y < h; y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		row := src.Pix[off : off+w]
		for x, v := range row {
			var dx, dy int
			switch r {
			case R90:
				dx, dy = h-1-y, x
			case R180:
				dx, dy = w-1-x, h-1-y
			case R270:
				dx, dy = y, w-1-x
			}
			dst.Pix[dy*dst.Stride+dx] = v
		}
	}
	return dst
}

// EncodeNV21 converts img to NV21 bytes. Odd dimensions are handled by
// sampling the top-left pixel of each 2x2 chroma block.
func EncodeNV21(img image.Image) (data []byte, size Size) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data = make([]byte, FormatNV21.FrameLen(w, h))

	chroma := data[w*h:]
	cw := (w + 1) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.YCbCrModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.YCbCr)
			data[y*w+x] = c.Y
			if x%2 == 0 && y%2 == 0 {
				i := (y/2)*cw*2 + (x/2)*2
				chroma[i] = c.Cr
				chroma[i+1] = c.Cb
			}
		}
	}
	return data, Size{Width: w, Height: h}
}
