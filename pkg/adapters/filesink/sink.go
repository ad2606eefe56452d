// Package filesink provides a file-based debug sink implementation.
//
// Layout under the base directory:
//
//	frames/frame-000001.png    upright luma of every frame handed to the recognizer
//	decoded/frame-000001.png   the same frame with its payloads drawn underneath
//	decoded/frame-000001.txt   payloads, one per line
//	stats.json                 coordinator statistics at shutdown
package filesink

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/vision"
)

const (
	captionLineHeight = 18
	captionPadding    = 6
)

var (
	captionBackground = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	captionText       = color.RGBA{R: 80, G: 255, B: 120, A: 255}
)

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
	format   ports.ImageFormat
	maxWidth int
}

// Option configures a Sink.
type Option func(*Sink)

// WithFormat selects the image encoding. PNG is the default.
func WithFormat(format ports.ImageFormat) Option {
	return func(s *Sink) {
		s.format = format
	}
}

// WithMaxWidth downscales saved frames wider than width.
func WithMaxWidth(width int) Option {
	return func(s *Sink) {
		s.maxWidth = width
	}
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer, opts ...Option) *Sink {
	s := &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
		format:   ports.FormatPNG,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveFrame saves the upright luma plane of a frame.
func (s *Sink) SaveFrame(seq uint64, img vision.ImageDescriptor) error {
	gray, err := s.upright(img)
	if err != nil {
		return err
	}
	return s.writeImage(filepath.Join(s.baseDir, "frames"), seq, gray)
}

// SaveDecoded saves the frame with its payloads drawn in a caption band
// below the image, and the payloads as text.
func (s *Sink) SaveDecoded(seq uint64, img vision.ImageDescriptor, payloads []string) error {
	gray, err := s.upright(img)
	if err != nil {
		return err
	}

	b := gray.Bounds()
	captionHeight := len(payloads)*captionLineHeight + 2*captionPadding
	canvas := s.renderer.CreateCanvas(b.Dx(), b.Dy()+captionHeight, captionBackground)
	canvas.DrawImage(gray, 0, 0)

	style := ports.TextStyle{FontSize: 13, Color: captionText, Align: ports.AlignLeft}
	for i, p := range payloads {
		y := b.Dy() + captionPadding + i*captionLineHeight + captionLineHeight/2
		canvas.DrawText(truncate(p, 120), captionPadding, y, style)
	}

	dir := filepath.Join(s.baseDir, "decoded")
	if err := s.writeImage(dir, seq, canvas.ToImage()); err != nil {
		return err
	}
	path := filepath.Join(dir, frameName(seq, ".txt"))
	return s.fs.WriteFile(path, []byte(strings.Join(payloads, "\n")+"\n"))
}

// SaveStatsJSON saves the coordinator statistics.
func (s *Sink) SaveStatsJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "stats.json")
	return s.fs.WriteFile(path, data)
}

func (s *Sink) upright(img vision.ImageDescriptor) (*image.Gray, error) {
	luma, err := vision.LumaImage(img)
	if err != nil {
		return nil, fmt.Errorf("luma view: %w", err)
	}
	// Upright copies for every rotation but R0; the R0 view aliases the
	// frame buffer and is copied here so nothing outlives the frame.
	gray := vision.Upright(luma, img.Rotation)
	if gray == luma {
		gray = &image.Gray{
			Pix:    append([]uint8(nil), luma.Pix...),
			Stride: luma.Stride,
			Rect:   luma.Rect,
		}
	}

	if s.maxWidth > 0 && gray.Bounds().Dx() > s.maxWidth {
		b := gray.Bounds()
		h := b.Dy() * s.maxWidth / b.Dx()
		if resized, ok := s.renderer.ResizeImage(gray, s.maxWidth, h).(*image.Gray); ok {
			gray = resized
		}
	}
	return gray, nil
}

func (s *Sink) writeImage(dir string, seq uint64, img image.Image) error {
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, s.format, 90)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", seq, err)
	}
	path := filepath.Join(dir, frameName(seq, s.format.Extension()))
	return s.fs.WriteFile(path, data)
}

func frameName(seq uint64, ext string) string {
	return fmt.Sprintf("frame-%06d%s", seq, ext)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
