// Package zxing provides a barcode recognizer backed by gozxing.
package zxing

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/user/qrmobilevision/pkg/ports"
	"github.com/user/qrmobilevision/pkg/vision"
)

// ErrUnsupportedFormat is returned by New for an unknown barcode format.
var ErrUnsupportedFormat = errors.New("unsupported barcode format")

// Format names a barcode symbology.
type Format string

const (
	FormatQRCode     Format = "qr_code"
	FormatDataMatrix Format = "data_matrix"
	FormatAztec      Format = "aztec"
	FormatCode128    Format = "code_128"
	FormatCode39     Format = "code_39"
	FormatEAN13      Format = "ean_13"
)

var readerFactories = map[Format]func() gozxing.Reader{
	FormatQRCode:     func() gozxing.Reader { return qrcode.NewQRCodeReader() },
	FormatDataMatrix: func() gozxing.Reader { return datamatrix.NewDataMatrixReader() },
	FormatAztec:      func() gozxing.Reader { return aztec.NewAztecReader() },
	FormatCode128:    func() gozxing.Reader { return oned.NewCode128Reader() },
	FormatCode39:     func() gozxing.Reader { return oned.NewCode39Reader() },
	FormatEAN13:      func() gozxing.Reader { return oned.NewEAN13Reader() },
}

// ParseFormat parses a format name, accepting upper case and dashes.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := readerFactories[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// Options configures the recognizer.
type Options struct {
	// Formats to look for, tried in order. Empty means QR code only.
	Formats []Format

	// TryHarder trades speed for accuracy.
	TryHarder bool
}

// Recognizer implements ports.Recognizer. Each Detect call decodes on its
// own goroutine and reports through the callback.
type Recognizer struct {
	formats []Format
	hints   map[gozxing.DecodeHintType]interface{}
	logger  ports.Logger

	wg sync.WaitGroup
}

// New creates a Recognizer for the given formats.
func New(opts Options, logger ports.Logger) (*Recognizer, error) {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []Format{FormatQRCode}
	}
	for _, f := range formats {
		if _, ok := readerFactories[f]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
		}
	}

	hints := map[gozxing.DecodeHintType]interface{}{}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	return &Recognizer{
		formats: formats,
		hints:   hints,
		logger:  logger.WithComponent("recognizer"),
	}, nil
}

// Formats returns the configured formats.
func (r *Recognizer) Formats() []Format {
	return append([]Format(nil), r.formats...)
}

// Detect decodes img asynchronously and calls done with every payload
// found. img.Data is only read before done is called.
func (r *Recognizer) Detect(img vision.ImageDescriptor, done ports.DetectionCallback) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		payloads, err := r.Decode(img)
		done(payloads, err)
	}()
}

// Wait blocks until every outstanding detection has reported.
func (r *Recognizer) Wait() {
	r.wg.Wait()
}

// Decode runs every configured reader over img. A frame without a
// barcode yields an empty, non-nil slice.
func (r *Recognizer) Decode(img vision.ImageDescriptor) ([]string, error) {
	bmp, err := binaryBitmap(img)
	if err != nil {
		return nil, err
	}

	payloads := []string{}
	seen := map[string]bool{}
	for _, f := range r.formats {
		reader := readerFactories[f]()
		result, err := reader.Decode(bmp, r.hints)
		if err != nil {
			var notFound gozxing.ReaderException
			if errors.As(err, &notFound) {
				continue
			}
			return nil, fmt.Errorf("decode %s: %w", f, err)
		}
		text := result.GetText()
		if seen[text] {
			continue
		}
		seen[text] = true
		payloads = append(payloads, text)
		r.logger.Debug("Decoded %s: %s", f, text)
	}
	return payloads, nil
}

// binaryBitmap wraps the luma plane of img. Upright frames are read in
// place; rotated frames are turned upright first so one-dimensional
// symbologies are scanned along their bars.
func binaryBitmap(img vision.ImageDescriptor) (*gozxing.BinaryBitmap, error) {
	if img.Format != vision.FormatNV21 {
		return nil, fmt.Errorf("%w: %s", vision.ErrInvalidFrame, img.Format)
	}
	if img.Width <= 0 || img.Height <= 0 || len(img.Data) < img.Format.FrameLen(img.Width, img.Height) {
		return nil, vision.ErrInvalidFrame
	}

	if img.Rotation == vision.R0 {
		src, err := gozxing.NewPlanarYUVLuminanceSource(
			img.Data, img.Width, img.Height, 0, 0, img.Width, img.Height, false)
		if err != nil {
			return nil, fmt.Errorf("luminance source: %w", err)
		}
		return gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(src))
	}

	luma, err := vision.LumaImage(img)
	if err != nil {
		return nil, err
	}
	return gozxing.NewBinaryBitmapFromImage(vision.Upright(luma, img.Rotation))
}

// Ensure Recognizer implements ports.Recognizer
var _ ports.Recognizer = (*Recognizer)(nil)
