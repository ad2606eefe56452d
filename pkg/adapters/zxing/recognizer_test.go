package zxing

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/user/qrmobilevision/pkg/adapters/logger"
	"github.com/user/qrmobilevision/pkg/vision"
)

// qrFrame renders text as a QR code and returns it as an NV21 descriptor.
func qrFrame(t *testing.T, text string, size int) (vision.ImageDescriptor, *image.Gray) {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		t.Fatalf("encode QR: %v", err)
	}
	w, h := matrix.GetWidth(), matrix.GetHeight()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !matrix.Get(x, y) {
				img.Pix[y*img.Stride+x] = 0xff
			}
		}
	}
	data, sz := vision.EncodeNV21(img)
	desc := vision.ImageDescriptor{Data: data, Width: sz.Width, Height: sz.Height, Format: vision.FormatNV21}
	luma, err := vision.LumaImage(desc)
	if err != nil {
		t.Fatalf("luma: %v", err)
	}
	return desc, luma
}

func newRecognizer(t *testing.T, opts Options) *Recognizer {
	t.Helper()
	r, err := New(opts, logger.NewNoop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestRecognizer_DecodeQRCode(t *testing.T) {
	r := newRecognizer(t, Options{})
	desc, _ := qrFrame(t, "HELLO", 200)

	payloads, err := r.Decode(desc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(payloads) != 1 || payloads[0] != "HELLO" {
		t.Errorf("expected [HELLO], got %v", payloads)
	}
}

func TestRecognizer_DecodeRotatedFrame(t *testing.T) {
	r := newRecognizer(t, Options{TryHarder: true})
	_, luma := qrFrame(t, "https://example.com/rotated", 240)

	// Store the code rotated 90° clockwise; a hint of 270 turns it back.
	rotated := vision.Upright(luma, vision.R90)
	data, sz := vision.EncodeNV21(rotated)
	desc := vision.ImageDescriptor{
		Data: data, Width: sz.Width, Height: sz.Height,
		Format: vision.FormatNV21, Rotation: vision.R270,
	}

	payloads, err := r.Decode(desc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(payloads) != 1 || payloads[0] != "https://example.com/rotated" {
		t.Errorf("unexpected payloads %v", payloads)
	}
}

func TestRecognizer_BlankFrame(t *testing.T) {
	r := newRecognizer(t, Options{Formats: []Format{FormatQRCode, FormatDataMatrix, FormatCode128}})

	w, h := 64, 48
	data := make([]byte, vision.FormatNV21.FrameLen(w, h))
	for i := range data {
		data[i] = 128
	}
	desc := vision.ImageDescriptor{Data: data, Width: w, Height: h, Format: vision.FormatNV21}

	payloads, err := r.Decode(desc)
	if err != nil {
		t.Fatalf("blank frame must not be an error, got %v", err)
	}
	if payloads == nil || len(payloads) != 0 {
		t.Errorf("expected empty non-nil payloads, got %#v", payloads)
	}
}

func TestRecognizer_InvalidDescriptor(t *testing.T) {
	r := newRecognizer(t, Options{})

	tests := []struct {
		name string
		desc vision.ImageDescriptor
	}{
		{"unknown format", vision.ImageDescriptor{Data: make([]byte, 24), Width: 4, Height: 4}},
		{"short buffer", vision.ImageDescriptor{Data: make([]byte, 3), Width: 4, Height: 4, Format: vision.FormatNV21}},
		{"zero size", vision.ImageDescriptor{Format: vision.FormatNV21}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Decode(tt.desc); !errors.Is(err, vision.ErrInvalidFrame) {
				t.Errorf("expected ErrInvalidFrame, got %v", err)
			}
		})
	}
}

func TestRecognizer_DetectIsAsynchronous(t *testing.T) {
	r := newRecognizer(t, Options{})
	desc, _ := qrFrame(t, "ASYNC", 160)

	type result struct {
		payloads []string
		err      error
	}
	ch := make(chan result, 1)
	r.Detect(desc, func(payloads []string, err error) {
		ch <- result{payloads, err}
	})

	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if len(res.payloads) != 1 || res.payloads[0] != "ASYNC" {
			t.Errorf("expected [ASYNC], got %v", res.payloads)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("detection did not complete")
	}
	r.Wait()
}

func TestNew_UnsupportedFormat(t *testing.T) {
	_, err := New(Options{Formats: []Format{"pdf_417"}}, logger.NewNoop())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNew_DefaultsToQRCode(t *testing.T) {
	r := newRecognizer(t, Options{})
	if f := r.Formats(); len(f) != 1 || f[0] != FormatQRCode {
		t.Errorf("expected [qr_code], got %v", f)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"qr_code", FormatQRCode, false},
		{"QR-CODE", FormatQRCode, false},
		{" data_matrix ", FormatDataMatrix, false},
		{"code-128", FormatCode128, false},
		{"ean_13", FormatEAN13, false},
		{"maxicode", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
