// Package capture turns raw user input into decay.Content.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/lazypower/ephemeral/internal/decay"
)

const (
	// MaxAudioBytes bounds opaque audio captures.
	MaxAudioBytes = 16 << 20
	// MaxImagePixels bounds decoded images; every tick touches every pixel.
	MaxImagePixels = 4096 * 4096
)

var (
	ErrEmpty    = errors.New("capture is empty")
	ErrTooLarge = errors.New("capture is too large")
)

// FromText normalises s to NFC and trims surrounding whitespace so the trace
// and length count what a reader sees.
func FromText(s string) (decay.Content, error) {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return decay.Content{}, ErrEmpty
	}
	return decay.Content{Type: decay.Text, Text: s}, nil
}

// FromPNG decodes a PNG into a non-premultiplied RGBA buffer.
func FromPNG(r io.Reader) (decay.Content, error) {
	cfg, data, err := peekConfig(r)
	if err != nil {
		return decay.Content{}, err
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return decay.Content{}, ErrEmpty
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return decay.Content{}, fmt.Errorf("%w: %dx%d image", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return decay.Content{}, fmt.Errorf("decode png: %w", err)
	}
	return decay.Content{Type: decay.Image, Image: toNRGBA(img)}, nil
}

func peekConfig(r io.Reader) (image.Config, []byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, nil, fmt.Errorf("read png: %w", err)
	}
	if len(data) == 0 {
		return image.Config{}, nil, ErrEmpty
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, nil, fmt.Errorf("decode png header: %w", err)
	}
	return cfg, data, nil
}

// FromRGBA wraps a raw 8-bit RGBA buffer of w×h pixels. pix is copied.
func FromRGBA(w, h int, pix []byte) (decay.Content, error) {
	if w <= 0 || h <= 0 {
		return decay.Content{}, ErrEmpty
	}
	if w*h > MaxImagePixels {
		return decay.Content{}, fmt.Errorf("%w: %dx%d image", ErrTooLarge, w, h)
	}
	if len(pix) != 4*w*h {
		return decay.Content{}, fmt.Errorf("rgba buffer is %d bytes, want %d for %dx%d", len(pix), 4*w*h, w, h)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return decay.Content{Type: decay.Image, Image: img}, nil
}

// FromAudio reads opaque audio bytes. Audio is archived but never altered.
func FromAudio(r io.Reader) (decay.Content, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAudioBytes+1))
	if err != nil {
		return decay.Content{}, fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return decay.Content{}, ErrEmpty
	}
	if len(data) > MaxAudioBytes {
		return decay.Content{}, fmt.Errorf("%w: audio exceeds %d bytes", ErrTooLarge, MaxAudioBytes)
	}
	return decay.Content{Type: decay.Audio, Audio: data}, nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
