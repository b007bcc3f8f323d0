package capture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/lazypower/ephemeral/internal/decay"
)

func TestFromText(t *testing.T) {
	c, err := FromText("  cafe\u0301 au lait \n")
	if err != nil {
		t.Fatalf("FromText: %v", err)
	}
	if c.Type != decay.Text {
		t.Errorf("Type = %q, want text", c.Type)
	}
	if c.Text != "caf\u00e9 au lait" {
		t.Errorf("Text = %q, want NFC composed and trimmed", c.Text)
	}
	if n := decay.LengthOf(c); n != 12 {
		t.Errorf("LengthOf = %d, want 12", n)
	}
}

func TestFromTextEmpty(t *testing.T) {
	for _, s := range []string{"", "   ", "\n\t"} {
		if _, err := FromText(s); !errors.Is(err, ErrEmpty) {
			t.Errorf("FromText(%q) err = %v, want ErrEmpty", s, err)
		}
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFromPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(1, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	c, err := FromPNG(bytes.NewReader(encodePNG(t, src)))
	if err != nil {
		t.Fatalf("FromPNG: %v", err)
	}
	if c.Type != decay.Image {
		t.Fatalf("Type = %q, want image", c.Type)
	}
	if got := decay.TraceOf(c); got != "3x2" {
		t.Errorf("TraceOf = %q, want 3x2", got)
	}
	px := c.Image.NRGBAAt(1, 1)
	if px != (color.NRGBA{R: 200, G: 100, B: 50, A: 255}) {
		t.Errorf("pixel = %v", px)
	}
}

func TestFromPNGPaletted(t *testing.T) {
	pal := color.Palette{color.NRGBA{A: 255}, color.NRGBA{R: 255, A: 255}}
	src := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	src.SetColorIndex(0, 0, 1)

	c, err := FromPNG(bytes.NewReader(encodePNG(t, src)))
	if err != nil {
		t.Fatalf("FromPNG: %v", err)
	}
	if px := c.Image.NRGBAAt(0, 0); px.R != 255 || px.A != 255 {
		t.Errorf("pixel = %v, want opaque red", px)
	}
}

func TestFromPNGRejectsGarbage(t *testing.T) {
	if _, err := FromPNG(strings.NewReader("not a png")); err == nil {
		t.Error("expected error for non-png input")
	}
	if _, err := FromPNG(strings.NewReader("")); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty input err = %v, want ErrEmpty", err)
	}
}

func TestFromRGBA(t *testing.T) {
	pix := make([]byte, 4*2*2)
	pix[3] = 255

	c, err := FromRGBA(2, 2, pix)
	if err != nil {
		t.Fatalf("FromRGBA: %v", err)
	}
	pix[3] = 0
	if c.Image.Pix[3] != 255 {
		t.Error("FromRGBA did not copy the buffer")
	}

	if _, err := FromRGBA(2, 2, pix[:8]); err == nil {
		t.Error("expected error for short buffer")
	}
	if _, err := FromRGBA(0, 2, nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("zero width err = %v, want ErrEmpty", err)
	}
}

func TestFromAudio(t *testing.T) {
	c, err := FromAudio(bytes.NewReader([]byte("RIFF....WAVE")))
	if err != nil {
		t.Fatalf("FromAudio: %v", err)
	}
	if c.Type != decay.Audio || len(c.Audio) != 12 {
		t.Errorf("content = %+v", c)
	}
	if got := decay.TraceOf(c); got != "" {
		t.Errorf("TraceOf = %q, want empty", got)
	}

	if _, err := FromAudio(bytes.NewReader(nil)); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty audio err = %v, want ErrEmpty", err)
	}
	big := bytes.NewReader(make([]byte, MaxAudioBytes+1))
	if _, err := FromAudio(big); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized audio err = %v, want ErrTooLarge", err)
	}
}
