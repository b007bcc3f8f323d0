package decay

import (
	"fmt"
	"image"
	"strings"
)

// ContentType identifies what kind of artifact is being forgotten.
// The string value doubles as the archive "mode" tag.
type ContentType string

const (
	Text  ContentType = "text"
	Image ContentType = "image"
	Audio ContentType = "audio"
)

// Valid reports whether t is one of the three known content types.
func (t ContentType) Valid() bool {
	return t == Text || t == Image || t == Audio
}

// ParseContentType accepts "text", "image" or "audio" (case-insensitive).
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case Text:
		return Text, nil
	case Image:
		return Image, nil
	case Audio:
		return Audio, nil
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// Content is a captured artifact as handed over by the capture layer.
// Exactly one of Text, Image or Audio is meaningful, selected by Type.
type Content struct {
	Type  ContentType
	Text  string
	Image *image.NRGBA
	Audio []byte
}

// Frame is the mutable buffer a decay session works on.
// Images are non-premultiplied so alpha can fade independently of colour.
type Frame struct {
	Type  ContentType
	Text  []rune
	Image *image.NRGBA
	Audio []byte

	// baseAlpha holds the alpha plane at capture time; fades are computed
	// against it so they do not compound tick over tick.
	baseAlpha []uint8
}

// NewFrame copies content into a fresh frame. The caller's buffers are never
// touched by decay.
func NewFrame(c Content) *Frame {
	f := &Frame{Type: c.Type}
	switch c.Type {
	case Text:
		f.Text = []rune(c.Text)
	case Image:
		if c.Image == nil {
			f.Image = image.NewNRGBA(image.Rect(0, 0, 0, 0))
			break
		}
		f.Image = cloneNRGBA(c.Image)
		f.baseAlpha = make([]uint8, len(f.Image.Pix)/4)
		for i := range f.baseAlpha {
			f.baseAlpha[i] = f.Image.Pix[i*4+3]
		}
	case Audio:
		f.Audio = c.Audio
	}
	return f
}

// String renders the text buffer. Non-text frames render as an empty string.
func (f *Frame) String() string {
	if f.Type != Text {
		return ""
	}
	return string(f.Text)
}

// CloneImage returns a copy of the current image buffer, or nil.
func (f *Frame) CloneImage() *image.NRGBA {
	if f.Image == nil {
		return nil
	}
	return cloneNRGBA(f.Image)
}

// cloneNRGBA copies src into a tightly packed NRGBA anchored at the origin.
func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		from := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[from:from+b.Dx()*4])
	}
	return dst
}
