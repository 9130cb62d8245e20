// Package imgcodec decodes uploaded images and guarantees the bytes
// handed to the document assembler are in an embeddable raster format.
package imgcodec

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Embedded is an image ready for embedding: supported format, known
// pixel dimensions.
type Embedded struct {
	Data   []byte
	Format string
	Width  int
	Height int

	// Converted is true when the original bytes were re-encoded to a
	// supported format; SourceFormat then names the decoded original.
	Converted    bool
	SourceFormat string
}

// Formats the presentation format accepts directly. Anything else that
// still decodes (webp today) is re-encoded to PNG.
var embeddable = map[string]bool{
	"jpeg": true, "png": true, "gif": true, "bmp": true, "tiff": true,
}

// Codec prepares image bytes for embedding.
type Codec struct{}

func New() *Codec { return &Codec{} }

// Prepare inspects the bytes and returns them ready for embedding. The
// original bytes pass through untouched when the encoded format is
// already supported; otherwise the image is decoded and re-encoded
// losslessly as PNG. A decode failure means the record cannot become a
// slide and is reported to the caller as an error.
func (c *Codec) Prepare(data []byte) (Embedded, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Embedded{}, fmt.Errorf("decode image: %w", err)
	}
	if embeddable[format] {
		return Embedded{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Embedded{}, fmt.Errorf("decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Embedded{}, fmt.Errorf("re-encode %s as png: %w", format, err)
	}
	b := img.Bounds()
	return Embedded{
		Data:         buf.Bytes(),
		Format:       "png",
		Width:        b.Dx(),
		Height:       b.Dy(),
		Converted:    true,
		SourceFormat: format,
	}, nil
}
