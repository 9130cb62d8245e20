//go:build !nofitz

package raster

import (
	"bytes"
	"fmt"
	"image/png"

	fitz "github.com/gen2brain/go-fitz"
)

// fitzRasterizer renders pages with MuPDF via go-fitz, entirely in
// memory.
type fitzRasterizer struct{}

// Default returns the rasterizer compiled into this build.
func Default() DocumentRasterizer { return fitzRasterizer{} }

func (fitzRasterizer) Available() bool { return true }

func (fitzRasterizer) Rasterize(data []byte) ([]Page, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	pages := make([]Page, 0, n)
	for i := 0; i < n; i++ {
		img, err := doc.ImageDPI(i, RenderDPI)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		b := img.Bounds()
		pages = append(pages, Page{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()})
	}
	return pages, nil
}
