// Package raster converts paginated documents into one image per page.
// The concrete engine sits behind DocumentRasterizer so builds without
// MuPDF (tag "nofitz") still compile; documents then route to the
// fallback summary instead of failing the whole deck.
package raster

import "errors"

// RenderDPI is the fixed rendering resolution for every page: 2x linear
// zoom over the 72 DPI document baseline.
const RenderDPI = 144

// ErrUnavailable indicates no rasterization engine was compiled in.
var ErrUnavailable = errors.New("document rasterization unavailable")

// Page is one rasterized document page, PNG encoded.
type Page struct {
	PNG    []byte
	Width  int
	Height int
}

// DocumentRasterizer renders every page of a document. Rasterize is
// atomic per document: an error on any page fails the whole document,
// and the caller lists it on the fallback summary.
type DocumentRasterizer interface {
	Available() bool
	Rasterize(data []byte) ([]Page, error)
}
