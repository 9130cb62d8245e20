//go:build nofitz

package raster

// stubRasterizer stands in when MuPDF is not compiled in. Every
// document becomes a fallback entry.
type stubRasterizer struct{}

// Default returns the rasterizer compiled into this build.
func Default() DocumentRasterizer { return stubRasterizer{} }

func (stubRasterizer) Available() bool { return false }

func (stubRasterizer) Rasterize(data []byte) ([]Page, error) {
	return nil, ErrUnavailable
}
