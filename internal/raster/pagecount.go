package raster

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageCount reads the page count of a PDF without rasterizing it. It
// works in every build, including nofitz, and doubles as a cheap
// validity check at ingestion.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %w", err)
	}
	return n, nil
}
