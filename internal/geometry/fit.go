// Package geometry computes aspect-preserving placement of content on a
// page. All coordinates are English Metric Units (914400 per inch), the
// native unit of the presentation format.
package geometry

import "math"

// EMUPerInch is the number of English Metric Units in one inch.
const EMUPerInch int64 = 914400

// Inches converts a length in inches to EMU.
func Inches(in float64) int64 { return int64(math.Round(in * float64(EMUPerInch))) }

// Fixed page margins. Half an inch on each side horizontally; the title
// band reserves an extra inch and a half of height at the top.
var (
	sideMargins   = Inches(1.0)
	titleTop      = Inches(1.5)
	titleReserved = Inches(2.5)
	plainTop      = Inches(0.5)
	plainReserved = Inches(1.0)
)

// Rect is a placement on the page, in EMU.
type Rect struct {
	Left, Top, Width, Height int64
}

// Fit places content of contentW x contentH pixels inside a pageW x pageH
// page, scaled to fill the usable band while preserving aspect ratio.
// Small content is scaled up as well, keeping decks visually uniform.
// The result is centered horizontally across the full page width and
// vertically within the usable band. Zero or negative content dimensions
// yield a zero Rect.
func Fit(pageW, pageH int64, hasTitle bool, contentW, contentH int) Rect {
	if contentW <= 0 || contentH <= 0 {
		return Rect{}
	}

	maxW := pageW - sideMargins
	var maxH, topOffset int64
	if hasTitle {
		maxH = pageH - titleReserved
		topOffset = titleTop
	} else {
		maxH = pageH - plainReserved
		topOffset = plainTop
	}

	scale := math.Min(float64(maxW)/float64(contentW), float64(maxH)/float64(contentH))
	w := int64(math.Round(float64(contentW) * scale))
	h := int64(math.Round(float64(contentH) * scale))

	return Rect{
		Left:   (pageW - w) / 2,
		Top:    topOffset + (maxH-h)/2,
		Width:  w,
		Height: h,
	}
}
