// Package deck turns a batch snapshot into a slide sequence and
// serializes it as a presentation document. Composition is pure layout
// logic; decoding and rasterization arrive through narrow interfaces so
// the layout rules are testable without any rendering library.
package deck

import (
	"time"

	"github.com/milankmezic/Upload2Present/internal/geometry"
	"github.com/milankmezic/Upload2Present/internal/imgcodec"
	"github.com/milankmezic/Upload2Present/internal/raster"
)

// Page size: US letter portrait.
var (
	PageWidth  = geometry.Inches(8.5)
	PageHeight = geometry.Inches(11.0)
)

// GeneratorLabel identifies the producing application in cover slides
// and document metadata.
const GeneratorLabel = "U2P - Upload to Present"

// Align is a paragraph alignment.
type Align string

const (
	AlignLeft   Align = "l"
	AlignCenter Align = "ctr"
)

// Line is one paragraph of text inside a box.
type Line struct {
	Text       string
	Size       int // points
	Bold       bool
	Color      string // RRGGBB hex, empty for the default
	Align      Align
	SpaceAfter int // points
}

// TextBox is a free-standing text shape. Text always word-wraps within
// the box.
type TextBox struct {
	Rect  geometry.Rect
	Lines []Line
}

// Picture is an embedded raster image.
type Picture struct {
	Data   []byte
	Format string // png, jpeg, gif, bmp, tiff
	Rect   geometry.Rect
}

// Slide is one page of the deck: a blank background with text boxes and
// pictures.
type Slide struct {
	Boxes    []TextBox
	Pictures []Picture
}

// Properties are the document metadata fields, populated only when a
// presentation title was supplied.
type Properties struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Category string
	Comment  string
}

// Deck is the fully composed presentation, ready for serialization.
type Deck struct {
	Slides      []Slide
	Props       Properties
	GeneratedAt time.Time
}

// Options is the presentation configuration surface.
type Options struct {
	ShowTitles        bool
	PresentationTitle string

	// GeneratedAt pins the wall-clock timestamps embedded in metadata;
	// zero means time.Now().
	GeneratedAt time.Time
}

// Event is one structured diagnostic emitted during composition. The
// compositor mirrors these to the log and hands them to the UI layer.
type Event struct {
	Level   string `json:"level"` // info or warn
	Code    string `json:"code"`
	Record  string `json:"record,omitempty"`
	Message string `json:"message"`
}

// Event codes.
const (
	EventImageConverted     = "image_converted"
	EventImageDecodeFailed  = "image_decode_failed"
	EventDocumentFailed     = "document_failed"
	EventRasterUnavailable  = "rasterizer_unavailable"
	EventRecordUnclassified = "record_unclassified"
)

// ImageCodec prepares image bytes for embedding. Satisfied by
// imgcodec.Codec.
type ImageCodec interface {
	Prepare(data []byte) (imgcodec.Embedded, error)
}

// DocumentRasterizer renders each page of a paginated document.
// Satisfied by raster.Default().
type DocumentRasterizer interface {
	Available() bool
	Rasterize(data []byte) ([]raster.Page, error)
}

// PresentationWriter serializes a composed deck into a single document.
type PresentationWriter interface {
	Write(d *Deck) ([]byte, error)
}
