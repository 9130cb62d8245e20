// Package classify decides how a record is presented: one slide per
// image, one slide per document page, or a line on the fallback summary.
// Classification is by filename extension only; content that later fails
// to decode is demoted to Other by the composer, not here.
package classify

import "strings"

// Kind is the presentation class of a record.
type Kind int

const (
	Other Kind = iota
	Image
	PaginatedDocument
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case PaginatedDocument:
		return "document"
	default:
		return "other"
	}
}

var imageExts = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "webp": {}, "bmp": {},
	"tiff": {}, "mpo": {}, "heic": {}, "heif": {}, "svg": {},
}

// Classify returns the presentation kind for a filename. The match is
// case-insensitive and uses the last extension segment; names without a
// dot are Other.
func Classify(filename string) Kind {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return Other
	}
	ext := strings.ToLower(filename[i+1:])
	if _, ok := imageExts[ext]; ok {
		return Image
	}
	if ext == "pdf" {
		return PaginatedDocument
	}
	return Other
}
