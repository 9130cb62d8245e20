package batch

import (
	"strings"
	"time"
)

// Record is one uploaded file plus its display and ordering metadata.
// Bytes are immutable after creation; only Title and Order may change.
type Record struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Bytes      []byte    `json:"-"`
	MIME       string    `json:"mime"`
	Size       int64     `json:"size"`
	Title      string    `json:"title"`
	Order      int       `json:"order"`
	IsCamera   bool      `json:"is_camera"`
	UploadTime time.Time `json:"upload_time"`

	// Pages is the known page count for paginated documents, 0 when unknown.
	Pages int `json:"pages,omitempty"`
}

// Batch is an immutable snapshot of one batch: the id plus the records
// in presentation order.
type Batch struct {
	ID      string
	Records []Record
}

// NewBatchID returns the time-derived slug identifying one batch,
// e.g. 20250117T093004Z.
func NewBatchID(now time.Time) string {
	return now.UTC().Format("20060102T150405Z")
}

// TitleFromName strips the extension from a filename to produce the
// default slide title.
func TitleFromName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}
