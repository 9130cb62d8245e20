// Package ingest turns raw uploaded files into batch records, filling in
// the metadata the rest of the pipeline relies on: MIME type, default
// title, camera detection for images and page counts for documents.
package ingest

import (
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/milankmezic/Upload2Present/internal/batch"
	"github.com/milankmezic/Upload2Present/internal/classify"
	"github.com/milankmezic/Upload2Present/internal/exifcam"
	"github.com/milankmezic/Upload2Present/internal/raster"
)

// NewRecord builds a record from one uploaded file. declaredMIME is the
// Content-Type sent by the client; when empty the type is sniffed from
// the bytes. Camera detection and page counting are best effort: their
// failures are logged and the record is kept.
func NewRecord(name, declaredMIME string, data []byte, now time.Time) batch.Record {
	mime := declaredMIME
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}

	rec := batch.Record{
		ID:         uuid.NewString(),
		Name:       name,
		Bytes:      data,
		MIME:       mime,
		Size:       int64(len(data)),
		Title:      batch.TitleFromName(name),
		Order:      -1,
		UploadTime: now,
	}

	switch classify.Classify(name) {
	case classify.Image:
		isCamera, tags, err := exifcam.Detect(data)
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("EXIF scan failed")
			break
		}
		rec.IsCamera = isCamera
		if isCamera {
			log.Debug().Str("file", name).Strs("tags", tags).Msg("Camera photo detected")
		}
	case classify.PaginatedDocument:
		pages, err := raster.PageCount(data)
		if err != nil {
			log.Debug().Err(err).Str("file", name).Msg("Page count failed")
			break
		}
		rec.Pages = pages
	}

	log.Info().
		Str("file", name).
		Str("mime", rec.MIME).
		Int64("size", rec.Size).
		Str("kind", classify.Classify(name).String()).
		Msg("File ingested")
	return rec
}
