// Package compositor orchestrates artifact builds: it takes a batch
// snapshot and produces the finished slide deck or ZIP archive bytes,
// mirroring composition diagnostics into the log and metrics.
package compositor

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/milankmezic/Upload2Present/internal/archive"
	"github.com/milankmezic/Upload2Present/internal/batch"
	"github.com/milankmezic/Upload2Present/internal/deck"
	"github.com/milankmezic/Upload2Present/internal/imgcodec"
	"github.com/milankmezic/Upload2Present/internal/metrics"
	"github.com/milankmezic/Upload2Present/internal/raster"
)

// ArchiveContentType is the MIME type served for ZIP downloads.
const ArchiveContentType = "application/zip"

// ArchiveFunc packs a batch snapshot into archive bytes.
type ArchiveFunc func(b batch.Batch) ([]byte, error)

// Dependencies are the pluggable stages of a build. Zero fields get
// production defaults in New.
type Dependencies struct {
	Codec      deck.ImageCodec
	Rasterizer deck.DocumentRasterizer
	Writer     deck.PresentationWriter
	Archiver   ArchiveFunc
}

// Compositor builds downloadable artifacts from batch snapshots. It is
// stateless and safe for concurrent use.
type Compositor struct {
	codec    deck.ImageCodec
	rast     deck.DocumentRasterizer
	writer   deck.PresentationWriter
	archiver ArchiveFunc
}

// Result is one finished artifact plus its build report.
type Result struct {
	Data        []byte
	Filename    string
	ContentType string
	Slides      int
	Fallbacks   int
	Events      []deck.Event
}

func New(deps Dependencies) *Compositor {
	c := &Compositor{codec: deps.Codec, rast: deps.Rasterizer, writer: deps.Writer, archiver: deps.Archiver}
	if c.codec == nil {
		c.codec = imgcodec.New()
	}
	if c.rast == nil {
		c.rast = raster.Default()
	}
	if c.writer == nil {
		c.writer = deck.NewPPTXWriter()
	}
	if c.archiver == nil {
		c.archiver = archive.Build
	}
	return c
}

// BuildDeck composes and serializes the slide deck for a batch
// snapshot. Per-record failures never fail the build; they surface as
// events and fallback entries in the result.
func (c *Compositor) BuildDeck(b batch.Batch, opts deck.Options) (Result, error) {
	start := time.Now()

	d, events := deck.Compose(b, opts, c.codec, c.rast)
	logEvents(b.ID, events)

	data, err := c.writer.Write(d)
	if err != nil {
		metrics.ObserveBuild("deck", "error", time.Since(start))
		return Result{}, fmt.Errorf("write presentation: %w", err)
	}

	res := Result{
		Data:        data,
		Filename:    deck.DeckFilename(opts.PresentationTitle, b.ID),
		ContentType: deck.ContentType,
		Slides:      len(d.Slides),
		Fallbacks:   countFallbacks(events),
		Events:      events,
	}

	metrics.ObserveBuild("deck", "success", time.Since(start))
	metrics.AddSlides(res.Slides)
	metrics.AddFallbacks(res.Fallbacks)

	log.Info().
		Str("batch_id", b.ID).
		Int("records", len(b.Records)).
		Int("slides", res.Slides).
		Int("fallbacks", res.Fallbacks).
		Int("bytes", len(data)).
		Msg("Deck built")
	return res, nil
}

// BuildArchive packs the batch into a ZIP archive.
func (c *Compositor) BuildArchive(b batch.Batch) (Result, error) {
	start := time.Now()

	data, err := c.archiver(b)
	if err != nil {
		metrics.ObserveBuild("archive", "error", time.Since(start))
		return Result{}, fmt.Errorf("build archive: %w", err)
	}

	metrics.ObserveBuild("archive", "success", time.Since(start))
	log.Info().
		Str("batch_id", b.ID).
		Int("records", len(b.Records)).
		Int("bytes", len(data)).
		Msg("Archive built")
	return Result{
		Data:        data,
		Filename:    deck.ArchiveFilename(b.ID),
		ContentType: ArchiveContentType,
	}, nil
}

func logEvents(batchID string, events []deck.Event) {
	for _, ev := range events {
		e := log.Info()
		if ev.Level == "warn" {
			e = log.Warn()
		}
		e.Str("batch_id", batchID).
			Str("code", ev.Code).
			Str("record", ev.Record).
			Msg(ev.Message)
	}
}

func countFallbacks(events []deck.Event) int {
	n := 0
	for _, ev := range events {
		switch ev.Code {
		case deck.EventImageDecodeFailed, deck.EventDocumentFailed,
			deck.EventRasterUnavailable, deck.EventRecordUnclassified:
			n++
		}
	}
	return n
}
