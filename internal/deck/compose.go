package deck

import (
	"fmt"
	"sort"
	"time"

	"github.com/milankmezic/Upload2Present/internal/batch"
	"github.com/milankmezic/Upload2Present/internal/classify"
	"github.com/milankmezic/Upload2Present/internal/geometry"
)

const (
	grayText = "808080"
	dimText  = "646464"

	// Cover slide file list limits: list filenames only for small
	// batches, and never more than six entries.
	coverListThreshold = 8
	coverListMax       = 6
)

// Compose builds the slide sequence for a batch snapshot. Records are
// processed in ascending Order with insertion order breaking ties. It
// never fails: records that cannot become slides are gathered on the
// trailing summary slide, and every such demotion is reported in the
// returned events.
func Compose(b batch.Batch, opts Options, codec ImageCodec, rast DocumentRasterizer) (*Deck, []Event) {
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	records := make([]batch.Record, len(b.Records))
	copy(records, b.Records)
	sort.SliceStable(records, func(i, j int) bool { return records[i].Order < records[j].Order })

	d := &Deck{GeneratedAt: generated}
	if opts.PresentationTitle != "" {
		d.Props = Properties{
			Title:    opts.PresentationTitle,
			Author:   GeneratorLabel,
			Subject:  "Document Collection - " + opts.PresentationTitle,
			Keywords: "U2P, Document Collection, Presentation",
			Category: "Document Collection",
			Comment:  "Generated by U2P on " + generated.Format("2006-01-02 15:04:05"),
		}
		d.Slides = append(d.Slides, coverSlide(records, b.ID, opts.PresentationTitle, generated))
	}

	var events []Event
	var fallback []batch.Record

	for _, rec := range records {
		switch classify.Classify(rec.Name) {
		case classify.Image:
			emb, err := codec.Prepare(rec.Bytes)
			if err != nil {
				events = append(events, Event{
					Level: "warn", Code: EventImageDecodeFailed, Record: rec.Name,
					Message: fmt.Sprintf("could not decode %q: %v", rec.Name, err),
				})
				fallback = append(fallback, rec)
				continue
			}
			if emb.Converted {
				events = append(events, Event{
					Level: "info", Code: EventImageConverted, Record: rec.Name,
					Message: fmt.Sprintf("converted %q from %s to %s for embedding", rec.Name, emb.SourceFormat, emb.Format),
				})
			}
			title := ""
			if opts.ShowTitles {
				title = recordTitle(rec)
			}
			d.Slides = append(d.Slides, contentSlide(title, Picture{
				Data:   emb.Data,
				Format: emb.Format,
				Rect:   geometry.Fit(PageWidth, PageHeight, opts.ShowTitles, emb.Width, emb.Height),
			}, b.ID))

		case classify.PaginatedDocument:
			if rast == nil || !rast.Available() {
				events = append(events, Event{
					Level: "warn", Code: EventRasterUnavailable, Record: rec.Name,
					Message: fmt.Sprintf("no rasterizer for %q; listing on summary slide", rec.Name),
				})
				fallback = append(fallback, rec)
				continue
			}
			pages, err := rast.Rasterize(rec.Bytes)
			if err != nil {
				events = append(events, Event{
					Level: "warn", Code: EventDocumentFailed, Record: rec.Name,
					Message: fmt.Sprintf("could not rasterize %q: %v", rec.Name, err),
				})
				fallback = append(fallback, rec)
				continue
			}
			for i, page := range pages {
				title := ""
				if opts.ShowTitles {
					title = recordTitle(rec)
					if len(pages) > 1 {
						title = fmt.Sprintf("%s (Page %d)", title, i+1)
					}
				}
				d.Slides = append(d.Slides, contentSlide(title, Picture{
					Data:   page.PNG,
					Format: "png",
					Rect:   geometry.Fit(PageWidth, PageHeight, opts.ShowTitles, page.Width, page.Height),
				}, b.ID))
			}

		default:
			events = append(events, Event{
				Level: "info", Code: EventRecordUnclassified, Record: rec.Name,
				Message: fmt.Sprintf("%q is not presentable; listing on summary slide", rec.Name),
			})
			fallback = append(fallback, rec)
		}
	}

	if len(fallback) > 0 {
		d.Slides = append(d.Slides, summarySlide(fallback, b.ID))
	}
	return d, events
}

// recordTitle prefers the edited title, falling back to the filename.
func recordTitle(rec batch.Record) string {
	if rec.Title != "" {
		return rec.Title
	}
	return rec.Name
}

// contentSlide lays out one slide: optional title band, fitted picture,
// footer with the batch id.
func contentSlide(title string, pic Picture, batchID string) Slide {
	var s Slide
	if title != "" {
		s.Boxes = append(s.Boxes, TextBox{
			Rect: geometry.Rect{
				Left:   geometry.Inches(0.5),
				Top:    geometry.Inches(0.3),
				Width:  PageWidth - geometry.Inches(1.0),
				Height: geometry.Inches(0.8),
			},
			Lines: []Line{{Text: title, Size: 18, Align: AlignCenter}},
		})
	}
	s.Pictures = append(s.Pictures, pic)
	if batchID != "" {
		s.Boxes = append(s.Boxes, footerBox(batchID))
	}
	return s
}

// coverSlide builds the leading slide: presentation title, generator
// label, batch id with date, record count, and for small batches a
// truncated file list.
func coverSlide(records []batch.Record, batchID, title string, generated time.Time) Slide {
	titleBox := TextBox{
		Rect: geometry.Rect{
			Left:   geometry.Inches(1.0),
			Top:    geometry.Inches(2.0),
			Width:  PageWidth - geometry.Inches(2.0),
			Height: geometry.Inches(1.5),
		},
		Lines: []Line{{Text: title, Size: 36, Bold: true, Align: AlignCenter}},
	}

	lines := []Line{
		{Text: "Generated by " + GeneratorLabel, Size: 16, Color: grayText, Align: AlignCenter},
		{Text: fmt.Sprintf("Batch ID: %s • %s", batchID, generated.Format("January 2, 2006")), Size: 14, Color: grayText, Align: AlignCenter},
		{Text: fmt.Sprintf("Total Files: %d", len(records)), Size: 14, Color: grayText, Align: AlignCenter},
	}

	if len(records) <= coverListThreshold {
		lines = append(lines, Line{Text: "Files Included:", Size: 12, Color: dimText, Align: AlignCenter})
		shown := records
		if len(shown) > coverListMax {
			shown = shown[:coverListMax]
		}
		for _, rec := range shown {
			lines = append(lines, Line{Text: coverEntry(rec), Size: 10, Color: dimText, Align: AlignCenter})
		}
		if extra := len(records) - coverListMax; extra > 0 {
			lines = append(lines, Line{
				Text: fmt.Sprintf("... and %d more files", extra), Size: 10, Color: dimText, Align: AlignCenter,
			})
		}
	} else {
		lines = append(lines, Line{
			Text: fmt.Sprintf("Files Included: %d documents", len(records)), Size: 12, Color: dimText, Align: AlignCenter,
		})
	}

	subtitleBox := TextBox{
		Rect: geometry.Rect{
			Left:   geometry.Inches(1.0),
			Top:    geometry.Inches(3.8),
			Width:  PageWidth - geometry.Inches(2.0),
			Height: PageHeight - geometry.Inches(5.0),
		},
		Lines: lines,
	}
	return Slide{Boxes: []TextBox{titleBox, subtitleBox}}
}

// coverEntry formats one file list line, preferring the edited title and
// flagging camera shots.
func coverEntry(rec batch.Record) string {
	camera := ""
	if rec.IsCamera {
		camera = " (Camera)"
	}
	if rec.Title != "" && rec.Title != rec.Name {
		return fmt.Sprintf("• %s - %s%s", rec.Title, rec.Name, camera)
	}
	return fmt.Sprintf("• %s%s", rec.Name, camera)
}

// summarySlide lists every record that did not become its own slide.
func summarySlide(fallback []batch.Record, batchID string) Slide {
	heading := TextBox{
		Rect: geometry.Rect{
			Left:   geometry.Inches(0.8),
			Top:    geometry.Inches(0.5),
			Width:  PageWidth - geometry.Inches(1.6),
			Height: geometry.Inches(0.9),
		},
		Lines: []Line{{Text: "Attached Files", Size: 28, Bold: true, Align: AlignLeft}},
	}

	var lines []Line
	for _, rec := range fallback {
		lines = append(lines, Line{Text: "• " + rec.Name, Size: 16, Align: AlignLeft, SpaceAfter: 6})
	}
	list := TextBox{
		Rect: geometry.Rect{
			Left:   geometry.Inches(0.8),
			Top:    geometry.Inches(1.6),
			Width:  PageWidth - geometry.Inches(1.6),
			Height: PageHeight - geometry.Inches(2.5),
		},
		Lines: lines,
	}

	s := Slide{Boxes: []TextBox{heading, list}}
	if batchID != "" {
		s.Boxes = append(s.Boxes, footerBox(batchID))
	}
	return s
}

func footerBox(batchID string) TextBox {
	return TextBox{
		Rect: geometry.Rect{
			Left:   geometry.Inches(0.5),
			Top:    PageHeight - geometry.Inches(0.8),
			Width:  PageWidth - geometry.Inches(1.0),
			Height: geometry.Inches(0.5),
		},
		Lines: []Line{{Text: "Batch: " + batchID, Size: 10, Color: grayText, Align: AlignCenter}},
	}
}
