package deck

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milankmezic/Upload2Present/internal/batch"
	"github.com/milankmezic/Upload2Present/internal/imgcodec"
)

func readPart(t *testing.T, zr *zip.Reader, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func partNames(zr *zip.Reader) map[string]bool {
	out := map[string]bool{}
	for _, f := range zr.File {
		out[f.Name] = true
	}
	return out
}

func buildTestDeck(t *testing.T, title string) *Deck {
	t.Helper()
	b := testBatch(
		batch.Record{Name: "a.png", Title: "First & Last", Bytes: pngBytes(t, 30, 20)},
		batch.Record{Name: "weird.bin", Bytes: []byte{1, 2, 3}},
	)
	d, _ := Compose(b, Options{
		ShowTitles:        true,
		PresentationTitle: title,
		GeneratedAt:       time.Date(2025, 1, 17, 9, 30, 4, 0, time.UTC),
	}, imgcodec.New(), fakeRasterizer{})
	return d
}

func TestPPTXPackageStructure(t *testing.T) {
	d := buildTestDeck(t, "My Deck")
	out, err := NewPPTXWriter().Write(d)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	names := partNames(zr)
	for _, want := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/core.xml",
		"docProps/app.xml",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slides/slide3.xml",
		"ppt/slides/_rels/slide1.xml.rels",
		"ppt/media/image1.png",
	} {
		assert.True(t, names[want], "missing part %s", want)
	}
	// Cover + image + fallback = 3 slides, no slide4.
	assert.False(t, names["ppt/slides/slide4.xml"])
}

func TestPPTXPortraitPageSize(t *testing.T) {
	d := buildTestDeck(t, "")
	out, err := NewPPTXWriter().Write(d)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	pres := readPart(t, zr, "ppt/presentation.xml")
	assert.Contains(t, pres, `<p:sldSz cx="7772400" cy="10058400"/>`)
}

func TestPPTXCoreProperties(t *testing.T) {
	d := buildTestDeck(t, "Review <Q1>")
	out, err := NewPPTXWriter().Write(d)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	core := readPart(t, zr, "docProps/core.xml")
	assert.Contains(t, core, "<dc:title>Review &lt;Q1&gt;</dc:title>")
	assert.Contains(t, core, "<dc:creator>U2P - Upload to Present</dc:creator>")
	assert.Contains(t, core, "2025-01-17T09:30:04Z")

	// No title: metadata fields stay out, timestamps remain.
	d = buildTestDeck(t, "")
	out, err = NewPPTXWriter().Write(d)
	require.NoError(t, err)
	zr, err = zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	core = readPart(t, zr, "docProps/core.xml")
	assert.NotContains(t, core, "<dc:title>")
	assert.Contains(t, core, "<dcterms:created")
}

func TestPPTXTextEscaping(t *testing.T) {
	d := buildTestDeck(t, "")
	out, err := NewPPTXWriter().Write(d)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	// Slide 1 is the image slide with the edited title.
	slide := readPart(t, zr, "ppt/slides/slide1.xml")
	assert.Contains(t, slide, "First &amp; Last")
}

func TestPPTXDeterministic(t *testing.T) {
	d := buildTestDeck(t, "Same")
	w := NewPPTXWriter()
	a, err := w.Write(d)
	require.NoError(t, err)
	b, err := w.Write(d)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPPTXMediaBytesEmbeddedVerbatim(t *testing.T) {
	img := pngBytes(t, 12, 8)
	b := testBatch(batch.Record{Name: "a.png", Bytes: img})
	d, _ := Compose(b, Options{}, imgcodec.New(), fakeRasterizer{})

	out, err := NewPPTXWriter().Write(d)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	got := readPart(t, zr, "ppt/media/image1.png")
	assert.Equal(t, string(img), got)
}

func TestPPTXEmptyDeck(t *testing.T) {
	out, err := NewPPTXWriter().Write(&Deck{GeneratedAt: time.Unix(0, 0)})
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	assert.True(t, partNames(zr)["ppt/presentation.xml"])
	assert.False(t, partNames(zr)["ppt/slides/slide1.xml"])
}
