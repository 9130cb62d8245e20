package deck

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// PPTXWriter serializes a Deck into an OOXML presentation package. The
// whole package is assembled in memory; parts are written in a fixed
// order with zeroed zip timestamps so the only varying bytes between
// runs are the wall-clock fields in docProps/core.xml.
type PPTXWriter struct{}

func NewPPTXWriter() *PPTXWriter { return &PPTXWriter{} }

// ContentType is the MIME type of the produced document.
const ContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

type mediaFile struct {
	name string // e.g. image1.png
	data []byte
}

// Write serializes the deck. Failures here are fatal for the deck output
// only; the archive is produced independently.
func (w *PPTXWriter) Write(d *Deck) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	var media []mediaFile
	slideXMLs := make([]string, len(d.Slides))
	slideRels := make([]string, len(d.Slides))
	for i, s := range d.Slides {
		slideXMLs[i], slideRels[i] = renderSlide(s, &media)
	}

	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", contentTypesXML(len(d.Slides))},
		{"_rels/.rels", rootRelsXML},
		{"docProps/core.xml", corePropsXML(d.Props, d.GeneratedAt)},
		{"docProps/app.xml", appPropsXML(len(d.Slides))},
		{"ppt/presentation.xml", presentationXML(len(d.Slides))},
		{"ppt/_rels/presentation.xml.rels", presentationRelsXML(len(d.Slides))},
		{"ppt/slideMasters/slideMaster1.xml", slideMasterXML},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayoutXML},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML},
		{"ppt/theme/theme1.xml", themeXML},
	}
	for _, p := range parts {
		if err := writePart(zw, p.name, []byte(p.data)); err != nil {
			return nil, err
		}
	}
	for i := range d.Slides {
		if err := writePart(zw, fmt.Sprintf("ppt/slides/slide%d.xml", i+1), []byte(slideXMLs[i])); err != nil {
			return nil, err
		}
		if err := writePart(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), []byte(slideRels[i])); err != nil {
			return nil, err
		}
	}
	for _, m := range media {
		if err := writePart(zw, "ppt/media/"+m.name, m.data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize pptx package: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create part %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write part %s: %w", name, err)
	}
	return nil
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func contentTypesXML(slides int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	b.WriteString(`<Default Extension="jpeg" ContentType="image/jpeg"/>`)
	b.WriteString(`<Default Extension="gif" ContentType="image/gif"/>`)
	b.WriteString(`<Default Extension="bmp" ContentType="image/bmp"/>`)
	b.WriteString(`<Default Extension="tiff" ContentType="image/tiff"/>`)
	b.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	for i := 1; i <= slides; i++ {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	b.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	b.WriteString(`</Types>`)
	return b.String()
}

func corePropsXML(p Properties, generated time.Time) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	if p.Title != "" {
		fmt.Fprintf(&b, "<dc:title>%s</dc:title>", xmlEscape(p.Title))
		fmt.Fprintf(&b, "<dc:subject>%s</dc:subject>", xmlEscape(p.Subject))
		fmt.Fprintf(&b, "<dc:creator>%s</dc:creator>", xmlEscape(p.Author))
		fmt.Fprintf(&b, "<cp:keywords>%s</cp:keywords>", xmlEscape(p.Keywords))
		fmt.Fprintf(&b, "<dc:description>%s</dc:description>", xmlEscape(p.Comment))
		fmt.Fprintf(&b, "<cp:category>%s</cp:category>", xmlEscape(p.Category))
	}
	stamp := generated.UTC().Format("2006-01-02T15:04:05Z")
	fmt.Fprintf(&b, `<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`, stamp)
	fmt.Fprintf(&b, `<dcterms:modified xsi:type="dcterms:W3CDTF">%s</dcterms:modified>`, stamp)
	b.WriteString(`</cp:coreProperties>`)
	return b.String()
}

func appPropsXML(slides int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">`)
	fmt.Fprintf(&b, "<Application>%s</Application>", xmlEscape(GeneratorLabel))
	fmt.Fprintf(&b, "<Slides>%d</Slides>", slides)
	b.WriteString(`<PresentationFormat>Custom</PresentationFormat>`)
	b.WriteString(`</Properties>`)
	return b.String()
}

func presentationXML(slides int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	if slides > 0 {
		b.WriteString(`<p:sldIdLst>`)
		for i := 1; i <= slides; i++ {
			fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 255+i, 1+i)
		}
		b.WriteString(`</p:sldIdLst>`)
	}
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/>`, PageWidth, PageHeight)
	b.WriteString(`<p:notesSz cx="6858000" cy="9144000"/>`)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

func presentationRelsXML(slides int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	for i := 1; i <= slides; i++ {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, 1+i, i)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

// renderSlide produces the slide part and its relationships, appending
// any embedded pictures to the shared media list.
func renderSlide(s Slide, media *[]mediaFile) (slideXML, relsXML string) {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`)
	b.WriteString(`<p:cSld><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	b.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)

	shapeID := 2
	var rels strings.Builder
	rels.WriteString(xmlHeader)
	rels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	rels.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`)

	relID := 2
	for _, box := range s.Boxes {
		renderTextBox(&b, box, shapeID)
		shapeID++
	}
	for _, pic := range s.Pictures {
		name := fmt.Sprintf("image%d.%s", len(*media)+1, pic.Format)
		*media = append(*media, mediaFile{name: name, data: pic.Data})
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/%s"/>`, relID, name)
		renderPicture(&b, pic, shapeID, relID)
		shapeID++
		relID++
	}

	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	rels.WriteString(`</Relationships>`)
	return b.String(), rels.String()
}

func renderTextBox(b *strings.Builder, box TextBox, id int) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, id)
	fmt.Fprintf(b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`,
		box.Rect.Left, box.Rect.Top, box.Rect.Width, box.Rect.Height)
	b.WriteString(`<p:txBody><a:bodyPr wrap="square" rtlCol="0"/><a:lstStyle/>`)
	if len(box.Lines) == 0 {
		b.WriteString(`<a:p/>`)
	}
	for _, line := range box.Lines {
		b.WriteString(`<a:p><a:pPr`)
		if line.Align != "" && line.Align != AlignLeft {
			fmt.Fprintf(b, ` algn="%s"`, line.Align)
		}
		b.WriteString(`>`)
		if line.SpaceAfter > 0 {
			fmt.Fprintf(b, `<a:spcAft><a:spcPts val="%d"/></a:spcAft>`, line.SpaceAfter*100)
		}
		b.WriteString(`</a:pPr>`)
		fmt.Fprintf(b, `<a:r><a:rPr lang="en-US" sz="%d"`, line.Size*100)
		if line.Bold {
			b.WriteString(` b="1"`)
		}
		b.WriteString(` dirty="0">`)
		if line.Color != "" {
			fmt.Fprintf(b, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, line.Color)
		}
		fmt.Fprintf(b, `</a:rPr><a:t>%s</a:t></a:r></a:p>`, xmlEscape(line.Text))
	}
	b.WriteString(`</p:txBody></p:sp>`)
}

func renderPicture(b *strings.Builder, pic Picture, id, relID int) {
	fmt.Fprintf(b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`, id, id)
	fmt.Fprintf(b, `<p:blipFill><a:blip r:embed="rId%d"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, relID)
	fmt.Fprintf(b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		pic.Rect.Left, pic.Rect.Top, pic.Rect.Width, pic.Rect.Height)
}
