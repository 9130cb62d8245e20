package raster

import (
	"fmt"
	"strings"
)

// buildMinimalPDF constructs a valid PDF with correct xref offsets and
// one page per text string, good enough for both pdfcpu and MuPDF.
func buildMinimalPDF(pageTexts ...string) []byte {
	n := len(pageTexts)
	// Objects: 1 catalog, 2 pages, then per page: page obj + content obj,
	// finally one shared font object.
	fontObj := 3 + 2*n
	total := fontObj + 1

	var kids []string
	for i := 0; i < n; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}

	var b strings.Builder
	offsets := make([]int, total)
	b.WriteString("%PDF-1.4\n")

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), n)

	for i, text := range pageTexts {
		pageObj := 3 + 2*i
		contentObj := pageObj + 1

		offsets[pageObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>\nendobj\n", pageObj, contentObj, fontObj)

		escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
		stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"
		offsets[contentObj] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(stream), stream)
	}

	offsets[fontObj] = b.Len()
	fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n", fontObj)

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", total)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i < total; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total, xref)

	return []byte(b.String())
}
