// Package archive packs batch records into a ZIP download.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"

	"github.com/milankmezic/Upload2Present/internal/batch"
)

// Build writes every record of the batch into a ZIP archive, one entry
// per record under "<batchID>/<original name>". File bytes are copied
// verbatim, in display order, using DEFLATE compression.
func Build(b batch.Batch) ([]byte, error) {
	recs := make([]batch.Record, len(b.Records))
	copy(recs, b.Records)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Order < recs[j].Order })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, r := range recs {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   b.ID + "/" + r.Name,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, fmt.Errorf("create entry %s: %w", r.Name, err)
		}
		if _, err := w.Write(r.Bytes); err != nil {
			return nil, fmt.Errorf("write entry %s: %w", r.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
