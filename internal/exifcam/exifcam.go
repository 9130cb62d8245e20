// Package exifcam tags uploads that came from a real camera. Detection
// runs once at ingestion and is never recomputed.
package exifcam

import (
	"errors"

	exif "github.com/dsoprea/go-exif/v3"
)

// Tags whose presence marks an image as coming off a camera: lens and
// exposure data plus GPS coordinates.
var cameraTags = map[string]struct{}{
	"LensModel":        {},
	"FNumber":          {},
	"FocalLength":      {},
	"ExposureTime":     {},
	"ISOSpeedRatings":  {},
	"DateTimeOriginal": {},
	"Model":            {},
	"Make":             {},
	"GPSLatitude":      {},
	"GPSLongitude":     {},
}

// Detect scans the image bytes for EXIF data and reports whether any
// camera-identifying tag is present, along with the matched tag names.
// Images without EXIF are simply not camera shots; that is not an error.
func Detect(data []byte) (bool, []string, error) {
	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return false, nil, nil
		}
		return false, nil, err
	}

	entries, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return false, nil, err
	}

	var hits []string
	seen := map[string]struct{}{}
	for _, e := range entries {
		if _, ok := cameraTags[e.TagName]; !ok {
			continue
		}
		if _, dup := seen[e.TagName]; dup {
			continue
		}
		seen[e.TagName] = struct{}{}
		hits = append(hits, e.TagName)
	}
	return len(hits) > 0, hits, nil
}
