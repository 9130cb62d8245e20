package deck

import "strings"

// DeckFilename derives the download name for the presentation: the
// sanitized title joined with the batch id, or a u2p_ prefix when no
// title was given. Sanitization keeps letters, digits, spaces, hyphens
// and underscores, turns spaces into underscores, and caps the title
// part at 30 characters.
func DeckFilename(title, batchID string) string {
	if title == "" {
		return "u2p_" + batchID + ".pptx"
	}
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	clean := strings.TrimRight(b.String(), " ")
	clean = strings.ReplaceAll(clean, " ", "_")
	if len(clean) > 30 {
		clean = clean[:30]
	}
	return clean + "_" + batchID + ".pptx"
}

// ArchiveFilename derives the download name for the originals archive.
func ArchiveFilename(batchID string) string {
	return "u2p_" + batchID + ".zip"
}
