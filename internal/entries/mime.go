package entries

import (
	"mime"
	"strings"
)

// audioExtByMime is the audio upload allow-list; values are the on-disk
// extensions used for stored blobs.
var audioExtByMime = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/ogg":   ".ogg",
	"audio/aac":   ".aac",
	"audio/3gpp":  ".3gp",
	"audio/3gpp2": ".3g2",
	"audio/webm":  ".webm",
	"audio/aiff":  ".aiff",
}

// normalizeMime strips parameters and lowercases the media type.
// Returns "" when the value does not parse.
func normalizeMime(value string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}

// extensionFor returns the storage extension for an allowed audio mime type.
func extensionFor(mimeType string) (string, bool) {
	ext, ok := audioExtByMime[mimeType]
	return ext, ok
}
