package meeting

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of an upload is read to detect its format
const sniffLen = 3072

// Accepted audio formats by extension
var audioFormats = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

// Content types browsers and recorders send for the same formats
var audioContentTypes = map[string]string{
	"audio/wav":    ".wav",
	"audio/wave":   ".wav",
	"audio/x-wav":  ".wav",
	"audio/mpeg":   ".mp3",
	"audio/mp3":    ".mp3",
	"audio/mp4":    ".m4a",
	"audio/x-m4a":  ".m4a",
	"audio/m4a":    ".m4a",
	"audio/ogg":    ".ogg",
	"audio/flac":   ".flac",
	"audio/x-flac": ".flac",
	"audio/webm":   ".webm",
	"video/webm":   ".webm",
}

// resolveAudioFormat returns the canonical extension and mime type of an
// upload, trusting the file extension first, then the declared content type,
// then the leading bytes
func resolveAudioFormat(filename, contentType string, head []byte) (ext, mimeType string, ok bool) {
	ext = strings.ToLower(filepath.Ext(filename))
	if m, found := audioFormats[ext]; found {
		return ext, m, true
	}

	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if e, found := audioContentTypes[strings.ToLower(mt)]; found {
			return e, audioFormats[e], true
		}
	}

	if len(head) > 0 {
		detected := mimetype.Detect(head)
		for m := detected; m != nil; m = m.Parent() {
			mt, _, _ := mime.ParseMediaType(m.String())
			if e, found := audioContentTypes[mt]; found {
				return e, audioFormats[e], true
			}
		}
	}
	return "", "", false
}
