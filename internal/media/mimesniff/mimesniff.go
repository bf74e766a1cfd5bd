// Package mimesniff detects file content types from leading bytes, used as
// the classification fallback for files whose extension matches no allow-list.
package mimesniff

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Family is the top-level media family of a detected MIME type.
type Family string

const (
	FamilyVideo   Family = "video"
	FamilyAudio   Family = "audio"
	FamilyImage   Family = "image"
	FamilyUnknown Family = ""
)

// Sniffer detects MIME types by reading a file's header bytes.
type Sniffer struct{}

// Detect returns the MIME type string for the file at path, e.g. "video/mp4".
func (Sniffer) Detect(path string) (string, error) {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return detected.String(), nil
}

// FamilyOf maps a MIME type string to a media family. Parameters after the
// subtype ("audio/ogg; codecs=opus") are ignored.
func FamilyOf(mime string) Family {
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch {
	case strings.HasPrefix(mime, "video/"):
		return FamilyVideo
	case strings.HasPrefix(mime, "audio/"):
		return FamilyAudio
	case strings.HasPrefix(mime, "image/"):
		return FamilyImage
	default:
		return FamilyUnknown
	}
}
