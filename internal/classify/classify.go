// Package classify derives a media tier for queued files. Classification is
// a pure query over file name and content: nothing is moved, written, or
// cached, so independent passes can re-classify freely.
package classify

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"hopper/internal/logging"
	"hopper/internal/media/ffprobe"
	"hopper/internal/media/mimesniff"
)

// Kind labels the tier a queued file routes to.
type Kind string

const (
	// KindVideo routes to the video library root.
	KindVideo Kind = "video"
	// KindSaneAudio routes through tagging to the music root. "Sane" means
	// the probe confirmed a parseable audio stream, not just an extension.
	KindSaneAudio Kind = "sane-audio"
	// KindAmbiguous marks a recognized container that failed video
	// confirmation; it skips to the catch-all tier and is never retried as
	// audio, so one file cannot be handled by two passes.
	KindAmbiguous Kind = "ambiguous"
	// KindImage routes to the image root when one is configured.
	KindImage Kind = "image"
	// KindOther is everything else; the misc pass sweeps it.
	KindOther Kind = "other"
)

// Prober confirms stream-level capabilities of a media container.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Capabilities, error)
}

// Sniffer detects a MIME type from file content.
type Sniffer interface {
	Detect(path string) (string, error)
}

// Classifier applies the tier precedence rules: extension allow-lists first,
// probe confirmation for ambiguous containers and audio, MIME sniffing only
// for unknown extensions.
type Classifier struct {
	prober  Prober
	sniffer Sniffer
	logger  *slog.Logger
}

// New builds a Classifier. Both capabilities are required; the pipeline
// passes the ffprobe client and the mimesniff sniffer.
func New(prober Prober, sniffer Sniffer, logger *slog.Logger) *Classifier {
	return &Classifier{
		prober:  prober,
		sniffer: sniffer,
		logger:  logging.NewComponentLogger(logger, "classifier"),
	}
}

// Classify returns the tier for the file at path.
func (c *Classifier) Classify(ctx context.Context, path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case contains(videoExtensions, ext):
		return KindVideo
	case contains(ambiguousContainerExtensions, ext):
		return c.classifyAmbiguousContainer(ctx, path)
	case contains(audioExtensions, ext):
		return c.classifyAudio(ctx, path)
	case contains(imageExtensions, ext):
		return KindImage
	default:
		return c.classifyUnknownExtension(ctx, path)
	}
}

// classifyAmbiguousContainer promotes an ambiguous container to video only on
// a probe-confirmed video stream. Everything else, including probe failure,
// is ambiguous: the file is never reclassified as audio on this path.
func (c *Classifier) classifyAmbiguousContainer(ctx context.Context, path string) Kind {
	caps, err := c.prober.Probe(ctx, path)
	if err != nil {
		c.debugProbeFailure(path, err)
		return KindAmbiguous
	}
	if caps.HasVideo {
		return KindVideo
	}
	return KindAmbiguous
}

// classifyAudio requires the probe to parse the container and find at least
// one audio stream. Corrupt or truncated files fall to the catch-all tier so
// the tagger never sees them.
func (c *Classifier) classifyAudio(ctx context.Context, path string) Kind {
	caps, err := c.prober.Probe(ctx, path)
	if err != nil {
		c.debugProbeFailure(path, err)
		return KindOther
	}
	if caps.HasAudio {
		return KindSaneAudio
	}
	return KindOther
}

// classifyUnknownExtension falls back to content sniffing. Video and image
// MIME families are trusted directly; audio additionally needs probe
// confirmation because headers alone misidentify too many containers.
func (c *Classifier) classifyUnknownExtension(ctx context.Context, path string) Kind {
	mime, err := c.sniffer.Detect(path)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("mime sniff failed",
				logging.String(logging.FieldFilePath, path),
				logging.Error(err),
			)
		}
		return KindOther
	}
	switch mimesniff.FamilyOf(mime) {
	case mimesniff.FamilyVideo:
		return KindVideo
	case mimesniff.FamilyImage:
		return KindImage
	case mimesniff.FamilyAudio:
		caps, err := c.prober.Probe(ctx, path)
		if err != nil {
			c.debugProbeFailure(path, err)
			return KindOther
		}
		if caps.HasAudio {
			return KindSaneAudio
		}
		return KindOther
	default:
		return KindOther
	}
}

func (c *Classifier) debugProbeFailure(path string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("probe failed during classification",
		logging.String(logging.FieldFilePath, path),
		logging.Error(err),
	)
}

func contains(set map[string]struct{}, ext string) bool {
	_, ok := set[ext]
	return ok
}
