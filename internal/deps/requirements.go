package deps

import (
	"hopper/internal/config"
)

// LsofCommand is the binary used for the best-effort open-for-write check.
const LsofCommand = "lsof"

// ForConfig builds the external binary requirements implied by cfg. The
// tagging tool appears only when a tag command is configured.
func ForConfig(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "ffprobe",
			Command:     cfg.Probe.FFprobeBinary,
			Description: "Media stream inspection for classification and sanity probes",
		},
	}
	if cfg.TaggingEnabled() {
		reqs = append(reqs, Requirement{
			Name:        "tagger",
			Command:     cfg.Tagging.Command,
			Description: "External tagging tool invoked per audio file",
		})
	}
	reqs = append(reqs, Requirement{
		Name:        "lsof",
		Command:     LsofCommand,
		Description: "Open-for-write detection for the per-file stability policy",
		Optional:    true,
	})
	return reqs
}
