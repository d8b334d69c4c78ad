package preflight

import (
	"fmt"
	"os/exec"
	"strings"

	"scribe/internal/config"
)

// Requirement defines an external tool Scribe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a tool.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// SystemRequirements lists the external tools for the given config.
func SystemRequirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.DownloadBinary(),
			Description: "Required for downloading audio",
		},
		{
			Name:        "Whisper",
			Command:     cfg.WhisperBinary(),
			Description: "Required for speech recognition",
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Required by yt-dlp for audio extraction",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
