package transcriber

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Segment is a contiguous span of recognized speech with time offsets in
// seconds, the atomic unit of timestamped output.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// enginePayload is the JSON structure the Whisper CLI writes.
type enginePayload struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

func loadPayload(jsonPath string) (*enginePayload, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload enginePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisper json: %w", err)
	}
	return &payload, nil
}

// renderTimestamped formats segments as one "[mm:ss] text" line each, in
// chronological order. Hours appear only for offsets past an hour.
func renderTimestamped(segments []Segment) string {
	lines := make([]string, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", formatOffset(segment.Start), text))
	}
	return strings.Join(lines, "\n")
}

func joinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func formatOffset(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
