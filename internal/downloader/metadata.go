package downloader

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// sourceInfo is the subset of yt-dlp's --print-json payload scribe uses.
type sourceInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Filename string  `json:"_filename"`
}

// parseInfo decodes the metadata object from yt-dlp output. Progress noise
// may precede it, so the last non-empty line that parses as JSON wins.
func parseInfo(output []byte) (*sourceInfo, error) {
	lines := bytes.Split(bytes.TrimSpace(output), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var info sourceInfo
		if err := json.Unmarshal(line, &info); err != nil {
			continue
		}
		if info.ID == "" {
			return nil, errors.New("metadata has no source id")
		}
		return &info, nil
	}
	return nil, errors.New("no metadata in downloader output")
}

// title returns the source title, deriving one from the audio filename when
// the source metadata carries none.
func (i *sourceInfo) title(audioPath string) string {
	if title := strings.TrimSpace(i.Title); title != "" {
		return title
	}
	return deriveTitle(audioPath)
}

func deriveTitle(path string) string {
	if path == "" {
		return "Untitled"
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled"
	}
	return cases.Title(language.Und).String(title)
}
