package transcriber

import (
	"fmt"
	"strings"
)

// ModelSize selects a Whisper model tier, trading runtime for accuracy.
// The set is closed; the engine-facing name is the string value itself.
type ModelSize string

const (
	ModelTiny   ModelSize = "tiny"
	ModelBase   ModelSize = "base"
	ModelSmall  ModelSize = "small"
	ModelMedium ModelSize = "medium"
	ModelLarge  ModelSize = "large"
)

var modelDescriptions = map[ModelSize]string{
	ModelTiny:   "fastest, least accurate (~1 GB RAM)",
	ModelBase:   "fast, decent accuracy (~1 GB RAM)",
	ModelSmall:  "good balance (~2 GB RAM)",
	ModelMedium: "better accuracy (~5 GB RAM)",
	ModelLarge:  "best accuracy (~10 GB RAM)",
}

// ModelSizes returns all recognized model sizes, smallest first.
func ModelSizes() []ModelSize {
	return []ModelSize{ModelTiny, ModelBase, ModelSmall, ModelMedium, ModelLarge}
}

// ParseModelSize validates a model name from config or command line input.
func ParseModelSize(value string) (ModelSize, error) {
	size := ModelSize(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := modelDescriptions[size]; !ok {
		return "", fmt.Errorf("unknown model size %q (expected tiny, base, small, medium, or large)", value)
	}
	return size, nil
}

func (m ModelSize) String() string {
	return string(m)
}

// Description returns the human-readable accuracy/cost tradeoff for help text.
func (m ModelSize) Description() string {
	return modelDescriptions[m]
}
