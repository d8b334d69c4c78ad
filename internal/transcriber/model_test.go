package transcriber_test

import (
	"strings"
	"testing"

	"scribe/internal/transcriber"
)

func TestParseModelSize(t *testing.T) {
	for _, name := range []string{"tiny", "base", "small", "medium", "large"} {
		model, err := transcriber.ParseModelSize(name)
		if err != nil {
			t.Fatalf("ParseModelSize(%q): %v", name, err)
		}
		if string(model) != name {
			t.Fatalf("ParseModelSize(%q) = %q", name, model)
		}
	}
}

func TestParseModelSizeNormalizesInput(t *testing.T) {
	model, err := transcriber.ParseModelSize("  Base ")
	if err != nil {
		t.Fatalf("ParseModelSize: %v", err)
	}
	if model != transcriber.ModelBase {
		t.Fatalf("ParseModelSize = %q", model)
	}
}

func TestParseModelSizeRejectsUnknown(t *testing.T) {
	if _, err := transcriber.ParseModelSize("enormous"); err == nil {
		t.Fatal("expected error for unknown model size")
	}
}

func TestModelSizesOrderedBySize(t *testing.T) {
	sizes := transcriber.ModelSizes()
	want := []transcriber.ModelSize{
		transcriber.ModelTiny,
		transcriber.ModelBase,
		transcriber.ModelSmall,
		transcriber.ModelMedium,
		transcriber.ModelLarge,
	}
	if len(sizes) != len(want) {
		t.Fatalf("ModelSizes() returned %d entries", len(sizes))
	}
	for i, size := range want {
		if sizes[i] != size {
			t.Fatalf("sizes[%d] = %q, want %q", i, sizes[i], size)
		}
	}
}

func TestModelDescriptions(t *testing.T) {
	for _, size := range transcriber.ModelSizes() {
		desc := size.Description()
		if desc == "" {
			t.Fatalf("no description for %q", size)
		}
		if !strings.Contains(desc, "RAM") {
			t.Fatalf("description for %q lacks memory note: %q", size, desc)
		}
	}
}
