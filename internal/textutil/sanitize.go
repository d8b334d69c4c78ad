package textutil

import "strings"

// maxFileNameRunes caps sanitized names so a transcript file name plus its
// suffix stays well under common filesystem limits. Source titles can run to
// hundreds of characters.
const maxFileNameRunes = 120

// fileNameReplacer maps filesystem-unsafe characters to safe alternatives.
// Path separators and colons become dashes so structure stays readable;
// shell-hostile characters are dropped.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName turns a source title into a safe transcript file name.
// Unsafe characters are replaced or removed, runs of whitespace collapse to
// a single space, and overlong names are truncated on a rune boundary.
func SanitizeFileName(name string) string {
	name = fileNameReplacer.Replace(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), " ")
	runes := []rune(name)
	if len(runes) > maxFileNameRunes {
		name = strings.TrimSpace(string(runes[:maxFileNameRunes]))
	}
	return name
}
