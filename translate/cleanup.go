package translate

import (
	"strings"

	"github.com/mtl-tools/mtlkit/script"
)

// cleanupPlaceholders blanks sentinel values the model writes for empty
// speakers. A name matching the sentinel is always cleared; a line text
// matching it is cleared only when the Japanese source line is itself
// blank, since the sentinel is a legitimate word in running dialogue.
// Returns the number of names and texts cleared.
func cleanupPlaceholders(f *script.File, sentinel string) (names, texts int) {
	if sentinel == "" {
		return 0, 0
	}

	for _, b := range f.Blocks {
		if strings.EqualFold(strings.TrimSpace(b.ENName), sentinel) {
			b.ENName = ""
			names++
		}
		if strings.TrimSpace(b.JPText) == "" && strings.EqualFold(strings.TrimSpace(b.ENText), sentinel) {
			b.ENText = ""
			texts++
		}
	}
	return names, texts
}
