package translate

import (
	"fmt"
	"regexp"
	"strings"
)

// numberedLine matches a reply line following the numbered format the
// batch prompt asks for: "<digits><. or ) or :> <text>".
var numberedLine = regexp.MustCompile(`^\d+[.):]\s*(.+)$`)

// renderBatchPrompt builds the user message for one batch: numbered source
// lines plus the instruction to answer in the same format.
func renderBatchPrompt(texts []string) string {
	var b strings.Builder
	b.WriteString("Translate each line below:\n\n")
	for i, text := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, text)
	}
	b.WriteString("\nProvide translations in the same numbered format, one per line.")
	return b.String()
}

// parseBatchReply extracts translations from a batch reply. The reply
// grammar has two productions: a numbered line contributes its remainder,
// and any other non-empty line is taken verbatim as the next translation
// (best-effort recovery when the model ignores the numbering contract).
// Blank lines are skipped. Pure function, no I/O.
func parseBatchReply(reply string) []string {
	var translations []string
	for _, line := range strings.Split(strings.TrimSpace(reply), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			translations = append(translations, m[1])
		} else {
			translations = append(translations, line)
		}
	}
	return translations
}

// fitToCount forces translations to exactly len(fallback) entries: short
// replies are padded with the corresponding fallback text so a unit is
// never dropped, long replies are truncated.
func fitToCount(translations, fallback []string) []string {
	for len(translations) < len(fallback) {
		translations = append(translations, fallback[len(translations)])
	}
	return translations[:len(fallback)]
}
