package translate

// ContainsJapanese reports whether text contains at least one character in
// the Hiragana (U+3040–U+309F), Katakana (U+30A0–U+30FF), or CJK Unified
// Ideographs (U+4E00–U+9FFF) ranges.
//
// This is the pipeline's sole proxy for "translation failed": it is a
// Unicode block membership test, not linguistic analysis. A translated
// line quoting a single kanji still counts as Japanese. Empty text counts
// as translated.
func ContainsJapanese(text string) bool {
	for _, r := range text {
		if (r >= 0x3040 && r <= 0x309F) ||
			(r >= 0x30A0 && r <= 0x30FF) ||
			(r >= 0x4E00 && r <= 0x9FFF) {
			return true
		}
	}
	return false
}
