package extractor

import "unicode/utf8"

// truncate cuts content to at most max bytes without splitting a rune.
func truncate(content string, max int) (string, bool) {
	if max <= 0 || len(content) <= max {
		return content, false
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut], true
}
