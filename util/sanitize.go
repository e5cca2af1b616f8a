package util

import "strings"

// maxFilenameRunes bounds the title part of a transcript filename.
const maxFilenameRunes = 100

// SanitizeFilename removes the characters <>:"/\|?* from name, truncates it
// to 100 runes and trims surrounding whitespace.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, name)
	if r := []rune(name); len(r) > maxFilenameRunes {
		name = string(r[:maxFilenameRunes])
	}
	return strings.TrimSpace(name)
}
