package scanner

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DeriveSessionLabel turns a source directory name into a display label:
// separators become spaces, other punctuation drops out, and the result is
// title-cased. Falls back to "Untitled Session" when nothing survives.
func DeriveSessionLabel(sourcePath string) string {
	if strings.TrimSpace(sourcePath) == "" {
		return "Untitled Session"
	}
	base := filepath.Base(filepath.Clean(sourcePath))
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
	label := strings.TrimSpace(cleaned.String())
	if label == "" {
		return "Untitled Session"
	}
	return cases.Title(language.Und).String(label)
}
