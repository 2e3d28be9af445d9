package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// FolderName derives a presentable folder name from a category name: unsafe
// characters sanitized, then title-cased. Empty input yields empty output so
// callers can fall back to the category name itself.
func FolderName(name string) string {
	name = SanitizeFileName(name)
	if name == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(name))
}
