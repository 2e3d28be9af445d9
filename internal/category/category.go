package category

import (
	"strings"

	"cubby/internal/services"
)

// Category is one ordered classification rule: a named set of extensions
// routed to a destination folder. Count tracks files routed to the category
// during the current run and is reset when a run starts.
type Category struct {
	Name       string
	Folder     string
	Extensions []string
	Enabled    bool
	Count      int
}

// Matches reports whether the lower-cased extension belongs to this category.
func (c *Category) Matches(ext string) bool {
	for _, candidate := range c.Extensions {
		if candidate == ext {
			return true
		}
	}
	return false
}

// NormalizeExtension lower-cases an extension token and ensures a leading dot.
// Empty input stays empty.
func NormalizeExtension(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return ""
	}
	if !strings.HasPrefix(token, ".") {
		token = "." + token
	}
	return token
}

// ParseExtensions splits a comma-separated extension list into normalized
// tokens. It fails with a validation error when no non-empty token remains.
func ParseExtensions(list string) ([]string, error) {
	parts := strings.Split(list, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := NormalizeExtension(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return nil, services.Wrap(services.ErrValidation, "category", "parse extensions", "extension list contains no usable tokens", nil)
	}
	return tokens, nil
}
