package category

import (
	"fmt"
	"strings"
	"sync"

	"cubby/internal/config"
	"cubby/internal/services"
)

// Registry is the ordered, mutable collection of classification rules.
// Matching is strictly first-match-wins in insertion order among enabled
// categories. The registry is safe for concurrent use, but counter values
// read while a run is active are advisory only.
type Registry struct {
	mu         sync.RWMutex
	categories []*Category
}

// NewRegistry builds a registry from the provided rules, preserving order.
func NewRegistry(categories ...*Category) *Registry {
	r := &Registry{categories: make([]*Category, 0, len(categories))}
	r.categories = append(r.categories, categories...)
	return r
}

// FromConfig builds a registry from the config rule table. An empty table
// yields the built-in default set.
func FromConfig(rules []config.Category) (*Registry, error) {
	if len(rules) == 0 {
		return NewRegistry(Defaults()...), nil
	}
	categories := make([]*Category, 0, len(rules))
	for _, rule := range rules {
		tokens := make([]string, 0, len(rule.Extensions))
		for _, ext := range rule.Extensions {
			if token := NormalizeExtension(ext); token != "" {
				tokens = append(tokens, token)
			}
		}
		if len(tokens) == 0 {
			return nil, services.Wrap(services.ErrConfiguration, "category", "load rules",
				fmt.Sprintf("category %q has no usable extensions", rule.Name), nil)
		}
		categories = append(categories, &Category{
			Name:       rule.Name,
			Folder:     rule.Folder,
			Extensions: tokens,
			Enabled:    rule.IsEnabled(),
		})
	}
	return NewRegistry(categories...), nil
}

// Add validates and appends a new enabled category at the end of the order.
// Extensions is a comma-separated token list.
func (r *Registry) Add(name, extensions, folderName string) error {
	name = strings.TrimSpace(name)
	folderName = strings.TrimSpace(folderName)
	if name == "" {
		return services.Wrap(services.ErrValidation, "category", "add", "name must not be empty", nil)
	}
	if strings.TrimSpace(extensions) == "" {
		return services.Wrap(services.ErrValidation, "category", "add", "extensions must not be empty", nil)
	}
	if folderName == "" {
		return services.Wrap(services.ErrValidation, "category", "add", "folder name must not be empty", nil)
	}
	tokens, err := ParseExtensions(extensions)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if existing.Name == name {
			return services.Wrap(services.ErrValidation, "category", "add",
				fmt.Sprintf("category %q already exists", name), nil)
		}
	}
	r.categories = append(r.categories, &Category{
		Name:       name,
		Folder:     folderName,
		Extensions: tokens,
		Enabled:    true,
	})
	return nil
}

// SetEnabled toggles an existing category's participation in matching without
// affecting its position.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cat := range r.categories {
		if cat.Name == name {
			cat.Enabled = enabled
			return nil
		}
	}
	return services.Wrap(services.ErrNotFound, "category", "set enabled",
		fmt.Sprintf("no category named %q", name), nil)
}

// Match returns the first enabled category whose extension set contains the
// (already lower-cased) extension, or nil when none matches. Pure read of
// registry state.
func (r *Registry) Match(ext string) *Category {
	if ext == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cat := range r.categories {
		if !cat.Enabled {
			continue
		}
		if cat.Matches(ext) {
			return cat
		}
	}
	return nil
}

// ResetCounts zeroes every category's counter, enabled or not. Called once
// per run before processing begins.
func (r *Registry) ResetCounts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cat := range r.categories {
		cat.Count = 0
	}
}

// Increment bumps the named category's run counter.
func (r *Registry) Increment(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cat := range r.categories {
		if cat.Name == name {
			cat.Count++
			return
		}
	}
}

// Counts returns category name to counter for categories with a non-zero
// count this run.
func (r *Registry) Counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, cat := range r.categories {
		if cat.Count > 0 {
			counts[cat.Name] = cat.Count
		}
	}
	return counts
}

// Snapshot returns a copy of every category in registry order for display
// and IPC use.
func (r *Registry) Snapshot() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, 0, len(r.categories))
	for _, cat := range r.categories {
		copied := *cat
		copied.Extensions = append([]string(nil), cat.Extensions...)
		out = append(out, copied)
	}
	return out
}

// Len reports the number of registered categories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.categories)
}
