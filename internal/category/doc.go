// Package category holds the ordered classification rule table and the
// extension matcher built on it.
//
// A Registry owns the rules: user-visible name, destination folder,
// normalized extension set, an enabled flag, and a per-run counter. Matching
// is deterministic first-match-wins in registry order among enabled
// categories, so two categories claiming the same extension always resolve
// to the earlier one.
package category
