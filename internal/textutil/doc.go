// Package textutil provides filename sanitization and folder-name derivation
// helpers shared by the CLI and the organize engine.
package textutil
