package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cubby/internal/services"
)

// UncategorizedFolder is the fixed destination subfolder for files that match
// no enabled category.
const UncategorizedFolder = "Uncategorized"

// DefaultDestinationFolder is the folder created under the source root when no
// destination root is given.
const DefaultDestinationFolder = "Organized"

// Request describes one run. DestinationRoot defaults to
// SourceRoot/"Organized" when empty.
type Request struct {
	SourceRoot      string
	DestinationRoot string
	DryRun          bool
}

// Normalize validates the request and fills in defaults. The source root must
// name an existing directory. Both roots come back absolute so containment
// checks and recorded paths stay stable regardless of the caller's working
// directory.
func (r Request) Normalize() (Request, error) {
	r.SourceRoot = strings.TrimSpace(r.SourceRoot)
	r.DestinationRoot = strings.TrimSpace(r.DestinationRoot)
	if r.SourceRoot == "" {
		return r, services.Wrap(services.ErrValidation, "organize", "validate request", "source root must not be empty", nil)
	}
	source, err := filepath.Abs(r.SourceRoot)
	if err != nil {
		return r, services.Wrap(services.ErrValidation, "organize", "validate request",
			fmt.Sprintf("source root %s cannot be resolved", r.SourceRoot), err)
	}
	r.SourceRoot = source
	info, err := os.Stat(r.SourceRoot)
	if err != nil {
		return r, services.Wrap(services.ErrValidation, "organize", "validate request",
			fmt.Sprintf("source root %s is not accessible", r.SourceRoot), err)
	}
	if !info.IsDir() {
		return r, services.Wrap(services.ErrValidation, "organize", "validate request",
			fmt.Sprintf("source root %s is not a directory", r.SourceRoot), nil)
	}
	if r.DestinationRoot == "" {
		r.DestinationRoot = filepath.Join(r.SourceRoot, DefaultDestinationFolder)
	}
	dest, err := filepath.Abs(r.DestinationRoot)
	if err != nil {
		return r, services.Wrap(services.ErrValidation, "organize", "validate request",
			fmt.Sprintf("destination root %s cannot be resolved", r.DestinationRoot), err)
	}
	r.DestinationRoot = dest
	return r, nil
}

// Summary is the immutable outcome of a completed run. Categories maps
// category name to its count, omitting zero-count categories.
type Summary struct {
	TotalFiles    int
	Organized     int
	Uncategorized int
	Categories    map[string]int
}

// Phase names one state of the run state machine.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseScanning   Phase = "scanning"
	PhaseProcessing Phase = "processing"
	PhaseFinalizing Phase = "finalizing"
	PhaseCompleted  Phase = "completed"
	PhaseAborted    Phase = "aborted"
	PhaseFailed     Phase = "failed"
)

// Terminal reports whether the phase is an end state.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseCompleted, PhaseAborted, PhaseFailed:
		return true
	}
	return false
}

// pathWithin reports whether path lies at or below root.
func pathWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}
