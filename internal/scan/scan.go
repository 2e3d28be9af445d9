// Package scan materializes the candidate file list for a run. Collect walks
// the source root once, up front, so files created or moved while a run is in
// flight are never picked up mid-scan.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"cubby/internal/services"
)

// FileRecord is a snapshot of one filesystem entry at scan time. Ext is
// derived once, lower-cased, and never re-derived after a move, so collision
// renaming cannot change classification.
type FileRecord struct {
	Path    string
	Name    string
	Ext     string
	Size    int64
	ModTime time.Time
}

// Collect walks root recursively and returns every regular file in lexical
// order. Directories are traversed but never yielded. The stop predicate is
// consulted between entries; when it reports true, Collect returns what it has
// gathered so far with no error, and the caller decides whether the listing is
// usable. A missing or unreadable root yields a scan error.
func Collect(root string, stop func() bool) ([]FileRecord, error) {
	if stop == nil {
		stop = func() bool { return false }
	}

	var records []FileRecord
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if stop() {
			return fs.SkipAll
		}
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		records = append(records, FileRecord{
			Path:    path,
			Name:    entry.Name(),
			Ext:     strings.ToLower(filepath.Ext(entry.Name())),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, services.Wrap(services.ErrScan, "scan", "walk source",
			fmt.Sprintf("failed to scan %s", root), walkErr)
	}
	return records, nil
}
