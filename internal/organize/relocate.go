package organize

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cubby/internal/category"
	"cubby/internal/fileutil"
	"cubby/internal/logging"
	"cubby/internal/scan"
	"cubby/internal/services"
)

// relocator performs or simulates moves for one run. It owns no state beyond
// the run's destination root and mode; counters live in the registry and log
// lines flow back through emitLog.
type relocator struct {
	registry *category.Registry
	destRoot string
	dryRun   bool
	emitLog  func(string)
	logger   *slog.Logger
}

// place handles one matched file. Dry run counts and narrates without
// touching the filesystem. Execute moves the file into the category folder
// under a collision-free name; failure is per-file and non-fatal.
func (rl *relocator) place(rec scan.FileRecord, cat *category.Category) error {
	if rl.dryRun {
		rl.registry.Increment(cat.Name)
		rl.emitLog(fmt.Sprintf("[DRY] Would move %s → %s", rec.Name, cat.Folder))
		return nil
	}
	if err := rl.moveInto(rec, cat.Folder); err != nil {
		rl.emitLog(fmt.Sprintf("Failed to move %s: %v", rec.Name, err))
		rl.logger.Warn("file relocation failed",
			logging.String("file", rec.Path),
			logging.String(logging.FieldCategory, cat.Name),
			logging.Error(err))
		return services.Wrap(services.ErrRelocation, "organize", "move file",
			fmt.Sprintf("failed to move %s", rec.Name), err)
	}
	rl.registry.Increment(cat.Name)
	rl.emitLog(fmt.Sprintf("Moved %s → %s", rec.Name, cat.Folder))
	return nil
}

// placeUncategorized moves every unmatched file into the Uncategorized folder.
// Execute mode only; callers skip this in dry run. Per-file failures are
// logged and do not stop the sweep.
func (rl *relocator) placeUncategorized(records []scan.FileRecord) {
	for _, rec := range records {
		if err := rl.moveInto(rec, UncategorizedFolder); err != nil {
			rl.emitLog(fmt.Sprintf("Failed to move %s: %v", rec.Name, err))
			rl.logger.Warn("uncategorized relocation failed",
				logging.String("file", rec.Path),
				logging.Error(err))
			continue
		}
		rl.emitLog(fmt.Sprintf("Moved %s → %s", rec.Name, UncategorizedFolder))
	}
}

func (rl *relocator) moveInto(rec scan.FileRecord, folder string) error {
	dir := filepath.Join(rl.destRoot, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	target, err := fileutil.NextAvailablePath(dir, rec.Name)
	if err != nil {
		return err
	}
	return fileutil.MoveFile(rec.Path, target)
}
