// Package preflight provides readiness checks for the paths an execute-mode
// run depends on. The daemon runs them before each triggered run and the CLI
// renders them when a direct run is rejected.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check for a source/destination pair. Dry runs only
// need the source check; callers pass an empty destination to skip the rest.
func RunAll(sourceRoot, destinationRoot string) []Result {
	results := []Result{CheckSourceReadable(sourceRoot)}
	if destinationRoot != "" {
		results = append(results,
			CheckDestinationWritable(destinationRoot),
			CheckDistinctRoots(sourceRoot, destinationRoot),
		)
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// CheckSourceReadable verifies the source root exists and can be read and
// traversed.
func CheckSourceReadable(path string) Result {
	const name = "Source directory"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckDestinationWritable verifies the destination root, or its nearest
// existing ancestor when the root itself does not exist yet, is writable.
func CheckDestinationWritable(path string) Result {
	const name = "Destination directory"
	probe := path
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", probe, err)}
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", path)}
		}
		probe = parent
	}
	if err := unix.Access(probe, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", probe, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", path)}
}

// CheckDistinctRoots verifies source and destination do not name the same
// directory.
func CheckDistinctRoots(sourceRoot, destinationRoot string) Result {
	const name = "Distinct roots"
	source := filepath.Clean(sourceRoot)
	dest := filepath.Clean(destinationRoot)
	if source == dest {
		return Result{Name: name, Detail: "source and destination are the same directory"}
	}
	return Result{Name: name, Passed: true, Detail: "source and destination differ"}
}
