package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrScan          = errors.New("scan error")
	ErrValidation    = errors.New("validation error")
	ErrRelocation    = errors.New("relocation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("unavailable")
	ErrInternal      = errors.New("internal error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FatalToRun reports whether the error ends a run as a whole rather than a
// single file. Per-file relocation failures are isolated and never fatal.
func FatalToRun(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRelocation) {
		return false
	}
	return errors.Is(err, ErrScan) || errors.Is(err, ErrConfiguration) || errors.Is(err, ErrInternal)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
