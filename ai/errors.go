package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOversize indicates the embedding request payload was rejected as
	// too large. The batch must be split before retrying.
	ErrOversize = errors.New("embedding payload too large")

	// ErrTransient indicates a retriable network or backend failure.
	ErrTransient = errors.New("transient embedding failure")
)

// Provider messages that signal a payload-size rejection. The exact limit is
// undocumented; these are the phrasings observed in practice.
var oversizeMarkers = []string{
	"413",
	"payload too large",
	"request entity too large",
	"maximum context length",
	"too many inputs",
	"input is too long",
}

// ClassifyError wraps a raw provider error with the sentinel the pipeline
// dispatches on. Oversize rejections become ErrOversize; everything else is
// treated as transient. A nil error stays nil.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrOversize) || errors.Is(err, ErrTransient) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range oversizeMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %w", ErrOversize, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
