package models

import (
	"errors"
	"fmt"
)

// ErrInsufficientSnapshots aborts a run when fewer than two usable,
// date-ordered snapshots were found. Change-velocity output below that
// threshold would misrepresent the history, so the run fails fast instead of
// emitting empty results.
var ErrInsufficientSnapshots = errors.New("fewer than two usable snapshots")

// SchemaError reports a document that failed the defaultConfig schema gate.
// It is fatal for the whole run: diffing across a partial sequence would
// silently present a truncated change history as complete.
type SchemaError struct {
	File   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("invalid snapshot schema: %s", e.Reason)
	}
	return fmt.Sprintf("invalid snapshot schema in %s: %s", e.File, e.Reason)
}
