package stage

import (
	"errors"
	"fmt"
)

// Common errors for the staging system.
var (
	// ErrDirectoryNotFound is returned when a staging rule names a source
	// directory that does not exist. It aborts the whole staging step.
	ErrDirectoryNotFound = errors.New("the specified directory cannot be found")

	// ErrFileNotFound is returned for a required single file that is missing.
	ErrFileNotFound = errors.New("the specified file cannot be found")

	// ErrNoRules is returned when there is nothing to stage.
	ErrNoRules = errors.New("no staging rules")

	// ErrUnresolvedPlaceholder is returned when a destination template names
	// a variable that has no value.
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

	// ErrEmptyDestination is returned for a rule without a destination.
	ErrEmptyDestination = errors.New("empty destination template")
)

// StageError provides the rule and path an error occurred on.
type StageError struct {
	Op   string // "walk", "resolve", "copy"
	Rule string // rule name, if any
	Path string // file or directory involved
	Err  error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	msg := e.Op
	if e.Rule != "" {
		msg += " " + e.Rule
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a missing directory or missing
// required file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDirectoryNotFound) || errors.Is(err, ErrFileNotFound)
}
