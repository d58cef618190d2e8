package input

import (
	"errors"
	"fmt"
)

// ErrFrozen is returned by registration calls made after the locations were forced.
var ErrFrozen = errors.New("input locations already forced; no further registrations accepted")

// InvalidPathError reports a declared local path that does not exist.
type InvalidPathError struct {
	Raw  string // as declared
	Path string // resolved against the project dir
	Err  error  // underlying stat error, if any
}

func (e *InvalidPathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid path string %q: %v", e.Raw, e.Err)
	}
	return fmt.Sprintf("invalid path string %q: path does not exist", e.Raw)
}

func (e *InvalidPathError) Unwrap() error { return e.Err }

// InvalidPathTypeError reports a local path that is neither a directory nor an archive.
// Single files are only accepted through a source tree so that their base and relative
// path are unambiguous. Root marks a source tree root that is not a directory.
type InvalidPathTypeError struct {
	Raw   string
	Input string // manifest section the path was declared in, e.g. "source"
	Root  bool
}

func (e *InvalidPathTypeError) Error() string {
	if e.Root {
		return fmt.Sprintf("invalid path string %q: source tree root is not a directory", e.Raw)
	}
	section := e.Input
	if section == "" {
		section = "source"
	}
	return fmt.Sprintf(`invalid path string %q: individual files must be declared through a source tree:
  [[%s.trees]]
  dirs = ["dirPath"]
  include = ["relativePath"]`, e.Raw, section)
}

// DisallowedRemoteURLError reports an input written as a fetchable URL.
// Remote inputs are declared as dependency coordinates instead.
type DisallowedRemoteURLError struct {
	Raw string
}

func (e *DisallowedRemoteURLError) Error() string {
	return fmt.Sprintf("invalid path string %q: URL dependencies are not allowed", e.Raw)
}

// ResolveError attaches the dependency identity to a host resolution failure.
type ResolveError struct {
	Dependency string
	Err        error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("failed to resolve dependency %q: %v", e.Dependency, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }
