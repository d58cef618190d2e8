// Package sourcetree maps files found under configured source roots to
// base-relative locations.
package sourcetree

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"

	"wirepath/internal/location"
)

// Tree is a source-directory set: ordered root dirs plus the files they contribute.
// When Files is nil the roots are walked and filtered by Include/Exclude glob patterns
// (doublestar syntax, matched against the slash-separated path relative to its root).
type Tree struct {
	Dirs    []string
	Include []string
	Exclude []string
	Files   []string
}

// AmbiguousRootError reports a file that none of the configured roots contains.
// It signals a broken invariant in whoever produced the listing, not a user mistake.
type AmbiguousRootError struct {
	File string
	Dirs []string
}

func (e *AmbiguousRootError) Error() string {
	return fmt.Sprintf("file %q is not under any source root %v", e.File, e.Dirs)
}

// Map produces one Location per file. The first dir, in declaration order, that is a
// separator-terminated prefix of the file becomes its Base; the remainder is its Path.
// Matching compares NFC forms, but Base and Path keep the bytes they were given so the
// location still addresses the file on filesystems that do not normalize names.
func Map(dirs, files []string) ([]location.Location, error) {
	sep := string(filepath.Separator)
	prefixes := make([]string, len(dirs))
	for i, dir := range dirs {
		prefixes[i] = norm.NFC.String(dir) + sep
	}
	out := make([]location.Location, 0, len(files))
	for _, file := range files {
		nfile := norm.NFC.String(file)
		matched := false
		for i, prefix := range prefixes {
			if !strings.HasPrefix(nfile, prefix) {
				continue
			}
			cut := afterSeparators(file, strings.Count(prefix, sep))
			if cut < 0 {
				break
			}
			out = append(out, location.Within(dirs[i], file[cut:]))
			matched = true
			break
		}
		if !matched {
			return nil, &AmbiguousRootError{File: file, Dirs: dirs}
		}
	}
	return out, nil
}

// afterSeparators returns the offset just past the n-th separator of s, or -1.
// Normalization never adds or drops separators, so counting them locates the root
// prefix in the original string.
func afterSeparators(s string, n int) int {
	off := 0
	for ; n > 0; n-- {
		i := strings.IndexByte(s[off:], filepath.Separator)
		if i < 0 {
			return -1
		}
		off += i + 1
	}
	return off
}

// List returns the tree's files: Files verbatim when set, otherwise every regular file
// under each dir that passes the include/exclude filters. Walked results are sorted per
// dir and concatenated in dir order.
func (t Tree) List() ([]string, error) {
	if t.Files != nil {
		return t.Files, nil
	}
	for _, pattern := range append(append([]string(nil), t.Include...), t.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	var files []string
	for _, dir := range t.Dirs {
		var found []string
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			if t.accepts(filepath.ToSlash(rel)) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %q: %w", dir, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// Locations lists the tree and maps the result onto its dirs.
func (t Tree) Locations() ([]location.Location, error) {
	files, err := t.List()
	if err != nil {
		return nil, err
	}
	return Map(t.Dirs, files)
}

func (t Tree) accepts(rel string) bool {
	if len(t.Include) > 0 && !matchAny(t.Include, rel) {
		return false
	}
	return !matchAny(t.Exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

// MissingDirs returns the dirs that do not exist.
func (t Tree) MissingDirs() []string {
	var missing []string
	for _, dir := range t.Dirs {
		_, err := os.Stat(dir)
		if err != nil {
			missing = append(missing, dir)
		}
	}
	return missing
}

// NotDirs returns the dirs that exist but are not directories.
func (t Tree) NotDirs() []string {
	var out []string
	for _, dir := range t.Dirs {
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			out = append(out, dir)
		}
	}
	return out
}
