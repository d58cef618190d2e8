// Package testkit holds invariant checks shared by package tests and fuzz harnesses.
package testkit

import (
	"fmt"
	"path/filepath"
	"strings"

	"fortio.org/safecast"

	"wirepath/internal/location"
)

// CheckLocations runs a minimal set of invariants on a resolved list:
// 1) no location is empty
// 2) a qualified location (no base) has an absolute path
// 3) an entry under a base is relative and stays inside it
func CheckLocations(locs []location.Location) error {
	for i, l := range locs {
		switch {
		case l.Base == "" && l.Path == "":
			return fmt.Errorf("location %d is empty", i)
		case l.IsQualified() && !filepath.IsAbs(l.Path):
			return fmt.Errorf("location %d: qualified path %q is not absolute", i, l.Path)
		case l.Base != "" && l.Path != "" && (filepath.IsAbs(l.Path) || escapes(l.Path)):
			return fmt.Errorf("location %d: entry %q escapes base %q", i, l.Path, l.Base)
		}
	}
	return nil
}

// CheckTreeMapping verifies that locs maps files onto dirs one to one, in order,
// with every file under the first dir whose prefix it carries.
func CheckTreeMapping(dirs, files []string, locs []location.Location) error {
	if len(locs) != len(files) {
		n, err := safecast.Conv[int32](len(files))
		if err != nil {
			return err
		}
		return fmt.Errorf("got %d locations for %d files", len(locs), n)
	}
	for i, l := range locs {
		if filepath.Join(l.Base, l.Path) != filepath.Clean(files[i]) {
			return fmt.Errorf("location %d %v does not rebuild %q", i, l, files[i])
		}
		for _, dir := range dirs {
			if strings.HasPrefix(files[i], dir+string(filepath.Separator)) {
				if dir != l.Base {
					return fmt.Errorf("file %q mapped to %q, first matching root is %q", files[i], l.Base, dir)
				}
				break
			}
		}
	}
	return nil
}

func escapes(rel string) bool {
	rel = filepath.ToSlash(rel)
	return rel == ".." || strings.HasPrefix(rel, "../")
}
