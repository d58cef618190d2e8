package input

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ArchiveSuffix marks files accepted as archives.
const ArchiveSuffix = ".jar"

// ValidPath is a local path that passed ValidatePath.
type ValidPath struct {
	Abs   string
	IsDir bool
}

// ValidatePath resolves path against projectDir and checks that it is an existing
// directory or archive. raw is the declaration as written, echoed in errors.
func ValidatePath(projectDir, raw, path, section string) (ValidPath, error) {
	if path == "" {
		return ValidPath{}, &InvalidPathError{Raw: raw}
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(projectDir, abs)
	}
	abs = filepath.Clean(abs)

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ValidPath{}, &InvalidPathError{Raw: raw, Path: abs}
		}
		return ValidPath{}, &InvalidPathError{Raw: raw, Path: abs, Err: err}
	}
	if !info.IsDir() && !isArchive(abs) {
		return ValidPath{}, &InvalidPathTypeError{Raw: raw, Input: section}
	}
	return ValidPath{Abs: abs, IsDir: info.IsDir()}, nil
}

func isArchive(path string) bool {
	return strings.HasSuffix(path, ArchiveSuffix)
}
