package input

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePath(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "dir.jar"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"lib.jar", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(root, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		path      string
		wantDir   bool
		wantError any
	}{
		{path: ".", wantDir: true},
		{path: "dir.jar", wantDir: true},
		{path: "lib.jar"},
		{path: filepath.Join(root, "lib.jar")},
		{path: "notes.txt", wantError: &InvalidPathTypeError{}},
		{path: "nope", wantError: &InvalidPathError{}},
		{path: "", wantError: &InvalidPathError{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			vp, err := ValidatePath(root, tt.path, tt.path, "source")
			switch want := tt.wantError.(type) {
			case *InvalidPathTypeError:
				if !errors.As(err, &want) {
					t.Fatalf("error = %v, want InvalidPathTypeError", err)
				}
				return
			case *InvalidPathError:
				if !errors.As(err, &want) {
					t.Fatalf("error = %v, want InvalidPathError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatePath: %v", err)
			}
			if !filepath.IsAbs(vp.Abs) || vp.IsDir != tt.wantDir {
				t.Fatalf("ValidatePath = %+v", vp)
			}
		})
	}
}
