// Package location defines the address records handed to the schema loader.
package location

// Location identifies one source file relevant to compilation.
// Base is a root directory or archive path; when empty, Path is already fully qualified.
// Locations are plain values and compare with ==.
type Location struct {
	Base string `json:"base,omitempty" msgpack:"base"`
	Path string `json:"path,omitempty" msgpack:"path"`
}

// Get returns a Location whose Path is fully qualified.
func Get(path string) Location {
	return Location{Path: path}
}

// Within returns a Location for path relative to base.
func Within(base, path string) Location {
	return Location{Base: base, Path: path}
}

// IsQualified reports whether Path needs no base to be located.
func (l Location) IsQualified() bool {
	return l.Base == ""
}

// String renders the location as "base!/path" for archive-style bases.
func (l Location) String() string {
	switch {
	case l.IsQualified():
		return l.Path
	case l.Path == "":
		return l.Base
	default:
		return l.Base + "!/" + l.Path
	}
}
