// Package repository resolves dependency coordinates against local repositories laid
// out the Maven way, caching hits on disk.
package repository

import (
	"fmt"
	"path"
	"strings"
)

// DefaultExt is the artifact extension used when a coordinate has no "@ext".
const DefaultExt = "jar"

// Coordinate is a parsed group:name:version[:classifier][@ext] string.
type Coordinate struct {
	Group      string
	Name       string
	Version    string
	Classifier string
	Ext        string
}

// CoordinateError reports a coordinate string that does not parse.
type CoordinateError struct {
	Raw    string
	Reason string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("invalid dependency coordinate %q: %s", e.Raw, e.Reason)
}

// ParseCoordinate parses raw. Group, name and version are required.
func ParseCoordinate(raw string) (Coordinate, error) {
	body, ext := raw, DefaultExt
	if i := strings.LastIndexByte(raw, '@'); i >= 0 {
		body, ext = raw[:i], raw[i+1:]
		if !validSegment(ext) {
			return Coordinate{}, &CoordinateError{Raw: raw, Reason: "bad extension"}
		}
	}
	parts := strings.Split(body, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, &CoordinateError{Raw: raw, Reason: "want group:name:version[:classifier][@ext]"}
	}
	for i, p := range parts {
		if !validSegment(p) {
			return Coordinate{}, &CoordinateError{Raw: raw, Reason: fmt.Sprintf("bad segment %d", i+1)}
		}
	}
	for _, g := range strings.Split(parts[0], ".") {
		if g == "" {
			return Coordinate{}, &CoordinateError{Raw: raw, Reason: "empty group component"}
		}
	}
	c := Coordinate{Group: parts[0], Name: parts[1], Version: parts[2], Ext: ext}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	return c, nil
}

// validSegment rejects segments that are blank or could leave the artifact directory.
func validSegment(s string) bool {
	return strings.TrimSpace(s) != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\\@")
}

// FileName is the artifact file name: name-version[-classifier].ext.
func (c Coordinate) FileName() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('-')
	b.WriteString(c.Version)
	if c.Classifier != "" {
		b.WriteByte('-')
		b.WriteString(c.Classifier)
	}
	b.WriteByte('.')
	b.WriteString(c.Ext)
	return b.String()
}

// RelPath is the slash-separated artifact path inside a repository root.
func (c Coordinate) RelPath() string {
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Name, c.Version, c.FileName())
}

func (c Coordinate) String() string {
	s := c.Group + ":" + c.Name + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	if c.Ext != DefaultExt {
		s += "@" + c.Ext
	}
	return s
}
