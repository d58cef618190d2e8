// Package notation decides what a raw input string refers to: a local file,
// a remote URI, or an opaque dependency coordinate.
package notation

import (
	"net/url"
	"regexp"
	"runtime"
	"strings"
)

// Kind tags the result of Classify.
type Kind uint8

const (
	// LocalFile is a filesystem path, relative to the project dir or absolute.
	LocalFile Kind = iota + 1
	// RemoteURI is a URI with a fetch handler (http, https, ...).
	RemoteURI
	// DependencyCoordinate is anything else; the host dependency service owns its grammar.
	DependencyCoordinate
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case LocalFile:
		return "file"
	case RemoteURI:
		return "uri"
	case DependencyCoordinate:
		return "coordinate"
	default:
		return "unknown"
	}
}

// Classification is the tagged result of Classify.
// Value holds the file path, the URI text or the coordinate, depending on Kind.
type Classification struct {
	Kind  Kind
	Value string
}

// uriScheme matches a leading "scheme:" followed by at least one character.
var uriScheme = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]*):.`)

// fetchable lists the schemes a URL can actually be opened with.
var fetchable = map[string]struct{}{
	"http":   {},
	"https":  {},
	"ftp":    {},
	"jar":    {},
	"mailto": {},
}

// Classify interprets raw with file-or-URI notation rules. Strings that look like
// a URI but cannot be fetched are dependency coordinates. Classify is pure.
func Classify(raw string) Classification {
	m := uriScheme.FindStringSubmatch(raw)
	if m == nil || isDriveLetter(m[1]) {
		return Classification{Kind: LocalFile, Value: raw}
	}
	u, err := url.Parse(raw)
	if err != nil {
		// not a URI after all; the host treats it as a path
		return Classification{Kind: LocalFile, Value: raw}
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "file" {
		return Classification{Kind: LocalFile, Value: filePath(u)}
	}
	if _, ok := fetchable[scheme]; ok {
		return Classification{Kind: RemoteURI, Value: raw}
	}
	return Classification{Kind: DependencyCoordinate, Value: raw}
}

func filePath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Path
}

func isDriveLetter(scheme string) bool {
	return runtime.GOOS == "windows" && len(scheme) == 1
}
