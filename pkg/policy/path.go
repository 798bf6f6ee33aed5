package policy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath indicates a path string that cannot be interpreted as
// a location under the shared storage root. This is distinct from a
// Deny decision: the input is malformed, so no decision can be made.
var ErrInvalidPath = errors.New("invalid path")

// Path is an ordered sequence of path segments relative to the shared
// storage root. A zero-length Path is the root itself.
//
// Segments carry no separators and compare case-sensitively.
type Path []string

// ParsePath converts a slash-separated string into a Path.
//
// Leading and trailing separators are tolerated ("/DCIM/" and "DCIM"
// parse identically); "/" parses to the root. The empty string, empty
// interior segments, and "." or ".." segments are rejected with
// ErrInvalidPath — the mediation layer does not model path traversal,
// so dot segments have no meaning here.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	trimmed := strings.Trim(s, "/")
	if trimmed == "" {
		// The string was entirely separators: the shared root.
		return Path{}, nil
	}

	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		switch seg {
		case "":
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
		case ".", "..":
			return nil, fmt.Errorf("%w: dot segment in %q", ErrInvalidPath, s)
		}
	}

	return Path(segments), nil
}

// IsRoot reports whether the path is the shared storage root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Base returns the final segment, or "" for the root.
func (p Path) Base() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// String renders the path relative to the shared storage root.
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	return strings.Join(p, "/")
}
