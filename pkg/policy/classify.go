package policy

import (
	"strings"
)

// ClassKind is the closed set of semantic path classes produced by
// Classify.
type ClassKind int

const (
	// ClassSharedRoot is the shared storage root itself, or an entry
	// directly beneath it.
	ClassSharedRoot ClassKind = iota

	// ClassOwnFilesDir is the caller's private files directory
	// (Android/data/<caller> or Android/obb/<caller>) or anything
	// beneath it.
	ClassOwnFilesDir

	// ClassOwnMediaDir is the caller's private media directory
	// (Android/media/<caller>) or anything beneath it.
	ClassOwnMediaDir

	// ClassOtherAppDir is another application's private directory or
	// anything beneath it.
	ClassOtherAppDir

	// ClassTopLevelDir is a path under a named top-level directory of
	// the shared storage area (DCIM, Music, ...).
	ClassTopLevelDir
)

// String returns the class name used in logs and CLI output.
func (k ClassKind) String() string {
	switch k {
	case ClassSharedRoot:
		return "shared-root"
	case ClassOwnFilesDir:
		return "own-files-dir"
	case ClassOwnMediaDir:
		return "own-media-dir"
	case ClassOtherAppDir:
		return "other-app-dir"
	case ClassTopLevelDir:
		return "top-level-dir"
	default:
		return "unknown"
	}
}

// MediaType is the coarse content classification inferred from a file
// name's extension. Non-legacy enforcement would check it against the
// destination directory; for the legacy callers modeled here it is
// informational only.
type MediaType int

const (
	MediaOther MediaType = iota
	MediaMusic
	MediaVideo
	MediaImage
	MediaDocument
)

// String returns the media type name used in logs and CLI output.
func (m MediaType) String() string {
	switch m {
	case MediaMusic:
		return "music"
	case MediaVideo:
		return "video"
	case MediaImage:
		return "image"
	case MediaDocument:
		return "document"
	default:
		return "other"
	}
}

// PathClass is the result of classifying a path against a caller
// identity.
type PathClass struct {
	// Kind is the semantic class of the path.
	Kind ClassKind

	// Dir is the top-level directory name for ClassTopLevelDir, "" otherwise.
	Dir string

	// Owner is the owning application id for ClassOtherAppDir, "" otherwise.
	Owner string

	// Media is the media type inferred from the final segment's
	// extension. Only meaningful for ClassSharedRoot and
	// ClassTopLevelDir paths.
	Media MediaType
}

// IsOwn reports whether the class is one of the caller's own private
// directories, which are accessible regardless of permission grants.
func (c PathClass) IsOwn() bool {
	return c.Kind == ClassOwnFilesDir || c.Kind == ClassOwnMediaDir
}

// String renders the class for logs and CLI output.
func (c PathClass) String() string {
	switch c.Kind {
	case ClassOtherAppDir:
		return c.Kind.String() + "(" + c.Owner + ")"
	case ClassTopLevelDir:
		return c.Kind.String() + "(" + c.Dir + ", " + c.Media.String() + ")"
	default:
		return c.Kind.String()
	}
}

// appPrivateRoot is the first segment of all per-application private
// directories under the shared storage root.
const appPrivateRoot = "Android"

// Second segments of the reserved per-application prefixes.
const (
	privateDataDir  = "data"
	privateObbDir   = "obb"
	privateMediaDir = "media"
)

// topLevelDirs is the fixed set of recognized top-level directory
// names. Matching is case-sensitive: these are the canonical names the
// platform creates.
// "Android" is recognized here too: the reserved per-application
// prefixes are matched before this set is consulted, so only
// unreserved paths beneath it reach the top-level rule.
var topLevelDirs = map[string]bool{
	"Alarms":        true,
	"Android":       true,
	"Audiobooks":    true,
	"DCIM":          true,
	"Documents":     true,
	"Download":      true,
	"Movies":        true,
	"Music":         true,
	"Notifications": true,
	"Pictures":      true,
	"Podcasts":      true,
	"Ringtones":     true,
}

// mediaTypesByExtension maps lowercased file extensions (without the
// dot) to inferred media types. Unrecognized extensions map to
// MediaOther.
var mediaTypesByExtension = map[string]MediaType{
	"aac":  MediaMusic,
	"flac": MediaMusic,
	"m4a":  MediaMusic,
	"mid":  MediaMusic,
	"mp3":  MediaMusic,
	"ogg":  MediaMusic,
	"opus": MediaMusic,
	"wav":  MediaMusic,

	"3gp":  MediaVideo,
	"avi":  MediaVideo,
	"mkv":  MediaVideo,
	"mov":  MediaVideo,
	"mp4":  MediaVideo,
	"webm": MediaVideo,

	"bmp":  MediaImage,
	"gif":  MediaImage,
	"heic": MediaImage,
	"jpeg": MediaImage,
	"jpg":  MediaImage,
	"png":  MediaImage,
	"webp": MediaImage,

	"doc":  MediaDocument,
	"docx": MediaDocument,
	"odt":  MediaDocument,
	"pdf":  MediaDocument,
	"txt":  MediaDocument,
}

// Classify maps a path to its semantic class for the given caller.
//
// Classification rules, in order:
//  1. The root itself is ClassSharedRoot.
//  2. Paths under the reserved per-application prefixes
//     (Android/data/<id>, Android/obb/<id>, Android/media/<id>) are
//     the caller's own files/media directory when <id> equals
//     callerID, and another application's private directory otherwise.
//  3. Paths whose first segment is a recognized top-level directory
//     name are ClassTopLevelDir with the media type inferred from the
//     final segment's extension.
//  4. Anything else directly under the root (including an unreserved
//     path under "Android" itself) is a generic top-level path,
//     classified ClassTopLevelDir with MediaOther-or-inferred media
//     type and decided identically to recognized names.
//
// The private-prefix rules run before top-level matching so that a
// private prefix can never be shadowed by a recognized directory name.
// Classify performs no filesystem access.
func Classify(path Path, callerID string) PathClass {
	if path.IsRoot() {
		return PathClass{Kind: ClassSharedRoot}
	}

	if path[0] == appPrivateRoot && len(path) >= 3 {
		owner := path[2]
		switch path[1] {
		case privateDataDir, privateObbDir:
			if owner == callerID {
				return PathClass{Kind: ClassOwnFilesDir}
			}
			return PathClass{Kind: ClassOtherAppDir, Owner: owner}
		case privateMediaDir:
			if owner == callerID {
				return PathClass{Kind: ClassOwnMediaDir}
			}
			return PathClass{Kind: ClassOtherAppDir, Owner: owner}
		}
	}

	media := inferMediaType(path.Base())
	if topLevelDirs[path[0]] {
		return PathClass{Kind: ClassTopLevelDir, Dir: path[0], Media: media}
	}

	// Unrecognized first segment: a generic top-level path. Decided
	// exactly like a named top-level directory.
	return PathClass{Kind: ClassTopLevelDir, Dir: path[0], Media: media}
}

// inferMediaType derives the media type from a file name's extension.
// Extensions compare case-insensitively; names without an extension
// map to MediaOther.
func inferMediaType(name string) MediaType {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return MediaOther
	}
	return mediaTypesByExtension[strings.ToLower(name[idx+1:])]
}
