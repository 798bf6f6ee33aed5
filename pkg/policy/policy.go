// Package policy implements the access-control decision engine for the
// shared external storage area.
//
// The package is deliberately pure: classification and decisions are
// computed from explicit inputs (caller context, permission snapshot,
// path segments) with no filesystem probing and no hidden state. The
// gateway layer (pkg/gateway) is responsible for executing operations
// that the engine allows; enforcement at the point of real I/O is the
// gateway's problem, not the engine's.
package policy

// CallerContext is an immutable snapshot of the calling application's
// identity and storage grants, taken at decision time.
//
// Permission grants are captured here rather than read from the
// permission authority inside the engine, so that a decision is a pure
// function of its arguments. Refreshing the snapshot against the
// authority is the caller's job (see pkg/permission).
type CallerContext struct {
	// AppID is the calling application's identifier (e.g. "com.example.app").
	AppID string

	// Legacy indicates the caller targets a platform version that is
	// exempt from scoped-storage enforcement.
	Legacy bool

	// ReadGranted reports whether the read permission was granted at
	// snapshot time.
	ReadGranted bool

	// WriteGranted reports whether the write permission was granted at
	// snapshot time.
	WriteGranted bool
}

// Operation identifies a single-path storage operation subject to
// mediation. Renames are a two-path operation and are decided
// separately by Engine.DecideRename.
type Operation int

const (
	// OpCreateFile creates a new regular file.
	OpCreateFile Operation = iota

	// OpMkdir creates a new directory.
	OpMkdir

	// OpDelete removes a file or an empty directory.
	OpDelete

	// OpOpenRead opens an existing file for reading.
	OpOpenRead

	// OpOpenWrite opens an existing file for writing.
	OpOpenWrite

	// OpList enumerates the entries of a directory.
	OpList
)

// String returns the operation name used in logs and CLI output.
func (op Operation) String() string {
	switch op {
	case OpCreateFile:
		return "create"
	case OpMkdir:
		return "mkdir"
	case OpDelete:
		return "delete"
	case OpOpenRead:
		return "open-read"
	case OpOpenWrite:
		return "open-write"
	case OpList:
		return "list"
	default:
		return "unknown"
	}
}

// writes reports whether the operation mutates the namespace or file
// content, and therefore requires the write grant on shared paths.
func (op Operation) writes() bool {
	switch op {
	case OpCreateFile, OpMkdir, OpDelete, OpOpenWrite:
		return true
	default:
		return false
	}
}

// DenyReason enumerates why a decision denied an operation.
type DenyReason int

const (
	// DenyNone is the zero reason carried by Allow decisions.
	DenyNone DenyReason = iota

	// DenyNoReadPermission: the operation needs the read grant and the
	// snapshot does not have it.
	DenyNoReadPermission

	// DenyNoWritePermission: the operation needs the write grant and
	// the snapshot does not have it.
	DenyNoWritePermission

	// DenyOtherAppDir: the path resolves into another application's
	// private directory. Never overridden by grants or legacy status.
	DenyOtherAppDir

	// DenyNotApplicable: the caller is outside the scope of this
	// engine (non-legacy callers are decided by scoped-storage
	// enforcement, which this engine does not model).
	DenyNotApplicable
)

// String returns the reason name used in logs and CLI output.
func (r DenyReason) String() string {
	switch r {
	case DenyNone:
		return "none"
	case DenyNoReadPermission:
		return "no-read-permission"
	case DenyNoWritePermission:
		return "no-write-permission"
	case DenyOtherAppDir:
		return "other-app-dir"
	case DenyNotApplicable:
		return "not-applicable"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a policy evaluation.
//
// A denied decision is a first-class result, not an error: the gateway
// maps it to the platform-appropriate negative signal for the operation
// (a false boolean, a nil listing, or a raised I/O failure).
type Decision struct {
	// Allowed reports whether the operation may proceed.
	Allowed bool

	// Reason explains a denial. DenyNone when Allowed is true.
	Reason DenyReason
}

// Allow is the positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny builds a negative decision with the given reason.
func Deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// String renders the decision for logs and CLI output.
func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return "deny (" + d.Reason.String() + ")"
}
