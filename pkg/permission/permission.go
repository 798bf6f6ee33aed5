// Package permission models the storage permission grants of a calling
// application and the bounded polling used to observe externally driven
// grant changes.
//
// The permission authority itself is owned by the environment (system
// settings, a privileged harness); this package only queries it and
// snapshots its answers.
package permission

import "github.com/scopedfs/mediagate/pkg/policy"

// Permission identifies one of the two mediated storage permissions.
type Permission int

const (
	// Read is the shared-storage read permission.
	Read Permission = iota

	// Write is the shared-storage write permission.
	Write
)

// String returns the permission name used in logs and CLI output.
func (p Permission) String() string {
	switch p {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "unknown"
	}
}

// Authority answers grant queries for calling applications.
//
// Implementations are owned by the environment and may change state
// asynchronously with respect to callers of IsGranted; a returned
// value is a point-in-time observation, nothing more.
type Authority interface {
	// IsGranted reports whether the permission is currently granted
	// to the given caller.
	IsGranted(callerID string, perm Permission) bool
}

// Snapshot captures the caller's grants from the authority into a
// policy.CallerContext.
//
// The snapshot is taken once, at call time; the authority may change
// state before a decision computed from it is acted upon. That gap is
// a property of the decision layer and is deliberately not closed with
// locking — final enforcement belongs to the point of actual I/O.
func Snapshot(authority Authority, callerID string, legacy bool) policy.CallerContext {
	return policy.CallerContext{
		AppID:        callerID,
		Legacy:       legacy,
		ReadGranted:  authority.IsGranted(callerID, Read),
		WriteGranted: authority.IsGranted(callerID, Write),
	}
}
