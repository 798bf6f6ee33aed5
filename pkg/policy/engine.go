package policy

// Options configures engine behavior that is deliberately not
// hardwired into the decision tables.
type Options struct {
	// AutoGrantRead treats a write grant as implying the read grant,
	// mirroring the platform behavior of auto-granting read access
	// when write access is requested by sufficiently old callers.
	//
	// The available scenarios do not exercise this behavior, so it is
	// surfaced as an explicit toggle rather than silently encoded.
	// Default false: read and write grants are independent.
	AutoGrantRead bool
}

// Engine is the legacy-access decision engine.
//
// Engine holds only immutable options: Decide and DecideRename are
// pure functions of their arguments and may be called concurrently
// from any number of goroutines without locking.
type Engine struct {
	opts Options
}

// NewEngine builds an engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Decide evaluates a single-path operation against the caller's
// permission snapshot and the path's class.
//
// Decision table for legacy callers on shared paths (ClassSharedRoot
// and ClassTopLevelDir):
//
//	create, mkdir, delete, open-write  → require write grant
//	open-read, list                    → require read grant
//
// The table applies regardless of the inferred media type: legacy
// callers bypass the type-path conformity checks that scoped-storage
// enforcement would apply, so an mp3 under DCIM and a pdf under Music
// are decided identically.
//
// Two classes are fully resolved before the table is consulted:
// the caller's own directories are always allowed, for any operation
// and any snapshot; other applications' private directories are
// always denied, for any operation and any snapshot.
//
// Non-legacy callers fall under scoped-storage enforcement, which this
// engine does not model; they are denied with DenyNotApplicable.
func (e *Engine) Decide(op Operation, caller CallerContext, class PathClass) Decision {
	if class.IsOwn() {
		return Allow()
	}
	if class.Kind == ClassOtherAppDir {
		return Deny(DenyOtherAppDir)
	}

	if !caller.Legacy {
		return Deny(DenyNotApplicable)
	}

	if op.writes() {
		if !caller.WriteGranted {
			return Deny(DenyNoWritePermission)
		}
		return Allow()
	}

	if !e.readGranted(caller) {
		return Deny(DenyNoReadPermission)
	}
	return Allow()
}

// DecideRename evaluates a two-path rename, modeled as a single atomic
// subtree move.
//
// Rules, in order:
//  1. If either endpoint is another application's private directory,
//     deny with DenyOtherAppDir regardless of grants or legacy status.
//  2. The caller's own directories impose no requirement of their
//     own: a move into or out of them needs only whatever the other
//     endpoint requires.
//  3. Any remaining shared endpoint requires the write grant, since
//     a rename mutates both namespace entries. No per-descendant
//     re-validation is performed: when a directory moves, every file
//     beneath it moves with it, even if its media type could not have
//     been independently created at the destination. The rename is
//     decided once, at the directory level.
func (e *Engine) DecideRename(caller CallerContext, src, dst PathClass) Decision {
	if src.Kind == ClassOtherAppDir || dst.Kind == ClassOtherAppDir {
		return Deny(DenyOtherAppDir)
	}

	if src.IsOwn() && dst.IsOwn() {
		return Allow()
	}

	if !caller.Legacy {
		return Deny(DenyNotApplicable)
	}

	if !caller.WriteGranted {
		return Deny(DenyNoWritePermission)
	}
	return Allow()
}

// readGranted applies the AutoGrantRead option on top of the snapshot.
func (e *Engine) readGranted(caller CallerContext) bool {
	if caller.ReadGranted {
		return true
	}
	return e.opts.AutoGrantRead && caller.WriteGranted
}
