// Package gateway executes mediated storage operations.
//
// The gateway is the enforcement point described by the decision
// layer's contract: it classifies the target path(s), asks the policy
// engine for a verdict, and touches the metadata/content stores only
// on Allow. A Deny is mapped to the platform-appropriate negative
// signal per operation: a raised I/O failure for create and open, a
// false boolean for mkdir/delete/rename, a nil listing for list.
//
// Decisions are computed from the permission snapshot inside the
// caller context; the gateway deliberately does not re-check the
// permission authority or hold any lock between decision and
// execution.
package gateway

import (
	"context"
	"fmt"

	"github.com/scopedfs/mediagate/internal/logger"
	"github.com/scopedfs/mediagate/pkg/content"
	"github.com/scopedfs/mediagate/pkg/policy"
	"github.com/scopedfs/mediagate/pkg/store"
)

// AccessDeniedError is the raised-failure form of a Deny decision,
// returned by the operations whose platform signal is an I/O error.
type AccessDeniedError struct {
	// Op is the denied operation.
	Op policy.Operation

	// Path is the target path as given by the caller.
	Path string

	// Reason is the policy reason for the denial.
	Reason policy.DenyReason
}

// Error implements the error interface.
func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("%s %s: access denied (%s)", e.Op, e.Path, e.Reason)
}

// Gateway mediates access to the shared storage tree.
type Gateway struct {
	engine *policy.Engine
	meta   store.MetadataStore
	blobs  content.Store
}

// New builds a gateway over the given engine and stores.
func New(engine *policy.Engine, meta store.MetadataStore, blobs content.Store) *Gateway {
	return &Gateway{engine: engine, meta: meta, blobs: blobs}
}

// decide parses and classifies the path, then evaluates the policy.
// The returned class is valid only when err is nil.
func (g *Gateway) decide(op policy.Operation, caller policy.CallerContext, rawPath string) (policy.Decision, error) {
	parsed, err := policy.ParsePath(rawPath)
	if err != nil {
		return policy.Decision{}, err
	}

	class := policy.Classify(parsed, caller.AppID)
	decision := g.engine.Decide(op, caller, class)
	logger.Debug("decide: op=%s path=%q class=%s -> %s", op, rawPath, class, decision)
	return decision, nil
}

// Create creates a new file with the given content.
//
// A denied decision surfaces as *AccessDeniedError, matching the
// platform behavior of file creation raising an I/O failure.
func (g *Gateway) Create(ctx context.Context, caller policy.CallerContext, path string, data []byte) error {
	decision, err := g.decide(policy.OpCreateFile, caller, path)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &AccessDeniedError{Op: policy.OpCreateFile, Path: path, Reason: decision.Reason}
	}

	id := content.NewID()
	if err := g.blobs.Write(ctx, id, data); err != nil {
		return fmt.Errorf("failed to write content for %s: %w", path, err)
	}

	if err := g.meta.CreateFile(ctx, path, id, uint64(len(data))); err != nil {
		// Roll the orphaned blob back; its loss is harmless but
		// pointless to keep.
		_ = g.blobs.Delete(ctx, id)
		return err
	}
	return nil
}

// Mkdir creates a directory. A denied decision, like any failure,
// yields false: the platform mkdir signal is a plain boolean.
func (g *Gateway) Mkdir(ctx context.Context, caller policy.CallerContext, path string) bool {
	decision, err := g.decide(policy.OpMkdir, caller, path)
	if err != nil || !decision.Allowed {
		return false
	}

	if err := g.meta.Mkdir(ctx, path); err != nil {
		logger.Debug("mkdir %q failed: %v", path, err)
		return false
	}
	return true
}

// Delete removes a file or empty directory, reporting success as a
// boolean.
func (g *Gateway) Delete(ctx context.Context, caller policy.CallerContext, path string) bool {
	decision, err := g.decide(policy.OpDelete, caller, path)
	if err != nil || !decision.Allowed {
		return false
	}

	node, err := g.meta.Stat(ctx, path)
	if err != nil {
		return false
	}

	if err := g.meta.Remove(ctx, path); err != nil {
		logger.Debug("delete %q failed: %v", path, err)
		return false
	}

	if !node.Dir && node.ContentID != "" {
		_ = g.blobs.Delete(ctx, node.ContentID)
	}
	return true
}

// List enumerates a directory. The nil/non-nil distinction is the
// observable decision outcome: a denied or failed listing is nil, an
// allowed listing of an empty directory is an empty non-nil slice.
func (g *Gateway) List(ctx context.Context, caller policy.CallerContext, path string) []string {
	decision, err := g.decide(policy.OpList, caller, path)
	if err != nil || !decision.Allowed {
		return nil
	}

	entries, err := g.meta.List(ctx, path)
	if err != nil {
		logger.Debug("list %q failed: %v", path, err)
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names
}

// OpenRead opens an existing file for reading and returns its
// content. A denied decision surfaces as *AccessDeniedError.
func (g *Gateway) OpenRead(ctx context.Context, caller policy.CallerContext, path string) ([]byte, error) {
	decision, err := g.decide(policy.OpOpenRead, caller, path)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &AccessDeniedError{Op: policy.OpOpenRead, Path: path, Reason: decision.Reason}
	}

	node, err := g.meta.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if node.Dir {
		return nil, &store.StoreError{Code: store.ErrIsDirectory, Message: "cannot read directory content", Path: path}
	}
	if node.ContentID == "" {
		return []byte{}, nil
	}

	return g.blobs.Read(ctx, node.ContentID)
}

// OpenWrite opens an existing file for writing and replaces its
// content. A denied decision surfaces as *AccessDeniedError.
func (g *Gateway) OpenWrite(ctx context.Context, caller policy.CallerContext, path string, data []byte) error {
	decision, err := g.decide(policy.OpOpenWrite, caller, path)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &AccessDeniedError{Op: policy.OpOpenWrite, Path: path, Reason: decision.Reason}
	}

	node, err := g.meta.Stat(ctx, path)
	if err != nil {
		return err
	}
	if node.Dir {
		return &store.StoreError{Code: store.ErrIsDirectory, Message: "cannot write directory content", Path: path}
	}

	id := content.NewID()
	if err := g.blobs.Write(ctx, id, data); err != nil {
		return fmt.Errorf("failed to write content for %s: %w", path, err)
	}
	if err := g.meta.SetContent(ctx, path, id, uint64(len(data))); err != nil {
		_ = g.blobs.Delete(ctx, id)
		return err
	}

	if node.ContentID != "" && node.ContentID != id {
		_ = g.blobs.Delete(ctx, node.ContentID)
	}
	return nil
}

// Rename moves src, together with its whole subtree, to dst,
// reporting success as a boolean.
//
// The decision is made once, over the two endpoint classes; the
// descendants of a moved directory are never re-validated. On Allow
// the store performs the move atomically: no observer sees a
// partially moved tree.
func (g *Gateway) Rename(ctx context.Context, caller policy.CallerContext, src, dst string) bool {
	srcParsed, err := policy.ParsePath(src)
	if err != nil {
		return false
	}
	dstParsed, err := policy.ParsePath(dst)
	if err != nil {
		return false
	}

	srcClass := policy.Classify(srcParsed, caller.AppID)
	dstClass := policy.Classify(dstParsed, caller.AppID)
	decision := g.engine.DecideRename(caller, srcClass, dstClass)
	logger.Debug("decide: rename %q (%s) -> %q (%s): %s", src, srcClass, dst, dstClass, decision)
	if !decision.Allowed {
		return false
	}

	if err := g.meta.Rename(ctx, src, dst); err != nil {
		logger.Debug("rename %q -> %q failed: %v", src, dst, err)
		return false
	}
	return true
}
