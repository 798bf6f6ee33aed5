// Package memory implements an in-memory metadata store.
//
// The store is backed by two mutex-guarded maps: a node table keyed
// by canonical path, and a children index keyed by directory path.
// It is the store of choice for tests and for ephemeral gateways.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scopedfs/mediagate/pkg/content"
	"github.com/scopedfs/mediagate/pkg/store"
)

// MemoryMetadataStore keeps the whole shared storage tree in memory.
//
// Thread safety: a single read-write mutex protects both maps. The
// coarse lock keeps Rename trivially atomic — the subtree is re-keyed
// entirely inside one critical section, so concurrent readers observe
// the move as a single step.
type MemoryMetadataStore struct {
	mu sync.RWMutex

	// nodes maps canonical paths ("" is the root, "a/b" below it) to
	// node metadata.
	nodes map[string]*store.Node

	// children maps each directory's canonical path to the set of its
	// child names.
	children map[string]map[string]bool
}

// NewMemoryMetadataStore builds a store containing only the root
// directory.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	s := &MemoryMetadataStore{
		nodes:    make(map[string]*store.Node),
		children: make(map[string]map[string]bool),
	}
	s.nodes[""] = &store.Node{Name: "", Dir: true, ModTime: time.Now()}
	s.children[""] = make(map[string]bool)
	return s
}

// key canonicalizes a store path into the internal map key.
func key(path string) (string, error) {
	segments, err := store.SplitPath(path)
	if err != nil {
		return "", err
	}
	return strings.Join(segments, "/"), nil
}

// parentKey returns the key of the parent directory.
func parentKey(k string) string {
	idx := strings.LastIndexByte(k, '/')
	if idx < 0 {
		return ""
	}
	return k[:idx]
}

// baseName returns the final segment of a key.
func baseName(k string) string {
	idx := strings.LastIndexByte(k, '/')
	if idx < 0 {
		return k
	}
	return k[idx+1:]
}

// Stat implements store.MetadataStore.
func (s *MemoryMetadataStore) Stat(ctx context.Context, path string) (*store.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := key(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[k]
	if !ok {
		return nil, &store.StoreError{Code: store.ErrNotFound, Message: "no such entry", Path: path}
	}
	cp := *node
	return &cp, nil
}

// List implements store.MetadataStore.
func (s *MemoryMetadataStore) List(ctx context.Context, path string) ([]store.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := key(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[k]
	if !ok {
		return nil, &store.StoreError{Code: store.ErrNotFound, Message: "no such entry", Path: path}
	}
	if !node.Dir {
		return nil, &store.StoreError{Code: store.ErrNotDirectory, Message: "not a directory", Path: path}
	}

	names := make([]string, 0, len(s.children[k]))
	for name := range s.children[k] {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]store.Node, 0, len(names))
	for _, name := range names {
		entries = append(entries, *s.nodes[childKey(k, name)])
	}
	return entries, nil
}

// Mkdir implements store.MetadataStore.
func (s *MemoryMetadataStore) Mkdir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := key(path)
	if err != nil {
		return err
	}
	if k == "" {
		return &store.StoreError{Code: store.ErrAlreadyExists, Message: "root already exists", Path: path}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkParent(k, path); err != nil {
		return err
	}
	if _, exists := s.nodes[k]; exists {
		return &store.StoreError{Code: store.ErrAlreadyExists, Message: "entry already exists", Path: path}
	}

	s.nodes[k] = &store.Node{Name: baseName(k), Dir: true, ModTime: time.Now()}
	s.children[k] = make(map[string]bool)
	s.children[parentKey(k)][baseName(k)] = true
	return nil
}

// CreateFile implements store.MetadataStore.
func (s *MemoryMetadataStore) CreateFile(ctx context.Context, path string, contentID content.ID, size uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := key(path)
	if err != nil {
		return err
	}
	if k == "" {
		return &store.StoreError{Code: store.ErrIsDirectory, Message: "cannot create file over root", Path: path}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkParent(k, path); err != nil {
		return err
	}
	if _, exists := s.nodes[k]; exists {
		return &store.StoreError{Code: store.ErrAlreadyExists, Message: "entry already exists", Path: path}
	}

	s.nodes[k] = &store.Node{
		Name:      baseName(k),
		Size:      size,
		ContentID: contentID,
		ModTime:   time.Now(),
	}
	s.children[parentKey(k)][baseName(k)] = true
	return nil
}

// SetContent implements store.MetadataStore.
func (s *MemoryMetadataStore) SetContent(ctx context.Context, path string, contentID content.ID, size uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := key(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[k]
	if !ok {
		return &store.StoreError{Code: store.ErrNotFound, Message: "no such entry", Path: path}
	}
	if node.Dir {
		return &store.StoreError{Code: store.ErrIsDirectory, Message: "cannot write directory content", Path: path}
	}

	node.ContentID = contentID
	node.Size = size
	node.ModTime = time.Now()
	return nil
}

// Remove implements store.MetadataStore.
func (s *MemoryMetadataStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := key(path)
	if err != nil {
		return err
	}
	if k == "" {
		return &store.StoreError{Code: store.ErrInvalidArgument, Message: "cannot remove root", Path: path}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[k]
	if !ok {
		return &store.StoreError{Code: store.ErrNotFound, Message: "no such entry", Path: path}
	}
	if node.Dir && len(s.children[k]) > 0 {
		return &store.StoreError{Code: store.ErrNotEmpty, Message: "directory not empty", Path: path}
	}

	delete(s.nodes, k)
	delete(s.children, k)
	delete(s.children[parentKey(k)], baseName(k))
	return nil
}

// Rename implements store.MetadataStore as an atomic subtree re-key.
func (s *MemoryMetadataStore) Rename(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	srcKey, err := key(src)
	if err != nil {
		return err
	}
	dstKey, err := key(dst)
	if err != nil {
		return err
	}
	if srcKey == "" || dstKey == "" {
		return &store.StoreError{Code: store.ErrInvalidArgument, Message: "cannot rename the root"}
	}
	if dstKey == srcKey {
		// Same location: a no-op success.
		return nil
	}
	if strings.HasPrefix(dstKey, srcKey+"/") {
		return &store.StoreError{
			Code:    store.ErrInvalidArgument,
			Message: fmt.Sprintf("destination %q is inside source %q", dst, src),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	srcNode, ok := s.nodes[srcKey]
	if !ok {
		return &store.StoreError{Code: store.ErrNotFound, Message: "no such entry", Path: src}
	}
	if err := s.checkParent(dstKey, dst); err != nil {
		return err
	}

	// Collision handling: file may replace file, directory may
	// replace an empty directory, nothing else.
	if dstNode, exists := s.nodes[dstKey]; exists {
		switch {
		case srcNode.Dir && !dstNode.Dir:
			return &store.StoreError{Code: store.ErrNotDirectory, Message: "cannot rename directory over file", Path: dst}
		case !srcNode.Dir && dstNode.Dir:
			return &store.StoreError{Code: store.ErrIsDirectory, Message: "cannot rename file over directory", Path: dst}
		case srcNode.Dir && len(s.children[dstKey]) > 0:
			return &store.StoreError{Code: store.ErrNotEmpty, Message: "destination directory not empty", Path: dst}
		}
		delete(s.nodes, dstKey)
		delete(s.children, dstKey)
		delete(s.children[parentKey(dstKey)], baseName(dstKey))
	}

	// Re-key the source node and its whole subtree in one critical
	// section. Collect first: map iteration during mutation is not
	// allowed.
	moved := []string{srcKey}
	prefix := srcKey + "/"
	for k := range s.nodes {
		if strings.HasPrefix(k, prefix) {
			moved = append(moved, k)
		}
	}

	for _, oldKey := range moved {
		newKey := dstKey + oldKey[len(srcKey):]

		node := s.nodes[oldKey]
		node.Name = baseName(newKey)
		s.nodes[newKey] = node
		delete(s.nodes, oldKey)

		if kids, ok := s.children[oldKey]; ok {
			s.children[newKey] = kids
			delete(s.children, oldKey)
		}
	}

	delete(s.children[parentKey(srcKey)], baseName(srcKey))
	s.children[parentKey(dstKey)][baseName(dstKey)] = true

	now := time.Now()
	s.nodes[dstKey].ModTime = now
	s.nodes[parentKey(srcKey)].ModTime = now
	s.nodes[parentKey(dstKey)].ModTime = now
	return nil
}

// Close implements store.MetadataStore.
func (s *MemoryMetadataStore) Close() error {
	return nil
}

// checkParent verifies the parent of key k exists and is a directory.
// Callers must hold the lock.
func (s *MemoryMetadataStore) checkParent(k, path string) error {
	parent, ok := s.nodes[parentKey(k)]
	if !ok {
		return &store.StoreError{Code: store.ErrNotFound, Message: "parent does not exist", Path: path}
	}
	if !parent.Dir {
		return &store.StoreError{Code: store.ErrNotDirectory, Message: "parent is not a directory", Path: path}
	}
	return nil
}

// childKey joins a directory key and a child name.
func childKey(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
