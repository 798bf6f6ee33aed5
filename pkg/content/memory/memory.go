// Package memory implements an in-memory content store, suitable for
// tests and ephemeral deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/scopedfs/mediagate/pkg/content"
)

// MemoryContentStore keeps blobs in a mutex-guarded map.
type MemoryContentStore struct {
	mu    sync.RWMutex
	blobs map[content.ID][]byte
}

// NewMemoryContentStore builds an empty store.
func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{
		blobs: make(map[content.ID][]byte),
	}
}

// Write implements content.Store. The data is copied, so the caller
// may reuse its buffer.
func (s *MemoryContentStore) Write(ctx context.Context, id content.ID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = buf
	return nil
}

// Read implements content.Store. The returned slice is a copy.
func (s *MemoryContentStore) Read(ctx context.Context, id content.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	buf := make([]byte, len(blob))
	copy(buf, blob)
	return buf, nil
}

// Delete implements content.Store.
func (s *MemoryContentStore) Delete(ctx context.Context, id content.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, id)
	return nil
}

// Exists implements content.Store.
func (s *MemoryContentStore) Exists(ctx context.Context, id content.ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[id]
	return ok, nil
}

// Close implements content.Store.
func (s *MemoryContentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = make(map[content.ID][]byte)
	return nil
}
