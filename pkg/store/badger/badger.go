// Package badger implements a metadata store persisted in BadgerDB.
//
// Each node in the shared storage tree is one key-value pair under the
// "n:" prefix, keyed by canonical path. The flat keyspace makes
// directory listings a bounded prefix scan and makes Rename a
// transactional re-key of the subtree prefix.
package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/scopedfs/mediagate/pkg/content"
	"github.com/scopedfs/mediagate/pkg/store"
)

// nodePrefix namespaces node records in the database.
const nodePrefix = "n:"

// BadgerMetadataStore persists the shared storage tree in BadgerDB.
//
// Thread safety: Badger transactions give atomicity, but the store
// additionally serializes mutations with a mutex so that a Rename
// never has to retry on transaction conflict. Reads take the shared
// side of the lock and run in read-only transactions.
type BadgerMetadataStore struct {
	mu sync.RWMutex
	db *badger.DB
}

// Config contains the settings for a Badger metadata store.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps the whole database in memory. Used by tests.
	InMemory bool
}

// nodeRecord is the stored representation of a node. The name is not
// stored: it is derived from the key.
type nodeRecord struct {
	Dir       bool       `json:"dir"`
	Size      uint64     `json:"size,omitempty"`
	ContentID content.ID `json:"content_id,omitempty"`
	ModTime   time.Time  `json:"mtime"`
}

// NewBadgerMetadataStore opens the database and creates the root
// directory record if the database is fresh.
func NewBadgerMetadataStore(cfg Config) (*BadgerMetadataStore, error) {
	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	s := &BadgerMetadataStore{db: db}
	if err := s.ensureRoot(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// ensureRoot writes the root record if it does not exist yet.
func (s *BadgerMetadataStore) ensureRoot() error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(nodePrefix))
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to read root record: %w", err)
		}
		return putRecord(txn, "", &nodeRecord{Dir: true, ModTime: time.Now()})
	})
}

// entryKey builds the database key for a canonical path.
func entryKey(k string) []byte {
	return []byte(nodePrefix + k)
}

// canonical converts a store path into the canonical key form.
func canonical(path string) (string, error) {
	segments, err := store.SplitPath(path)
	if err != nil {
		return "", err
	}
	return strings.Join(segments, "/"), nil
}

func parentKey(k string) string {
	idx := strings.LastIndexByte(k, '/')
	if idx < 0 {
		return ""
	}
	return k[:idx]
}

func baseName(k string) string {
	idx := strings.LastIndexByte(k, '/')
	if idx < 0 {
		return k
	}
	return k[idx+1:]
}

// getRecord reads and decodes a node record inside a transaction.
func getRecord(txn *badger.Txn, k string) (*nodeRecord, error) {
	item, err := txn.Get(entryKey(k))
	if err != nil {
		return nil, err
	}

	var rec nodeRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode node record %q: %w", k, err)
	}
	return &rec, nil
}

// putRecord encodes and writes a node record inside a transaction.
func putRecord(txn *badger.Txn, k string, rec *nodeRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode node record %q: %w", k, err)
	}
	return txn.Set(entryKey(k), val)
}

// toNode converts a stored record to the public node type.
func toNode(k string, rec *nodeRecord) *store.Node {
	return &store.Node{
		Name:      baseName(k),
		Dir:       rec.Dir,
		Size:      rec.Size,
		ContentID: rec.ContentID,
		ModTime:   rec.ModTime,
	}
}

// notFound maps badger.ErrKeyNotFound onto the store error space.
func notFound(err error, path string) error {
	if err == badger.ErrKeyNotFound {
		return &store.StoreError{Code: store.ErrNotFound, Message: "no such entry", Path: path}
	}
	return &store.StoreError{Code: store.ErrIOError, Message: err.Error(), Path: path}
}

// Stat implements store.MetadataStore.
func (s *BadgerMetadataStore) Stat(ctx context.Context, path string) (*store.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := canonical(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var node *store.Node
	err = s.db.View(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, k)
		if err != nil {
			return notFound(err, path)
		}
		node = toNode(k, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// List implements store.MetadataStore with a prefix scan bounded to
// direct children.
func (s *BadgerMetadataStore) List(ctx context.Context, path string) ([]store.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := canonical(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []store.Node
	err = s.db.View(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, k)
		if err != nil {
			return notFound(err, path)
		}
		if !rec.Dir {
			return &store.StoreError{Code: store.ErrNotDirectory, Message: "not a directory", Path: path}
		}

		prefix := childScanPrefix(k)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			childKey := string(item.Key())[len(nodePrefix):]
			rest := childKey[len(prefix)-len(nodePrefix):]

			// Skip the directory's own record and anything deeper
			// than one level.
			if rest == "" || strings.ContainsRune(rest, '/') {
				continue
			}

			var childRec nodeRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &childRec)
			})
			if err != nil {
				return fmt.Errorf("failed to decode node record %q: %w", childKey, err)
			}
			entries = append(entries, *toNode(childKey, &childRec))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// childScanPrefix returns the database key prefix covering the direct
// children (and, deeper, all descendants) of a directory key.
func childScanPrefix(k string) string {
	if k == "" {
		return nodePrefix
	}
	return nodePrefix + k + "/"
}

// checkParent verifies the parent of k exists and is a directory.
func checkParent(txn *badger.Txn, k, path string) error {
	parent, err := getRecord(txn, parentKey(k))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return &store.StoreError{Code: store.ErrNotFound, Message: "parent does not exist", Path: path}
		}
		return &store.StoreError{Code: store.ErrIOError, Message: err.Error(), Path: path}
	}
	if !parent.Dir {
		return &store.StoreError{Code: store.ErrNotDirectory, Message: "parent is not a directory", Path: path}
	}
	return nil
}

// create inserts a fresh node record after the usual checks.
func (s *BadgerMetadataStore) create(ctx context.Context, path string, rec *nodeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := canonical(path)
	if err != nil {
		return err
	}
	if k == "" {
		return &store.StoreError{Code: store.ErrAlreadyExists, Message: "root already exists", Path: path}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := checkParent(txn, k, path); err != nil {
			return err
		}
		if _, err := txn.Get(entryKey(k)); err == nil {
			return &store.StoreError{Code: store.ErrAlreadyExists, Message: "entry already exists", Path: path}
		} else if err != badger.ErrKeyNotFound {
			return &store.StoreError{Code: store.ErrIOError, Message: err.Error(), Path: path}
		}
		return putRecord(txn, k, rec)
	})
}

// Mkdir implements store.MetadataStore.
func (s *BadgerMetadataStore) Mkdir(ctx context.Context, path string) error {
	return s.create(ctx, path, &nodeRecord{Dir: true, ModTime: time.Now()})
}

// CreateFile implements store.MetadataStore.
func (s *BadgerMetadataStore) CreateFile(ctx context.Context, path string, contentID content.ID, size uint64) error {
	return s.create(ctx, path, &nodeRecord{
		Size:      size,
		ContentID: contentID,
		ModTime:   time.Now(),
	})
}

// SetContent implements store.MetadataStore.
func (s *BadgerMetadataStore) SetContent(ctx context.Context, path string, contentID content.ID, size uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := canonical(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, k)
		if err != nil {
			return notFound(err, path)
		}
		if rec.Dir {
			return &store.StoreError{Code: store.ErrIsDirectory, Message: "cannot write directory content", Path: path}
		}

		rec.ContentID = contentID
		rec.Size = size
		rec.ModTime = time.Now()
		return putRecord(txn, k, rec)
	})
}

// Remove implements store.MetadataStore.
func (s *BadgerMetadataStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, err := canonical(path)
	if err != nil {
		return err
	}
	if k == "" {
		return &store.StoreError{Code: store.ErrInvalidArgument, Message: "cannot remove root", Path: path}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, k)
		if err != nil {
			return notFound(err, path)
		}
		if rec.Dir {
			empty, err := subtreeEmpty(txn, k)
			if err != nil {
				return err
			}
			if !empty {
				return &store.StoreError{Code: store.ErrNotEmpty, Message: "directory not empty", Path: path}
			}
		}
		return txn.Delete(entryKey(k))
	})
}

// subtreeEmpty reports whether a directory key has any descendants.
func subtreeEmpty(txn *badger.Txn, k string) (bool, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(childScanPrefix(k))
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	it.Rewind()
	return !it.Valid(), nil
}

// Rename implements store.MetadataStore by re-keying the source
// subtree inside a single transaction, which makes the move atomic:
// a reader transaction sees either all old keys or all new ones.
func (s *BadgerMetadataStore) Rename(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	srcKey, err := canonical(src)
	if err != nil {
		return err
	}
	dstKey, err := canonical(dst)
	if err != nil {
		return err
	}
	if srcKey == "" || dstKey == "" {
		return &store.StoreError{Code: store.ErrInvalidArgument, Message: "cannot rename the root"}
	}
	if srcKey == dstKey {
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

	return s.db.Update(func(txn *badger.Txn) error {
		srcRec, err := getRecord(txn, srcKey)
		if err != nil {
			return notFound(err, src)
		}
		if err := checkParent(txn, dstKey, dst); err != nil {
			return err
		}

		if dstRec, err := getRecord(txn, dstKey); err == nil {
			switch {
			case srcRec.Dir && !dstRec.Dir:
				return &store.StoreError{Code: store.ErrNotDirectory, Message: "cannot rename directory over file", Path: dst}
			case !srcRec.Dir && dstRec.Dir:
				return &store.StoreError{Code: store.ErrIsDirectory, Message: "cannot rename file over directory", Path: dst}
			case srcRec.Dir:
				empty, err := subtreeEmpty(txn, dstKey)
				if err != nil {
					return err
				}
				if !empty {
					return &store.StoreError{Code: store.ErrNotEmpty, Message: "destination directory not empty", Path: dst}
				}
			}
			if err := txn.Delete(entryKey(dstKey)); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return &store.StoreError{Code: store.ErrIOError, Message: err.Error(), Path: dst}
		}

		// Collect the subtree first: the iterator must not observe
		// this transaction's own writes.
		type movedEntry struct {
			oldKey string
			value  []byte
		}
		moved := make([]movedEntry, 0, 8)

		srcVal, err := txn.Get(entryKey(srcKey))
		if err != nil {
			return notFound(err, src)
		}
		val, err := srcVal.ValueCopy(nil)
		if err != nil {
			return &store.StoreError{Code: store.ErrIOError, Message: err.Error(), Path: src}
		}
		moved = append(moved, movedEntry{oldKey: srcKey, value: val})

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(childScanPrefix(srcKey))

		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := string(item.Key())[len(nodePrefix):]
			v, err := item.ValueCopy(nil)
			if err != nil {
				it.Close()
				return &store.StoreError{Code: store.ErrIOError, Message: err.Error(), Path: k}
			}
			moved = append(moved, movedEntry{oldKey: k, value: v})
		}
		it.Close()

		for _, entry := range moved {
			newKey := dstKey + entry.oldKey[len(srcKey):]
			if err := txn.Set(entryKey(newKey), entry.value); err != nil {
				return err
			}
			if err := txn.Delete(entryKey(entry.oldKey)); err != nil {
				return err
			}
		}

		// Refresh the moved root's timestamp.
		var rec nodeRecord
		if err := json.Unmarshal(moved[0].value, &rec); err != nil {
			return fmt.Errorf("failed to decode node record %q: %w", srcKey, err)
		}
		rec.ModTime = time.Now()
		return putRecord(txn, dstKey, &rec)
	})
}

// Close implements store.MetadataStore.
func (s *BadgerMetadataStore) Close() error {
	return s.db.Close()
}
