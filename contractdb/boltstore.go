package contractdb

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btclog"
	"go.etcd.io/bbolt"
)

// log is the package-wide logger, settable via UseLogger the way every
// other package in this module wires btclog.
var log = btclog.Disabled

// UseLogger plugs contractdb's logging into the caller's btclog
// backend.
func UseLogger(logger btclog.Logger) {
	log = logger
}

var rootBucket = []byte("contractdb")

// migration applies an in-place transformation to the root bucket when
// moving a store from one schema version to the next.
type migration func(tx *bbolt.Tx) error

// migrations lists, in order, the transform applied when upgrading
// from version i to version i+1. There have been no schema changes
// since the store's introduction, so this is empty; new entries get
// appended here, never inserted or reordered.
var migrations = []migration{}

var dbVersionKey = []byte("dbversion")

// BoltStore is a bbolt-backed KVStore. One root bucket holds every
// prefixed key this module defines; prefix scans are a cursor seek
// followed by a bytes.HasPrefix walk, the same trick channeldb uses
// for its own sub-indexes.
type BoltStore struct {
	db *bbolt.DB
}

// Open creates or opens a BoltStore at dbPath, running any pending
// migrations before returning.
func Open(dbPath string) (*BoltStore, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to open boltdb: %w", err)
	}

	store := &BoltStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.syncVersions(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *BoltStore) init() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
}

func (s *BoltStore) syncVersions() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(rootBucket)

		var current uint32
		if raw := bucket.Get(dbVersionKey); raw != nil {
			current = byteOrder.Uint32(raw)
		}

		for current < uint32(len(migrations)) {
			log.Infof("contractdb: applying migration %d", current)
			if err := migrations[current](tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", current, err)
			}
			current++
		}

		var buf [4]byte
		byteOrder.PutUint32(buf[:], current)
		return bucket.Put(dbVersionKey, buf[:])
	})
}

// Close releases the underlying bbolt file handle.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Wipe deletes and recreates the root bucket, for test teardown.
func (s *BoltStore) Wipe() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(rootBucket); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(rootBucket)
		return err
	})
}

// GetValue implements KVStore.
func (s *BoltStore) GetValue(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(rootBucket).Get(key)
		if raw != nil {
			value = append([]byte(nil), raw...)
		}
		return nil
	})
	return value, err
}

// FindByPrefix implements KVStore.
func (s *BoltStore) FindByPrefix(prefix []byte) ([]KV, error) {
	var rows []KV
	err := s.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(rootBucket).Cursor()
		for k, v := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cursor.Next() {
			rows = append(rows, KV{
				Key:   append([]byte(nil), k...),
				Value: append([]byte(nil), v...),
			})
		}
		return nil
	})
	return rows, err
}

// NewBatch implements KVStore.
func (s *BoltStore) NewBatch() Batch {
	return &boltBatch{store: s}
}

type batchOp struct {
	key    []byte
	insert bool
	update func(old []byte) ([]byte, error)
	del    bool
}

// boltBatch queues ops and applies them sequentially against a single
// bbolt write transaction at Commit time. Ops run in queue order
// against that one live transaction, so a MaybeUpdate sees writes
// queued earlier in the same batch — there is no pre-batch snapshot
// isolation within a batch.
type boltBatch struct {
	store      *BoltStore
	ops        []batchOp
	err        error
	pendingNew map[string]struct{}
}

func (b *boltBatch) InsertNew(key, value []byte) error {
	if b.err != nil {
		return b.err
	}
	if _, dup := b.pendingNew[string(key)]; dup {
		return fmt.Errorf("%w: key already queued for insert in this batch", ErrKeyCollision)
	}
	if b.pendingNew == nil {
		b.pendingNew = make(map[string]struct{})
	}
	b.pendingNew[string(key)] = struct{}{}

	b.ops = append(b.ops, batchOp{
		key:    key,
		insert: true,
		update: func([]byte) ([]byte, error) { return value, nil },
	})
	return nil
}

func (b *boltBatch) MaybeUpdate(key []byte, update func(old []byte) ([]byte, error)) {
	b.ops = append(b.ops, batchOp{key: key, update: update})
}

func (b *boltBatch) Delete(key []byte) {
	b.ops = append(b.ops, batchOp{key: key, del: true})
}

func (b *boltBatch) Commit() error {
	if b.err != nil {
		return b.err
	}

	return b.store.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(rootBucket)

		for _, op := range b.ops {
			old := bucket.Get(op.key)

			if op.del {
				if err := bucket.Delete(op.key); err != nil {
					return err
				}
				continue
			}

			if op.insert && old != nil {
				return fmt.Errorf("%w: key already present", ErrKeyCollision)
			}

			newValue, err := op.update(old)
			if err != nil {
				return err
			}
			if newValue == nil {
				continue
			}
			if err := bucket.Put(op.key, newValue); err != nil {
				return err
			}
		}

		return nil
	})
}
