// Package contractdb defines the typed key/value prefixes this module
// persists its state under, plus the minimal KV-store and batch
// capability the surrounding federation engine is expected to provide.
// The raw KV store implementation itself is an external collaborator;
// this package only specifies the shape of it.
package contractdb

// KVStore is the narrow read surface this module needs from the
// federation's replicated key/value store.
type KVStore interface {
	// GetValue returns the raw bytes stored at key, or nil if no value
	// is present.
	GetValue(key []byte) ([]byte, error)

	// FindByPrefix returns every (key, value) pair whose key begins
	// with prefix, in an unspecified but stable-for-one-call order.
	FindByPrefix(prefix []byte) ([]KV, error)

	// NewBatch starts a write batch. All ops queued on the batch are
	// invisible to GetValue/FindByPrefix until Commit runs; BoltStore's
	// batch implementation additionally makes each queued op's read see
	// every write already queued earlier in the same batch.
	NewBatch() Batch
}

// KV is one key/value pair returned by a prefix scan.
type KV struct {
	Key   []byte
	Value []byte
}

// Batch accumulates writes for one hook invocation (validate/apply
// input or output, begin/end consensus epoch) and commits them
// atomically.
type Batch interface {
	// InsertNew queues an insert that must fail if key already has a
	// value. Fails immediately (before Commit) against this batch's own
	// queued inserts, and at Commit against the underlying store.
	InsertNew(key, value []byte) error

	// MaybeUpdate queues a read-modify-write: at Commit, update is
	// called with the current value at key (nil if absent); if update
	// returns a nil value with a nil error, the key is left untouched.
	MaybeUpdate(key []byte, update func(old []byte) (newValue []byte, err error))

	// Delete queues a deletion of key. Deleting an absent key is not an
	// error.
	Delete(key []byte)

	// Commit applies every queued op atomically. A failed commit is
	// fatal to the calling epoch; this layer does not retry.
	Commit() error
}
