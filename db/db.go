// Package db defines the key-value database abstraction used by the poll
// store. Implementations must provide read snapshots via Get/Iterate and
// atomic batched writes via WriteTx.
package db

import "errors"

var (
	// ErrKeyNotFound is returned by Get when the key does not exist.
	ErrKeyNotFound = errors.New("key not found")
	// ErrConflict is returned by Commit when the transaction lost a race
	// against a concurrent writer.
	ErrConflict = errors.New("conflict")
)

// Options configures the creation of a Database.
type Options struct {
	Path string
}

// Backend identifiers accepted by metadb.New.
const (
	TypePebble = "pebble"
)

// Database is a complete key-value database with transactional writes.
type Database interface {
	Reader
	// WriteTx starts a new write transaction. The transaction must be
	// finished with Commit or Discard.
	WriteTx() WriteTx
	// Close closes the database and releases its resources.
	Close() error
	// Compact triggers a manual compaction, if the backend supports it.
	Compact() error
}

// Reader is the read-only subset of a database.
type Reader interface {
	// Get retrieves the value for the given key, or ErrKeyNotFound.
	Get(key []byte) ([]byte, error)
	// Iterate calls callback with all key-value pairs whose key starts
	// with prefix, in lexicographic key order, until the callback returns
	// false or the pairs are exhausted. The key passed to the callback
	// excludes the prefix.
	Iterate(prefix []byte, callback func(key, value []byte) bool) error
}

// WriteTx is a set of pending reads and writes applied atomically on Commit.
type WriteTx interface {
	Reader
	// Set adds or replaces a key-value pair in the transaction.
	Set(key, value []byte) error
	// Delete removes a key in the transaction.
	Delete(key []byte) error
	// Apply copies all the pending writes of the other transaction into
	// this one.
	Apply(other WriteTx) error
	// Commit atomically applies all pending writes.
	Commit() error
	// Discard drops the pending writes. Calling Discard after Commit is a
	// no-op, so it is safe to defer.
	Discard()
}
