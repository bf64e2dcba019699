/*
Package storage provides the persistent storage layer for the poll node.

# Storage Organization

The storage uses a key-value database with prefixed namespaces to organize
the different types of data:

## Poll Management
  - pl/ : pollID → Poll (question, options, encrypted tallies, lifecycle flags)
  - ci/ : creatorAddress + pollID → marker (index of polls per creator)
  - ek/ : pollID → encryption keys for the confidential tally scheme
  - id  : last assigned poll identifier (monotonic counter)

## Vote Tracking
  - vc/ : pollID + commitment → vote record (spent marker plus voter weight)

## Comments
  - cm/ : pollID + commitment + index → Comment (encrypted body)
  - cq/ : pollID + commitment → comment count for this commitment

## Administration
  - ac/ : fixed keys for node ownership, pause flag and creation fees

Poll identifiers and sequence numbers are encoded as 8 big-endian bytes so
lexicographic iteration follows numeric order.
*/
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Wizbisy/anonpoll/db"
	"github.com/Wizbisy/anonpoll/db/prefixeddb"
	"github.com/Wizbisy/anonpoll/log"
)

var (
	ErrKeyAlreadyExists = errors.New("key already exists")
	ErrNotFound         = errors.New("not found")
	ErrCommentQuota     = errors.New("comment quota exhausted")

	// Prefixes
	pollPrefix           = []byte("pl/")
	creatorIndexPrefix   = []byte("ci/")
	voteCommitmentPrefix = []byte("vc/")
	commentPrefix        = []byte("cm/")
	commentCountPrefix   = []byte("cq/")
	encryptionKeyPrefix  = []byte("ek/")
	adminPrefix          = []byte("ac/")
	pollCounterKey       = []byte("id")
)

// Storage manages the poll artifacts over a prefixed key-value database.
// All public methods are safe for concurrent use.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
	cache      *lru.Cache[string, any]
}

// New creates a new Storage instance over the given database.
func New(database db.Database) *Storage {
	cache, err := lru.New[string, any](1000)
	if err != nil {
		log.Fatalf("failed to create LRU cache: %v", err)
	}
	return &Storage{
		db:    database,
		cache: cache,
	}
}

// Close closes the storage.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		log.Errorw(err, "failed to close storage")
	}
}

// setArtifact stores any kind of artifact in the storage under
// prefix + key, encoded with the default encoding.
func (s *Storage) setArtifact(prefix, key []byte, artifact any) error {
	data, err := EncodeArtifact(artifact)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedDatabase(s.db, prefix).WriteTx()
	defer wTx.Discard()
	if err := wTx.Set(key, data); err != nil {
		return err
	}
	return wTx.Commit()
}

// getArtifact retrieves an artifact from the storage. Returns ErrNotFound
// when the key does not exist.
func (s *Storage) getArtifact(prefix, key []byte, out any) error {
	data, err := prefixeddb.NewPrefixedDatabase(s.db, prefix).Get(key)
	if err != nil {
		return ErrNotFound
	}
	if err := DecodeArtifact(data, out); err != nil {
		return fmt.Errorf("could not decode artifact: %w", err)
	}
	return nil
}

// deleteArtifact removes an artifact from the storage.
func (s *Storage) deleteArtifact(prefix, key []byte) error {
	wTx := prefixeddb.NewPrefixedDatabase(s.db, prefix).WriteTx()
	defer wTx.Discard()
	if err := wTx.Delete(key); err != nil {
		return err
	}
	return wTx.Commit()
}

// listArtifacts retrieves all the keys stored under a given prefix.
func (s *Storage) listArtifacts(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	if err := prefixeddb.NewPrefixedReader(s.db, prefix).Iterate(nil, func(k, _ []byte) bool {
		keys = append(keys, append([]byte(nil), k...))
		return true
	}); err != nil {
		return nil, err
	}
	return keys, nil
}

// pollKey encodes a poll identifier as 8 big-endian bytes.
func pollKey(pollID uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, pollID)
}

// pollIDFromKey decodes a poll identifier from its 8 byte key form.
func pollIDFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}

// pollCacheKey builds the LRU cache key for a poll artifact.
func pollCacheKey(pollID uint64) string {
	return fmt.Sprintf("pl/%d", pollID)
}

// creatorIndexKey builds the creator index key: address followed by the
// poll identifier.
func creatorIndexKey(creator common.Address, pollID uint64) []byte {
	return append(creator.Bytes(), pollKey(pollID)...)
}

// commitmentKey builds a per-poll commitment key: poll identifier followed
// by the commitment bytes.
func commitmentKey(pollID uint64, commitment []byte) []byte {
	return append(pollKey(pollID), commitment...)
}

// nextPollID increments and returns the poll identifier counter. Must be
// called with the global lock held.
func (s *Storage) nextPollID() (uint64, error) {
	wTx := s.db.WriteTx()
	defer wTx.Discard()
	var next uint64 = 1
	if data, err := wTx.Get(pollCounterKey); err == nil {
		next = binary.BigEndian.Uint64(data) + 1
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return 0, err
	}
	if err := wTx.Set(pollCounterKey, pollKey(next)); err != nil {
		return 0, err
	}
	return next, wTx.Commit()
}

// TotalPolls returns the number of polls ever created.
func (s *Storage) TotalPolls() (uint64, error) {
	data, err := s.db.Get(pollCounterKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}
