package storage

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/db/prefixeddb"
	"github.com/Wizbisy/anonpoll/log"
	"github.com/Wizbisy/anonpoll/types"
)

// Poll retrieves a poll from the storage. Returns ErrNotFound if no poll
// exists with the given identifier. Callers always receive their own copy,
// never the cached instance.
func (s *Storage) Poll(pollID uint64) (*types.Poll, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.pollUnsafe(pollID)
}

func (s *Storage) pollUnsafe(pollID uint64) (*types.Poll, error) {
	if cached, ok := s.cache.Get(pollCacheKey(pollID)); ok {
		return cached.(*types.Poll).Clone(), nil
	}
	p := &types.Poll{}
	if err := s.getArtifact(pollPrefix, pollKey(pollID), p); err != nil {
		return nil, err
	}
	s.cache.Add(pollCacheKey(pollID), p)
	return p.Clone(), nil
}

// NewPoll assigns a fresh identifier to the poll, generates its encryption
// keys, stores it and indexes it by creator. The assigned identifier is
// written into the poll and returned.
func (s *Storage) NewPoll(poll *types.Poll) (uint64, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	if poll == nil {
		return 0, fmt.Errorf("nil poll data")
	}
	pollID, err := s.nextPollID()
	if err != nil {
		return 0, fmt.Errorf("failed to assign poll id: %w", err)
	}
	poll.ID = pollID

	if _, _, err := s.fetchOrGenerateEncryptionKeysUnsafe(pollID); err != nil {
		log.Warnw("failed to generate encryption keys for poll",
			"pollID", pollID, "err", err.Error())
	}

	if err := s.setArtifact(pollPrefix, pollKey(pollID), poll); err != nil {
		return 0, fmt.Errorf("failed to store poll: %w", err)
	}
	if err := s.setArtifact(creatorIndexPrefix, creatorIndexKey(poll.Creator, pollID), []byte{1}); err != nil {
		return 0, fmt.Errorf("failed to index poll by creator: %w", err)
	}
	// the cache owns its instance, the caller keeps mutating poll
	s.cache.Add(pollCacheKey(pollID), poll.Clone())
	return pollID, nil
}

// UpdatePoll performs an atomic read-modify-write operation on a poll. Each
// update function is called with the current poll state and can modify it.
// This ensures no race conditions between concurrent poll updates.
func (s *Storage) UpdatePoll(pollID uint64, updateFunc ...func(*types.Poll) error) error {
	if len(updateFunc) == 0 {
		return fmt.Errorf("no update function provided")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	p := &types.Poll{}
	if err := s.getArtifact(pollPrefix, pollKey(pollID), p); err != nil {
		return fmt.Errorf("failed to get poll for update: %w", err)
	}
	for _, f := range updateFunc {
		if err := f(p); err != nil {
			return fmt.Errorf("update function failed: %w", err)
		}
	}
	if err := s.setArtifact(pollPrefix, pollKey(pollID), p); err != nil {
		return fmt.Errorf("failed to save updated poll: %w", err)
	}
	s.cache.Add(pollCacheKey(pollID), p)
	return nil
}

// DeletePoll removes a poll, its creator index entry and its encryption
// keys. Used to roll back a creation that failed after the initial write,
// so a half-initialized poll never becomes visible.
func (s *Storage) DeletePoll(pollID uint64) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	p := &types.Poll{}
	if err := s.getArtifact(pollPrefix, pollKey(pollID), p); err != nil {
		return err
	}
	if err := s.deleteArtifact(pollPrefix, pollKey(pollID)); err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	if err := s.deleteArtifact(creatorIndexPrefix, creatorIndexKey(p.Creator, pollID)); err != nil {
		return fmt.Errorf("failed to delete creator index: %w", err)
	}
	if err := s.deleteArtifact(encryptionKeyPrefix, pollKey(pollID)); err != nil {
		return fmt.Errorf("failed to delete encryption keys: %w", err)
	}
	s.cache.Remove(pollCacheKey(pollID))
	return nil
}

// ListPolls returns the identifiers of all stored polls in ascending order.
func (s *Storage) ListPolls() ([]uint64, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	keys, err := s.listArtifacts(pollPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(keys))
	for _, k := range keys {
		if len(k) != 8 {
			continue
		}
		ids = append(ids, pollIDFromKey(k))
	}
	slices.Sort(ids)
	return ids, nil
}

// PollsByCreator returns the identifiers of the polls created by the given
// address, in ascending order.
func (s *Storage) PollsByCreator(creator common.Address) ([]uint64, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	var ids []uint64
	err := prefixeddb.NewPrefixedReader(s.db, creatorIndexPrefix).
		Iterate(creator.Bytes(), func(k, _ []byte) bool {
			if len(k) == 8 {
				ids = append(ids, pollIDFromKey(k))
			}
			return true
		})
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}
