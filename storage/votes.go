package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/Wizbisy/anonpoll/db"
	"github.com/Wizbisy/anonpoll/db/prefixeddb"
	"github.com/Wizbisy/anonpoll/types"
)

// VoteRecord marks a commitment as spent on a poll. The weight is the
// ciphertext handle returned by the capability on ingestion, kept as an
// opaque receipt; the chosen option is deliberately not recorded anywhere.
type VoteRecord struct {
	Weight types.HexBytes `cbor:"0,keyasint"`
	Time   int64          `cbor:"1,keyasint"`
}

// CastVote atomically marks the commitment as spent and persists the
// updated poll (tallies and vote count already advanced by the caller).
// Returns ErrKeyAlreadyExists if the commitment was already spent on this
// poll, leaving the poll untouched.
func (s *Storage) CastVote(poll *types.Poll, commitment, encWeight types.HexBytes) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	wTx := s.db.WriteTx()
	defer wTx.Discard()

	votes := prefixeddb.NewPrefixedWriteTx(wTx, voteCommitmentPrefix)
	key := commitmentKey(poll.ID, commitment)
	if _, err := votes.Get(key); err == nil {
		return ErrKeyAlreadyExists
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return fmt.Errorf("failed to check commitment: %w", err)
	}
	record, err := EncodeArtifact(&VoteRecord{Weight: encWeight, Time: time.Now().Unix()})
	if err != nil {
		return err
	}
	if err := votes.Set(key, record); err != nil {
		return fmt.Errorf("failed to mark commitment as spent: %w", err)
	}

	pollData, err := EncodeArtifact(poll)
	if err != nil {
		return err
	}
	polls := prefixeddb.NewPrefixedWriteTx(wTx, pollPrefix)
	if err := polls.Set(pollKey(poll.ID), pollData); err != nil {
		return fmt.Errorf("failed to store poll: %w", err)
	}

	if err := wTx.Commit(); err != nil {
		return err
	}
	s.cache.Add(pollCacheKey(poll.ID), poll.Clone())
	return nil
}

// HasVoted reports whether the commitment has been spent on the poll.
func (s *Storage) HasVoted(pollID uint64, commitment types.HexBytes) (bool, error) {
	_, err := s.EncryptedWeight(pollID, commitment)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EncryptedWeight returns the ciphertext handle recorded for a spent
// commitment. Returns ErrNotFound if the commitment has not voted on the
// poll.
func (s *Storage) EncryptedWeight(pollID uint64, commitment types.HexBytes) (types.HexBytes, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	record := &VoteRecord{}
	if err := s.getArtifact(voteCommitmentPrefix, commitmentKey(pollID, commitment), record); err != nil {
		return nil, err
	}
	return record.Weight, nil
}
