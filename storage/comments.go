package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/Wizbisy/anonpoll/db"
	"github.com/Wizbisy/anonpoll/db/prefixeddb"
	"github.com/Wizbisy/anonpoll/types"
)

// Comments are keyed by (poll, commitment, index). There is no poll-wide
// comment namespace: retrieval requires knowing a commitment, so the full
// comment set of a poll cannot be enumerated.

// AppendComment atomically stores a new encrypted comment under a
// commitment, enforcing the per-commitment quota. It returns the index of
// the comment within the commitment's list, or ErrCommentQuota when the
// commitment has exhausted its quota.
func (s *Storage) AppendComment(pollID uint64, commitment, body types.HexBytes) (uint64, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	wTx := s.db.WriteTx()
	defer wTx.Discard()

	// the stored count is both the quota counter and the next index
	counts := prefixeddb.NewPrefixedWriteTx(wTx, commentCountPrefix)
	countKey := commitmentKey(pollID, commitment)
	var used uint64
	if data, err := counts.Get(countKey); err == nil {
		used = binary.BigEndian.Uint64(data)
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return 0, fmt.Errorf("failed to check comment quota: %w", err)
	}
	if used >= types.MaxCommentsPerVoter {
		return 0, ErrCommentQuota
	}

	comment := &types.Comment{
		Index:      used,
		Commitment: commitment,
		Body:       body,
		Time:       time.Now().UTC(),
	}
	data, err := EncodeArtifact(comment)
	if err != nil {
		return 0, err
	}
	comments := prefixeddb.NewPrefixedWriteTx(wTx, commentPrefix)
	if err := comments.Set(append(countKey, pollKey(used)...), data); err != nil {
		return 0, fmt.Errorf("failed to store comment: %w", err)
	}
	if err := counts.Set(countKey, pollKey(used+1)); err != nil {
		return 0, fmt.Errorf("failed to update comment count: %w", err)
	}
	return used, wTx.Commit()
}

// Comments returns the comments a commitment attached to a poll, in
// insertion order. A commitment with no comments yields an empty slice.
func (s *Storage) Comments(pollID uint64, commitment types.HexBytes) ([]*types.Comment, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	var comments []*types.Comment
	err := prefixeddb.NewPrefixedReader(s.db, commentPrefix).
		Iterate(commitmentKey(pollID, commitment), func(k, v []byte) bool {
			c := &types.Comment{}
			if err := DecodeArtifact(v, c); err != nil {
				return true
			}
			comments = append(comments, c)
			return true
		})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Comment returns a single comment by its index within a commitment's list.
func (s *Storage) Comment(pollID uint64, commitment types.HexBytes, index uint64) (*types.Comment, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	key := append(commitmentKey(pollID, commitment), pollKey(index)...)
	comment := &types.Comment{}
	if err := s.getArtifact(commentPrefix, key, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CommentCount returns how many comments the commitment has attached to
// the poll.
func (s *Storage) CommentCount(pollID uint64, commitment types.HexBytes) (uint64, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	data, err := prefixeddb.NewPrefixedReader(s.db, commentCountPrefix).Get(commitmentKey(pollID, commitment))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}
