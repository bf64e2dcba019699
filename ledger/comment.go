package ledger

import (
	"errors"
	"fmt"

	"github.com/Wizbisy/anonpoll/log"
	"github.com/Wizbisy/anonpoll/storage"
	"github.com/Wizbisy/anonpoll/types"
)

// CommentRequest attaches an encrypted comment to a poll. The commitment
// must have voted on the poll already; the body is an opaque ciphertext the
// node never interprets.
type CommentRequest struct {
	PollID     uint64         `json:"pollId"`
	Commitment types.HexBytes `json:"commitment"`
	Body       types.HexBytes `json:"encryptedBody"`
}

// AddComment stores an encrypted comment on a poll. Comments are only
// accepted while the poll is writable, only on polls created with comments
// enabled, only from commitments that have voted, and only up to the
// per-commitment quota. Returns the index of the comment within the
// commitment's list.
func (l *Ledger) AddComment(req CommentRequest) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkNotPaused(); err != nil {
		return 0, err
	}
	poll, err := l.poll(req.PollID)
	if err != nil {
		return 0, err
	}
	if err := l.checkWritable(poll); err != nil {
		return 0, err
	}
	if !poll.CommentsAllowed {
		return 0, fmt.Errorf("%w: poll %d does not accept comments", types.ErrState, req.PollID)
	}
	if !types.ValidCommitment(req.Commitment) {
		return 0, fmt.Errorf("%w: commitment must be %d bytes", types.ErrValidation, types.CommitmentSize)
	}
	if len(req.Body) == 0 {
		return 0, fmt.Errorf("%w: empty comment body", types.ErrValidation)
	}
	voted, err := l.stg.HasVoted(req.PollID, req.Commitment)
	if err != nil {
		return 0, err
	}
	if !voted {
		return 0, fmt.Errorf("%w: only voters can comment on poll %d", types.ErrAuthorization, req.PollID)
	}

	index, err := l.stg.AppendComment(req.PollID, req.Commitment, req.Body)
	if err != nil {
		if errors.Is(err, storage.ErrCommentQuota) {
			return 0, fmt.Errorf("%w: comment quota of %d exhausted", types.ErrState, types.MaxCommentsPerVoter)
		}
		return 0, fmt.Errorf("could not store comment: %w", err)
	}
	log.Debugw("comment added", "pollID", req.PollID, "index", index)
	l.notify(EventCommentAdded, req.PollID)
	return index, nil
}

// Comments returns the comments a commitment attached to a poll, in
// insertion order. Comments are only reachable through a known commitment;
// a poll's full comment set cannot be enumerated.
func (l *Ledger) Comments(pollID uint64, commitment types.HexBytes) ([]*types.Comment, error) {
	if _, err := l.poll(pollID); err != nil {
		return nil, err
	}
	if !types.ValidCommitment(commitment) {
		return nil, fmt.Errorf("%w: commitment must be %d bytes", types.ErrValidation, types.CommitmentSize)
	}
	return l.stg.Comments(pollID, commitment)
}

// CommentCount returns how many comments a commitment attached to a poll.
func (l *Ledger) CommentCount(pollID uint64, commitment types.HexBytes) (uint64, error) {
	if _, err := l.poll(pollID); err != nil {
		return 0, err
	}
	return l.stg.CommentCount(pollID, commitment)
}
