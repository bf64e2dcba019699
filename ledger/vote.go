package ledger

import (
	"errors"
	"fmt"

	"github.com/Wizbisy/anonpoll/crypto/confidential"
	"github.com/Wizbisy/anonpoll/log"
	"github.com/Wizbisy/anonpoll/storage"
	"github.com/Wizbisy/anonpoll/types"
)

// VoteRequest carries a single weighted vote. The commitment identifies the
// voter without revealing them; payload and proof are the externally
// encrypted weight and the proof binding it to this exact poll, commitment
// and option. The weight itself never appears in cleartext.
type VoteRequest struct {
	PollID      uint64         `json:"pollId"`
	Commitment  types.HexBytes `json:"commitment"`
	OptionIndex int            `json:"optionIndex"`
	Payload     types.HexBytes `json:"payload"`
	Proof       types.HexBytes `json:"proof"`
}

// CastVote applies a weighted vote to a poll. The commitment must not have
// voted before, the poll must be inside its voting window, and the payload
// proof must verify against the vote binding. On success the option tally
// is advanced homomorphically and the commitment is marked spent, both in
// one atomic write; the ingested ciphertext handle is recorded as the vote
// receipt.
func (l *Ledger) CastVote(req VoteRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkNotPaused(); err != nil {
		return err
	}
	poll, err := l.poll(req.PollID)
	if err != nil {
		return err
	}
	if err := l.checkWritable(poll); err != nil {
		return err
	}
	if !types.ValidCommitment(req.Commitment) {
		return fmt.Errorf("%w: commitment must be %d bytes", types.ErrValidation, types.CommitmentSize)
	}
	if req.OptionIndex < 0 || req.OptionIndex >= len(poll.Options) {
		return fmt.Errorf("%w: option index %d out of range", types.ErrValidation, req.OptionIndex)
	}
	if voted, err := l.stg.HasVoted(req.PollID, req.Commitment); err != nil {
		return err
	} else if voted {
		return fmt.Errorf("%w: commitment already voted on poll %d", types.ErrState, req.PollID)
	}

	binding := confidential.Binding{
		PollID:      req.PollID,
		Commitment:  req.Commitment,
		OptionIndex: req.OptionIndex,
	}
	handle, err := l.cap.Ingest(binding, req.Payload, req.Proof)
	if err != nil {
		if errors.Is(err, confidential.ErrProofVerification) {
			return err
		}
		return fmt.Errorf("could not ingest vote payload: %w", err)
	}
	newTally, err := l.cap.Add(req.PollID, poll.Options[req.OptionIndex].Tally, handle)
	if err != nil {
		return fmt.Errorf("could not accumulate vote: %w", err)
	}
	poll.Options[req.OptionIndex].Tally = newTally
	poll.VoteCount++

	// the spent check is replayed inside the storage transaction
	if err := l.stg.CastVote(poll, req.Commitment, handle); err != nil {
		if errors.Is(err, storage.ErrKeyAlreadyExists) {
			return fmt.Errorf("%w: commitment already voted on poll %d", types.ErrState, req.PollID)
		}
		return fmt.Errorf("could not store vote: %w", err)
	}

	log.Debugw("vote cast", "pollID", req.PollID, "option", req.OptionIndex,
		"votes", poll.VoteCount)
	l.notifyVote(req.PollID, req.Commitment, req.OptionIndex)
	return nil
}

// HasVoted reports whether the commitment has been spent on the poll.
func (l *Ledger) HasVoted(pollID uint64, commitment types.HexBytes) (bool, error) {
	if _, err := l.poll(pollID); err != nil {
		return false, err
	}
	return l.stg.HasVoted(pollID, commitment)
}
