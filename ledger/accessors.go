package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/types"
)

// Poll returns the read-only projection of a poll at the current time.
func (l *Ledger) Poll(pollID uint64) (*types.PollSummary, error) {
	poll, err := l.poll(pollID)
	if err != nil {
		return nil, err
	}
	return poll.Summary(l.now()), nil
}

// PollOptions returns the encrypted options of a poll, tallies included.
// Tallies stay readable at any time; they are ciphertexts until revealed.
func (l *Ledger) PollOptions(pollID uint64) ([]types.Option, error) {
	poll, err := l.poll(pollID)
	if err != nil {
		return nil, err
	}
	return append([]types.Option(nil), poll.Options...), nil
}

// EncryptedTally returns the running ciphertext tally of a single option.
func (l *Ledger) EncryptedTally(pollID uint64, optionIndex int) (types.HexBytes, error) {
	poll, err := l.poll(pollID)
	if err != nil {
		return nil, err
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, fmt.Errorf("%w: poll %d has no option %d", types.ErrNotFound, pollID, optionIndex)
	}
	return poll.Options[optionIndex].Tally, nil
}

// RevealedCount returns the disclosed count of a single option of a
// revealed poll.
func (l *Ledger) RevealedCount(pollID uint64, optionIndex int) (*types.BigInt, error) {
	poll, err := l.poll(pollID)
	if err != nil {
		return nil, err
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return nil, fmt.Errorf("%w: poll %d has no option %d", types.ErrNotFound, pollID, optionIndex)
	}
	if !poll.Revealed {
		return nil, fmt.Errorf("%w: poll %d is not revealed", types.ErrState, pollID)
	}
	return poll.RevealedVoteCounts[optionIndex], nil
}

// Results returns the disclosed counts of a revealed poll.
func (l *Ledger) Results(pollID uint64) ([]*types.BigInt, error) {
	poll, err := l.poll(pollID)
	if err != nil {
		return nil, err
	}
	if !poll.Revealed {
		return nil, fmt.Errorf("%w: poll %d is not revealed", types.ErrState, pollID)
	}
	return poll.RevealedVoteCounts, nil
}

// ListPolls returns a page of poll summaries ordered by ascending
// identifier, starting after the given identifier.
func (l *Ledger) ListPolls(afterID uint64, limit int) ([]*types.PollSummary, error) {
	if limit <= 0 {
		limit = types.DefaultPageSize
	}
	if limit > types.MaxPageSize {
		limit = types.MaxPageSize
	}
	ids, err := l.stg.ListPolls()
	if err != nil {
		return nil, err
	}
	now := l.now()
	summaries := make([]*types.PollSummary, 0, limit)
	for _, id := range ids {
		if id <= afterID {
			continue
		}
		poll, err := l.poll(id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, poll.Summary(now))
		if len(summaries) == limit {
			break
		}
	}
	return summaries, nil
}

// PollsByCreator returns the summaries of the polls created by an address.
func (l *Ledger) PollsByCreator(creator common.Address) ([]*types.PollSummary, error) {
	ids, err := l.stg.PollsByCreator(creator)
	if err != nil {
		return nil, err
	}
	now := l.now()
	summaries := make([]*types.PollSummary, 0, len(ids))
	for _, id := range ids {
		poll, err := l.poll(id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, poll.Summary(now))
	}
	return summaries, nil
}

// EncryptedWeight returns the ciphertext handle recorded for a spent
// commitment.
func (l *Ledger) EncryptedWeight(pollID uint64, commitment types.HexBytes) (types.HexBytes, error) {
	if _, err := l.poll(pollID); err != nil {
		return nil, err
	}
	weight, err := l.stg.EncryptedWeight(pollID, commitment)
	if err != nil {
		return nil, fmt.Errorf("%w: commitment has not voted on poll %d", types.ErrNotFound, pollID)
	}
	return weight, nil
}
