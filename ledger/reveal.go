package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/log"
	"github.com/Wizbisy/anonpoll/types"
)

// RequestReveal latches a reveal request on a closed poll. Only available
// under the finalizer profile and only to the poll creator. The creator is
// granted access to the tally handles, and the installed reveal hook is
// fired so the finalizer picks the poll up.
func (l *Ledger) RequestReveal(pollID uint64, caller common.Address) error {
	hook, err := l.requestReveal(pollID, caller)
	if err != nil {
		return err
	}
	if hook != nil {
		hook(pollID)
	}
	return nil
}

func (l *Ledger) requestReveal(pollID uint64, caller common.Address) (func(uint64), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.revealProfile != RevealProfileFinalizer {
		return nil, fmt.Errorf("%w: reveal requests are disabled under the %s profile",
			types.ErrState, l.revealProfile)
	}
	if err := l.checkNotPaused(); err != nil {
		return nil, err
	}
	poll, err := l.poll(pollID)
	if err != nil {
		return nil, err
	}
	if poll.Creator != caller {
		return nil, fmt.Errorf("%w: only the creator can reveal poll %d", types.ErrAuthorization, pollID)
	}
	if err := l.ensureClosed(poll); err != nil {
		return nil, err
	}
	if poll.Revealed {
		return nil, fmt.Errorf("%w: poll %d is already revealed", types.ErrState, pollID)
	}
	if poll.RevealRequested {
		return nil, fmt.Errorf("%w: reveal already requested for poll %d", types.ErrState, pollID)
	}

	for i, opt := range poll.Options {
		if err := l.cap.GrantAccess(opt.Tally, poll.Creator); err != nil {
			return nil, fmt.Errorf("could not grant tally %d access: %w", i, err)
		}
	}
	if err := l.stg.UpdatePoll(pollID, func(p *types.Poll) error {
		p.RevealRequested = true
		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not latch reveal request: %w", err)
	}
	log.Infow("reveal requested", "pollID", pollID, "caller", caller.Hex())
	l.notify(EventRevealRequested, pollID)
	return l.revealHook, nil
}

// FinalizeReveal writes the disclosed counts of a reveal-requested poll.
// It is called by the finalizer once decryption is done; proofs, when
// present, are the per-option decryption proofs. Pausing the node does not
// block finalization of a reveal that is already in flight.
func (l *Ledger) FinalizeReveal(pollID uint64, counts []*types.BigInt, proofs []types.HexBytes) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	poll, err := l.poll(pollID)
	if err != nil {
		return err
	}
	if !poll.RevealRequested {
		return fmt.Errorf("%w: no reveal requested for poll %d", types.ErrState, pollID)
	}
	if poll.Revealed {
		return fmt.Errorf("%w: poll %d is already revealed", types.ErrState, pollID)
	}
	if len(counts) != len(poll.Options) {
		return fmt.Errorf("%w: got %d counts for %d options", types.ErrValidation, len(counts), len(poll.Options))
	}
	if len(proofs) > 0 && len(proofs) != len(poll.Options) {
		return fmt.Errorf("%w: got %d proofs for %d options", types.ErrValidation, len(proofs), len(poll.Options))
	}
	if err := l.stg.UpdatePoll(pollID, func(p *types.Poll) error {
		p.RevealedVoteCounts = counts
		p.RevealProofs = proofs
		p.Revealed = true
		return nil
	}); err != nil {
		return fmt.Errorf("could not finalize reveal: %w", err)
	}
	log.Infow("results finalized", "pollID", pollID, "counts", counts)
	l.notify(EventResultsFinalized, pollID)
	return nil
}

// SubmitResults writes creator-disclosed counts on a closed poll. Only
// available under the submission profile and only to the poll creator.
func (l *Ledger) SubmitResults(pollID uint64, caller common.Address, counts []*types.BigInt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.revealProfile != RevealProfileSubmission {
		return fmt.Errorf("%w: result submission is disabled under the %s profile",
			types.ErrState, l.revealProfile)
	}
	if err := l.checkNotPaused(); err != nil {
		return err
	}
	poll, err := l.poll(pollID)
	if err != nil {
		return err
	}
	if poll.Creator != caller {
		return fmt.Errorf("%w: only the creator can submit results for poll %d", types.ErrAuthorization, pollID)
	}
	if err := l.ensureClosed(poll); err != nil {
		return err
	}
	if poll.Revealed {
		return fmt.Errorf("%w: poll %d is already revealed", types.ErrState, pollID)
	}
	if len(counts) != len(poll.Options) {
		return fmt.Errorf("%w: got %d counts for %d options", types.ErrValidation, len(counts), len(poll.Options))
	}
	for i, c := range counts {
		if c == nil || c.MathBigInt().Sign() < 0 {
			return fmt.Errorf("%w: invalid count for option %d", types.ErrValidation, i)
		}
	}
	if err := l.stg.UpdatePoll(pollID, func(p *types.Poll) error {
		p.RevealedVoteCounts = counts
		p.Revealed = true
		return nil
	}); err != nil {
		return fmt.Errorf("could not store submitted results: %w", err)
	}
	log.Infow("results submitted", "pollID", pollID, "caller", caller.Hex(), "counts", counts)
	l.notify(EventResultsFinalized, pollID)
	return nil
}

// ensureClosed verifies that the poll no longer accepts votes, flipping the
// cached Active flag when the time window has passed without a write.
func (l *Ledger) ensureClosed(poll *types.Poll) error {
	if !poll.Active {
		return nil
	}
	if !l.now().After(poll.EndTime) {
		return fmt.Errorf("%w: poll %d is still open", types.ErrState, poll.ID)
	}
	if err := l.stg.UpdatePoll(poll.ID, func(p *types.Poll) error {
		p.Active = false
		return nil
	}); err != nil {
		return fmt.Errorf("could not expire poll %d: %w", poll.ID, err)
	}
	poll.Active = false
	l.notify(EventPollClosed, poll.ID)
	return nil
}
