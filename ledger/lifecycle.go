package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/log"
	"github.com/Wizbisy/anonpoll/storage"
	"github.com/Wizbisy/anonpoll/types"
)

// PollOption is the creation form of a single poll choice.
type PollOption struct {
	Encrypted      types.HexBytes `json:"encryptedOption"`
	EncryptedImage types.HexBytes `json:"encryptedOptionImage,omitempty"`
}

// CreatePollParams carries everything a creator supplies for a new poll.
// Fee is the payment attached to the request; it must match the creation
// fee configured by the node owner exactly.
type CreatePollParams struct {
	Question        types.HexBytes `json:"question"`
	QuestionImage   types.HexBytes `json:"questionImage,omitempty"`
	Options         []PollOption   `json:"options"`
	CommentsAllowed bool           `json:"commentsAllowed"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         time.Time      `json:"endTime"`
	Fee             *types.BigInt  `json:"fee,omitempty"`
}

// CreatePoll validates the parameters, charges the creation fee and stores
// a new poll with every tally initialized to an encrypted zero. The poll
// starts in the active state; whether votes are accepted before StartTime
// is decided per write by the time window.
func (l *Ledger) CreatePoll(creator common.Address, params CreatePollParams) (*types.Poll, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	admin, err := l.stg.AdminState()
	if err != nil {
		return nil, fmt.Errorf("could not load admin state: %w", err)
	}
	if admin.Paused {
		return nil, fmt.Errorf("%w: poll creation is paused", types.ErrState)
	}
	fee := params.Fee
	if fee == nil {
		fee = types.NewInt(0)
	}
	if fee.MathBigInt().Cmp(admin.CreationFee.MathBigInt()) != 0 {
		return nil, fmt.Errorf("%w: creation fee must be exactly %s", types.ErrValidation, admin.CreationFee)
	}
	if err := validatePollParams(params, l.now()); err != nil {
		return nil, err
	}

	poll := &types.Poll{
		Creator:         creator,
		Question:        params.Question,
		QuestionImage:   params.QuestionImage,
		Options:         make([]types.Option, len(params.Options)),
		CommentsAllowed: params.CommentsAllowed,
		StartTime:       params.StartTime.UTC(),
		EndTime:         params.EndTime.UTC(),
		Active:          true,
	}
	for i, opt := range params.Options {
		poll.Options[i] = types.Option{
			Encrypted:      opt.Encrypted,
			EncryptedImage: opt.EncryptedImage,
		}
	}

	pollID, err := l.stg.NewPoll(poll)
	if err != nil {
		return nil, fmt.Errorf("could not store poll: %w", err)
	}
	// any failure past this point rolls the stored poll back, so creation
	// is all or nothing
	for i := range poll.Options {
		zero, err := l.cap.Zero(pollID)
		if err != nil {
			l.rollbackPoll(pollID)
			return nil, fmt.Errorf("could not initialize tally %d: %w", i, err)
		}
		poll.Options[i].Tally = zero
	}
	if err := l.stg.UpdatePoll(pollID, func(p *types.Poll) error {
		p.Options = poll.Options
		return nil
	}); err != nil {
		l.rollbackPoll(pollID)
		return nil, fmt.Errorf("could not initialize tallies: %w", err)
	}

	if fee.MathBigInt().Sign() > 0 {
		if err := l.stg.UpdateAdminState(func(a *storage.AdminState) error {
			a.CollectedFees.Add(a.CollectedFees, fee)
			return nil
		}); err != nil {
			l.rollbackPoll(pollID)
			return nil, fmt.Errorf("could not collect creation fee: %w", err)
		}
	}

	log.Infow("poll created", "pollID", pollID, "creator", creator.Hex(),
		"options", len(poll.Options), "endTime", poll.EndTime)
	l.notify(EventPollCreated, pollID)
	return poll, nil
}

// UpdateMetadata replaces the encrypted question and question image of a
// poll. Only the creator may update metadata, and only while the poll is
// active: votes, options and tallies are untouched. Past EndTime the poll
// expires and the update is rejected.
func (l *Ledger) UpdateMetadata(pollID uint64, caller common.Address, question, questionImage types.HexBytes) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkNotPaused(); err != nil {
		return err
	}
	poll, err := l.poll(pollID)
	if err != nil {
		return err
	}
	if poll.Creator != caller {
		return fmt.Errorf("%w: only the creator can update poll %d", types.ErrAuthorization, pollID)
	}
	if !poll.Active {
		return fmt.Errorf("%w: poll %d is closed", types.ErrState, pollID)
	}
	if l.now().After(poll.EndTime) {
		l.expirePoll(poll)
		return fmt.Errorf("%w: poll %d has ended", types.ErrState, pollID)
	}
	if len(question) == 0 {
		return fmt.Errorf("%w: empty question", types.ErrValidation)
	}
	if err := l.stg.UpdatePoll(pollID, func(p *types.Poll) error {
		p.Question = question
		p.QuestionImage = questionImage
		return nil
	}); err != nil {
		return fmt.Errorf("could not update poll metadata: %w", err)
	}
	log.Infow("poll metadata updated", "pollID", pollID, "caller", caller.Hex())
	l.notify(EventMetadataUpdated, pollID)
	return nil
}

// ClosePoll ends the voting window of a poll before its EndTime. Only the
// creator may close a poll, and closing an already closed poll fails.
func (l *Ledger) ClosePoll(pollID uint64, caller common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkNotPaused(); err != nil {
		return err
	}
	poll, err := l.poll(pollID)
	if err != nil {
		return err
	}
	if poll.Creator != caller {
		return fmt.Errorf("%w: only the creator can close poll %d", types.ErrAuthorization, pollID)
	}
	if !poll.Active || l.now().After(poll.EndTime) {
		return fmt.Errorf("%w: poll %d is already closed", types.ErrState, pollID)
	}
	if err := l.stg.UpdatePoll(pollID, func(p *types.Poll) error {
		p.Active = false
		return nil
	}); err != nil {
		return fmt.Errorf("could not close poll: %w", err)
	}
	log.Infow("poll closed", "pollID", pollID, "caller", caller.Hex())
	l.notify(EventPollClosed, pollID)
	return nil
}

// rollbackPoll removes a poll whose creation failed halfway. Best effort:
// a failed rollback is logged, not surfaced.
func (l *Ledger) rollbackPoll(pollID uint64) {
	if err := l.stg.DeletePoll(pollID); err != nil {
		log.Errorw(err, fmt.Sprintf("could not roll back poll %d", pollID))
	}
}

// checkNotPaused rejects mutating operations while the node is paused.
func (l *Ledger) checkNotPaused() error {
	admin, err := l.stg.AdminState()
	if err != nil {
		return fmt.Errorf("could not load admin state: %w", err)
	}
	if admin.Paused {
		return fmt.Errorf("%w: node is paused", types.ErrState)
	}
	return nil
}

// poll loads a poll, mapping a storage miss to the not-found error class.
func (l *Ledger) poll(pollID uint64) (*types.Poll, error) {
	poll, err := l.stg.Poll(pollID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: poll %d", types.ErrNotFound, pollID)
		}
		return nil, err
	}
	return poll, nil
}

// checkWritable verifies that the poll currently accepts writes. The Active
// flag is a cached derivative of the time window: the first write attempt
// past EndTime flips it to false and persists the transition.
func (l *Ledger) checkWritable(poll *types.Poll) error {
	if !poll.Active {
		return fmt.Errorf("%w: poll %d is closed", types.ErrState, poll.ID)
	}
	now := l.now()
	if now.Before(poll.StartTime) {
		return fmt.Errorf("%w: poll %d has not started yet", types.ErrState, poll.ID)
	}
	if now.After(poll.EndTime) {
		l.expirePoll(poll)
		return fmt.Errorf("%w: poll %d has ended", types.ErrState, poll.ID)
	}
	return nil
}

// expirePoll flips the cached Active flag of a poll whose window has
// passed and emits the closed notification.
func (l *Ledger) expirePoll(poll *types.Poll) {
	if err := l.stg.UpdatePoll(poll.ID, func(p *types.Poll) error {
		p.Active = false
		return nil
	}); err != nil {
		log.Errorw(err, fmt.Sprintf("could not expire poll %d", poll.ID))
		return
	}
	poll.Active = false
	l.notify(EventPollClosed, poll.ID)
}

// validatePollParams checks the structural constraints of a poll creation
// request.
func validatePollParams(params CreatePollParams, now time.Time) error {
	if len(params.Question) == 0 {
		return fmt.Errorf("%w: empty question", types.ErrValidation)
	}
	if len(params.Options) < types.MinOptions || len(params.Options) > types.MaxOptions {
		return fmt.Errorf("%w: option count must be between %d and %d",
			types.ErrValidation, types.MinOptions, types.MaxOptions)
	}
	for i, opt := range params.Options {
		if len(opt.Encrypted) == 0 {
			return fmt.Errorf("%w: empty option %d", types.ErrValidation, i)
		}
	}
	if params.StartTime.Before(now) {
		return fmt.Errorf("%w: start time must not be in the past", types.ErrValidation)
	}
	if !params.EndTime.After(params.StartTime) {
		return fmt.Errorf("%w: end time must be after start time", types.ErrValidation)
	}
	if !params.EndTime.After(now) {
		return fmt.Errorf("%w: end time must be in the future", types.ErrValidation)
	}
	return nil
}
