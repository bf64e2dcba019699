package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/Wizbisy/anonpoll/crypto/confidential"
	"github.com/Wizbisy/anonpoll/crypto/confidential/plaintext"
	"github.com/Wizbisy/anonpoll/db"
	"github.com/Wizbisy/anonpoll/db/metadb"
	"github.com/Wizbisy/anonpoll/storage"
	"github.com/Wizbisy/anonpoll/types"
)

var (
	alice = common.HexToAddress("0x000000000000000000000000000000000000000a")
	bob   = common.HexToAddress("0x000000000000000000000000000000000000000b")
	owner = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

// testLedger builds a ledger over a fresh store with a frozen clock and the
// plaintext capability, so tests can move time and read tallies directly.
func testLedger(t *testing.T, cfg Config) (*Ledger, *plaintext.Scheme, *time.Time) {
	t.Helper()
	database, err := metadb.New(db.TypePebble, t.TempDir())
	qt.Assert(t, err, qt.IsNil)
	stg := storage.New(database)
	t.Cleanup(stg.Close)

	scheme := plaintext.NewScheme()
	ldg := New(stg, scheme, cfg)

	now := time.Now().UTC()
	ldg.SetTimeSource(func() time.Time { return now })
	return ldg, scheme, &now
}

func testParams(now time.Time) CreatePollParams {
	return CreatePollParams{
		Question:        types.HexBytes("encrypted question"),
		CommentsAllowed: true,
		Options: []PollOption{
			{Encrypted: types.HexBytes("option 0")},
			{Encrypted: types.HexBytes("option 1")},
			{Encrypted: types.HexBytes("option 2")},
		},
		StartTime: now,
		EndTime:   now.Add(time.Hour),
	}
}

func commitment(b byte) types.HexBytes {
	c := make(types.HexBytes, types.CommitmentSize)
	c[0] = b
	return c
}

func voteRequest(pollID uint64, com types.HexBytes, option int, weight uint64) VoteRequest {
	payload := plaintext.Payload(weight)
	binding := confidential.Binding{PollID: pollID, Commitment: com, OptionIndex: option}
	return VoteRequest{
		PollID:      pollID,
		Commitment:  com,
		OptionIndex: option,
		Payload:     payload,
		Proof:       plaintext.Prove(binding, payload),
	}
}

func TestCreatePoll(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)
	c.Assert(poll.ID, qt.Equals, uint64(1))
	c.Assert(poll.Active, qt.IsTrue)

	// every tally starts as an encrypted zero
	for _, opt := range poll.Options {
		c.Assert(opt.Tally, qt.DeepEquals, plaintext.Payload(0))
	}

	summary, err := ldg.Poll(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(summary.Status, qt.Equals, types.PollStatusActiveName)
	c.Assert(summary.OptionCount, qt.Equals, 3)

	_, err = ldg.Poll(99)
	c.Assert(err, qt.ErrorIs, types.ErrNotFound)
}

func TestCreatePollValidation(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	// empty question
	params := testParams(*now)
	params.Question = nil
	_, err := ldg.CreatePoll(alice, params)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// too few options
	params = testParams(*now)
	params.Options = params.Options[:1]
	_, err = ldg.CreatePoll(alice, params)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// empty option ciphertext
	params = testParams(*now)
	params.Options[1].Encrypted = nil
	_, err = ldg.CreatePoll(alice, params)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// end before start
	params = testParams(*now)
	params.EndTime = params.StartTime.Add(-time.Minute)
	_, err = ldg.CreatePoll(alice, params)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// end in the past
	params = testParams(*now)
	params.StartTime = now.Add(-2 * time.Hour)
	params.EndTime = now.Add(-time.Hour)
	_, err = ldg.CreatePoll(alice, params)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// start in the past, even with a future end
	params = testParams(*now)
	params.StartTime = now.Add(-time.Minute)
	_, err = ldg.CreatePoll(alice, params)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// nothing got persisted along the way
	polls, err := ldg.ListPolls(0, 10)
	c.Assert(err, qt.IsNil)
	c.Assert(polls, qt.HasLen, 0)
}

func TestCreationFeeAndPause(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})
	stg := ldg.Storage()

	err := stg.UpdateAdminState(func(s *storage.AdminState) error {
		s.Owner = owner
		s.CreationFee = types.NewInt(50)
		return nil
	})
	c.Assert(err, qt.IsNil)

	// missing fee
	_, err = ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// underpaying and overpaying both fail, the fee is exact
	params := testParams(*now)
	params.Fee = types.NewInt(49)
	_, err = ldg.CreatePoll(alice, params)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)
	params.Fee = types.NewInt(51)
	_, err = ldg.CreatePoll(alice, params)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// the exact fee is collected
	params.Fee = types.NewInt(50)
	poll, err := ldg.CreatePoll(alice, params)
	c.Assert(err, qt.IsNil)

	state, err := stg.AdminState()
	c.Assert(err, qt.IsNil)
	c.Assert(state.CollectedFees.String(), qt.Equals, "50")

	c.Assert(ldg.CastVote(voteRequest(poll.ID, commitment(1), 0, 2)), qt.IsNil)

	// pausing the node rejects every mutating poll operation
	err = stg.UpdateAdminState(func(s *storage.AdminState) error {
		s.Paused = true
		return nil
	})
	c.Assert(err, qt.IsNil)

	_, err = ldg.CreatePoll(alice, params)
	c.Assert(err, qt.ErrorIs, types.ErrState)
	err = ldg.UpdateMetadata(poll.ID, alice, types.HexBytes("new question"), nil)
	c.Assert(err, qt.ErrorIs, types.ErrState)
	err = ldg.CastVote(voteRequest(poll.ID, commitment(2), 0, 1))
	c.Assert(err, qt.ErrorIs, types.ErrState)
	_, err = ldg.AddComment(CommentRequest{
		PollID:     poll.ID,
		Commitment: commitment(1),
		Body:       types.HexBytes("encrypted comment"),
	})
	c.Assert(err, qt.ErrorIs, types.ErrState)
	err = ldg.ClosePoll(poll.ID, alice)
	c.Assert(err, qt.ErrorIs, types.ErrState)
	err = ldg.RequestReveal(poll.ID, alice)
	c.Assert(err, qt.ErrorIs, types.ErrState)

	// unpausing restores writes
	err = stg.UpdateAdminState(func(s *storage.AdminState) error {
		s.Paused = false
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(ldg.CastVote(voteRequest(poll.ID, commitment(2), 0, 1)), qt.IsNil)
}

func TestCastVote(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)

	c.Assert(ldg.CastVote(voteRequest(poll.ID, commitment(1), 1, 3)), qt.IsNil)
	c.Assert(ldg.CastVote(voteRequest(poll.ID, commitment(2), 0, 5)), qt.IsNil)

	// the tallies accumulated homomorphically
	options, err := ldg.PollOptions(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(options[0].Tally, qt.DeepEquals, plaintext.Payload(5))
	c.Assert(options[1].Tally, qt.DeepEquals, plaintext.Payload(3))
	c.Assert(options[2].Tally, qt.DeepEquals, plaintext.Payload(0))

	summary, err := ldg.Poll(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(summary.VoteCount, qt.Equals, uint64(2))

	// the recorded receipt is the ingested ciphertext handle
	weight, err := ldg.EncryptedWeight(poll.ID, commitment(1))
	c.Assert(err, qt.IsNil)
	c.Assert(weight, qt.DeepEquals, plaintext.Payload(3))
	_, err = ldg.EncryptedWeight(poll.ID, commitment(9))
	c.Assert(err, qt.ErrorIs, types.ErrNotFound)
}

func TestCastVoteRejections(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)

	// double vote
	c.Assert(ldg.CastVote(voteRequest(poll.ID, commitment(1), 0, 1)), qt.IsNil)
	err = ldg.CastVote(voteRequest(poll.ID, commitment(1), 1, 1))
	c.Assert(err, qt.ErrorIs, types.ErrState)

	// the rejected retry left the tallies untouched
	options, err := ldg.PollOptions(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(options[1].Tally, qt.DeepEquals, plaintext.Payload(0))

	// malformed commitment
	err = ldg.CastVote(voteRequest(poll.ID, types.HexBytes{1, 2, 3}, 0, 1))
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// option out of range
	err = ldg.CastVote(voteRequest(poll.ID, commitment(2), 3, 1))
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// a proof bound to a different slot must not verify
	req := voteRequest(poll.ID, commitment(2), 0, 1)
	req.OptionIndex = 1
	err = ldg.CastVote(req)
	c.Assert(err, qt.ErrorIs, confidential.ErrProofVerification)

	// unknown poll
	err = ldg.CastVote(voteRequest(99, commitment(2), 0, 1))
	c.Assert(err, qt.ErrorIs, types.ErrNotFound)
}

func TestLazyExpiry(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)

	// move past the end of the voting window
	*now = now.Add(2 * time.Hour)

	// the first write attempt flips the cached Active flag
	err = ldg.CastVote(voteRequest(poll.ID, commitment(1), 0, 1))
	c.Assert(err, qt.ErrorIs, types.ErrState)

	stored, err := ldg.Storage().Poll(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Active, qt.IsFalse)

	summary, err := ldg.Poll(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(summary.Status, qt.Equals, types.PollStatusClosedName)
}

func TestNotStartedYet(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	params := testParams(*now)
	params.StartTime = now.Add(time.Minute)
	poll, err := ldg.CreatePoll(alice, params)
	c.Assert(err, qt.IsNil)

	err = ldg.CastVote(voteRequest(poll.ID, commitment(1), 0, 1))
	c.Assert(err, qt.ErrorIs, types.ErrState)

	summary, err := ldg.Poll(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(summary.Status, qt.Equals, types.PollStatusUpcomingName)
}

func TestClosePoll(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)

	// only the creator may close
	err = ldg.ClosePoll(poll.ID, bob)
	c.Assert(err, qt.ErrorIs, types.ErrAuthorization)

	c.Assert(ldg.ClosePoll(poll.ID, alice), qt.IsNil)

	// closing twice fails, and so do votes afterwards
	err = ldg.ClosePoll(poll.ID, alice)
	c.Assert(err, qt.ErrorIs, types.ErrState)
	err = ldg.CastVote(voteRequest(poll.ID, commitment(1), 0, 1))
	c.Assert(err, qt.ErrorIs, types.ErrState)
}

func TestUpdateMetadata(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)
	c.Assert(ldg.CastVote(voteRequest(poll.ID, commitment(1), 1, 4)), qt.IsNil)

	// only the creator may update, and the question cannot be emptied
	err = ldg.UpdateMetadata(poll.ID, bob, types.HexBytes("q2"), nil)
	c.Assert(err, qt.ErrorIs, types.ErrAuthorization)
	err = ldg.UpdateMetadata(poll.ID, alice, nil, nil)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	err = ldg.UpdateMetadata(poll.ID, alice, types.HexBytes("q2"), types.HexBytes("img2"))
	c.Assert(err, qt.IsNil)

	summary, err := ldg.Poll(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(summary.Question, qt.DeepEquals, types.HexBytes("q2"))
	c.Assert(summary.QuestionImage, qt.DeepEquals, types.HexBytes("img2"))

	// votes and tallies are untouched by the update
	tally, err := ldg.EncryptedTally(poll.ID, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(tally, qt.DeepEquals, plaintext.Payload(4))
	_, err = ldg.EncryptedTally(poll.ID, 3)
	c.Assert(err, qt.ErrorIs, types.ErrNotFound)

	// no updates on closed polls
	c.Assert(ldg.ClosePoll(poll.ID, alice), qt.IsNil)
	err = ldg.UpdateMetadata(poll.ID, alice, types.HexBytes("q3"), nil)
	c.Assert(err, qt.ErrorIs, types.ErrState)
}

func TestComments(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)

	com := commitment(1)
	body := types.HexBytes("encrypted comment")

	// non-voters cannot comment
	_, err = ldg.AddComment(CommentRequest{PollID: poll.ID, Commitment: com, Body: body})
	c.Assert(err, qt.ErrorIs, types.ErrAuthorization)

	c.Assert(ldg.CastVote(voteRequest(poll.ID, com, 0, 1)), qt.IsNil)

	index, err := ldg.AddComment(CommentRequest{PollID: poll.ID, Commitment: com, Body: body})
	c.Assert(err, qt.IsNil)
	c.Assert(index, qt.Equals, uint64(0))

	comments, err := ldg.Comments(poll.ID, com)
	c.Assert(err, qt.IsNil)
	c.Assert(len(comments), qt.Equals, 1)
	c.Assert(comments[0].Body, qt.DeepEquals, body)

	count, err := ldg.CommentCount(poll.ID, com)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, uint64(1))

	// empty body
	_, err = ldg.AddComment(CommentRequest{PollID: poll.ID, Commitment: com})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// quota exhaustion
	for i := 1; i < types.MaxCommentsPerVoter; i++ {
		_, err = ldg.AddComment(CommentRequest{PollID: poll.ID, Commitment: com, Body: body})
		c.Assert(err, qt.IsNil)
	}
	_, err = ldg.AddComment(CommentRequest{PollID: poll.ID, Commitment: com, Body: body})
	c.Assert(err, qt.ErrorIs, types.ErrState)
}

func TestCommentsDisabled(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	params := testParams(*now)
	params.CommentsAllowed = false
	poll, err := ldg.CreatePoll(alice, params)
	c.Assert(err, qt.IsNil)

	com := commitment(1)
	c.Assert(ldg.CastVote(voteRequest(poll.ID, com, 0, 1)), qt.IsNil)
	_, err = ldg.AddComment(CommentRequest{PollID: poll.ID, Commitment: com, Body: types.HexBytes("hi")})
	c.Assert(err, qt.ErrorIs, types.ErrState)
}

func TestRequestReveal(t *testing.T) {
	c := qt.New(t)
	ldg, scheme, now := testLedger(t, Config{})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)
	c.Assert(ldg.CastVote(voteRequest(poll.ID, commitment(1), 1, 4)), qt.IsNil)

	var hooked []uint64
	ldg.SetRevealHook(func(pollID uint64) { hooked = append(hooked, pollID) })

	// reveal on an open poll fails
	err = ldg.RequestReveal(poll.ID, alice)
	c.Assert(err, qt.ErrorIs, types.ErrState)

	// only the creator may request
	*now = now.Add(2 * time.Hour)
	err = ldg.RequestReveal(poll.ID, bob)
	c.Assert(err, qt.ErrorIs, types.ErrAuthorization)

	c.Assert(ldg.RequestReveal(poll.ID, alice), qt.IsNil)
	c.Assert(hooked, qt.DeepEquals, []uint64{poll.ID})

	// the creator was granted access to the tally handles
	options, err := ldg.PollOptions(poll.ID)
	c.Assert(err, qt.IsNil)
	for _, opt := range options {
		c.Assert(scheme.HasAccess(opt.Tally, alice), qt.IsTrue)
		c.Assert(scheme.HasAccess(opt.Tally, bob), qt.IsFalse)
	}

	// requesting twice fails
	err = ldg.RequestReveal(poll.ID, alice)
	c.Assert(err, qt.ErrorIs, types.ErrState)

	summary, err := ldg.Poll(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(summary.RevealRequested, qt.IsTrue)
	c.Assert(summary.Revealed, qt.IsFalse)
}

func TestFinalizeReveal(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)
	c.Assert(ldg.CastVote(voteRequest(poll.ID, commitment(1), 1, 4)), qt.IsNil)

	counts := []*types.BigInt{types.NewInt(0), types.NewInt(4), types.NewInt(0)}

	// finalize without a request fails
	err = ldg.FinalizeReveal(poll.ID, counts, nil)
	c.Assert(err, qt.ErrorIs, types.ErrState)

	*now = now.Add(2 * time.Hour)
	c.Assert(ldg.RequestReveal(poll.ID, alice), qt.IsNil)

	// mismatched count arrays are rejected
	err = ldg.FinalizeReveal(poll.ID, counts[:2], nil)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	c.Assert(ldg.FinalizeReveal(poll.ID, counts, nil), qt.IsNil)

	results, err := ldg.Results(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(results[1].String(), qt.Equals, "4")

	count, err := ldg.RevealedCount(poll.ID, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(count.String(), qt.Equals, "4")
	_, err = ldg.RevealedCount(poll.ID, 5)
	c.Assert(err, qt.ErrorIs, types.ErrNotFound)

	// the reveal latch is final
	err = ldg.FinalizeReveal(poll.ID, counts, nil)
	c.Assert(err, qt.ErrorIs, types.ErrState)

	summary, err := ldg.Poll(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(summary.Status, qt.Equals, types.PollStatusRevealedName)
}

func TestSubmissionProfile(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{RevealProfile: RevealProfileSubmission})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)
	c.Assert(ldg.CastVote(voteRequest(poll.ID, commitment(1), 2, 7)), qt.IsNil)

	counts := []*types.BigInt{types.NewInt(0), types.NewInt(0), types.NewInt(7)}

	// reveal requests are disabled under this profile
	err = ldg.RequestReveal(poll.ID, alice)
	c.Assert(err, qt.ErrorIs, types.ErrState)

	// submission on an open poll fails
	err = ldg.SubmitResults(poll.ID, alice, counts)
	c.Assert(err, qt.ErrorIs, types.ErrState)

	*now = now.Add(2 * time.Hour)

	// creator only
	err = ldg.SubmitResults(poll.ID, bob, counts)
	c.Assert(err, qt.ErrorIs, types.ErrAuthorization)

	// nil counts are rejected
	err = ldg.SubmitResults(poll.ID, alice, []*types.BigInt{types.NewInt(0), nil, types.NewInt(7)})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	c.Assert(ldg.SubmitResults(poll.ID, alice, counts), qt.IsNil)

	results, err := ldg.Results(poll.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(results[2].String(), qt.Equals, "7")

	// submitting twice fails
	err = ldg.SubmitResults(poll.ID, alice, counts)
	c.Assert(err, qt.ErrorIs, types.ErrState)
}

func TestResultsBeforeReveal(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)

	_, err = ldg.Results(poll.ID)
	c.Assert(err, qt.ErrorIs, types.ErrState)
}

func TestListPolls(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	for i := 0; i < 5; i++ {
		_, err := ldg.CreatePoll(alice, testParams(*now))
		c.Assert(err, qt.IsNil)
	}
	_, err := ldg.CreatePoll(bob, testParams(*now))
	c.Assert(err, qt.IsNil)

	page, err := ldg.ListPolls(0, 4)
	c.Assert(err, qt.IsNil)
	c.Assert(len(page), qt.Equals, 4)
	c.Assert(page[0].ID, qt.Equals, uint64(1))

	page, err = ldg.ListPolls(4, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(len(page), qt.Equals, 2)
	c.Assert(page[0].ID, qt.Equals, uint64(5))

	byBob, err := ldg.PollsByCreator(bob)
	c.Assert(err, qt.IsNil)
	c.Assert(len(byBob), qt.Equals, 1)
	c.Assert(byBob[0].Creator, qt.Equals, bob)
}

func TestEvents(t *testing.T) {
	c := qt.New(t)
	ldg, _, now := testLedger(t, Config{})

	events, cancel := ldg.Subscribe()
	defer cancel()

	poll, err := ldg.CreatePoll(alice, testParams(*now))
	c.Assert(err, qt.IsNil)
	c.Assert(ldg.CastVote(voteRequest(poll.ID, commitment(1), 2, 1)), qt.IsNil)

	ev := <-events
	c.Assert(ev.Type, qt.Equals, EventPollCreated)
	c.Assert(ev.PollID, qt.Equals, poll.ID)
	c.Assert(ev.Commitment, qt.HasLen, 0)

	// vote events carry the commitment and the chosen option
	ev = <-events
	c.Assert(ev.Type, qt.Equals, EventVoteCast)
	c.Assert(ev.PollID, qt.Equals, poll.ID)
	c.Assert(ev.Commitment, qt.DeepEquals, commitment(1))
	c.Assert(ev.OptionIndex, qt.Equals, 2)
}

type failingZeroCapability struct {
	*plaintext.Scheme
}

func (f failingZeroCapability) Zero(uint64) (types.HexBytes, error) {
	return nil, errors.New("no zero today")
}

func TestCreatePollRollback(t *testing.T) {
	c := qt.New(t)
	database, err := metadb.New(db.TypePebble, t.TempDir())
	qt.Assert(t, err, qt.IsNil)
	stg := storage.New(database)
	t.Cleanup(stg.Close)

	ldg := New(stg, failingZeroCapability{plaintext.NewScheme()}, Config{})
	now := time.Now().UTC()
	ldg.SetTimeSource(func() time.Time { return now })

	_, err = ldg.CreatePoll(alice, testParams(now))
	c.Assert(err, qt.IsNotNil)

	// the failed creation left nothing behind
	_, err = ldg.Poll(1)
	c.Assert(err, qt.ErrorIs, types.ErrNotFound)
	polls, err := ldg.ListPolls(0, 10)
	c.Assert(err, qt.IsNil)
	c.Assert(polls, qt.HasLen, 0)
	byAlice, err := ldg.PollsByCreator(alice)
	c.Assert(err, qt.IsNil)
	c.Assert(byAlice, qt.HasLen, 0)
}
