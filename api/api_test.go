package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/Wizbisy/anonpoll/admin"
	"github.com/Wizbisy/anonpoll/crypto/confidential"
	"github.com/Wizbisy/anonpoll/crypto/confidential/plaintext"
	"github.com/Wizbisy/anonpoll/db"
	"github.com/Wizbisy/anonpoll/db/metadb"
	"github.com/Wizbisy/anonpoll/ledger"
	"github.com/Wizbisy/anonpoll/storage"
	"github.com/Wizbisy/anonpoll/types"
)

var (
	alice = common.HexToAddress("0x000000000000000000000000000000000000000a")
	bob   = common.HexToAddress("0x000000000000000000000000000000000000000b")
)

type testServer struct {
	*httptest.Server
	ldg   *ledger.Ledger
	clock *fakeClock
}

// fakeClock is a time source safe to advance while server goroutines read it.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	database, err := metadb.New(db.TypePebble, t.TempDir())
	qt.Assert(t, err, qt.IsNil)
	stg := storage.New(database)
	t.Cleanup(stg.Close)

	ldg := ledger.New(stg, plaintext.NewScheme(), ledger.Config{})
	clock := &fakeClock{t: time.Now().UTC()}
	ldg.SetTimeSource(clock.Now)
	a := &API{ledger: ldg, admin: admin.New(stg)}
	a.initRouter()

	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, ldg: ldg, clock: clock}
}

// request performs an HTTP call and decodes the JSON response into out when
// it is non-nil, returning the status code.
func (ts *testServer) request(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		qt.Assert(t, err, qt.IsNil)
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	qt.Assert(t, err, qt.IsNil)
	resp, err := http.DefaultClient.Do(req)
	qt.Assert(t, err, qt.IsNil)
	defer func() { _ = resp.Body.Close() }()
	if out != nil && resp.StatusCode == http.StatusOK {
		qt.Assert(t, json.NewDecoder(resp.Body).Decode(out), qt.IsNil)
	}
	return resp.StatusCode
}

func createPollBody(now time.Time) CreatePollRequest {
	return CreatePollRequest{
		From: alice,
		CreatePollParams: ledger.CreatePollParams{
			Question:        types.HexBytes("encrypted question"),
			CommentsAllowed: true,
			Options: []ledger.PollOption{
				{Encrypted: types.HexBytes("option 0")},
				{Encrypted: types.HexBytes("option 1")},
			},
			StartTime: now,
			EndTime:   now.Add(time.Hour),
		},
	}
}

func voteBody(pollID uint64, com types.HexBytes, option int, weight uint64) ledger.VoteRequest {
	payload := plaintext.Payload(weight)
	binding := confidential.Binding{PollID: pollID, Commitment: com, OptionIndex: option}
	return ledger.VoteRequest{
		PollID:      pollID,
		Commitment:  com,
		OptionIndex: option,
		Payload:     payload,
		Proof:       plaintext.Prove(binding, payload),
	}
}

func commitment(b byte) types.HexBytes {
	c := make(types.HexBytes, types.CommitmentSize)
	c[0] = b
	return c
}

func TestPing(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(t)
	c.Assert(ts.request(t, http.MethodGet, PingEndpoint, nil, nil), qt.Equals, http.StatusOK)
}

func TestInfo(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(t)

	var info InfoResponse
	c.Assert(ts.request(t, http.MethodGet, InfoEndpoint, nil, &info), qt.Equals, http.StatusOK)
	c.Assert(info.RevealProfile, qt.Equals, string(ledger.RevealProfileFinalizer))
	c.Assert(info.MaxVoteWeight, qt.Equals, uint64(ledger.DefaultMaxVoteWeight))
}

func TestPollLifecycle(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(t)
	now := ts.clock.Now()

	// create
	var created CreatePollResponse
	status := ts.request(t, http.MethodPost, PollsEndpoint, createPollBody(now), &created)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(created.PollID, qt.Equals, uint64(1))

	// a poll cannot start in the past
	status = ts.request(t, http.MethodPost, PollsEndpoint, createPollBody(now.Add(-time.Minute)), nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)

	// read back
	var summary types.PollSummary
	path := fmt.Sprintf("/polls/%d", created.PollID)
	c.Assert(ts.request(t, http.MethodGet, path, nil, &summary), qt.Equals, http.StatusOK)
	c.Assert(summary.Status, qt.Equals, types.PollStatusActiveName)
	c.Assert(summary.OptionCount, qt.Equals, 2)

	// list
	var list PollListResponse
	c.Assert(ts.request(t, http.MethodGet, PollsEndpoint, nil, &list), qt.Equals, http.StatusOK)
	c.Assert(len(list.Polls), qt.Equals, 1)

	// polls by creator
	c.Assert(ts.request(t, http.MethodGet, fmt.Sprintf("/accounts/%s/polls", alice.Hex()), nil, &list), qt.Equals, http.StatusOK)
	c.Assert(len(list.Polls), qt.Equals, 1)

	// metadata update by a stranger is forbidden, by the creator accepted
	meta := UpdateMetadataRequest{From: bob, Question: types.HexBytes("q2")}
	status = ts.request(t, http.MethodPut, path+"/metadata", meta, nil)
	c.Assert(status, qt.Equals, http.StatusForbidden)
	meta.From = alice
	status = ts.request(t, http.MethodPut, path+"/metadata", meta, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(ts.request(t, http.MethodGet, path, nil, &summary), qt.Equals, http.StatusOK)
	c.Assert(summary.Question, qt.DeepEquals, types.HexBytes("q2"))

	// close by a stranger is forbidden
	status = ts.request(t, http.MethodPost, path+"/close", CallerRequest{From: bob}, nil)
	c.Assert(status, qt.Equals, http.StatusForbidden)

	// close by the creator
	status = ts.request(t, http.MethodPost, path+"/close", CallerRequest{From: alice}, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	// closing twice conflicts
	status = ts.request(t, http.MethodPost, path+"/close", CallerRequest{From: alice}, nil)
	c.Assert(status, qt.Equals, http.StatusConflict)

	// unknown poll
	c.Assert(ts.request(t, http.MethodGet, "/polls/99", nil, nil), qt.Equals, http.StatusNotFound)
	// malformed poll id
	c.Assert(ts.request(t, http.MethodGet, "/polls/abc", nil, nil), qt.Equals, http.StatusBadRequest)
}

func TestVoteEndpoints(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(t)
	now := ts.clock.Now()

	var created CreatePollResponse
	status := ts.request(t, http.MethodPost, PollsEndpoint, createPollBody(now), &created)
	c.Assert(status, qt.Equals, http.StatusOK)

	com := commitment(1)
	status = ts.request(t, http.MethodPost, VotesEndpoint, voteBody(created.PollID, com, 1, 3), nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	// double vote conflicts
	status = ts.request(t, http.MethodPost, VotesEndpoint, voteBody(created.PollID, com, 0, 1), nil)
	c.Assert(status, qt.Equals, http.StatusConflict)

	// tampered proof
	bad := voteBody(created.PollID, commitment(2), 0, 1)
	bad.Proof[0] ^= 0xff
	status = ts.request(t, http.MethodPost, VotesEndpoint, bad, nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)

	// vote status
	var vs VoteStatusResponse
	path := fmt.Sprintf("/votes/%d/%s", created.PollID, com.String())
	c.Assert(ts.request(t, http.MethodGet, path, nil, &vs), qt.Equals, http.StatusOK)
	c.Assert(vs.Voted, qt.IsTrue)
	c.Assert(vs.EncryptedWeight, qt.DeepEquals, types.HexBytes(plaintext.Payload(3)))

	path = fmt.Sprintf("/votes/%d/%s", created.PollID, commitment(9).String())
	c.Assert(ts.request(t, http.MethodGet, path, nil, &vs), qt.Equals, http.StatusOK)
	c.Assert(vs.Voted, qt.IsFalse)

	// the tallies stay opaque through the options endpoint
	var options []types.Option
	c.Assert(ts.request(t, http.MethodGet, fmt.Sprintf("/polls/%d/options", created.PollID), nil, &options), qt.Equals, http.StatusOK)
	c.Assert(len(options), qt.Equals, 2)
	c.Assert(options[1].Tally, qt.DeepEquals, types.HexBytes(plaintext.Payload(3)))

	// single option lookup, no disclosed count before reveal
	var opt OptionResponse
	c.Assert(ts.request(t, http.MethodGet, fmt.Sprintf("/polls/%d/options/1", created.PollID), nil, &opt), qt.Equals, http.StatusOK)
	c.Assert(opt.Index, qt.Equals, 1)
	c.Assert(opt.Tally, qt.DeepEquals, types.HexBytes(plaintext.Payload(3)))
	c.Assert(opt.RevealedCount, qt.IsNil)
	c.Assert(ts.request(t, http.MethodGet, fmt.Sprintf("/polls/%d/options/7", created.PollID), nil, nil), qt.Equals, http.StatusNotFound)
}

func TestCommentEndpoints(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(t)
	now := ts.clock.Now()

	var created CreatePollResponse
	status := ts.request(t, http.MethodPost, PollsEndpoint, createPollBody(now), &created)
	c.Assert(status, qt.Equals, http.StatusOK)

	com := commitment(1)
	body := ledger.CommentRequest{
		PollID:     created.PollID,
		Commitment: com,
		Body:       types.HexBytes("encrypted comment"),
	}

	// non-voters cannot comment
	status = ts.request(t, http.MethodPost, CommentsEndpoint, body, nil)
	c.Assert(status, qt.Equals, http.StatusForbidden)

	status = ts.request(t, http.MethodPost, VotesEndpoint, voteBody(created.PollID, com, 0, 1), nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	var cr CommentResponse
	status = ts.request(t, http.MethodPost, CommentsEndpoint, body, &cr)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(cr.Index, qt.Equals, uint64(0))

	// comments are fetched per commitment
	var list CommentListResponse
	path := fmt.Sprintf("/polls/%d/comments/%s", created.PollID, com.String())
	c.Assert(ts.request(t, http.MethodGet, path, nil, &list), qt.Equals, http.StatusOK)
	c.Assert(list.Count, qt.Equals, uint64(1))
	c.Assert(list.Comments[0].Body, qt.DeepEquals, types.HexBytes("encrypted comment"))

	// another commitment sees nothing
	path = fmt.Sprintf("/polls/%d/comments/%s", created.PollID, commitment(9).String())
	c.Assert(ts.request(t, http.MethodGet, path, nil, &list), qt.Equals, http.StatusOK)
	c.Assert(list.Count, qt.Equals, uint64(0))
}

func TestRevealEndpoints(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(t)
	now := ts.clock.Now()

	var created CreatePollResponse
	status := ts.request(t, http.MethodPost, PollsEndpoint, createPollBody(now), &created)
	c.Assert(status, qt.Equals, http.StatusOK)
	status = ts.request(t, http.MethodPost, VotesEndpoint, voteBody(created.PollID, commitment(1), 1, 4), nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	// results are not available before the reveal
	resultsPath := fmt.Sprintf("/polls/%d/results", created.PollID)
	c.Assert(ts.request(t, http.MethodGet, resultsPath, nil, nil), qt.Equals, http.StatusConflict)

	// request the reveal once the window is over
	ts.clock.Advance(2 * time.Hour)
	revealPath := fmt.Sprintf("/polls/%d/reveal", created.PollID)
	status = ts.request(t, http.MethodPost, revealPath, CallerRequest{From: alice}, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	// no finalizer is wired here, finalize directly on the ledger
	counts := []*types.BigInt{types.NewInt(0), types.NewInt(4)}
	c.Assert(ts.ldg.FinalizeReveal(created.PollID, counts, nil), qt.IsNil)

	var results ResultsResponse
	c.Assert(ts.request(t, http.MethodGet, resultsPath, nil, &results), qt.Equals, http.StatusOK)
	c.Assert(results.Counts[1].String(), qt.Equals, "4")
}

func TestAdminEndpoints(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(t)
	owner := common.HexToAddress("0x00000000000000000000000000000000000000ff")

	// bootstrap the owner directly through the admin package
	database := ts.ldg.Storage()
	c.Assert(database.UpdateAdminState(func(s *storage.AdminState) error {
		s.Owner = owner
		return nil
	}), qt.IsNil)

	// state is public
	var state storage.AdminState
	c.Assert(ts.request(t, http.MethodGet, AdminEndpoint, nil, &state), qt.Equals, http.StatusOK)
	c.Assert(state.Owner, qt.Equals, owner)

	// owner-gated operations reject strangers
	status := ts.request(t, http.MethodPost, AdminPauseEndpoint, PauseRequest{From: alice, Paused: true}, nil)
	c.Assert(status, qt.Equals, http.StatusForbidden)

	status = ts.request(t, http.MethodPost, AdminPauseEndpoint, PauseRequest{From: owner, Paused: true}, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	// poll creation is now paused
	status = ts.request(t, http.MethodPost, PollsEndpoint, createPollBody(ts.clock.Now()), nil)
	c.Assert(status, qt.Equals, http.StatusConflict)

	status = ts.request(t, http.MethodPost, AdminFeeEndpoint, FeeRequest{From: owner, Fee: types.NewInt(10)}, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	var withdrawn WithdrawResponse
	status = ts.request(t, http.MethodPost, AdminWithdrawEndpoint, CallerRequest{From: owner}, &withdrawn)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(withdrawn.Amount.String(), qt.Equals, "0")

	status = ts.request(t, http.MethodPost, AdminTransferEndpoint, TransferRequest{From: owner, To: bob}, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	c.Assert(ts.request(t, http.MethodGet, AdminEndpoint, nil, &state), qt.Equals, http.StatusOK)
	c.Assert(state.Owner, qt.Equals, bob)
}
