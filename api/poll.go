package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/Wizbisy/anonpoll/types"
)

// createPoll validates and stores a new poll.
// POST /polls
func (a *API) createPoll(w http.ResponseWriter, r *http.Request) {
	var req CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	if req.From == (common.Address{}) {
		ErrMalformedAddress.With("missing from address").Write(w)
		return
	}
	poll, err := a.ledger.CreatePoll(req.From, req.CreatePollParams)
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, CreatePollResponse{PollID: poll.ID})
}

// listPolls returns a page of poll summaries.
// GET /polls?after=<id>&limit=<n>
func (a *API) listPolls(w http.ResponseWriter, r *http.Request) {
	after, err := queryParamUint(r, "after", 0)
	if err != nil {
		ErrMalformedParam.Withf("could not parse after: %v", err).Write(w)
		return
	}
	limit, err := queryParamUint(r, "limit", types.DefaultPageSize)
	if err != nil {
		ErrMalformedParam.Withf("could not parse limit: %v", err).Write(w)
		return
	}
	polls, err := a.ledger.ListPolls(after, int(limit))
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, PollListResponse{Polls: polls})
}

// poll returns the summary of a single poll.
// GET /polls/{pollId}
func (a *API) poll(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	summary, err := a.ledger.Poll(pollID)
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, summary)
}

// updateMetadata replaces the encrypted question fields of a poll.
// PUT /polls/{pollId}/metadata
func (a *API) updateMetadata(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	var req UpdateMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	if err := a.ledger.UpdateMetadata(pollID, req.From, req.Question, req.QuestionImage); err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// pollOptions returns the encrypted options and running tallies of a poll.
// GET /polls/{pollId}/options
func (a *API) pollOptions(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	options, err := a.ledger.PollOptions(pollID)
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, options)
}

// pollOption returns a single option with its tally and, once the poll is
// revealed, its disclosed count.
// GET /polls/{pollId}/options/{optionIndex}
func (a *API) pollOption(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, OptionURLParam))
	if err != nil {
		ErrMalformedParam.Withf("could not parse option index: %v", err).Write(w)
		return
	}
	options, err := a.ledger.PollOptions(pollID)
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	if index < 0 || index >= len(options) {
		ErrResourceNotFound.Withf("poll %d has no option %d", pollID, index).Write(w)
		return
	}
	resp := OptionResponse{Index: index, Option: options[index]}
	if count, err := a.ledger.RevealedCount(pollID, index); err == nil {
		resp.RevealedCount = count
	}
	httpWriteJSON(w, resp)
}

// closePoll ends the voting window of a poll before its EndTime.
// POST /polls/{pollId}/close
func (a *API) closePoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	var req CallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	if err := a.ledger.ClosePoll(pollID, req.From); err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// requestReveal latches a reveal request on a closed poll.
// POST /polls/{pollId}/reveal
func (a *API) requestReveal(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	var req CallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	if err := a.ledger.RequestReveal(pollID, req.From); err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// results returns the disclosed counts of a revealed poll.
// GET /polls/{pollId}/results
func (a *API) results(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	counts, err := a.ledger.Results(pollID)
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	poll, err := a.ledger.Storage().Poll(pollID)
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, ResultsResponse{
		PollID: pollID,
		Counts: counts,
		Proofs: poll.RevealProofs,
	})
}

// submitResults stores creator-disclosed counts under the submission
// profile.
// POST /polls/{pollId}/results
func (a *API) submitResults(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	var req SubmitResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	if err := a.ledger.SubmitResults(pollID, req.From, req.Counts); err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// pollKey returns the encryption public key of a poll.
// GET /polls/{pollId}/key
func (a *API) pollKey(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	if _, err := a.ledger.Poll(pollID); err != nil {
		fromDomainError(err).Write(w)
		return
	}
	publicKey, err := a.ledger.Storage().EncryptionKey(pollID)
	if err != nil {
		ErrResourceNotFound.WithErr(err).Write(w)
		return
	}
	x, y := publicKey.Point()
	httpWriteJSON(w, PollKeyResponse{
		CurveType: publicKey.Type(),
		X:         new(types.BigInt).SetBigInt(x),
		Y:         new(types.BigInt).SetBigInt(y),
	})
}

// pollsByCreator returns the polls created by an address.
// GET /accounts/{address}/polls
func (a *API) pollsByCreator(w http.ResponseWriter, r *http.Request) {
	raw := chiURLParamAddress(r)
	if !common.IsHexAddress(raw) {
		ErrMalformedAddress.With(raw).Write(w)
		return
	}
	polls, err := a.ledger.PollsByCreator(common.HexToAddress(raw))
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, PollListResponse{Polls: polls})
}
