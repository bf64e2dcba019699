package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Wizbisy/anonpoll/ledger"
	"github.com/Wizbisy/anonpoll/types"
)

// castVote applies a weighted vote to a poll.
// POST /votes
func (a *API) castVote(w http.ResponseWriter, r *http.Request) {
	var req ledger.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	if err := a.ledger.CastVote(req); err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// voteStatus reports the spent status of a commitment on a poll.
// GET /votes/{pollId}/{commitment}
func (a *API) voteStatus(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	commitment, err := types.HexStringToHexBytes(chi.URLParam(r, CommitmentURLParam))
	if err != nil {
		ErrMalformedCommitment.Withf("could not decode commitment: %v", err).Write(w)
		return
	}
	if !types.ValidCommitment(commitment) {
		ErrMalformedCommitment.Withf("commitment must be %d bytes", types.CommitmentSize).Write(w)
		return
	}
	weight, err := a.ledger.EncryptedWeight(pollID, commitment)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// an unspent commitment is not an error, report it as such
			if _, pollErr := a.ledger.Poll(pollID); pollErr != nil {
				fromDomainError(pollErr).Write(w)
				return
			}
			httpWriteJSON(w, VoteStatusResponse{Voted: false})
			return
		}
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, VoteStatusResponse{Voted: true, EncryptedWeight: weight})
}

// addComment attaches an encrypted comment to a poll.
// POST /comments
func (a *API) addComment(w http.ResponseWriter, r *http.Request) {
	var req ledger.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	index, err := a.ledger.AddComment(req)
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, CommentResponse{Index: index})
}

// listComments returns the comments a commitment attached to a poll.
// Comments are only reachable through a known commitment.
// GET /polls/{pollId}/comments/{commitment}
func (a *API) listComments(w http.ResponseWriter, r *http.Request) {
	pollID, err := urlParamPollID(r)
	if err != nil {
		ErrMalformedPollID.Withf("could not parse poll ID: %v", err).Write(w)
		return
	}
	commitment, err := types.HexStringToHexBytes(chi.URLParam(r, CommitmentURLParam))
	if err != nil {
		ErrMalformedCommitment.Withf("could not decode commitment: %v", err).Write(w)
		return
	}
	comments, err := a.ledger.Comments(pollID, commitment)
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, CommentListResponse{
		Comments: comments,
		Count:    uint64(len(comments)),
	})
}
