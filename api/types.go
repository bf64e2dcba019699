package api

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/Wizbisy/anonpoll/ledger"
	"github.com/Wizbisy/anonpoll/types"
)

// CreatePollRequest is the body of POST /polls. From is the creator address
// asserted by the outer authentication layer.
type CreatePollRequest struct {
	From common.Address `json:"from"`
	ledger.CreatePollParams
}

// CreatePollResponse returns the identifier assigned to a new poll.
type CreatePollResponse struct {
	PollID uint64 `json:"pollId"`
}

// UpdateMetadataRequest is the body of PUT /polls/{pollId}/metadata. Both
// fields fully replace their stored counterparts.
type UpdateMetadataRequest struct {
	From          common.Address `json:"from"`
	Question      types.HexBytes `json:"question"`
	QuestionImage types.HexBytes `json:"questionImage,omitempty"`
}

// OptionResponse is a single poll option with its running tally and, once
// the poll is revealed, its disclosed count.
type OptionResponse struct {
	Index int `json:"index"`
	types.Option
	RevealedCount *types.BigInt `json:"revealedCount,omitempty"`
}

// CallerRequest is the body of creator and owner gated operations that take
// no other input.
type CallerRequest struct {
	From common.Address `json:"from"`
}

// SubmitResultsRequest is the body of POST /polls/{pollId}/results under
// the submission profile.
type SubmitResultsRequest struct {
	From   common.Address  `json:"from"`
	Counts []*types.BigInt `json:"counts"`
}

// ResultsResponse returns the disclosed counts of a revealed poll.
type ResultsResponse struct {
	PollID uint64           `json:"pollId"`
	Counts []*types.BigInt  `json:"counts"`
	Proofs []types.HexBytes `json:"proofs,omitempty"`
}

// VoteStatusResponse reports the spent status of a commitment on a poll.
// EncryptedWeight is the ciphertext handle recorded when the vote was
// ingested.
type VoteStatusResponse struct {
	Voted           bool           `json:"voted"`
	EncryptedWeight types.HexBytes `json:"encryptedWeight,omitempty"`
}

// CommentResponse returns the index assigned to a new comment within its
// commitment's list.
type CommentResponse struct {
	Index uint64 `json:"index"`
}

// PollListResponse is a page of poll summaries.
type PollListResponse struct {
	Polls []*types.PollSummary `json:"polls"`
}

// CommentListResponse is the comment list of a single commitment.
type CommentListResponse struct {
	Comments []*types.Comment `json:"comments"`
	Count    uint64           `json:"count"`
}

// PollKeyResponse carries the encryption public key of a poll as affine
// coordinates, for client-side vote encryption.
type PollKeyResponse struct {
	CurveType string        `json:"curveType"`
	X         *types.BigInt `json:"x"`
	Y         *types.BigInt `json:"y"`
}

// PauseRequest is the body of POST /admin/pause.
type PauseRequest struct {
	From   common.Address `json:"from"`
	Paused bool           `json:"paused"`
}

// FeeRequest is the body of POST /admin/fee.
type FeeRequest struct {
	From common.Address `json:"from"`
	Fee  *types.BigInt  `json:"fee"`
}

// TransferRequest is the body of POST /admin/transfer.
type TransferRequest struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
}

// WithdrawResponse returns the amount drained by POST /admin/withdraw.
type WithdrawResponse struct {
	Amount *types.BigInt `json:"amount"`
}

// InfoResponse describes the node.
type InfoResponse struct {
	Version       string `json:"version"`
	RevealProfile string `json:"revealProfile"`
	MaxVoteWeight uint64 `json:"maxVoteWeight"`
}
