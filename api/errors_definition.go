//nolint:lll
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Wizbisy/anonpoll/crypto/confidential"
	"github.com/Wizbisy/anonpoll/types"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400, 403, 404 or 409, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// If you notice there's a gap, that code was used in the past for some error (not anymore) and shouldn't be reused.
var (
	ErrResourceNotFound    = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedBody       = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed JSON body")}
	ErrMalformedParam      = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed parameter")}
	ErrMalformedPollID     = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed poll ID")}
	ErrPollNotFound        = Error{Code: 40005, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("poll not found")}
	ErrMalformedAddress    = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed address")}
	ErrMalformedCommitment = Error{Code: 40007, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed commitment")}
	ErrUnauthorized        = Error{Code: 40008, HTTPstatus: http.StatusForbidden, Err: fmt.Errorf("unauthorized")}
	ErrInvalidPollState    = Error{Code: 40009, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("operation not allowed in the current poll state")}
	ErrInvalidRequest      = Error{Code: 40010, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid request")}
	ErrInvalidVoteProof    = Error{Code: 40011, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid vote proof")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)

// fromDomainError translates a ledger or admin error into its coded API
// error by error class.
func fromDomainError(err error) Error {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return ErrResourceNotFound.WithErr(err)
	case errors.Is(err, types.ErrAuthorization):
		return ErrUnauthorized.WithErr(err)
	case errors.Is(err, types.ErrState):
		return ErrInvalidPollState.WithErr(err)
	case errors.Is(err, types.ErrValidation):
		return ErrInvalidRequest.WithErr(err)
	case errors.Is(err, confidential.ErrProofVerification):
		return ErrInvalidVoteProof.WithErr(err)
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
