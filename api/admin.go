package api

import (
	"encoding/json"
	"net/http"
)

// adminState returns the administration record.
// GET /admin
func (a *API) adminState(w http.ResponseWriter, r *http.Request) {
	state, err := a.admin.State()
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, state)
}

// adminPause toggles the poll creation pause latch.
// POST /admin/pause
func (a *API) adminPause(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	if err := a.admin.SetPaused(req.From, req.Paused); err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// adminFee sets the poll creation fee.
// POST /admin/fee
func (a *API) adminFee(w http.ResponseWriter, r *http.Request) {
	var req FeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	if err := a.admin.SetCreationFee(req.From, req.Fee); err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// adminWithdraw drains the collected fees to the owner.
// POST /admin/withdraw
func (a *API) adminWithdraw(w http.ResponseWriter, r *http.Request) {
	var req CallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	amount, err := a.admin.Withdraw(req.From)
	if err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteJSON(w, WithdrawResponse{Amount: amount})
}

// adminTransfer hands node ownership over to a new address.
// POST /admin/transfer
func (a *API) adminTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrMalformedBody.Withf("could not decode request: %v", err).Write(w)
		return
	}
	if err := a.admin.TransferOwnership(req.From, req.To); err != nil {
		fromDomainError(err).Write(w)
		return
	}
	httpWriteOK(w)
}
