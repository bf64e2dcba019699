package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Wizbisy/anonpoll/log"
)

// Error is the coded error returned by the HTTP API. Code identifies the
// error across versions, HTTPstatus drives the response status and Err
// carries the human-readable description.
type Error struct {
	Err        error `json:"-"`
	Code       int   `json:"code"`
	HTTPstatus int   `json:"-"`
}

// Error satisfies the error interface. Returns the Err message.
func (e Error) Error() string {
	return e.Err.Error()
}

// MarshalJSON satisfies the json.Marshaler interface, rendering the error
// message alongside its code.
func (e Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}{
		Error: e.Err.Error(),
		Code:  e.Code,
	})
}

// Write serializes the error as a JSON response body with the error HTTP
// status.
func (e Error) Write(w http.ResponseWriter) {
	msg, err := json.Marshal(e)
	if err != nil {
		log.Warnw("marshal error failed", "error", err)
		http.Error(w, "marshal error failed", http.StatusInternalServerError)
		return
	}
	log.Debugw("api error response", "error", e.Err.Error(), "code", e.Code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPstatus)
	if _, err := w.Write(msg); err != nil {
		log.Warnw("failed to write error response", "error", err)
	}
}

// Withf returns a copy of the error with the Sprintf-formatted string
// appended to the message.
func (e Error) Withf(format string, args ...any) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, fmt.Sprintf(format, args...)),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// With returns a copy of the error with the string appended to the message.
func (e Error) With(s string) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, s),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}

// WithErr returns a copy of the error with err appended to the message.
func (e Error) WithErr(err error) Error {
	return Error{
		Err:        fmt.Errorf("%w: %v", e.Err, err.Error()),
		Code:       e.Code,
		HTTPstatus: e.HTTPstatus,
	}
}
