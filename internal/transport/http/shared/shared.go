// Package shared holds the response helpers every handler uses, so error
// envelopes and JSON encoding stay identical across features.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "teampulse/pkg/domain-errors"
)

// ErrorResponse is the uniform JSON error envelope.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// WriteJSON encodes v with the given status. Encoding failures after the
// header is written cannot be reported to the client; they surface in logs via
// the access-log status only.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a coded domain error into the uniform envelope. Errors
// without a code come out as 500 with a generic message, never their raw text.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorResponse{
		Error:            string(code),
		ErrorDescription: dErrors.MessageOf(err),
	})
}
