package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/af-corp/campaign-relay/internal/types"
)

// WriteEnvelope writes env as the JSON response body with the given status.
func WriteEnvelope(w http.ResponseWriter, requestID string, statusCode int, env types.Envelope) {
	env.RequestID = requestID
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(env)
}

func WriteSuccess(w http.ResponseWriter, requestID, output string) {
	WriteEnvelope(w, requestID, http.StatusOK, types.Envelope{
		Status: types.StatusSuccess,
		Output: output,
	})
}

// WriteError writes an error envelope; the HTTP status is derived from kind.
func WriteError(w http.ResponseWriter, requestID string, kind types.ErrorKind, message string) {
	WriteEnvelope(w, requestID, kind.HTTPStatus(), types.Envelope{
		Status:  types.StatusError,
		Message: message,
		Code:    kind,
	})
}

// WriteDetailedError is WriteError plus the debugging fields that are only
// exposed when debug errors are enabled.
func WriteDetailedError(w http.ResponseWriter, requestID string, kind types.ErrorKind, message, detail, hint string) {
	WriteEnvelope(w, requestID, kind.HTTPStatus(), types.Envelope{
		Status:  types.StatusError,
		Message: message,
		Code:    kind,
		Detail:  detail,
		Hint:    hint,
	})
}

func WriteValidationError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, types.KindValidation, message)
}

func WriteInternalError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, types.KindAPI, message)
}
