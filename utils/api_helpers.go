package utils

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"go.uber.org/zap"
)

// Response is the envelope of every API answer.
type Response struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Data    any                   `json:"data,omitempty"`
	Errors  apperrors.FieldErrors `json:"errors,omitempty"`
}

const encodeFailure = `{"success":false,"message":"Internal server error"}`

// RespondJSON sends a JSON response with the given status code and payload. The payload is encoded
// before the header is written, so a payload that cannot be encoded turns into a logged 500.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("failed to encode JSON response", zap.Int("status", status), zap.Error(err))
		status, body = http.StatusInternalServerError, []byte(encodeFailure)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		zap.L().Debug("failed to write JSON response", zap.Error(err))
	}
}

// RespondSuccess sends a successful envelope carrying data.
func RespondSuccess(w http.ResponseWriter, status int, message string, data any) {
	RespondJSON(w, status, Response{Success: true, Message: message, Data: data})
}

// RespondError sends a failed envelope and records message in the request's log trail.
func RespondError(w http.ResponseWriter, logger *strings.Builder, status int, message string, fields apperrors.FieldErrors) {
	if logger != nil {
		AddToLogMessage(logger, message)
	}
	RespondJSON(w, status, Response{Success: false, Message: message, Errors: fields})
}
