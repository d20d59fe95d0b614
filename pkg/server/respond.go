package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/masonry/pkg/errors"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Error("encode response", "err", err)
	}
}

// writeError answers with the status for err's code. Errors without a code
// are reported as internal errors without exposing their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if err == errMethodNotAllowed {
		status = http.StatusMethodNotAllowed
	}

	resp := errorResponse{
		Code:      errors.GetCode(err),
		Message:   errors.UserMessage(err),
		RequestID: RequestIDFrom(r.Context()),
	}
	if resp.Code == "" {
		resp.Code = errors.ErrCodeInternal
		resp.Message = "internal error"
	}
	writeJSON(w, status, resp)
}
