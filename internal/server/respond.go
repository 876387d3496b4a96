package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/scholarshare/scholarshare/pkg/errors"
)

// maxBodyBytes bounds request bodies; paper text dominates and even long
// papers stay far below this.
const maxBodyBytes = 8 << 20

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

// statusFor maps error codes to HTTP statuses. Unknown codes are treated as
// internal failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrCodeInvalidInput),
		errors.Is(err, errors.ErrCodeInvalidKind),
		errors.Is(err, errors.ErrCodeInvalidStyle),
		errors.Is(err, errors.ErrCodeInvalidMarkup),
		errors.Is(err, errors.ErrCodeInvalidPlatform):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrCodeSessionNotFound),
		errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errors.ErrCodeCapabilityUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrCodeTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON parses a request body into v. An empty body leaves v at its
// zero value so endpoints with all-optional parameters accept bare POSTs.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse request body")
	}
	return nil
}
