package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
	Reason  string      `json:"reason,omitempty"` // user-facing sentence for refusals
	Status  int         `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs err and sends it as an ErrorResponse.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)

	logger := s.logger.With(
		"method", r.Method,
		"path", r.URL.Path,
		"code", code,
		"status", status,
		"request_id", middleware.GetReqID(r.Context()))
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "error", err)
	case errors.IsRefusal(err):
		logger.Info("move refused", "error", err)
	default:
		logger.Debug("bad request", "error", err)
	}

	resp := ErrorResponse{Error: code, Message: errors.UserMessage(err), Status: status}
	if errors.IsRefusal(err) || code == errors.ErrCodeNotFound {
		resp.Reason = hierarchy.Reason(err)
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal error"
	}
	writeJSON(w, status, resp)
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeSelfParent, errors.ErrCodeCycle, errors.ErrCodeKindMismatch,
		errors.ErrCodeNonLeafReparent, errors.ErrCodeExplicitRootTarget,
		errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidID:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidSnapshot, errors.ErrCodeDuplicateID:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
