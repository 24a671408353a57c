package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Code    perrors.Code `json:"code"`
	Message string       `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error code to an HTTP status.
func statusFor(code perrors.Code) int {
	switch {
	case perrors.IsInvalid(code):
		return http.StatusBadRequest
	case perrors.IsNotFound(code):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := perrors.GetCode(err)
	if code == "" {
		code = perrors.ErrCodeInternal
	}
	status := statusFor(code)

	msg := perrors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()), "err", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return perrors.New(perrors.ErrCodeInvalidArgument, "request body is empty")
		}
		return perrors.New(perrors.ErrCodeInvalidArgument, "invalid request body: %v", err)
	}
	return nil
}
