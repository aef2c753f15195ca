package api

import (
	"encoding/json"
	"net/http"

	"bookstore/pkg/bookstore"
)

const (
	codeInvalidRequestBody = "invalid_request_body"
	codeUnauthenticated    = "unauthenticated"
	codeInvalidCredentials = "invalid_credentials"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{Error: msg, Code: code})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(k bookstore.Kind) int {
	switch k {
	case bookstore.KindNotFound:
		return http.StatusNotFound
	case bookstore.KindUnauthorized:
		return http.StatusForbidden
	case bookstore.KindInvalidQuantity, bookstore.KindDuplicateKey, bookstore.KindConflict:
		return http.StatusConflict
	case bookstore.KindInvalidInput:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeCommandError reports a failed Store command. Internal failures are
// logged and masked.
func (s *Server) writeCommandError(w http.ResponseWriter, r *http.Request, op string, err error) {
	k := bookstore.Classify(err)
	if k == bookstore.KindInternal {
		s.log.Error(r.Context(), op, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}
	writeError(w, statusOf(k), k.String(), err.Error())
}
