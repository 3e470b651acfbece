package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gastos/internal/ledger"
)

// errorResponse is the JSON body returned for every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

// writeError maps the ledger error taxonomy onto HTTP statuses:
// validation errors are the caller's fault, ingestion errors come from
// the OCR provider, flow-state errors are conflicts, and everything
// else is a storage problem.
func writeError(w http.ResponseWriter, err error) {
	code := ledger.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case ledger.CodeValidation:
		status = http.StatusUnprocessableEntity
	case ledger.CodeIngestion:
		status = http.StatusBadGateway
	case "":
		if isFlowError(err) {
			status = http.StatusConflict
			code = ledger.CodeValidation
			break
		}
		code = ledger.CodeStorage
	}

	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func isFlowError(err error) bool {
	for _, sentinel := range []error{
		ledger.ErrEntryActive,
		ledger.ErrNoEntry,
		ledger.ErrStaleCapture,
		ledger.ErrMovementMissing,
		ledger.ErrNoPendingDelete,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    ledger.CodeValidation,
			Message: "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
