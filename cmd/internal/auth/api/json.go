package authapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"fenster/cmd/internal/fault"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: msg}})
}

// writeFault renders a fault-tagged error. Internal causes are never
// serialized; clients get only the numeric correlation code.
func writeFault(w http.ResponseWriter, err error) {
	var fe *fault.Error
	msg := ""
	if errors.As(err, &fe) {
		msg = fe.Msg
	}

	switch {
	case errors.Is(err, fault.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", msg)
	case errors.Is(err, fault.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", msg)
	case errors.Is(err, fault.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", msg)
	default:
		writeError(w, http.StatusInternalServerError, "internal",
			fmt.Sprintf("internal error, code %d, please contact the responsible", fault.CodeOf(err)))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Ensure there is no extra data after the first JSON value.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
