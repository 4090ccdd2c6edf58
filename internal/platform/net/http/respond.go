// Package http hosts the ops server: metrics, health and readiness endpoints on chi
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "timejar/internal/platform/errors"
)

// Envelope is the standard response body for all endpoints
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Code       string `json:"code,omitempty"`
	Error      string `json:"error,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondOK writes a 200 envelope with data
func RespondOK(w stdhttp.ResponseWriter, data any) {
	JSON(w, stdhttp.StatusOK, Envelope{
		StatusCode: stdhttp.StatusOK,
		Status:     stdhttp.StatusText(stdhttp.StatusOK),
		Data:       data,
	})
}

// RespondError maps a project error into an envelope and writes it.
// data is optional detail, e.g. per check results
func RespondError(w stdhttp.ResponseWriter, err error, data any) {
	status := StatusOf(err)
	JSON(w, status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Code:       perr.CodeOf(err).String(),
		Error:      err.Error(),
		Data:       data,
	})
}

// StatusOf maps an error code to an http status
func StatusOf(err error) int {
	if err == nil {
		return stdhttp.StatusOK
	}
	switch perr.CodeOf(err) {
	case perr.ErrorCodeUnavailable, perr.ErrorCodeDB:
		return stdhttp.StatusServiceUnavailable
	case perr.ErrorCodeInvalidArgument, perr.ErrorCodeValidation, perr.ErrorCodeJSON:
		return stdhttp.StatusBadRequest
	case perr.ErrorCodeNotFound:
		return stdhttp.StatusNotFound
	case perr.ErrorCodeDuplicateKey:
		return stdhttp.StatusConflict
	case perr.ErrorCodeExport:
		return stdhttp.StatusBadGateway
	}
	return stdhttp.StatusInternalServerError
}
