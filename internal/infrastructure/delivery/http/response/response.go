// Package response provides JSON response helpers for HTTP handlers.
package response

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope used by API-style endpoints.
type Response struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Data    any    `json:"data"`
}

// WriteJSON writes the envelope with the given status.
func WriteJSON(w http.ResponseWriter, status int, message string, data any, err error) {
	var errorMsg string
	if err != nil {
		errorMsg = err.Error()
	}

	r := Response{
		Message: message,
		Data:    data,
		Error:   errorMsg,
	}

	bytes, err := json.Marshal(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(bytes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Raw writes v as a bare JSON document, no envelope. Used for polled
// records whose shape is part of the client contract.
func Raw(w http.ResponseWriter, status int, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(bytes)
}

// NotFound writes a 404 envelope.
func NotFound(w http.ResponseWriter, message string, err error) {
	WriteJSON(w, http.StatusNotFound, message, nil, err)
}
