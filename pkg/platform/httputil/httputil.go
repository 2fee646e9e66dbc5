// Package httputil holds the JSON response envelope and request decoding
// shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes bounds request bodies accepted by DecodeJSON.
const DefaultMaxBodyBytes = 64 << 10

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a successful envelope carrying data.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteFailure writes a failed envelope. Failures never carry data.
func WriteFailure(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// ErrMalformedBody is returned by DecodeJSON for bodies that are not valid JSON
// for the target type or exceed the size limit.
var ErrMalformedBody = errors.New("malformed request body")

// DecodeJSON decodes the request body into a new T. An empty body yields the
// zero value so optional bodies need no special casing.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	var out T
	if r.Body == nil {
		return &out, nil
	}
	body := http.MaxBytesReader(w, r.Body, DefaultMaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return &out, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedBody)
	}
	return &out, nil
}
