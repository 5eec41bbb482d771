// Package httpx holds the JSON envelope every REST endpoint answers with.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any, msg string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, Message: msg})
}

func Message(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: msg})
}

func Fail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Envelope{Success: false, Error: msg})
}

const maxBody = 64 << 10

var ErrBadBody = errors.New("invalid request body")

// Decode reads a single JSON object from r into dst.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return nil
}

// IntQuery returns the integer query parameter name, or def when it is
// missing or not a number.
func IntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
