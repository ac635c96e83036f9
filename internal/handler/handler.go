package handler

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Error is the message and http status code to return
type Error struct {
	Message string
	Code    int
}

// InternalServerError is a convenience function for returning an internal server error
func InternalServerError() *Error {
	return &Error{
		Message: "Something went wrong",
		Code:    http.StatusInternalServerError,
	}
}

// BadRequest is a convenience function for returning a bad request error
func BadRequest(message string) *Error {
	return &Error{
		Message: message,
		Code:    http.StatusBadRequest,
	}
}

// NotFound is a convenience function for returning a not found error
func NotFound(message string) *Error {
	return &Error{
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// Conflict is a convenience function for returning an error for a request the current state doesn't allow
func Conflict(message string) *Error {
	return &Error{
		Message: message,
		Code:    http.StatusConflict,
	}
}

// UnprocessableEntity is a convenience function for returning an error for a well-formed but unusable request body
func UnprocessableEntity(message string) *Error {
	return &Error{
		Message: message,
		Code:    http.StatusUnprocessableEntity,
	}
}

const jsonMediaType = "application/json"

// Handler wraps a http handler and deals with responding to errors
type Handler func(w http.ResponseWriter, r *http.Request) *Error

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h(w, r)
	if err == nil {
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if !strings.Contains(r.Header.Get("Accept"), jsonMediaType) {
		http.Error(w, err.Message, err.Code)
		return
	}

	var data = struct {
		Error string `json:"error"`
	}{err.Message}

	w.Header().Set("Content-Type", jsonMediaType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(data)
}

// JSON writes v as a JSON response with the given status code
func JSON(w http.ResponseWriter, code int, v interface{}) *Error {
	w.Header().Set("Content-Type", jsonMediaType)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	body, err := json.Marshal(v)
	if err != nil {
		return InternalServerError()
	}

	w.WriteHeader(code)
	w.Write(append(body, '\n'))

	return nil
}
