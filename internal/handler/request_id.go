package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

type ctxKeyRequestID int

// RequestIDKey is the context key for the request id
const RequestIDKey ctxKeyRequestID = 0

// RequestIDHeader is the header a request id is read from and written to
const RequestIDHeader = "X-Request-Id"

// AddRequestID is a handler that adds a request id to the request context and response headers
// An id sent by the client in the X-Request-Id header is kept
func AddRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = newRequestID()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetReqID returns the request id from the context, or an empty string if there is none
func GetReqID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}

	return ""
}

func newRequestID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
