package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxBodySize caps JSON request bodies at 1 MiB. Admin API payloads are
// small records; anything larger is a mistake or abuse.
const maxBodySize = 1 << 20

// DecodeJSON decodes a JSON request body into dst, rejecting unknown
// fields and oversized bodies.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	// A second decode catches trailing garbage after the JSON value.
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}

// ClientIP returns the originating client address, honoring
// X-Forwarded-For when the service runs behind a proxy.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
