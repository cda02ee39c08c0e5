package binder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

const maxJSONBody = 1 << 20

// JSON decodes a strict JSON body. Requests without a body are skipped so
// the same handler can serve optional payloads.
func JSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if emptyBody(r) {
			return ErrBinderNotApplicable
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: expected application/json", ErrUnsupportedMediaType)
		}

		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return ErrBinderNotApplicable
			}
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return ErrBodyTooLarge
			}
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if dec.More() {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
		}
		return nil
	}
}

// emptyBody reports whether r carries no payload. Bodies of unknown length
// are peeked and r.Body is replaced so the peeked byte is not lost.
func emptyBody(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return true
	}
	if r.ContentLength > 0 {
		return false
	}
	br := bufio.NewReader(r.Body)
	if _, err := br.Peek(1); err != nil {
		return errors.Is(err, io.EOF)
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{br, r.Body}
	return false
}
