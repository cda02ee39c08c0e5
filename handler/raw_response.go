package handler

import (
	"net/http"
	"strconv"
)

type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty responds 204 No Content.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

type bytesResponse struct {
	contentType string
	data        []byte
	cache       string
}

func (b bytesResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", b.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.data)))
	if b.cache != "" {
		w.Header().Set("Cache-Control", b.cache)
	}
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(b.data)
	return err
}

// Bytes writes data verbatim, e.g. a PNG.
func Bytes(contentType string, data []byte, cacheControl string) Response {
	return bytesResponse{contentType: contentType, data: data, cache: cacheControl}
}

type redirectResponse struct {
	url  string
	code int
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	http.Redirect(w, req, r.url, r.code)
	return nil
}

// Redirect responds 302 Found. Only use with URLs the server built itself.
func Redirect(url string) Response {
	return redirectResponse{url: url, code: http.StatusFound}
}
