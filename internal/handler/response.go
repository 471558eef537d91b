package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrResponseSent is returned when a second response is attempted.
var ErrResponseSent = errors.New("response already sent")

// ResponseWriter is the response sink handed to handlers.
type ResponseWriter interface {
	// Header returns the headers to be sent.
	Header() http.Header
	// Status sets the status code for the response.
	Status(code int) ResponseWriter
	// Send writes body and completes the response. Strings and byte
	// slices are written verbatim; any other value is encoded as JSON.
	Send(body any) error
	// End completes the response without a body.
	End() error
	// HeadersSent reports whether the response has been sent.
	HeadersSent() bool
	// StatusCode returns the status that was or will be sent.
	StatusCode() int
}

// Response implements ResponseWriter on top of an http.ResponseWriter.
type Response struct {
	w      http.ResponseWriter
	mu     sync.Mutex
	status int
	sent   bool
	size   int
}

// NewResponse wraps w.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w, status: http.StatusOK}
}

// Header returns the response headers.
func (r *Response) Header() http.Header {
	return r.w.Header()
}

// Status sets the status code. It has no effect once the response is sent.
func (r *Response) Status(code int) ResponseWriter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sent {
		r.status = code
	}
	return r
}

// Send writes body and completes the response.
func (r *Response) Send(body any) error {
	var (
		data        []byte
		contentType string
	)

	switch v := body.(type) {
	case nil:
		return r.End()
	case string:
		data = []byte(v)
		contentType = "text/plain; charset=utf-8"
	case []byte:
		data = v
		contentType = "application/octet-stream"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding response body: %w", err)
		}
		data = encoded
		contentType = "application/json"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return ErrResponseSent
	}
	r.sent = true

	h := r.w.Header()
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", contentType)
	}
	r.w.WriteHeader(r.status)
	n, err := r.w.Write(data)
	r.size += n
	return err
}

// End completes the response without a body.
func (r *Response) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return ErrResponseSent
	}
	r.sent = true
	r.w.WriteHeader(r.status)
	return nil
}

// HeadersSent reports whether the response has been sent.
func (r *Response) HeadersSent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// StatusCode returns the response status.
func (r *Response) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Size returns the number of body bytes written.
func (r *Response) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
