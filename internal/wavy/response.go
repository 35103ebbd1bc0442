package wavy

import (
	"bufio"
	"fmt"
	"net/http"
	"sort"
)

// Response is the hand-rolled counterpart to *http.Request: the session's
// WRITE state serializes one of these directly onto the wire instead of
// going through net/http's ResponseWriter, so that SHUTDOWN keeps full
// control of what happens to the socket afterward (§4.4).
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse builds a Response with a single body, defaulting the
// Content-Length and Server headers. Callers may set or overwrite
// Content-Type on the returned Header before writing.
func NewResponse(status int, body []byte) *Response {
	h := make(http.Header)
	h.Set("Server", ServerIdent)
	h.Set("Content-Length", fmt.Sprintf("%d", len(body)))
	return &Response{Status: status, Header: h, Body: body}
}

// textResponse is a convenience for plain-text error/ack bodies.
func textResponse(status int, text string) *Response {
	r := NewResponse(status, []byte(text))
	r.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return r
}

// WriteTo serializes the response as an HTTP/1.1 status line, headers, and
// body onto w. Headers are written in sorted order for deterministic output.
func (r *Response) WriteTo(w *bufio.Writer) error {
	statusText := http.StatusText(r.Status)
	if statusText == "" {
		statusText = "Unknown"
	}
	if _, err := fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", r.Status, statusText); err != nil {
		return err
	}

	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range r.Header[k] {
			if _, err := fmt.Fprintf(w, "%s: %s\r\n", k, v); err != nil {
				return err
			}
		}
	}
	if _, err := w.WriteString("Connection: close\r\n\r\n"); err != nil {
		return err
	}

	if len(r.Body) > 0 {
		if _, err := w.Write(r.Body); err != nil {
			return err
		}
	}
	return w.Flush()
}
