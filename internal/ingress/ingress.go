// Package ingress is the public-facing HTTP front end of porcod: it turns
// accepted requests into tunnel.Draft values, dispatches them onto the
// tunnel, and waits for the matching Response before writing anything
// back to the original client.
package ingress

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/periscope-io/porco/internal/filter"
	"github.com/periscope-io/porco/internal/tunnel"
)

// DefaultTimeout is used when Handler.Timeout is left at its zero value.
const DefaultTimeout = 60 * time.Second

// Handler is an http.Handler that tunnels every accepted request to
// whichever client is currently streaming from porcod's RPC service, and
// replays its Response back to the original caller.
type Handler struct {
	Dispatcher *tunnel.Dispatcher
	Filter     *filter.List
	Timeout    time.Duration
	Log        *logrus.Entry
}

// NewHandler builds a Handler wired to d and allow-list f. A nil f allows
// every path. A zero timeout falls back to DefaultTimeout.
func NewHandler(d *tunnel.Dispatcher, f *filter.List, timeout time.Duration, log *logrus.Entry) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{Dispatcher: d, Filter: f, Timeout: timeout, Log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"remote": r.RemoteAddr,
	}).Debug("received request")

	if !h.Filter.Allow(r.URL.Path) {
		h.Log.WithField("path", r.URL.Path).Debug("rejected by filter list")
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Log.WithError(err).Warn("failed reading request body")
		http.Error(w, "failed to read request body", http.StatusInternalServerError)
		return
	}

	draft := tunnel.Draft{
		Method:  r.Method,
		URI:     r.URL.RequestURI(),
		Headers: headersOf(r.Header),
		Body:    body,
	}

	id, recv, err := h.Dispatcher.Dispatch(draft)
	if err != nil {
		h.Log.WithError(err).Warn("dispatch failed, the tunnel's bus or store is closed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	select {
	case resp, ok := <-recv:
		if !ok {
			h.Log.WithField("id", id).Warn("request abandoned before a response arrived")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		writeResponse(w, resp)
	case <-ctx.Done():
		h.Dispatcher.Abandon(id)
		h.Log.WithField("id", id).Warn("timed out waiting for a response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// headersOf converts an http.Header into tunnel headers, dropping Host:
// net/http already splits Host out of r.Header into r.Host, but a stray
// entry is stripped defensively should a reverse proxy in front of porcod
// ever reinsert one.
func headersOf(h http.Header) []tunnel.Header {
	out := make([]tunnel.Header, 0, len(h))
	for name, values := range h {
		if http.CanonicalHeaderKey(name) == "Host" {
			continue
		}
		for _, v := range values {
			out = append(out, tunnel.Header{Name: []byte(name), Value: []byte(v)})
		}
	}
	return out
}

func writeResponse(w http.ResponseWriter, resp *tunnel.Response) {
	hdr := w.Header()
	for _, h := range resp.Headers {
		hdr.Add(string(h.Name), string(h.Value))
	}
	status := int(resp.Status)
	if status < 100 || status > 599 {
		status = http.StatusBadGateway
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}
