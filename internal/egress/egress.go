// Package egress is porcoc's half of the tunnel: it drains the stream of
// tunneled requests from porcod, replays each one against the private
// target service, and reports the result back over SendResponse.
package egress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/periscope-io/porco/api/porcopb"
)

// Dispatcher replays tunneled requests against Target and reports results
// through Client.
type Dispatcher struct {
	// Target is the base URL of the private service; only its scheme,
	// host and port are used. Path and query come from the tunneled
	// request's own URI.
	Target *url.URL

	HTTP   *http.Client
	Client porcopb.InnerClient
	Log    *logrus.Entry
}

// New builds a Dispatcher. httpClient may be nil, in which case
// http.DefaultClient is used.
func New(target *url.URL, httpClient *http.Client, client porcopb.InnerClient, log *logrus.Entry) *Dispatcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{Target: target, HTTP: httpClient, Client: client, Log: log}
}

// Run drains stream, dispatching every request it yields until the
// stream ends or ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context, stream porcopb.Inner_StreamRequestsClient) error {
	for {
		req, err := stream.Recv()
		if err != nil {
			return err
		}
		d.Log.WithField("id", req.ID).Debug("received tunneled request")
		if err := d.dispatch(ctx, req); err != nil {
			d.Log.WithError(err).WithField("id", req.ID).Error("dispatch failed")
		}
	}
}

// dispatch replays req against the target and reports the outcome. A
// failure to even build or send the replayed request is reported as a
// synthesized 500 response, so the original public caller sees a
// definite answer instead of hanging until ingress times it out.
func (d *Dispatcher) dispatch(ctx context.Context, req *porcopb.IncomingRequest) error {
	resp, err := d.replay(ctx, req)
	if err != nil {
		resp = &porcopb.OutgoingResponse{
			ID:     req.ID,
			Status: http.StatusInternalServerError,
			Body:   []byte(err.Error()),
		}
	}

	_, sendErr := d.Client.SendResponse(ctx, resp)
	return sendErr
}

func (d *Dispatcher) replay(ctx context.Context, req *porcopb.IncomingRequest) (*porcopb.OutgoingResponse, error) {
	target, err := rewriteURL(req.URI, d.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid tunneled uri %q: %w", req.URI, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("building replayed request: %w", err)
	}
	for _, h := range req.Headers {
		httpReq.Header.Add(string(h.Name), string(h.Value))
	}

	httpResp, err := d.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("replaying request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading replayed response body: %w", err)
	}

	headers := make([]porcopb.Header, 0, len(httpResp.Header))
	for name, values := range httpResp.Header {
		for _, v := range values {
			headers = append(headers, porcopb.Header{Name: []byte(name), Value: []byte(v)})
		}
	}

	return &porcopb.OutgoingResponse{
		ID:      req.ID,
		Status:  uint32(httpResp.StatusCode),
		Headers: headers,
		Body:    body,
	}, nil
}

// rewriteURL keeps the path and query of the tunneled uri but replaces
// scheme, host and port with target's.
func rewriteURL(uri string, target *url.URL) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	u.Scheme = target.Scheme
	u.Host = target.Host
	return u, nil
}
