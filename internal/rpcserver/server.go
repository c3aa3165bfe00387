// Package rpcserver implements porcod's half of the Inner gRPC service:
// the streaming side that feeds tunneled requests to whichever porcoc
// client is currently connected, and the unary side that resolves a
// previously dispatched request with the client's reply.
package rpcserver

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http/httpguts"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/periscope-io/porco/api/porcopb"
	"github.com/periscope-io/porco/internal/tunnel"
)

var (
	errInvalidHeaderName  = errors.New("invalid header name")
	errInvalidHeaderValue = errors.New("invalid header value")
)

// Server implements porcopb.InnerServer against a tunnel.Bus and
// tunnel.Store.
type Server struct {
	porcopb.UnimplementedInnerServer

	Bus   *tunnel.Bus
	Store *tunnel.Store
	Log   *logrus.Entry
}

// New builds a Server wired to bus and store.
func New(bus *tunnel.Bus, store *tunnel.Store, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{Bus: bus, Store: store, Log: log}
}

// StreamRequests subscribes to the bus and forwards every published
// Request to the connected client for as long as the stream's context
// stays alive. It returns once the client disconnects or the
// subscription falls behind (ResourceExhausted): the client is expected
// to reconnect and re-subscribe in that case. Closing the bus does not
// end the stream; Bus.Close leaves the subscription attached, so the
// stream keeps waiting until its context is done.
func (s *Server) StreamRequests(_ *porcopb.Void, stream porcopb.Inner_StreamRequestsServer) error {
	sub := s.Bus.Subscribe()
	defer sub.Unsubscribe()

	s.Log.Debug("client attached to the request stream")
	defer s.Log.Debug("client detached from the request stream")

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case <-sub.Lagged():
			return status.Error(codes.ResourceExhausted, "client fell behind the request stream")
		case req := <-sub.Recv():
			if err := stream.Send(toIncomingRequest(req)); err != nil {
				return err
			}
		}
	}
}

// SendResponse resolves the pending ingress request matching resp.Id.
// An unknown or already-resolved id (including one that already timed
// out and was abandoned) is reported as InvalidArgument: from the
// client's perspective these are indistinguishable, since porcod does
// not retain any record of an abandoned id to disambiguate it from one
// that was never assigned. Status and headers are validated before the
// slot is claimed, matching the grounded original's decode-then-resolve
// order.
func (s *Server) SendResponse(_ context.Context, resp *porcopb.OutgoingResponse) (*porcopb.Void, error) {
	if resp.Status > 599 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid status code %d", resp.Status)
	}
	if err := validateHeaders(resp.Headers); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	send, err := s.Store.Claim(resp.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "unknown or already-resolved request id")
	}

	send <- &tunnel.Response{
		ID:      resp.ID,
		Status:  uint16(resp.Status),
		Headers: fromPBHeaders(resp.Headers),
		Body:    resp.Body,
	}
	close(send)

	return &porcopb.Void{}, nil
}

// validateHeaders rejects any header whose name isn't a valid HTTP field
// token or whose value contains bytes disallowed in an HTTP field value,
// mirroring the original's HeaderName::from_bytes/HeaderValue::from_bytes
// validation.
func validateHeaders(hs []porcopb.Header) error {
	for _, h := range hs {
		name := string(h.Name)
		if !httpguts.ValidHeaderFieldName(name) {
			return errInvalidHeaderName
		}
		if !httpguts.ValidHeaderFieldValue(string(h.Value)) {
			return errInvalidHeaderValue
		}
	}
	return nil
}

func toIncomingRequest(req *tunnel.Request) *porcopb.IncomingRequest {
	return &porcopb.IncomingRequest{
		ID:      req.ID,
		URI:     req.URI,
		Method:  req.Method,
		Headers: toPBHeaders(req.Headers),
		Body:    req.Body,
	}
}

func toPBHeaders(hs []tunnel.Header) []porcopb.Header {
	out := make([]porcopb.Header, len(hs))
	for i, h := range hs {
		out[i] = porcopb.Header{Name: h.Name, Value: h.Value}
	}
	return out
}

func fromPBHeaders(hs []porcopb.Header) []tunnel.Header {
	out := make([]tunnel.Header, len(hs))
	for i, h := range hs {
		out[i] = tunnel.Header{Name: h.Name, Value: h.Value}
	}
	return out
}
