package porcopb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// InnerClient is the client API for the Inner service.
type InnerClient interface {
	StreamRequests(ctx context.Context, in *Void, opts ...grpc.CallOption) (Inner_StreamRequestsClient, error)
	SendResponse(ctx context.Context, in *OutgoingResponse, opts ...grpc.CallOption) (*Void, error)
}

type innerClient struct {
	cc grpc.ClientConnInterface
}

// NewInnerClient constructs an InnerClient bound to cc.
func NewInnerClient(cc grpc.ClientConnInterface) InnerClient {
	return &innerClient{cc}
}

func (c *innerClient) StreamRequests(ctx context.Context, in *Void, opts ...grpc.CallOption) (Inner_StreamRequestsClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &Inner_ServiceDesc.Streams[0], "/porco.Inner/StreamRequests", opts...)
	if err != nil {
		return nil, err
	}
	x := &innerStreamRequestsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// Inner_StreamRequestsClient is the client-side stream handle returned by
// StreamRequests.
type Inner_StreamRequestsClient interface {
	Recv() (*IncomingRequest, error)
	grpc.ClientStream
}

type innerStreamRequestsClient struct {
	grpc.ClientStream
}

func (x *innerStreamRequestsClient) Recv() (*IncomingRequest, error) {
	m := new(IncomingRequest)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *innerClient) SendResponse(ctx context.Context, in *OutgoingResponse, opts ...grpc.CallOption) (*Void, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	out := new(Void)
	if err := c.cc.Invoke(ctx, "/porco.Inner/SendResponse", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// InnerServer is the server API for the Inner service.
type InnerServer interface {
	StreamRequests(*Void, Inner_StreamRequestsServer) error
	SendResponse(context.Context, *OutgoingResponse) (*Void, error)
}

// UnimplementedInnerServer can be embedded to satisfy InnerServer for
// partially-implemented servers (mirrors protoc-gen-go-grpc's forward
// compatibility convention).
type UnimplementedInnerServer struct{}

func (UnimplementedInnerServer) StreamRequests(*Void, Inner_StreamRequestsServer) error {
	return status.Error(codes.Unimplemented, "method StreamRequests not implemented")
}

func (UnimplementedInnerServer) SendResponse(context.Context, *OutgoingResponse) (*Void, error) {
	return nil, status.Error(codes.Unimplemented, "method SendResponse not implemented")
}

// Inner_StreamRequestsServer is the server-side stream handle passed to
// StreamRequests implementations.
type Inner_StreamRequestsServer interface {
	Send(*IncomingRequest) error
	grpc.ServerStream
}

type innerStreamRequestsServer struct {
	grpc.ServerStream
}

func (x *innerStreamRequestsServer) Send(m *IncomingRequest) error {
	return x.ServerStream.SendMsg(m)
}

func registerInnerServer(s grpc.ServiceRegistrar, srv InnerServer) {
	s.RegisterService(&Inner_ServiceDesc, srv)
}

// RegisterInnerServer registers srv with s.
func RegisterInnerServer(s grpc.ServiceRegistrar, srv InnerServer) {
	registerInnerServer(s, srv)
}

func streamRequestsHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(Void)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(InnerServer).StreamRequests(m, &innerStreamRequestsServer{stream})
}

func sendResponseHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(OutgoingResponse)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InnerServer).SendResponse(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/porco.Inner/SendResponse",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InnerServer).SendResponse(ctx, req.(*OutgoingResponse))
	}
	return interceptor(ctx, in, info, handler)
}

// Inner_ServiceDesc is the grpc.ServiceDesc for the Inner service.
var Inner_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "porco.Inner",
	HandlerType: (*InnerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendResponse",
			Handler:    sendResponseHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamRequests",
			Handler:       streamRequestsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "porco.proto",
}
