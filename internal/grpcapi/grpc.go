// Package grpcapi exposes the anchor service over gRPC.
//
// Messages are protobuf well-known Struct values so the package builds
// without a protoc toolchain. Field names match the HTTP JSON bodies.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "anchorledger.v1.Anchor"

const (
	methodAnchorSingle    = "/" + ServiceName + "/AnchorSingle"
	methodAnchorRoot      = "/" + ServiceName + "/AnchorRoot"
	methodAnchorBatch     = "/" + ServiceName + "/AnchorBatch"
	methodGetAnchor       = "/" + ServiceName + "/GetAnchor"
	methodVerifyInclusion = "/" + ServiceName + "/VerifyInclusion"
)

// AnchorServer is the server API for the Anchor service.
type AnchorServer interface {
	AnchorSingle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AnchorRoot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AnchorBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAnchor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyInclusion(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedAnchorServer can be embedded to have forward compatible implementations.
type UnimplementedAnchorServer struct{}

func (UnimplementedAnchorServer) AnchorSingle(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AnchorSingle not implemented")
}
func (UnimplementedAnchorServer) AnchorRoot(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AnchorRoot not implemented")
}
func (UnimplementedAnchorServer) AnchorBatch(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AnchorBatch not implemented")
}
func (UnimplementedAnchorServer) GetAnchor(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAnchor not implemented")
}
func (UnimplementedAnchorServer) VerifyInclusion(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyInclusion not implemented")
}

// RegisterAnchorServer registers the Anchor service on a gRPC server.
func RegisterAnchorServer(s grpc.ServiceRegistrar, srv AnchorServer) {
	s.RegisterService(&Anchor_ServiceDesc, srv)
}

// AnchorClient is the client API for the Anchor service.
type AnchorClient interface {
	AnchorSingle(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	AnchorRoot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	AnchorBatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetAnchor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	VerifyInclusion(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type anchorClient struct{ cc grpc.ClientConnInterface }

// NewAnchorClient returns a raw Struct-level client for cc.
func NewAnchorClient(cc grpc.ClientConnInterface) AnchorClient { return &anchorClient{cc: cc} }

func (c *anchorClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *anchorClient) AnchorSingle(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodAnchorSingle, in, opts)
}

func (c *anchorClient) AnchorRoot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodAnchorRoot, in, opts)
}

func (c *anchorClient) AnchorBatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodAnchorBatch, in, opts)
}

func (c *anchorClient) GetAnchor(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetAnchor, in, opts)
}

func (c *anchorClient) VerifyInclusion(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodVerifyInclusion, in, opts)
}

// unaryHandler adapts one AnchorServer method to a grpc.MethodDesc handler.
func unaryHandler(method string, call func(AnchorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AnchorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AnchorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Anchor_ServiceDesc is the grpc.ServiceDesc for the Anchor service.
var Anchor_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnchorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AnchorSingle", Handler: unaryHandler(methodAnchorSingle, AnchorServer.AnchorSingle)},
		{MethodName: "AnchorRoot", Handler: unaryHandler(methodAnchorRoot, AnchorServer.AnchorRoot)},
		{MethodName: "AnchorBatch", Handler: unaryHandler(methodAnchorBatch, AnchorServer.AnchorBatch)},
		{MethodName: "GetAnchor", Handler: unaryHandler(methodGetAnchor, AnchorServer.GetAnchor)},
		{MethodName: "VerifyInclusion", Handler: unaryHandler(methodVerifyInclusion, AnchorServer.VerifyInclusion)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "anchorledger/v1/anchor.proto",
}
