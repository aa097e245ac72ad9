// Package rpc carries method-channel calls over gRPC. The service has a
// single unary method taking a google.protobuf.Struct {method, arguments}
// and returning a google.protobuf.Value, so no generated code is needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName  = "deviceid.v1.MethodChannel"
	InvokeMethod = "/" + ServiceName + "/Invoke"
)

// MethodChannelServer is the server side of the service.
type MethodChannelServer interface {
	Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Value, error)
}

func invokeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MethodChannelServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: InvokeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MethodChannelServer).Invoke(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MethodChannelServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Invoke", Handler: invokeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "deviceid/v1/channel.proto",
}

// RegisterMethodChannelServer registers srv on s.
func RegisterMethodChannelServer(s grpc.ServiceRegistrar, srv MethodChannelServer) {
	s.RegisterService(&serviceDesc, srv)
}
