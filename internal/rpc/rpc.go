// Package rpc holds the gRPC service descriptors and clients of the auth and
// user services. Messages travel as google.protobuf.Struct, so both sides use
// the stock proto codec without generated code.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// handler adapts a typed server method to grpc.MethodHandler, running the
// server's unary interceptor chain like generated code does.
func handler[S any](fullMethod string, call func(S, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		next := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, next)
	}
}

func invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func fullName(service, method string) string { return "/" + service + "/" + method }
