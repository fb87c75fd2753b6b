// Package transferv1 defines the courier.transfer.v1.Transfer gRPC service.
//
// Bundles travel as google.protobuf.Struct in the JSON shape
// {dataTypes: [...], items: [...]}; responses add results.
package transferv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "courier.transfer.v1.Transfer"

const (
	Transfer_PackageBundle_FullMethodName = "/courier.transfer.v1.Transfer/PackageBundle"
	Transfer_ExtractBundle_FullMethodName = "/courier.transfer.v1.Transfer/ExtractBundle"
)

// TransferClient is the client API for the Transfer service.
type TransferClient interface {
	PackageBundle(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ExtractBundle(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type transferClient struct {
	cc grpc.ClientConnInterface
}

func NewTransferClient(cc grpc.ClientConnInterface) TransferClient {
	return &transferClient{cc}
}

func (c *transferClient) PackageBundle(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Transfer_PackageBundle_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *transferClient) ExtractBundle(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Transfer_ExtractBundle_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// TransferServer is the server API for the Transfer service.
type TransferServer interface {
	PackageBundle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractBundle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedTransferServer()
}

// UnimplementedTransferServer must be embedded for forward compatibility.
type UnimplementedTransferServer struct{}

func (UnimplementedTransferServer) PackageBundle(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PackageBundle not implemented")
}
func (UnimplementedTransferServer) ExtractBundle(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ExtractBundle not implemented")
}
func (UnimplementedTransferServer) mustEmbedUnimplementedTransferServer() {}

func RegisterTransferServer(s grpc.ServiceRegistrar, srv TransferServer) {
	s.RegisterService(&Transfer_ServiceDesc, srv)
}

func _Transfer_PackageBundle_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransferServer).PackageBundle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Transfer_PackageBundle_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TransferServer).PackageBundle(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Transfer_ExtractBundle_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TransferServer).ExtractBundle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Transfer_ExtractBundle_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TransferServer).ExtractBundle(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Transfer_ServiceDesc is the grpc.ServiceDesc for the Transfer service.
var Transfer_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TransferServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PackageBundle",
			Handler:    _Transfer_PackageBundle_Handler,
		},
		{
			MethodName: "ExtractBundle",
			Handler:    _Transfer_ExtractBundle_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "courier/transfer/v1/transfer.proto",
}
