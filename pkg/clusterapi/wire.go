package clusterapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// serviceName is the fully-qualified gRPC service name, matching the
// dotted form protoc-gen-go-grpc would derive from a "protobase.clusterapi"
// package / "ClusterAPI" service declaration.
const serviceName = "protobase.clusterapi.ClusterAPI"

// ClusterAPIServer is the service a remote BlockProvider client calls.
// Every method mirrors one storage.BlockProvider operation; WriteStreamer
// and Reader become explicit open/use/close session triples since a
// single RPC can't hand back a live io.Writer or io.Seeker.
type ClusterAPIServer interface {
	NewWAL(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	OpenWriter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Write(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WriterOffset(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error)
	CloseWriter(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	OpenReader(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Read(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SeekReader(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error)
	CloseReader(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	GetCurrentRoot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	UpdateRoot(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	AcquireRootLock(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ReleaseRootLock(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	CloseWAL(context.Context, *structpb.Struct) (*emptypb.Empty, error)

	mustEmbedUnimplementedClusterAPIServer()
}

// UnimplementedClusterAPIServer must be embedded by any ClusterAPIServer
// implementation for forward compatibility, the same contract
// protoc-gen-go-grpc attaches to every generated server interface.
type UnimplementedClusterAPIServer struct{}

func (UnimplementedClusterAPIServer) NewWAL(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method NewWAL not implemented")
}
func (UnimplementedClusterAPIServer) OpenWriter(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method OpenWriter not implemented")
}
func (UnimplementedClusterAPIServer) Write(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Write not implemented")
}
func (UnimplementedClusterAPIServer) WriterOffset(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method WriterOffset not implemented")
}
func (UnimplementedClusterAPIServer) CloseWriter(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method CloseWriter not implemented")
}
func (UnimplementedClusterAPIServer) OpenReader(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method OpenReader not implemented")
}
func (UnimplementedClusterAPIServer) Read(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Read not implemented")
}
func (UnimplementedClusterAPIServer) SeekReader(context.Context, *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method SeekReader not implemented")
}
func (UnimplementedClusterAPIServer) CloseReader(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method CloseReader not implemented")
}
func (UnimplementedClusterAPIServer) GetCurrentRoot(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCurrentRoot not implemented")
}
func (UnimplementedClusterAPIServer) UpdateRoot(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateRoot not implemented")
}
func (UnimplementedClusterAPIServer) AcquireRootLock(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method AcquireRootLock not implemented")
}
func (UnimplementedClusterAPIServer) ReleaseRootLock(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method ReleaseRootLock not implemented")
}
func (UnimplementedClusterAPIServer) CloseWAL(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method CloseWAL not implemented")
}
func (UnimplementedClusterAPIServer) mustEmbedUnimplementedClusterAPIServer() {}

// RegisterClusterAPIServer registers srv on s, the same shape
// protoc-gen-go-grpc emits for a service registration call.
func RegisterClusterAPIServer(s grpc.ServiceRegistrar, srv ClusterAPIServer) {
	s.RegisterService(&clusterAPIServiceDesc, srv)
}

// ClusterAPIClient is the client-side stub a remote BlockProvider wraps.
type ClusterAPIClient interface {
	NewWAL(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	OpenWriter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Write(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	WriterOffset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	CloseWriter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	OpenReader(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Read(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SeekReader(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error)
	CloseReader(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetCurrentRoot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	UpdateRoot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	AcquireRootLock(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	ReleaseRootLock(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	CloseWAL(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type clusterAPIClient struct {
	cc grpc.ClientConnInterface
}

// NewClusterAPIClient wraps cc, the same shape protoc-gen-go-grpc emits.
func NewClusterAPIClient(cc grpc.ClientConnInterface) ClusterAPIClient {
	return &clusterAPIClient{cc}
}

func (c *clusterAPIClient) NewWAL(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/NewWAL", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) OpenWriter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/OpenWriter", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) Write(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Write", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) WriterOffset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/WriterOffset", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) CloseWriter(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/CloseWriter", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) OpenReader(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/OpenReader", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) Read(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Read", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) SeekReader(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.UInt64Value, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/SeekReader", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) CloseReader(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/CloseReader", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) GetCurrentRoot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GetCurrentRoot", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) UpdateRoot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/UpdateRoot", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) AcquireRootLock(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/AcquireRootLock", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) ReleaseRootLock(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/ReleaseRootLock", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *clusterAPIClient) CloseWAL(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/CloseWAL", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _ClusterAPI_NewWAL_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).NewWAL(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/NewWAL"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).NewWAL(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_OpenWriter_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).OpenWriter(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/OpenWriter"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).OpenWriter(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_Write_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).Write(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Write"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).Write(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_WriterOffset_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).WriterOffset(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/WriterOffset"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).WriterOffset(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_CloseWriter_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).CloseWriter(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/CloseWriter"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).CloseWriter(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_OpenReader_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).OpenReader(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/OpenReader"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).OpenReader(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_Read_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).Read(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Read"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).Read(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_SeekReader_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).SeekReader(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/SeekReader"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).SeekReader(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_CloseReader_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).CloseReader(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/CloseReader"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).CloseReader(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_GetCurrentRoot_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).GetCurrentRoot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetCurrentRoot"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).GetCurrentRoot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_UpdateRoot_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).UpdateRoot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/UpdateRoot"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).UpdateRoot(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_AcquireRootLock_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).AcquireRootLock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AcquireRootLock"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).AcquireRootLock(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_ReleaseRootLock_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).ReleaseRootLock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ReleaseRootLock"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).ReleaseRootLock(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ClusterAPI_CloseWAL_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterAPIServer).CloseWAL(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/CloseWAL"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterAPIServer).CloseWAL(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var clusterAPIServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ClusterAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "NewWAL", Handler: _ClusterAPI_NewWAL_Handler},
		{MethodName: "OpenWriter", Handler: _ClusterAPI_OpenWriter_Handler},
		{MethodName: "Write", Handler: _ClusterAPI_Write_Handler},
		{MethodName: "WriterOffset", Handler: _ClusterAPI_WriterOffset_Handler},
		{MethodName: "CloseWriter", Handler: _ClusterAPI_CloseWriter_Handler},
		{MethodName: "OpenReader", Handler: _ClusterAPI_OpenReader_Handler},
		{MethodName: "Read", Handler: _ClusterAPI_Read_Handler},
		{MethodName: "SeekReader", Handler: _ClusterAPI_SeekReader_Handler},
		{MethodName: "CloseReader", Handler: _ClusterAPI_CloseReader_Handler},
		{MethodName: "GetCurrentRoot", Handler: _ClusterAPI_GetCurrentRoot_Handler},
		{MethodName: "UpdateRoot", Handler: _ClusterAPI_UpdateRoot_Handler},
		{MethodName: "AcquireRootLock", Handler: _ClusterAPI_AcquireRootLock_Handler},
		{MethodName: "ReleaseRootLock", Handler: _ClusterAPI_ReleaseRootLock_Handler},
		{MethodName: "CloseWAL", Handler: _ClusterAPI_CloseWAL_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/clusterapi/clusterapi.proto",
}
