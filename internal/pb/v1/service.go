package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "morningalarm.v1.AlarmService"

// Full method names of AlarmService.
const (
	AlarmService_GetCurrentAlarm_FullMethodName = "/" + ServiceName + "/GetCurrentAlarm"
	AlarmService_DismissAlarm_FullMethodName    = "/" + ServiceName + "/DismissAlarm"
	AlarmService_TriggerAlarm_FullMethodName    = "/" + ServiceName + "/TriggerAlarm"
	AlarmService_GetRoster_FullMethodName       = "/" + ServiceName + "/GetRoster"
	AlarmService_ToggleTask_FullMethodName      = "/" + ServiceName + "/ToggleTask"
	AlarmService_WatchAlarm_FullMethodName      = "/" + ServiceName + "/WatchAlarm"
)

// Metadata keys carrying the requesting actor.
const (
	MetadataActorHostname = "x-actor-hostname"
	MetadataActorUsername = "x-actor-username"
)

// AlarmServiceClient is the client API for AlarmService.
type AlarmServiceClient interface {
	GetCurrentAlarm(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	DismissAlarm(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	TriggerAlarm(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetRoster(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	ToggleTask(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	WatchAlarm(
		ctx context.Context,
		in *emptypb.Empty,
		opts ...grpc.CallOption,
	) (grpc.ServerStreamingClient[structpb.Struct], error)
}

// alarmServiceClient implements AlarmServiceClient over a connection.
type alarmServiceClient struct {
	// cc is the underlying connection.
	cc grpc.ClientConnInterface
}

// NewAlarmServiceClient creates a client bound to cc.
//
//nolint:ireturn // Mirrors generated gRPC constructors.
func NewAlarmServiceClient(cc grpc.ClientConnInterface) AlarmServiceClient {
	return &alarmServiceClient{cc}
}

func (c *alarmServiceClient) GetCurrentAlarm(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AlarmService_GetCurrentAlarm_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alarmServiceClient) DismissAlarm(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AlarmService_DismissAlarm_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alarmServiceClient) TriggerAlarm(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AlarmService_TriggerAlarm_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alarmServiceClient) GetRoster(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AlarmService_GetRoster_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *alarmServiceClient) ToggleTask(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AlarmService_ToggleTask_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

//nolint:ireturn // Mirrors generated gRPC streaming clients.
func (c *alarmServiceClient) WatchAlarm(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &AlarmService_ServiceDesc.Streams[0], AlarmService_WatchAlarm_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}

// AlarmServiceServer is the server API for AlarmService.
// Implementations must embed UnimplementedAlarmServiceServer.
type AlarmServiceServer interface {
	GetCurrentAlarm(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	DismissAlarm(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	TriggerAlarm(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetRoster(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	ToggleTask(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	WatchAlarm(in *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error
	mustEmbedUnimplementedAlarmServiceServer()
}

// UnimplementedAlarmServiceServer answers every method with codes.Unimplemented.
type UnimplementedAlarmServiceServer struct{}

func (UnimplementedAlarmServiceServer) GetCurrentAlarm(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCurrentAlarm not implemented")
}

func (UnimplementedAlarmServiceServer) DismissAlarm(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method DismissAlarm not implemented")
}

func (UnimplementedAlarmServiceServer) TriggerAlarm(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method TriggerAlarm not implemented")
}

func (UnimplementedAlarmServiceServer) GetRoster(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRoster not implemented")
}

func (UnimplementedAlarmServiceServer) ToggleTask(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ToggleTask not implemented")
}

func (UnimplementedAlarmServiceServer) WatchAlarm(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error {
	return status.Error(codes.Unimplemented, "method WatchAlarm not implemented")
}

func (UnimplementedAlarmServiceServer) mustEmbedUnimplementedAlarmServiceServer() {}

// RegisterAlarmServiceServer registers srv on s.
func RegisterAlarmServiceServer(s grpc.ServiceRegistrar, srv AlarmServiceServer) {
	s.RegisterService(&AlarmService_ServiceDesc, srv)
}

// unaryHandler builds a grpc.MethodHandler for a unary method.
func unaryHandler[Req any](
	fullMethod string,
	call func(srv AlarmServiceServer, ctx context.Context, in *Req) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(AlarmServiceServer), ctx, in) //nolint:forcetypeassert // Registered with this interface.
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AlarmServiceServer), ctx, req.(*Req)) //nolint:forcetypeassert // Decoded above.
		}

		return interceptor(ctx, in, info, handler)
	}
}

// watchAlarmHandler adapts the WatchAlarm server stream.
func watchAlarmHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	//nolint:forcetypeassert // Registered with this interface.
	return srv.(AlarmServiceServer).WatchAlarm(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{
		ServerStream: stream,
	})
}

// AlarmService_ServiceDesc is the grpc.ServiceDesc for AlarmService.
//
//nolint:gochecknoglobals,revive,stylecheck // Service descriptors are package-level by convention.
var AlarmService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetCurrentAlarm",
			Handler: unaryHandler(AlarmService_GetCurrentAlarm_FullMethodName,
				func(srv AlarmServiceServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
					return srv.GetCurrentAlarm(ctx, in)
				}),
		},
		{
			MethodName: "DismissAlarm",
			Handler: unaryHandler(AlarmService_DismissAlarm_FullMethodName,
				func(srv AlarmServiceServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
					return srv.DismissAlarm(ctx, in)
				}),
		},
		{
			MethodName: "TriggerAlarm",
			Handler: unaryHandler(AlarmService_TriggerAlarm_FullMethodName,
				func(srv AlarmServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return srv.TriggerAlarm(ctx, in)
				}),
		},
		{
			MethodName: "GetRoster",
			Handler: unaryHandler(AlarmService_GetRoster_FullMethodName,
				func(srv AlarmServiceServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
					return srv.GetRoster(ctx, in)
				}),
		},
		{
			MethodName: "ToggleTask",
			Handler: unaryHandler(AlarmService_ToggleTask_FullMethodName,
				func(srv AlarmServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return srv.ToggleTask(ctx, in)
				}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchAlarm",
			Handler:       watchAlarmHandler,
			ServerStreams: true,
		},
	},
	Metadata: "morningalarm/v1/alarm.proto",
}
