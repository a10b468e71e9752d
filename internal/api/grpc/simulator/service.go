package simulator

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Fully qualified names of the indication service and its methods.
const (
	ServiceName = "olt.alarms.v1.IndicationService"

	DispatchMethod       = "/" + ServiceName + "/Dispatch"
	SimulateMethod       = "/" + ServiceName + "/Simulate"
	SetSuppressionMethod = "/" + ServiceName + "/SetSuppression"
	WatchMethod          = "/" + ServiceName + "/Watch"
)

// OperatorMetadataKey carries the user@host of the caller for audit logging.
const OperatorMetadataKey = "x-olt-alarms-operator"

// IndicationServer is the server API of the indication service.
// Messages are well-known protobuf types, so no generated code is needed.
type IndicationServer interface {
	// Dispatch feeds one decoded indication through the alarm dispatcher.
	Dispatch(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	// Simulate injects one indication straight into its handler and reports failures.
	Simulate(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	// SetSuppression toggles OLT LOS clear suppression; without "enabled" it only reports the flag.
	SetSuppression(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// Watch streams every emitted alarm until the caller goes away.
	Watch(req *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

// ServiceDesc describes the indication service for grpc.Server registration.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IndicationServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Dispatch",
			Handler: unaryHandler(DispatchMethod, func(
				srv IndicationServer, ctx context.Context, req *structpb.Struct,
			) (*emptypb.Empty, error) {
				return srv.Dispatch(ctx, req)
			}),
		},
		{
			MethodName: "Simulate",
			Handler: unaryHandler(SimulateMethod, func(
				srv IndicationServer, ctx context.Context, req *structpb.Struct,
			) (*emptypb.Empty, error) {
				return srv.Simulate(ctx, req)
			}),
		},
		{
			MethodName: "SetSuppression",
			Handler: unaryHandler(SetSuppressionMethod, func(
				srv IndicationServer, ctx context.Context, req *structpb.Struct,
			) (*structpb.Struct, error) {
				return srv.SetSuppression(ctx, req)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "olt/alarms/v1/indication_service.proto",
}

// Register attaches srv to the gRPC registrar.
func Register(registrar grpc.ServiceRegistrar, srv IndicationServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

func unaryHandler[Req, Res any](
	fullMethod string,
	call func(IndicationServer, context.Context, *Req) (*Res, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(IndicationServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IndicationServer), ctx, req.(*Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	return srv.(IndicationServer).Watch(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// Client calls the indication service over an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dispatch calls IndicationService.Dispatch.
func (c *Client) Dispatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DispatchMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Simulate calls IndicationService.Simulate.
func (c *Client) Simulate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, SimulateMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// SetSuppression calls IndicationService.SetSuppression.
func (c *Client) SetSuppression(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SetSuppressionMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Watch opens the IndicationService.Watch stream.
func (c *Client) Watch(
	ctx context.Context,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], WatchMethod, opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(new(emptypb.Empty)); err != nil {
		return nil, err
	}

	if err := x.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}
