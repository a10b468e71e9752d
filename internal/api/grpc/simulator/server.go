package simulator

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/olt-alarms/internal/domain/indication"
	"github.com/oshokin/olt-alarms/internal/emitter"
	"github.com/oshokin/olt-alarms/internal/logger"
	"github.com/oshokin/olt-alarms/internal/service/alarms"
)

// Manager abstracts the alarm operations the transport layer depends on.
type Manager interface {
	Dispatch(ctx context.Context, ind indication.Indication)
	Simulate(ctx context.Context, ind indication.Indication) error
	SetSuppression(enabled bool)
	SuppressionEnabled() bool
}

// Feed publishes emitted alarms to subscribers.
type Feed interface {
	Subscribe() (<-chan emitter.Event, func())
}

// Server implements IndicationServer on top of the alarm manager.
type Server struct {
	// manager routes decoded indications.
	manager Manager
	// feed backs the Watch stream; nil disables it.
	feed Feed
}

var _ IndicationServer = (*Server)(nil)

// NewServer wires the manager and alarm feed into a gRPC handler.
func NewServer(manager Manager, feed Feed) *Server {
	return &Server{
		manager: manager,
		feed:    feed,
	}
}

// Dispatch decodes the indication and hands it to the dispatcher.
// Like the control channel it stands in for, it never reports processing
// failures back: undecodable messages are logged and dropped.
func (s *Server) Dispatch(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	ind, err := DecodeIndication(req)
	if err != nil {
		logger.WarnKV(ctx, "Ignoring alarm indication", "error", err)

		return new(emptypb.Empty), nil
	}

	s.manager.Dispatch(ctx, ind)

	return new(emptypb.Empty), nil
}

// Simulate decodes the indication and runs its handler, returning any failure.
func (s *Server) Simulate(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	ind, err := DecodeIndication(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	logger.InfoKV(ctx, "Simulating alarm indication", "kind", ind.Kind().String(), "operator", operatorFrom(ctx))

	if err := s.manager.Simulate(ctx, ind); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// SetSuppression updates the suppression flag when "enabled" is present and
// returns the flag in effect.
func (s *Server) SetSuppression(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if v, ok := req.GetFields()[fieldEnabled]; ok {
		b, isBool := v.GetKind().(*structpb.Value_BoolValue)
		if !isBool {
			return nil, status.Error(codes.InvalidArgument, "enabled must be a boolean")
		}

		s.manager.SetSuppression(b.BoolValue)
		logger.InfoKV(ctx, "Suppression flag updated", "enabled", b.BoolValue, "operator", operatorFrom(ctx))
	}

	resp, err := structpb.NewStruct(map[string]any{fieldEnabled: s.manager.SuppressionEnabled()})
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode response")
	}

	return resp, nil
}

// Watch streams emitted alarms until the client cancels or the feed closes.
func (s *Server) Watch(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	if s.feed == nil {
		return status.Error(codes.Unavailable, "alarm feed is not configured")
	}

	ctx := stream.Context()

	events, unsubscribe := s.feed.Subscribe()
	defer unsubscribe()

	logger.InfoKV(ctx, "Alarm watcher subscribed", "operator", operatorFrom(ctx))

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Alarm watcher left")

			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}

			msg, err := EncodeEvent(ev)
			if err != nil {
				logger.ErrorKV(ctx, "Failed to encode alarm event", "alarm_id", ev.ID, "error", err)

				continue
			}

			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

// operatorFrom returns the caller identity sent by the injection client.
func operatorFrom(ctx context.Context) string {
	if values := metadata.ValueFromIncomingContext(ctx, OperatorMetadataKey); len(values) > 0 {
		return values[0]
	}

	return "unknown"
}

// toStatus maps handler errors to gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, alarms.ErrUnknownIndication),
		errors.Is(err, alarms.ErrMalformedIndication),
		errors.Is(err, alarms.ErrPayloadMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
