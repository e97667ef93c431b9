package alarm

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
	"github.com/oshokin/morning-alarm/internal/engine"
	"github.com/oshokin/morning-alarm/internal/logger"
	pb "github.com/oshokin/morning-alarm/internal/pb/v1"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	CurrentAlarm(ctx context.Context) *domain.Alarm
	DismissAlarm(ctx context.Context, actor *domain.Actor) *domain.Alarm
	TriggerAlarm(ctx context.Context, actor *domain.Actor, kind domain.Type, childID string) (*domain.Alarm, error)
	Roster(ctx context.Context) (routine.Roster, time.Time)
	ToggleTask(ctx context.Context, actor *domain.Actor, childID, taskID string) (*routine.Child, error)
	Subscribe() (<-chan engine.Event, func())
}

// Server implements the AlarmService gRPC API.
type Server struct {
	pb.UnimplementedAlarmServiceServer

	// service provides the business logic for alarm operations.
	service Service
	// stop ends open WatchAlarm streams, so graceful shutdown does not hang.
	stop <-chan struct{}
}

// Option configures the server.
type Option func(*Server)

// WithStop ends open streams once stop is closed.
func WithStop(stop <-chan struct{}) Option {
	return func(s *Server) {
		s.stop = stop
	}
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service, opts ...Option) *Server {
	s := &Server{
		service: service,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetCurrentAlarm returns the active alarm, or an inactive message.
func (s *Server) GetCurrentAlarm(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return pb.AlarmToStruct(s.service.CurrentAlarm(ctx)), nil
}

// DismissAlarm dismisses the active alarm. Dismissing while idle succeeds.
func (s *Server) DismissAlarm(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.service.DismissAlarm(ctx, ActorFromContext(ctx))

	return pb.AlarmToStruct(nil), nil
}

// TriggerAlarm fires an alarm for a child regardless of the schedule.
func (s *Server) TriggerAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	kind, childID, err := pb.ParseTriggerRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	triggered, err := s.service.TriggerAlarm(ctx, ActorFromContext(ctx), kind, childID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return pb.AlarmToStruct(triggered), nil
}

// GetRoster returns the ordered roster.
func (s *Server) GetRoster(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	roster, lastUpdated := s.service.Roster(ctx)

	return pb.RosterToStruct(roster, lastUpdated), nil
}

// ToggleTask flips a task's completion and returns the updated child.
func (s *Server) ToggleTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	childID, taskID, err := pb.ParseToggleRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	child, err := s.service.ToggleTask(ctx, ActorFromContext(ctx), childID, taskID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return pb.ChildToStruct(child), nil
}

// WatchAlarm sends the current alarm and then every transition until the
// client goes away or the server stops.
func (s *Server) WatchAlarm(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	// Subscribe before reading the current alarm so no transition is missed.
	events, unsubscribe := s.service.Subscribe()
	defer unsubscribe()

	if err := stream.Send(pb.AlarmToStruct(s.service.CurrentAlarm(ctx))); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Watcher connected", "actor", ActorFromContext(ctx))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return status.Error(codes.Unavailable, "server is shutting down")
		case event, ok := <-events:
			if !ok {
				return nil
			}

			current := event.Alarm
			if event.Kind == engine.EventDismissed {
				current = nil
			}

			if err := stream.Send(pb.AlarmToStruct(current)); err != nil {
				return err
			}
		}
	}
}

// ActorFromContext reads the requesting actor from incoming metadata.
// It returns nil when the client did not identify itself.
func ActorFromContext(ctx context.Context) *domain.Actor {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	actor := &domain.Actor{
		Hostname: first(md.Get(pb.MetadataActorHostname)),
		Username: first(md.Get(pb.MetadataActorUsername)),
	}

	if actor.Hostname == "" && actor.Username == "" {
		return nil
	}

	return actor
}

// first returns the first metadata value or "".
func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// toStatus maps service errors to gRPC status codes.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, routine.ErrUnknownChild), errors.Is(err, routine.ErrUnknownTask):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, pb.ErrMalformedMessage), errors.Is(err, domain.ErrUnknownType):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		logger.ErrorKV(ctx, "Request failed", "error", err)

		return status.Error(codes.Internal, "unable to complete request")
	}
}
