package alarm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
	"github.com/oshokin/morning-alarm/internal/engine"
	pb "github.com/oshokin/morning-alarm/internal/pb/v1"
)

var errDiskFull = errors.New("disk full")

// fakeService implements the Service interface for unit testing the transport.
type fakeService struct {
	// mu guards every field below.
	mu sync.Mutex
	// current is the alarm returned by CurrentAlarm.
	current *domain.Alarm
	// roster is served by Roster and mutated by ToggleTask.
	roster routine.Roster
	// toggleErr overrides ToggleTask's result.
	toggleErr error
	// lastActor is the actor of the latest mutating call.
	lastActor *domain.Actor
	// events feeds Subscribe.
	events chan engine.Event
	// unsubscribed counts unsubscribe calls.
	unsubscribed int
}

func (f *fakeService) CurrentAlarm(context.Context) *domain.Alarm {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.current.Clone()
}

func (f *fakeService) DismissAlarm(_ context.Context, actor *domain.Actor) *domain.Alarm {
	f.mu.Lock()
	defer f.mu.Unlock()

	dismissed := f.current
	f.current = nil
	f.lastActor = actor

	return dismissed
}

func (f *fakeService) TriggerAlarm(
	_ context.Context,
	actor *domain.Actor,
	kind domain.Type,
	childID string,
) (*domain.Alarm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	child := f.roster.Find(childID)
	if child == nil {
		return nil, routine.ErrUnknownChild
	}

	f.lastActor = actor
	f.current = &domain.Alarm{Type: kind, Child: child.Clone(), TriggeredAt: time.Unix(100, 0)}

	return f.current.Clone(), nil
}

func (f *fakeService) Roster(context.Context) (routine.Roster, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.roster.Clone(), time.Unix(50, 0)
}

func (f *fakeService) ToggleTask(_ context.Context, actor *domain.Actor, childID, taskID string) (*routine.Child, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.toggleErr != nil {
		return nil, f.toggleErr
	}

	if _, err := f.roster.ToggleTask(childID, taskID); err != nil {
		return nil, err
	}

	f.lastActor = actor

	return f.roster.Find(childID).Clone(), nil
}

func (f *fakeService) Subscribe() (<-chan engine.Event, func()) {
	return f.events, func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		f.unsubscribed++
	}
}

// newFakeService returns a service over the default roster.
func newFakeService() *fakeService {
	return &fakeService{
		roster: routine.DefaultRoster(),
		events: make(chan engine.Event, 4),
	}
}

// actorContext returns an incoming context carrying actor metadata.
func actorContext() context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		pb.MetadataActorHostname, "kitchen-tablet",
		pb.MetadataActorUsername, "parent",
	))
}

// TestServer_TriggerAndDismiss exercises the alarm methods and actor propagation.
func TestServer_TriggerAndDismiss(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	s := NewServer(svc)
	ctx := actorContext()

	resp, err := s.GetCurrentAlarm(ctx, new(emptypb.Empty))
	require.NoError(t, err)
	require.False(t, resp.GetFields()["active"].GetBoolValue())

	resp, err = s.TriggerAlarm(ctx, pb.NewTriggerRequest(domain.TypeDeparture, "alex"))
	require.NoError(t, err)

	triggered, err := pb.AlarmFromStruct(resp)
	require.NoError(t, err)
	require.Equal(t, domain.TypeDeparture, triggered.Type)
	require.Equal(t, "alex", triggered.ChildID())
	require.Equal(t, &domain.Actor{Hostname: "kitchen-tablet", Username: "parent"}, svc.lastActor)

	resp, err = s.DismissAlarm(ctx, new(emptypb.Empty))
	require.NoError(t, err)
	require.False(t, resp.GetFields()["active"].GetBoolValue())
	require.Nil(t, svc.CurrentAlarm(ctx))

	// Idle dismiss is not an error.
	_, err = s.DismissAlarm(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)
	require.Nil(t, svc.lastActor)
}

// TestServer_TriggerAlarm_Validation maps bad input to gRPC codes.
func TestServer_TriggerAlarm_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(newFakeService())
	ctx := context.Background()

	_, err := s.TriggerAlarm(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.TriggerAlarm(ctx, pb.NewTriggerRequest("nap", "maya"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.TriggerAlarm(ctx, pb.NewTriggerRequest(domain.TypeWakeup, "nobody"))
	require.Equal(t, codes.NotFound, status.Code(err))
}

// TestServer_RosterAndToggle covers reading the roster and toggling tasks.
func TestServer_RosterAndToggle(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	s := NewServer(svc)
	ctx := actorContext()

	resp, err := s.GetRoster(ctx, new(emptypb.Empty))
	require.NoError(t, err)

	roster, lastUpdated, err := pb.RosterFromStruct(resp)
	require.NoError(t, err)
	require.Equal(t, routine.DefaultRoster(), roster)
	require.True(t, time.Unix(50, 0).Equal(lastUpdated))

	resp, err = s.ToggleTask(ctx, pb.NewToggleRequest("maya", "brush"))
	require.NoError(t, err)

	child, err := pb.ChildFromStruct(resp)
	require.NoError(t, err)
	require.True(t, child.Tasks[0].Done)

	_, err = s.ToggleTask(ctx, pb.NewToggleRequest("maya", "fly"))
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.ToggleTask(ctx, pb.NewToggleRequest("", "brush"))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ToggleTask(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	svc.toggleErr = errDiskFull

	_, err = s.ToggleTask(ctx, pb.NewToggleRequest("maya", "brush"))
	require.Equal(t, codes.Internal, status.Code(err))
}

// fakeStream captures messages sent on a WatchAlarm stream.
type fakeStream struct {
	grpc.ServerStream

	// ctx is the stream context.
	ctx context.Context //nolint:containedctx // Mirrors grpc.ServerStream.
	// sent receives every message.
	sent chan *structpb.Struct
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func (f *fakeStream) Send(m *structpb.Struct) error {
	f.sent <- m

	return nil
}

// TestServer_WatchAlarm streams the initial state and each transition.
func TestServer_WatchAlarm(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	stop := make(chan struct{})
	s := NewServer(svc, WithStop(stop))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := &fakeStream{ctx: ctx, sent: make(chan *structpb.Struct, 8)}
	done := make(chan error, 1)

	go func() { done <- s.WatchAlarm(new(emptypb.Empty), stream) }()

	initial := <-stream.sent
	require.False(t, initial.GetFields()["active"].GetBoolValue())

	triggered := &domain.Alarm{Type: domain.TypeWakeup, Child: &routine.Child{ID: "maya"}, TriggeredAt: time.Unix(1, 0)}
	svc.events <- engine.Event{Kind: engine.EventTriggered, Alarm: triggered}

	got, err := pb.AlarmFromStruct(<-stream.sent)
	require.NoError(t, err)
	require.Equal(t, "maya", got.ChildID())

	svc.events <- engine.Event{Kind: engine.EventDismissed, Alarm: triggered}

	got, err = pb.AlarmFromStruct(<-stream.sent)
	require.NoError(t, err)
	require.Nil(t, got)

	close(stop)
	require.Equal(t, codes.Unavailable, status.Code(<-done))

	svc.mu.Lock()
	require.Equal(t, 1, svc.unsubscribed)
	svc.mu.Unlock()
}

// TestServer_WatchAlarm_ClientGone returns cleanly on client cancellation.
func TestServer_WatchAlarm_ClientGone(t *testing.T) {
	t.Parallel()

	s := NewServer(newFakeService())

	ctx, cancel := context.WithCancel(context.Background())
	stream := &fakeStream{ctx: ctx, sent: make(chan *structpb.Struct, 1)}
	done := make(chan error, 1)

	go func() { done <- s.WatchAlarm(new(emptypb.Empty), stream) }()

	<-stream.sent
	cancel()
	require.NoError(t, <-done)
}

// TestActorFromContext reads metadata and tolerates its absence.
func TestActorFromContext(t *testing.T) {
	t.Parallel()

	require.Nil(t, ActorFromContext(context.Background()))
	require.Nil(t, ActorFromContext(metadata.NewIncomingContext(context.Background(), metadata.MD{})))
	require.Equal(t, "parent@kitchen-tablet", ActorFromContext(actorContext()).String())
}
