//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oshokin/morning-alarm/internal/config"
	domain "github.com/oshokin/morning-alarm/internal/domain/alarm"
	"github.com/oshokin/morning-alarm/internal/domain/routine"
	pb "github.com/oshokin/morning-alarm/internal/pb/v1"
)

// Client wraps the gRPC AlarmService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm daemon.
	conn *grpc.ClientConn
	// api is the AlarmService client interface.
	api pb.AlarmServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// actor is attached to every call as metadata.
	actor *domain.Actor
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor identifies the caller on every request.
func WithActor(actor *domain.Actor) Option {
	return func(c *Client) {
		c.actor = actor.Clone()
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the alarm daemon.
// Note: this uses insecure transport credentials; the daemon is meant for
// a trusted home network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm server: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         pb.NewAlarmServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// CurrentAlarm retrieves the active alarm, nil when idle.
func (c *Client) CurrentAlarm(ctx context.Context) (*domain.Alarm, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetCurrentAlarm(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get current alarm: %w", err)
	}

	return pb.AlarmFromStruct(resp)
}

// DismissAlarm dismisses the active alarm.
func (c *Client) DismissAlarm(ctx context.Context) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.DismissAlarm(callCtx, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("dismiss alarm: %w", err)
	}

	return nil
}

// TriggerAlarm fires an alarm of kind for the child immediately.
func (c *Client) TriggerAlarm(ctx context.Context, kind domain.Type, childID string) (*domain.Alarm, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.TriggerAlarm(callCtx, pb.NewTriggerRequest(kind, childID))
	if err != nil {
		return nil, fmt.Errorf("trigger alarm: %w", err)
	}

	return pb.AlarmFromStruct(resp)
}

// Roster retrieves the roster and its last update time.
func (c *Client) Roster(ctx context.Context) (routine.Roster, time.Time, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetRoster(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get roster: %w", err)
	}

	return pb.RosterFromStruct(resp)
}

// ToggleTask flips a task and returns the updated child.
func (c *Client) ToggleTask(ctx context.Context, childID, taskID string) (*routine.Child, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ToggleTask(callCtx, pb.NewToggleRequest(childID, taskID))
	if err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}

	return pb.ChildFromStruct(resp)
}

// WatchAlarm calls fn with the current alarm and then after every
// transition until ctx is canceled or the stream ends. The call timeout
// does not apply to the stream.
func (c *Client) WatchAlarm(ctx context.Context, fn func(*domain.Alarm)) error {
	stream, err := c.api.WatchAlarm(c.withActor(ctx), new(emptypb.Empty))
	if err != nil {
		return fmt.Errorf("watch alarm: %w", err)
	}

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("watch alarm: %w", err)
		}

		current, err := pb.AlarmFromStruct(msg)
		if err != nil {
			return fmt.Errorf("decode alarm: %w", err)
		}

		fn(current)
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline. The actor is
// attached as outgoing metadata.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = c.withActor(ctx)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// withActor appends the actor metadata when an actor is set.
func (c *Client) withActor(ctx context.Context) context.Context {
	if c.actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		pb.MetadataActorHostname, c.actor.Hostname,
		pb.MetadataActorUsername, c.actor.Username,
	)
}
