package inject

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/olt-alarms/internal/api/grpc/simulator"
	"github.com/oshokin/olt-alarms/internal/config"
	"github.com/oshokin/olt-alarms/internal/domain/indication"
	"github.com/oshokin/olt-alarms/internal/emitter"
)

// Client wraps the IndicationService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the alarm manager.
	conn *grpc.ClientConn
	// api is the IndicationService client.
	api *api.Client

	// callTimeout is the default timeout for unary calls.
	callTimeout time.Duration
	// operator is sent with every call for the manager's audit log.
	operator string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for unary calls. Watch is not bounded by it.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithOperator sets the user@host identity attached to every call.
func WithOperator(operator string) Option {
	return func(c *Client) {
		c.operator = operator
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial creates a client for the alarm manager at address.
// The connection uses insecure transport credentials; the service is meant
// for a management network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm manager: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewClient(conn),
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

// Dispatch sends ind through the remote dispatcher.
func (c *Client) Dispatch(ctx context.Context, ind indication.Indication) error {
	msg, err := api.EncodeIndication(ind)
	if err != nil {
		return err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Dispatch(callCtx, msg); err != nil {
		return fmt.Errorf("dispatch indication: %w", err)
	}

	return nil
}

// Simulate runs ind through its remote handler and returns any handler error.
func (c *Client) Simulate(ctx context.Context, ind indication.Indication) error {
	msg, err := api.EncodeIndication(ind)
	if err != nil {
		return err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if _, err := c.api.Simulate(callCtx, msg); err != nil {
		return fmt.Errorf("simulate indication: %w", err)
	}

	return nil
}

// SetSuppression sets the remote suppression flag when enabled is non-nil
// and returns the flag in effect.
func (c *Client) SetSuppression(ctx context.Context, enabled *bool) (bool, error) {
	req := new(structpb.Struct)
	if enabled != nil {
		req.Fields = map[string]*structpb.Value{"enabled": structpb.NewBoolValue(*enabled)}
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.SetSuppression(callCtx, req)
	if err != nil {
		return false, fmt.Errorf("set suppression: %w", err)
	}

	return resp.GetFields()["enabled"].GetBoolValue(), nil
}

// Watch calls fn for every alarm the manager emits until ctx is done,
// the stream ends or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(emitter.Event) error) error {
	stream, err := c.api.Watch(c.withOperator(ctx))
	if err != nil {
		return fmt.Errorf("open watch stream: %w", err)
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

			return fmt.Errorf("receive alarm event: %w", err)
		}

		ev, err := api.DecodeEvent(msg)
		if err != nil {
			return err
		}

		if err := fn(ev); err != nil {
			return err
		}
	}
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = c.withOperator(ctx)

	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

func (c *Client) withOperator(ctx context.Context) context.Context {
	if c.operator == "" {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, api.OperatorMetadataKey, c.operator)
}
